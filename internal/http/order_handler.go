package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cedromirror/talkcart-web-sub009/internal/repository"
)

type OrderHandler struct {
	orders repository.OrderRepository
}

func NewOrderHandler(orders repository.OrderRepository) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// GET /api/v1/orders/{order_number}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}
	orderNumber := chi.URLParam(r, "order_number")

	order, err := h.orders.GetOrder(r.Context(), userID, orderNumber)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "order not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load order")
		return
	}

	respondJSON(w, http.StatusOK, order)
}
