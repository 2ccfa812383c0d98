package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/cedromirror/talkcart-web-sub009/internal/domain"
	"github.com/cedromirror/talkcart-web-sub009/internal/service"
)

// CheckoutRunner is the slice of the checkout service the handler needs;
// tests substitute a stub.
type CheckoutRunner interface {
	Checkout(ctx context.Context, request *service.CheckoutRequest) (*service.CheckoutResult, error)
}

type CheckoutHandler struct {
	checkout CheckoutRunner
}

func NewCheckoutHandler(checkout CheckoutRunner) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type CheckoutRequestDTO struct {
	PaymentMethod  string                `json:"paymentMethod"`
	PaymentDetails []domain.PaymentProof `json:"paymentDetails"`
}

type CheckoutResponseDTO struct {
	OrderID        string             `json:"orderId"`
	OrderNumber    string             `json:"orderNumber"`
	ProcessedItems []domain.OrderItem `json:"processedItems"`
}

// POST /api/v1/cart/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondEnvelopeError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondEnvelopeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.PaymentDetails) == 0 {
		respondEnvelopeError(w, http.StatusBadRequest, "paymentDetails is required")
		return
	}

	result, err := h.checkout.Checkout(r.Context(), &service.CheckoutRequest{
		UserID: userID,
		Proofs: req.PaymentDetails,
	})
	if err != nil {
		handleCheckoutError(w, r, err)
		return
	}

	respondEnvelope(w, http.StatusOK, CheckoutResponseDTO{
		OrderID:        result.OrderID,
		OrderNumber:    result.OrderNumber,
		ProcessedItems: result.ProcessedItems,
	})
}

// handleCheckoutError maps the checkout error taxonomy onto HTTP statuses:
// client mistakes are 4xx, verification mismatches are 402, conflicts over
// shared state are 409, everything unexpected is 500 with a generic message
// so provider errors never leak raw to clients.
func handleCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var invalid *service.PaymentInvalidError
	var outOfStock *service.InsufficientStockError
	var partial *service.PartialFailureError

	switch {
	case errors.Is(err, service.ErrEmptyCart):
		respondEnvelopeError(w, http.StatusBadRequest, "cart is empty")
	case errors.Is(err, service.ErrIncompletePayment):
		respondEnvelopeError(w, http.StatusBadRequest, "a payment proof is missing for part of the cart")
	case errors.As(err, &invalid):
		respondEnvelopeError(w, http.StatusPaymentRequired, "payment not completed or invalid")
	case errors.Is(err, service.ErrDuplicatePayment):
		respondEnvelopeError(w, http.StatusConflict, "this payment was already used for another order")
	case errors.As(err, &outOfStock):
		respondEnvelopeError(w, http.StatusConflict, "insufficient stock for product "+outOfStock.ProductID)
	case errors.As(err, &partial):
		log.Printf("[%s] checkout partial failure: %v", getRequestID(r.Context()), err)
		respondEnvelopeError(w, http.StatusInternalServerError, "checkout failed, support has been notified")
	default:
		log.Printf("[%s] checkout error: %v", getRequestID(r.Context()), err)
		respondEnvelopeError(w, http.StatusInternalServerError, "checkout failed")
	}
}
