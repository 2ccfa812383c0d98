package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cedromirror/talkcart-web-sub009/internal/domain"
	"github.com/cedromirror/talkcart-web-sub009/internal/ledger"
	"github.com/cedromirror/talkcart-web-sub009/internal/service"
)

const maxWebhookBody = 1 << 20 // 1MB

// WebhookHandler receives provider event deliveries, checks the signature
// at the boundary and hands the event to the idempotent processor.
type WebhookHandler struct {
	webhooks       *service.WebhookService
	stripeSecret   string
	flutterwaveKey string
}

func NewWebhookHandler(webhooks *service.WebhookService, stripeSecret, flutterwaveKey string) *WebhookHandler {
	return &WebhookHandler{
		webhooks:       webhooks,
		stripeSecret:   stripeSecret,
		flutterwaveKey: flutterwaveKey,
	}
}

// POST /api/v1/webhooks/{provider}
func (h *WebhookHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	providerName := domain.Provider(chi.URLParam(r, "provider"))

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "failed to read body")
		return
	}

	var eventID, chargeRef string
	switch providerName {
	case domain.ProviderStripe:
		if !verifyStripeSignature(r.Header.Get("Stripe-Signature"), body, h.stripeSecret) {
			respondError(w, http.StatusBadRequest, "invalid_signature", "signature verification failed")
			return
		}
		eventID, chargeRef, err = parseStripeEvent(body)
	case domain.ProviderFlutterwave:
		if h.flutterwaveKey == "" || !hmac.Equal([]byte(r.Header.Get("verif-hash")), []byte(h.flutterwaveKey)) {
			respondError(w, http.StatusBadRequest, "invalid_signature", "signature verification failed")
			return
		}
		eventID, chargeRef, err = parseFlutterwaveEvent(body)
	default:
		respondError(w, http.StatusNotFound, "not_found", "unknown provider")
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "unparseable event payload")
		return
	}

	outcome, err := h.webhooks.ProcessEvent(r.Context(), providerName, eventID, chargeRef, body)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to process event")
		return
	}

	// Duplicates are acknowledged like fresh events; the provider only
	// needs to know delivery succeeded.
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"received":  true,
		"duplicate": outcome == ledger.Duplicate,
	})
}

// verifyStripeSignature checks the v1 scheme: HMAC-SHA256 of "{t}.{body}"
// keyed by the endpoint secret.
func verifyStripeSignature(header string, body []byte, secret string) bool {
	if header == "" || secret == "" {
		return false
	}
	var timestamp, signature string
	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			timestamp = v
		case "v1":
			signature = v
		}
	}
	if timestamp == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s.%s", timestamp, body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func parseStripeEvent(body []byte) (eventID, chargeRef string, err error) {
	var event struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID string `json:"id"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		return "", "", err
	}
	if event.Data.Object.ID == "" {
		return "", "", fmt.Errorf("missing payment intent id")
	}
	// The payment intent id is the idempotency key, matching what the
	// synchronous checkout path records.
	return event.Data.Object.ID, event.Data.Object.ID, nil
}

func parseFlutterwaveEvent(body []byte) (eventID, chargeRef string, err error) {
	var event struct {
		Event string `json:"event"`
		Data  struct {
			ID    int64  `json:"id"`
			TxRef string `json:"tx_ref"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		return "", "", err
	}
	if event.Data.ID == 0 {
		return "", "", fmt.Errorf("missing transaction id")
	}
	id := fmt.Sprint(event.Data.ID)
	return id, id, nil
}
