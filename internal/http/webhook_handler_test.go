package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedromirror/talkcart-web-sub009/internal/domain"
	"github.com/cedromirror/talkcart-web-sub009/internal/ledger"
	"github.com/cedromirror/talkcart-web-sub009/internal/repository"
	"github.com/cedromirror/talkcart-web-sub009/internal/service"
)

const (
	testStripeSecret   = "whsec_test"
	testFlutterwaveKey = "flw-verif-hash"
)

// stubCartRepo has no carts; SetPaymentStatus reporting not-found exercises
// the tolerated miss path in the webhook service.
type stubCartRepo struct{}

func (stubCartRepo) GetCart(context.Context, string) (*domain.Cart, error) {
	return nil, repository.ErrCartNotFound
}

func (stubCartRepo) UpsertCart(context.Context, *domain.Cart) error { return nil }

func (stubCartRepo) SetPaymentStatus(context.Context, string, string) error {
	return repository.ErrCartNotFound
}

func newWebhookRouter() http.Handler {
	webhooks := service.NewWebhookService(ledger.NewMemoryLedger(), stubCartRepo{}, nil)
	handler := NewWebhookHandler(webhooks, testStripeSecret, testFlutterwaveKey)
	r := chi.NewRouter()
	r.Post("/api/v1/webhooks/{provider}", handler.HandleEvent)
	return r
}

func stripeSignature(timestamp string, body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s.%s", timestamp, body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookHandler_StripeValidSignature(t *testing.T) {
	router := newWebhookRouter()
	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`)
	sig := stripeSignature("1725000000", body, testStripeSecret)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(string(body)))
	req.Header.Set("Stripe-Signature", "t=1725000000,v1="+sig)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["received"])
	assert.Equal(t, false, resp["duplicate"])
}

func TestWebhookHandler_StripeRedeliveryAcknowledgedAsDuplicate(t *testing.T) {
	router := newWebhookRouter()
	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`)
	sig := stripeSignature("1725000000", body, testStripeSecret)

	for i, wantDuplicate := range []bool{false, true} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(string(body)))
		req.Header.Set("Stripe-Signature", "t=1725000000,v1="+sig)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, "delivery %d", i)
		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, wantDuplicate, resp["duplicate"], "delivery %d", i)
	}
}

func TestWebhookHandler_StripeBadSignature(t *testing.T) {
	router := newWebhookRouter()
	body := `{"id":"evt_1","data":{"object":{"id":"pi_1"}}}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", "t=1725000000,v1=deadbeef")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookHandler_StripeMissingSignature(t *testing.T) {
	router := newWebhookRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookHandler_FlutterwaveValidHash(t *testing.T) {
	router := newWebhookRouter()
	body := `{"event":"charge.completed","data":{"id":12345,"tx_ref":"talkcart-001"}}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/flutterwave", strings.NewReader(body))
	req.Header.Set("verif-hash", testFlutterwaveKey)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookHandler_FlutterwaveWrongHash(t *testing.T) {
	router := newWebhookRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/flutterwave", strings.NewReader(`{"data":{"id":12345}}`))
	req.Header.Set("verif-hash", "wrong")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookHandler_UnknownProvider(t *testing.T) {
	router := newWebhookRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paypal", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhookHandler_UnparseablePayload(t *testing.T) {
	router := newWebhookRouter()
	body := []byte(`{"id":"evt_1","data":{"object":{}}}`)
	sig := stripeSignature("1725000000", body, testStripeSecret)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(string(body)))
	req.Header.Set("Stripe-Signature", "t=1725000000,v1="+sig)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
