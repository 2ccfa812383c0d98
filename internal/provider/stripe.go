package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cedromirror/talkcart-web-sub009/internal/domain"
)

const defaultStripeBaseURL = "https://api.stripe.com"

// StripeClient verifies charges by retrieving the payment intent named in
// the proof. One outbound call per verification, no local state.
type StripeClient struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

func NewStripeClient(secretKey string, opts ...StripeOption) *StripeClient {
	c := &StripeClient{
		baseURL:   defaultStripeBaseURL,
		secretKey: secretKey,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type StripeOption func(*StripeClient)

func WithStripeBaseURL(url string) StripeOption {
	return func(c *StripeClient) { c.baseURL = strings.TrimRight(url, "/") }
}

func WithStripeHTTPClient(client *http.Client) StripeOption {
	return func(c *StripeClient) { c.client = client }
}

type stripePaymentIntent struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	AmountReceived int64  `json:"amount_received"`
	Currency       string `json:"currency"`
}

func (c *StripeClient) VerifyCharge(ctx context.Context, proof domain.PaymentProof) (*ChargeVerification, error) {
	url := fmt.Sprintf("%s/v1/payment_intents/%s", c.baseURL, proof.PaymentIntentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: stripe returned %d", ErrVerificationFailed, resp.StatusCode)
	}

	var intent stripePaymentIntent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if intent.ID == "" || intent.Status == "" {
		return nil, fmt.Errorf("%w: missing id or status", ErrInvalidResponse)
	}

	return &ChargeVerification{
		Status:       normalizeStripeStatus(intent.Status),
		AmountMinor:  intent.AmountReceived,
		Currency:     strings.ToUpper(intent.Currency),
		ProviderTxID: intent.ID,
	}, nil
}

func normalizeStripeStatus(status string) string {
	switch status {
	case "succeeded":
		return StatusSucceeded
	case "processing", "requires_action", "requires_confirmation", "requires_payment_method", "requires_capture":
		return StatusPending
	default:
		return StatusFailed
	}
}
