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

const defaultFlutterwaveBaseURL = "https://api.flutterwave.com"

// FlutterwaveClient verifies a transaction by its flw_tx_id and cross-checks
// the tx_ref from the proof against the one the provider reports.
type FlutterwaveClient struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

func NewFlutterwaveClient(secretKey string, opts ...FlutterwaveOption) *FlutterwaveClient {
	c := &FlutterwaveClient{
		baseURL:   defaultFlutterwaveBaseURL,
		secretKey: secretKey,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type FlutterwaveOption func(*FlutterwaveClient)

func WithFlutterwaveBaseURL(url string) FlutterwaveOption {
	return func(c *FlutterwaveClient) { c.baseURL = strings.TrimRight(url, "/") }
}

func WithFlutterwaveHTTPClient(client *http.Client) FlutterwaveOption {
	return func(c *FlutterwaveClient) { c.client = client }
}

type flutterwaveVerifyResponse struct {
	Status string `json:"status"`
	Data   struct {
		ID       int64   `json:"id"`
		TxRef    string  `json:"tx_ref"`
		Status   string  `json:"status"`
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	} `json:"data"`
}

func (c *FlutterwaveClient) VerifyCharge(ctx context.Context, proof domain.PaymentProof) (*ChargeVerification, error) {
	url := fmt.Sprintf("%s/v3/transactions/%s/verify", c.baseURL, proof.FlwTxID)
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
		return nil, fmt.Errorf("%w: flutterwave returned %d", ErrVerificationFailed, resp.StatusCode)
	}

	var body flutterwaveVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if body.Status != "success" || body.Data.ID == 0 {
		return nil, fmt.Errorf("%w: envelope status %q", ErrInvalidResponse, body.Status)
	}
	if body.Data.TxRef != proof.TxRef {
		// A mismatched tx_ref means the proof points at someone else's
		// transaction; treat it as a failed charge, not a transport error.
		return &ChargeVerification{
			Status:       StatusFailed,
			ProviderTxID: fmt.Sprint(body.Data.ID),
		}, nil
	}

	currency := strings.ToUpper(body.Data.Currency)
	return &ChargeVerification{
		Status:       normalizeFlutterwaveStatus(body.Data.Status),
		AmountMinor:  minorUnits(body.Data.Amount, currency),
		Currency:     currency,
		ProviderTxID: fmt.Sprint(body.Data.ID),
	}, nil
}

func normalizeFlutterwaveStatus(status string) string {
	switch strings.ToLower(status) {
	case "successful":
		return StatusSucceeded
	case "pending":
		return StatusPending
	default:
		return StatusFailed
	}
}
