package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sony/gobreaker/v2"

	"github.com/cedromirror/talkcart-web-sub009/internal/domain"
)

// Charge statuses as normalized from provider responses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusPending   = "pending"
)

var (
	// ErrVerificationFailed covers network errors, timeouts and non-2xx
	// provider responses. The adapter never retries; retry policy belongs
	// to the caller.
	ErrVerificationFailed = errors.New("charge verification failed")

	// ErrInvalidResponse means the provider answered 2xx with a body we
	// could not interpret.
	ErrInvalidResponse = errors.New("invalid provider response")
)

// ChargeVerification is the provider-confirmed truth about a charge. The
// adapter returns only what the provider reports, never anything the client
// declared.
type ChargeVerification struct {
	Status       string
	AmountMinor  int64
	Currency     string
	ProviderTxID string
}

func (v *ChargeVerification) Succeeded() bool {
	return v.Status == StatusSucceeded
}

// Verifier looks up a remote charge by its provider-specific reference.
type Verifier interface {
	VerifyCharge(ctx context.Context, proof domain.PaymentProof) (*ChargeVerification, error)
}

// Adapter routes a payment proof to the verifier for its provider, wrapping
// each remote call in a per-provider circuit breaker.
type Adapter struct {
	verifiers map[domain.Provider]Verifier
	breakers  map[domain.Provider]*gobreaker.CircuitBreaker[*ChargeVerification]
}

func NewAdapter() *Adapter {
	return &Adapter{
		verifiers: make(map[domain.Provider]Verifier),
		breakers:  make(map[domain.Provider]*gobreaker.CircuitBreaker[*ChargeVerification]),
	}
}

func (a *Adapter) Register(p domain.Provider, v Verifier) {
	a.verifiers[p] = v
	a.breakers[p] = gobreaker.NewCircuitBreaker[*ChargeVerification](gobreaker.Settings{
		Name: string(p),
	})
}

func (a *Adapter) VerifyCharge(ctx context.Context, proof domain.PaymentProof) (*ChargeVerification, error) {
	if err := proof.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}
	v, ok := a.verifiers[proof.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownProvider, proof.Provider)
	}

	result, err := a.breakers[proof.Provider].Execute(func() (*ChargeVerification, error) {
		return v.VerifyCharge(ctx, proof)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
		}
		return nil, err
	}
	return result, nil
}

// minorUnits converts a major-unit amount to minor units for the currency.
// Most currencies the platform supports have exponent 2; zero-decimal
// currencies are special-cased.
func minorUnits(amount float64, currency string) int64 {
	switch strings.ToUpper(currency) {
	case "JPY", "KRW", "VND", "XAF", "XOF":
		return int64(amount + 0.5)
	default:
		return int64(amount*100 + 0.5)
	}
}
