package domain

import "errors"

type Provider string

const (
	ProviderStripe      Provider = "stripe"
	ProviderFlutterwave Provider = "flutterwave"
)

var ErrUnknownProvider = errors.New("unknown payment provider")

// PaymentProof carries the provider-specific identifiers a client submits
// for one currency group. Only the fields belonging to the named provider
// are meaningful; Validate enforces that at the boundary so nothing
// downstream has to deal with an untyped bag.
type PaymentProof struct {
	Provider Provider `json:"provider"`
	Currency string   `json:"currency"`

	// Stripe
	PaymentIntentID string `json:"payment_intent_id,omitempty"`

	// Flutterwave
	TxRef   string `json:"tx_ref,omitempty"`
	FlwTxID string `json:"flw_tx_id,omitempty"`
}

func (p PaymentProof) Validate() error {
	switch p.Provider {
	case ProviderStripe:
		if p.PaymentIntentID == "" {
			return errors.New("stripe proof requires payment_intent_id")
		}
	case ProviderFlutterwave:
		if p.TxRef == "" || p.FlwTxID == "" {
			return errors.New("flutterwave proof requires tx_ref and flw_tx_id")
		}
	default:
		return ErrUnknownProvider
	}
	if p.Currency == "" {
		return errors.New("proof requires currency")
	}
	return nil
}

// EventID returns the identifier used as the idempotency key for this proof.
func (p PaymentProof) EventID() string {
	if p.Provider == ProviderFlutterwave {
		return p.FlwTxID
	}
	return p.PaymentIntentID
}
