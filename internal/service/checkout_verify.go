package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cedromirror/talkcart-web-sub009/internal/domain"
	"github.com/cedromirror/talkcart-web-sub009/internal/ledger"
	"github.com/cedromirror/talkcart-web-sub009/internal/provider"
)

// verifiedGroup pairs a currency group with its proof and, after the
// verifying phase, the provider-confirmed charge.
type verifiedGroup struct {
	group        domain.CurrencyGroup
	proof        domain.PaymentProof
	verification *provider.ChargeVerification
}

// matchProofs pairs every currency group in the snapshot with exactly one
// payment proof. A group without a proof fails the attempt; surplus proofs
// for currencies not in the cart are ignored.
func matchProofs(snapshot *domain.CartSnapshot, proofs []domain.PaymentProof) ([]*verifiedGroup, error) {
	byCurrency := make(map[string]domain.PaymentProof, len(proofs))
	for _, proof := range proofs {
		if err := proof.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIncompletePayment, err)
		}
		byCurrency[proof.Currency] = proof
	}

	groups := make([]*verifiedGroup, 0, len(snapshot.Groups))
	for _, group := range snapshot.Groups {
		proof, ok := byCurrency[group.Currency]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrIncompletePayment, group.Currency)
		}
		groups = append(groups, &verifiedGroup{group: group, proof: proof})
	}
	return groups, nil
}

// verifyGroups checks every group's charge with its provider. All groups
// must verify before anything mutates; one bad group fails the whole cart.
// Groups are verified sequentially — the all-or-nothing invariant holds
// regardless of order, and sequential keeps provider error attribution
// simple.
func (s *CheckoutService) verifyGroups(ctx context.Context, groups []*verifiedGroup) error {
	for _, vg := range groups {
		start := time.Now()
		verification, err := s.verifier.VerifyCharge(ctx, vg.proof)
		if s.metrics != nil {
			s.metrics.ProviderLatencyMS.WithLabelValues(string(vg.proof.Provider)).
				Observe(float64(time.Since(start).Milliseconds()))
		}
		if err != nil {
			return err
		}

		if !verification.Succeeded() {
			return &PaymentInvalidError{
				Provider: vg.proof.Provider,
				Currency: vg.group.Currency,
				Reason:   fmt.Sprintf("charge status is %q", verification.Status),
			}
		}
		if verification.AmountMinor != vg.group.AmountMinor {
			return &PaymentInvalidError{
				Provider: vg.proof.Provider,
				Currency: vg.group.Currency,
				Reason: fmt.Sprintf("amount mismatch: charged %d, expected %d",
					verification.AmountMinor, vg.group.AmountMinor),
			}
		}
		if verification.Currency != vg.group.Currency {
			return &PaymentInvalidError{
				Provider: vg.proof.Provider,
				Currency: vg.group.Currency,
				Reason:   fmt.Sprintf("currency mismatch: charged in %s", verification.Currency),
			}
		}

		vg.verification = verification
	}
	return nil
}

// guardReplay records each verified charge in the idempotency ledger. A
// duplicate whose record came from another checkout means the charge is
// already being spent, whether or not that checkout has reached LinkOrder
// yet; only a webhook-sourced record without a link is the asynchronous
// delivery racing ahead, and the checkout may proceed and claim it.
func (s *CheckoutService) guardReplay(ctx context.Context, groups []*verifiedGroup) error {
	for _, vg := range groups {
		payload, err := json.Marshal(vg.verification)
		if err != nil {
			return fmt.Errorf("failed to marshal verification: %w", err)
		}

		outcome, err := s.ledger.CheckAndRecord(ctx, vg.proof.Provider, vg.proof.EventID(), ledger.SourceCheckout, payload)
		if err != nil {
			return fmt.Errorf("failed to check idempotency: %w", err)
		}
		s.countLedger(ledger.SourceCheckout, outcome)

		if outcome == ledger.Duplicate {
			rec, err := s.ledger.Get(ctx, vg.proof.Provider, vg.proof.EventID())
			if err != nil && !errors.Is(err, ledger.ErrRecordNotFound) {
				return fmt.Errorf("failed to read ledger record: %w", err)
			}
			if rec != nil && (rec.LinkedOrder != "" || rec.Source == ledger.SourceCheckout) {
				return ErrDuplicatePayment
			}
		}
	}
	return nil
}

func (s *CheckoutService) countLedger(source string, outcome ledger.Outcome) {
	if s.metrics != nil {
		s.metrics.LedgerEvents.WithLabelValues(source, outcome.String()).Inc()
	}
}
