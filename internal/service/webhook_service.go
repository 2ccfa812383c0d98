package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/cedromirror/talkcart-web-sub009/internal/domain"
	"github.com/cedromirror/talkcart-web-sub009/internal/ledger"
	"github.com/cedromirror/talkcart-web-sub009/internal/repository"
	"github.com/cedromirror/talkcart-web-sub009/pkg/metrics"
)

// PaymentStatusSettled marks a cart payment record confirmed by the
// provider's asynchronous webhook.
const PaymentStatusSettled = "settled"

// WebhookService ingests provider event deliveries. Providers redeliver at
// least once; the same ledger that guards the synchronous checkout path
// makes ingestion idempotent no matter which path sees an event first.
type WebhookService struct {
	ledger  ledger.Ledger
	carts   repository.CartRepository
	metrics *metrics.CheckoutMetrics
}

func NewWebhookService(idempotency ledger.Ledger, carts repository.CartRepository, m *metrics.CheckoutMetrics) *WebhookService {
	return &WebhookService{ledger: idempotency, carts: carts, metrics: m}
}

// ProcessEvent records the event and, when fresh, marks the matching cart
// payment record settled. A Duplicate outcome is success-without-reapplication.
func (s *WebhookService) ProcessEvent(ctx context.Context, provider domain.Provider, eventID, chargeRef string, payload []byte) (ledger.Outcome, error) {
	if eventID == "" {
		return ledger.Duplicate, fmt.Errorf("event id is required")
	}

	outcome, err := s.ledger.CheckAndRecord(ctx, provider, eventID, ledger.SourceWebhook, payload)
	if err != nil {
		return outcome, fmt.Errorf("failed to record webhook event: %w", err)
	}
	if s.metrics != nil {
		s.metrics.LedgerEvents.WithLabelValues(ledger.SourceWebhook, outcome.String()).Inc()
	}

	if outcome == ledger.Fresh && chargeRef != "" {
		if err := s.carts.SetPaymentStatus(ctx, chargeRef, PaymentStatusSettled); err != nil {
			// The charge may simply belong to a checkout that has not
			// touched a cart payment record yet.
			if !errors.Is(err, repository.ErrCartNotFound) {
				log.Printf("failed to settle payment record %s: %v", chargeRef, err)
			}
		}
	}

	return outcome, nil
}
