package service

import (
	"context"
	"fmt"
	"log"

	"github.com/cedromirror/talkcart-web-sub009/internal/domain"
	"github.com/cedromirror/talkcart-web-sub009/internal/ledger"
	"github.com/cedromirror/talkcart-web-sub009/internal/provider"
	"github.com/cedromirror/talkcart-web-sub009/internal/repository"
	"github.com/cedromirror/talkcart-web-sub009/internal/stock"
	"github.com/cedromirror/talkcart-web-sub009/pkg/metrics"
)

type CheckoutRequest struct {
	UserID string
	Proofs []domain.PaymentProof
}

type CheckoutResult struct {
	OrderID        string
	OrderNumber    string
	ProcessedItems []domain.OrderItem
}

// CheckoutService drives the checkout state machine: verify every currency
// group against its provider, guard against replays through the idempotency
// ledger, reserve stock with full rollback on any failure, then commit the
// order and clear the cart.
type CheckoutService struct {
	cart     *CartService
	verifier provider.Verifier
	ledger   ledger.Ledger
	stock    stock.Store
	orders   repository.OrderRepository
	outbox   repository.OutboxRepository
	metrics  *metrics.CheckoutMetrics
}

func NewCheckoutService(
	cart *CartService,
	verifier provider.Verifier,
	idempotency ledger.Ledger,
	stockStore stock.Store,
	orders repository.OrderRepository,
	outbox repository.OutboxRepository,
	m *metrics.CheckoutMetrics,
) *CheckoutService {
	return &CheckoutService{
		cart:     cart,
		verifier: verifier,
		ledger:   idempotency,
		stock:    stockStore,
		orders:   orders,
		outbox:   outbox,
		metrics:  m,
	}
}

// Checkout runs one attempt end to end. Verification happens for every
// currency group before any stock is touched; that ordering is what keeps a
// partial charge from ever causing partial fulfillment.
func (s *CheckoutService) Checkout(ctx context.Context, request *CheckoutRequest) (*CheckoutResult, error) {
	status := domain.CheckoutStatusInitiated

	snapshot, err := s.cart.SnapshotForCheckout(ctx, request.UserID)
	if err != nil {
		return nil, s.fail(&status, fmt.Errorf("failed to snapshot cart: %w", err))
	}
	if snapshot.Empty() {
		return nil, s.fail(&status, ErrEmptyCart)
	}

	groups, err := matchProofs(snapshot, request.Proofs)
	if err != nil {
		return nil, s.fail(&status, err)
	}

	if err := advance(&status, domain.CheckoutStatusVerifying); err != nil {
		return nil, err
	}
	if err := s.verifyGroups(ctx, groups); err != nil {
		return nil, s.fail(&status, err)
	}
	if err := s.guardReplay(ctx, groups); err != nil {
		return nil, s.fail(&status, err)
	}

	// From here on state gets mutated. A dropped client connection must not
	// abandon half-applied stock or ledger writes, so the mutating phase is
	// detached from the request's cancellation.
	mctx := context.WithoutCancel(ctx)

	if err := advance(&status, domain.CheckoutStatusReserving); err != nil {
		return nil, err
	}
	reserved, err := s.reserveAll(mctx, snapshot)
	if err != nil {
		return nil, s.fail(&status, err)
	}

	if err := advance(&status, domain.CheckoutStatusCommitting); err != nil {
		return nil, err
	}
	result, err := s.commit(mctx, snapshot, groups)
	if err != nil {
		s.releaseAll(mctx, reserved)
		status = domain.CheckoutStatusPartiallyFailed
		s.countOutcome(status)
		partial := &PartialFailureError{Stage: "commit", Cause: err}
		log.Printf("PARTIALLY_FAILED checkout for user %s: %v", request.UserID, partial)
		s.recordReconciliation(mctx, request.UserID, snapshot, err)
		return nil, partial
	}

	status = domain.CheckoutStatusCompleted
	s.countOutcome(status)
	return result, nil
}

func advance(status *domain.CheckoutStatus, to domain.CheckoutStatus) error {
	if !domain.CanTransitionTo(*status, to) {
		return IllegalTransitionError
	}
	*status = to
	return nil
}

func (s *CheckoutService) fail(status *domain.CheckoutStatus, err error) error {
	if domain.CanTransitionTo(*status, domain.CheckoutStatusFailed) {
		*status = domain.CheckoutStatusFailed
	}
	s.countOutcome(*status)
	return err
}

func (s *CheckoutService) countOutcome(status domain.CheckoutStatus) {
	if s.metrics != nil {
		s.metrics.Checkouts.WithLabelValues(status.String()).Inc()
	}
}
