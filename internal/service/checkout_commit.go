package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/cedromirror/talkcart-web-sub009/internal/domain"
)

const (
	EventCheckoutCompleted      = "checkout.completed"
	EventCheckoutReconciliation = "checkout.reconciliation"
)

// commit persists the order, links the consumed charges in the ledger,
// appends the payment records to the cart and clears it. Order persistence
// is the commit point: if it fails the caller rolls the reservations back;
// everything after it is follow-up that degrades to logging.
func (s *CheckoutService) commit(ctx context.Context, snapshot *domain.CartSnapshot, groups []*verifiedGroup) (*CheckoutResult, error) {
	now := time.Now().UTC()
	order := &domain.Order{
		OrderNumber: domain.NewOrderNumber(now),
		UserID:      snapshot.UserID,
		Status:      domain.OrderStatusPending,
		StatusTimes: map[string]time.Time{string(domain.OrderStatusPending): now},
		CreatedAt:   now,
		Totals:      map[string]int64{},
	}
	for _, item := range snapshot.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:  item.ProductID,
			Name:       item.Name,
			PriceMinor: item.PriceMinor,
			Currency:   item.Currency,
			Quantity:   item.Quantity,
			IsNFT:      item.IsNFT,
		})
		order.Totals[item.Currency] += item.PriceMinor * item.Quantity
	}
	records := make([]domain.PaymentRecord, 0, len(groups))
	for _, vg := range groups {
		order.Payments = append(order.Payments, domain.OrderPayment{
			Provider:     string(vg.proof.Provider),
			Currency:     vg.group.Currency,
			AmountMinor:  vg.verification.AmountMinor,
			ProviderTxID: vg.verification.ProviderTxID,
		})
		records = append(records, domain.PaymentRecord{
			Provider:    string(vg.proof.Provider),
			Currency:    vg.group.Currency,
			AmountMinor: vg.verification.AmountMinor,
			ChargeRef:   vg.verification.ProviderTxID,
			Status:      vg.verification.Status,
		})
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	// The order exists; the remaining steps must not undo it. Their
	// failures are logged and left for reconciliation.
	for _, item := range snapshot.Items {
		if !item.IsNFT {
			continue
		}
		if err := s.stock.FinalizeNFT(ctx, item.ProductID); err != nil {
			log.Printf("failed to mark nft %s sold for order %s: %v", item.ProductID, order.OrderNumber, err)
		}
	}

	for _, vg := range groups {
		if err := s.ledger.LinkOrder(ctx, vg.proof.Provider, vg.proof.EventID(), order.OrderNumber); err != nil {
			log.Printf("failed to link ledger record to order %s: %v", order.OrderNumber, err)
		}
	}

	if err := s.cart.CompleteCheckout(ctx, snapshot.UserID, records); err != nil {
		log.Printf("failed to clear cart after order %s: %v", order.OrderNumber, err)
	}

	s.publishCompleted(ctx, order)

	return &CheckoutResult{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		ProcessedItems: order.Items,
	}, nil
}

func (s *CheckoutService) publishCompleted(ctx context.Context, order *domain.Order) {
	if s.outbox == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"order_number": order.OrderNumber,
		"user_id":      order.UserID,
		"items":        order.Items,
		"totals":       order.Totals,
		"completed_at": order.CreatedAt,
	})
	if err != nil {
		log.Printf("failed to marshal checkout event payload: %v", err)
		return
	}
	if err := s.outbox.Append(ctx, EventCheckoutCompleted, order.OrderNumber, payload); err != nil {
		log.Printf("failed to append checkout event for order %s: %v", order.OrderNumber, err)
	}
}

// recordReconciliation leaves a durable trace of a PARTIALLY_FAILED attempt
// so manual or async follow-up can compare stock against the ledger.
func (s *CheckoutService) recordReconciliation(ctx context.Context, userID string, snapshot *domain.CartSnapshot, cause error) {
	if s.outbox == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"user_id":     userID,
		"items":       snapshot.Items,
		"captured_at": snapshot.CapturedAt,
		"cause":       cause.Error(),
		"failed_at":   time.Now().UTC(),
	})
	if err != nil {
		log.Printf("failed to marshal reconciliation payload: %v", err)
		return
	}
	if err := s.outbox.Append(ctx, EventCheckoutReconciliation, userID, payload); err != nil {
		log.Printf("failed to append reconciliation record for user %s: %v", userID, err)
	}
}
