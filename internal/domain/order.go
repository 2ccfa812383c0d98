package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

type OrderItem struct {
	ProductID  string `bson:"product_id" json:"product_id"`
	Name       string `bson:"name" json:"name"`
	PriceMinor int64  `bson:"price_minor" json:"price_minor"`
	Currency   string `bson:"currency" json:"currency"`
	Quantity   int64  `bson:"quantity" json:"quantity"`
	IsNFT      bool   `bson:"is_nft" json:"is_nft"`
}

type OrderPayment struct {
	Provider     string `bson:"provider" json:"provider"`
	Currency     string `bson:"currency" json:"currency"`
	AmountMinor  int64  `bson:"amount_minor" json:"amount_minor"`
	ProviderTxID string `bson:"provider_tx_id" json:"provider_tx_id"`
}

// Order is the terminal, successful output of a checkout. Everything except
// Status and the transition timestamps is immutable after creation.
type Order struct {
	ID          string               `bson:"_id,omitempty" json:"id,omitempty"`
	OrderNumber string               `bson:"order_number" json:"order_number"`
	UserID      string               `bson:"user_id" json:"user_id"`
	Items       []OrderItem          `bson:"items" json:"items"`
	Totals      map[string]int64     `bson:"totals" json:"totals"`
	Payments    []OrderPayment       `bson:"payments" json:"payments"`
	Status      OrderStatus          `bson:"status" json:"status"`
	StatusTimes map[string]time.Time `bson:"status_times" json:"status_times"`
	CreatedAt   time.Time            `bson:"created_at" json:"created_at"`
}

// NewOrderNumber generates a unique human-readable order number. Uniqueness
// is still enforced by the orders collection index; this just makes
// collisions vanishingly unlikely in the first place.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:10])
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), suffix)
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {OrderStatusCompleted, OrderStatusRefunded},
	OrderStatusCompleted:  {OrderStatusRefunded},
}

// Transition moves the order to the requested status if the transition is
// legal, stamping the time it happened.
func (o *Order) Transition(to OrderStatus, at time.Time) bool {
	for _, allowed := range orderTransitions[o.Status] {
		if allowed == to {
			o.Status = to
			if o.StatusTimes == nil {
				o.StatusTimes = map[string]time.Time{}
			}
			o.StatusTimes[string(to)] = at.UTC()
			return true
		}
	}
	return false
}
