package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cedromirror/talkcart-web-sub009/internal/domain"
)

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicateOrder  = errors.New("order number already exists")
)

// CartRepository persists the cart aggregate. Mutations always flow through
// the aggregate first, so the write surface is a whole-document upsert; the
// one exception is the payment-status touch-up driven by webhooks.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	SetPaymentStatus(ctx context.Context, chargeRef, status string) error
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, userID, orderNumber string) (*domain.Order, error)
}

type ProductRepository interface {
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
}

// OutboxEvent is a durable record of something that must eventually reach
// the message bus: completed checkouts and reconciliation alerts.
type OutboxEvent struct {
	ID          string     `bson:"_id"`
	EventType   string     `bson:"event_type"`
	AggregateID string     `bson:"aggregate_id"`
	Payload     []byte     `bson:"payload"`
	CreatedAt   time.Time  `bson:"created_at"`
	ProcessedAt *time.Time `bson:"processed_at,omitempty"`
}

type OutboxRepository interface {
	Append(ctx context.Context, eventType, aggregateID string, payload []byte) error
	FetchUnprocessed(ctx context.Context, limit int64) ([]*OutboxEvent, error)
	MarkProcessed(ctx context.Context, id string) error
}
