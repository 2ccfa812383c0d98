package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/cedromirror/talkcart-web-sub009/internal/domain"
)

var ErrRecordNotFound = errors.New("ledger record not found")

// Outcome of a CheckAndRecord call. Duplicate is not an error: it means the
// event was already recorded and the caller must not reapply its effects.
type Outcome int

const (
	Fresh Outcome = iota
	Duplicate
)

func (o Outcome) String() string {
	if o == Duplicate {
		return "duplicate"
	}
	return "fresh"
}

// Sources of ledger records. A duplicate is resolved differently depending
// on which path recorded the event first: a webhook record is just the
// asynchronous delivery racing ahead, while a checkout record means another
// checkout already claimed the charge.
const (
	SourceCheckout = "checkout"
	SourceWebhook  = "webhook"
)

// Record is one append-only entry of the idempotency ledger. The pair
// (provider, event_id) is unique; LinkedOrder is set once the event has been
// consumed by a completed order.
type Record struct {
	Provider      domain.Provider `bson:"provider"`
	EventID       string          `bson:"event_id"`
	Source        string          `bson:"source"`
	LinkedOrder   string          `bson:"linked_order,omitempty"`
	PayloadDigest string          `bson:"payload_digest"`
	FirstSeenAt   time.Time       `bson:"first_seen_at"`
}

// Ledger guards every payment event against double processing. Records are
// never deleted.
type Ledger interface {
	// CheckAndRecord atomically records (provider, eventID) with the path
	// that saw it. Concurrent calls with the same pair yield exactly one
	// Fresh; all others see Duplicate. Atomicity lives in the storage
	// layer, never in an application-level check-then-insert.
	CheckAndRecord(ctx context.Context, provider domain.Provider, eventID, source string, payload []byte) (Outcome, error)

	// Get returns the record for (provider, eventID), or ErrRecordNotFound.
	Get(ctx context.Context, provider domain.Provider, eventID string) (*Record, error)

	// LinkOrder marks the event as consumed by the given order number.
	LinkOrder(ctx context.Context, provider domain.Provider, eventID, orderNumber string) error
}
