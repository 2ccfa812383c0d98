package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/cedromirror/talkcart-web-sub009/internal/domain"
)

type ledgerKey struct {
	provider domain.Provider
	eventID  string
}

// MemoryLedger implements Ledger with in-memory storage. The mutex plays the
// role of the unique index: insert-under-lock gives the same exactly-one-Fresh
// guarantee the Mongo implementation gets from its constraint.
type MemoryLedger struct {
	mu      sync.Mutex
	records map[ledgerKey]*Record
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{records: make(map[ledgerKey]*Record)}
}

func (l *MemoryLedger) CheckAndRecord(_ context.Context, provider domain.Provider, eventID, source string, payload []byte) (Outcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := ledgerKey{provider, eventID}
	if _, exists := l.records[key]; exists {
		return Duplicate, nil
	}
	l.records[key] = &Record{
		Provider:      provider,
		EventID:       eventID,
		Source:        source,
		PayloadDigest: Digest(payload),
		FirstSeenAt:   time.Now().UTC(),
	}
	return Fresh, nil
}

func (l *MemoryLedger) Get(_ context.Context, provider domain.Provider, eventID string) (*Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, exists := l.records[ledgerKey{provider, eventID}]
	if !exists {
		return nil, ErrRecordNotFound
	}
	copied := *rec
	return &copied, nil
}

func (l *MemoryLedger) LinkOrder(_ context.Context, provider domain.Provider, eventID, orderNumber string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, exists := l.records[ledgerKey{provider, eventID}]
	if !exists {
		return ErrRecordNotFound
	}
	rec.LinkedOrder = orderNumber
	return nil
}
