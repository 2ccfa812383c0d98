package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cedromirror/talkcart-web-sub009/internal/domain"
)

type mongoLedger struct {
	collection *mongo.Collection
}

// NewMongoLedger returns a Ledger backed by the "idempotency" collection.
// CreateIndexes must be called once at startup: the unique compound index
// on (provider, event_id) is what makes CheckAndRecord atomic.
func NewMongoLedger(db *mongo.Database) *mongoLedger {
	return &mongoLedger{collection: db.Collection("idempotency")}
}

func (m *mongoLedger) CheckAndRecord(ctx context.Context, provider domain.Provider, eventID, source string, payload []byte) (Outcome, error) {
	rec := Record{
		Provider:      provider,
		EventID:       eventID,
		Source:        source,
		PayloadDigest: Digest(payload),
		FirstSeenAt:   time.Now().UTC(),
	}

	_, err := m.collection.InsertOne(ctx, rec)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return Duplicate, nil
		}
		return Duplicate, fmt.Errorf("failed to record idempotency key: %w", err)
	}
	return Fresh, nil
}

func (m *mongoLedger) Get(ctx context.Context, provider domain.Provider, eventID string) (*Record, error) {
	var rec Record
	filter := bson.M{"provider": provider, "event_id": eventID}
	err := m.collection.FindOne(ctx, filter).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get ledger record: %w", err)
	}
	return &rec, nil
}

func (m *mongoLedger) LinkOrder(ctx context.Context, provider domain.Provider, eventID, orderNumber string) error {
	filter := bson.M{"provider": provider, "event_id": eventID}
	update := bson.M{"$set": bson.M{"linked_order": orderNumber}}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to link order: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (m *mongoLedger) CreateIndexes(ctx context.Context) error {
	index := mongo.IndexModel{
		Keys: bson.D{
			{Key: "provider", Value: 1},
			{Key: "event_id", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}

	_, err := m.collection.Indexes().CreateOne(ctx, index)
	if err != nil {
		return fmt.Errorf("failed to create ledger index: %w", err)
	}
	return nil
}

// Digest is the stored fingerprint of the raw event payload.
func Digest(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
