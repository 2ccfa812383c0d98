package stock

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cedromirror/talkcart-web-sub009/internal/domain"
)

type mongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore returns a Store operating on the "products" collection.
// Every mutation is a single conditional UpdateOne so the document-level
// atomicity of the store carries the concurrency guarantee.
func NewMongoStore(db *mongo.Database) Store {
	return &mongoStore{collection: db.Collection("products")}
}

func (m *mongoStore) Reserve(ctx context.Context, productID string, qty int64) error {
	filter := bson.M{"_id": productID, "stock": bson.M{"$gte": qty}}
	update := bson.M{"$inc": bson.M{"stock": -qty}}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to reserve stock: %w", err)
	}
	if result.MatchedCount == 0 {
		// Distinguish a missing product from one that is simply short.
		exists, errCheck := m.exists(ctx, productID)
		if errCheck != nil {
			return errCheck
		}
		if !exists {
			return ErrProductNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}

func (m *mongoStore) Release(ctx context.Context, productID string, qty int64) error {
	filter := bson.M{"_id": productID}
	update := bson.M{"$inc": bson.M{"stock": qty}}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to release stock: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (m *mongoStore) ReserveNFT(ctx context.Context, productID string) error {
	filter := bson.M{"_id": productID, "is_nft": true, "nft_status": domain.NFTAvailable}
	update := bson.M{"$set": bson.M{"nft_status": domain.NFTReserved}}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to reserve nft: %w", err)
	}
	if result.MatchedCount == 0 {
		exists, errCheck := m.exists(ctx, productID)
		if errCheck != nil {
			return errCheck
		}
		if !exists {
			return ErrProductNotFound
		}
		return ErrAlreadySold
	}
	return nil
}

func (m *mongoStore) ReleaseNFT(ctx context.Context, productID string) error {
	filter := bson.M{"_id": productID, "is_nft": true, "nft_status": domain.NFTReserved}
	update := bson.M{"$set": bson.M{"nft_status": domain.NFTAvailable}}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to release nft: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (m *mongoStore) FinalizeNFT(ctx context.Context, productID string) error {
	filter := bson.M{"_id": productID, "is_nft": true, "nft_status": domain.NFTReserved}
	update := bson.M{"$set": bson.M{"nft_status": domain.NFTSold}}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to finalize nft: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (m *mongoStore) exists(ctx context.Context, productID string) (bool, error) {
	err := m.collection.FindOne(ctx, bson.M{"_id": productID}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check product: %w", err)
	}
	return true, nil
}
