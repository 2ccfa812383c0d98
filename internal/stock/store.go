package stock

import (
	"context"
	"errors"
)

// Common errors returned by the store
var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrAlreadySold       = errors.New("nft is no longer available")
)

// Store performs atomic per-product stock operations. Reserve and ReserveNFT
// are single conditional updates: two concurrent buyers of the last unit
// cannot both succeed. Release and ReleaseNFT are the compensating actions
// run during rollback; callers treat their failures as log-only.
type Store interface {
	// Reserve decrements stock if at least qty is available.
	Reserve(ctx context.Context, productID string, qty int64) error

	// Release returns qty units to the product's stock.
	Release(ctx context.Context, productID string, qty int64) error

	// ReserveNFT flips the product's availability from available to
	// reserved, holding it for the checkout in flight.
	ReserveNFT(ctx context.Context, productID string) error

	// ReleaseNFT flips a reserved NFT back to available.
	ReleaseNFT(ctx context.Context, productID string) error

	// FinalizeNFT flips a reserved NFT to sold once the order exists.
	FinalizeNFT(ctx context.Context, productID string) error
}
