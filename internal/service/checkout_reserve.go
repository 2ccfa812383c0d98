package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/cedromirror/talkcart-web-sub009/internal/domain"
	"github.com/cedromirror/talkcart-web-sub009/internal/stock"
)

type reservedItem struct {
	productID string
	quantity  int64
	isNFT     bool
}

// reserveAll decrements stock for every line in the snapshot. On the first
// failure everything reserved in this attempt is released again, so a failed
// attempt leaves stock exactly as it found it.
func (s *CheckoutService) reserveAll(ctx context.Context, snapshot *domain.CartSnapshot) ([]reservedItem, error) {
	reserved := make([]reservedItem, 0, len(snapshot.Items))

	for _, item := range snapshot.Items {
		var err error
		if item.IsNFT {
			err = s.stock.ReserveNFT(ctx, item.ProductID)
		} else {
			err = s.stock.Reserve(ctx, item.ProductID, item.Quantity)
		}
		if err != nil {
			s.releaseAll(ctx, reserved)
			if errors.Is(err, stock.ErrInsufficientStock) ||
				errors.Is(err, stock.ErrAlreadySold) ||
				errors.Is(err, stock.ErrProductNotFound) {
				return nil, &InsufficientStockError{ProductID: item.ProductID}
			}
			return nil, fmt.Errorf("failed to reserve stock: %w", err)
		}
		reserved = append(reserved, reservedItem{
			productID: item.ProductID,
			quantity:  item.Quantity,
			isNFT:     item.IsNFT,
		})
	}

	return reserved, nil
}

// releaseAll runs the compensating increments. It is best-effort: a failed
// release is logged for reconciliation, never surfaced, because it runs
// while the attempt is already unwinding.
func (s *CheckoutService) releaseAll(ctx context.Context, reserved []reservedItem) {
	for _, item := range reserved {
		var err error
		if item.isNFT {
			err = s.stock.ReleaseNFT(ctx, item.productID)
		} else {
			err = s.stock.Release(ctx, item.productID, item.quantity)
		}
		if err != nil {
			log.Printf("failed to release stock for product %s: %v", item.productID, err)
		}
	}
}
