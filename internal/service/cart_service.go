package service

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/cedromirror/talkcart-web-sub009/internal/cache"
	"github.com/cedromirror/talkcart-web-sub009/internal/domain"
	"github.com/cedromirror/talkcart-web-sub009/internal/repository"
)

// CartService routes every cart mutation through the aggregate so the
// derived totals can never drift from the items that produce them.
type CartService struct {
	repo     repository.CartRepository
	products repository.ProductRepository
	cache    cache.CartCache
	sfg      singleflight.Group // Prevents cache stampede
}

func NewCartService(repo repository.CartRepository, products repository.ProductRepository, cartCache cache.CartCache) *CartService {
	return &CartService{
		repo:     repo,
		products: products,
		cache:    cartCache,
	}
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		cart, errGet := s.repo.GetCart(ctx, userID)
		if errGet != nil {
			if errors.Is(errGet, repository.ErrCartNotFound) {
				// Carts are created lazily on first add; reads see an empty one.
				return domain.NewCart(userID), nil
			}
			return nil, errGet
		}

		go func() {
			errSet := s.cache.Set(context.Background(), userID, cart)
			if errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// AddItem captures the product's current price into a new or merged cart
// line. Re-adding an NFT already in the cart is a no-op reported through the
// outcome, not an error.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, qty int64) (*domain.Cart, domain.AddOutcome, error) {
	if qty <= 0 {
		return nil, 0, ErrInvalidQuantity
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, 0, ErrProductUnavailable
		}
		return nil, 0, err
	}
	if !product.Available() {
		return nil, 0, ErrProductUnavailable
	}

	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	outcome := cart.AddItem(*product, qty)
	if outcome == domain.AlreadyInCart {
		return cart, outcome, nil
	}

	if err := s.repo.UpsertCart(ctx, cart); err != nil {
		log.Printf("repo add item error: %v", err)
		return nil, 0, err
	}

	s.invalidateCache(userID)
	return cart, outcome, nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID string, qty int64) (*domain.Cart, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !cart.UpdateQuantity(itemID, qty) {
		for _, it := range cart.Items {
			if it.ID == itemID && it.IsNFT {
				// NFT lines are always quantity 1.
				return nil, ErrInvalidQuantity
			}
		}
		return nil, ErrItemNotFound
	}

	if err := s.repo.UpsertCart(ctx, cart); err != nil {
		log.Printf("repo update quantity error: %v", err)
		return nil, err
	}

	s.invalidateCache(userID)
	return cart, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID string) (*domain.Cart, error) {
	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !cart.RemoveItem(itemID) {
		return nil, ErrItemNotFound
	}

	if err := s.repo.UpsertCart(ctx, cart); err != nil {
		log.Printf("repo remove item error: %v", err)
		return nil, err
	}

	s.invalidateCache(userID)
	return cart, nil
}

func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return err
	}

	cart.Clear()
	if err := s.repo.UpsertCart(ctx, cart); err != nil {
		log.Printf("repo clear cart error: %v", err)
		return err
	}

	s.invalidateCache(userID)
	return nil
}

// SnapshotForCheckout reads the authoritative cart straight from the
// repository, bypassing the cache, and captures an immutable snapshot so
// concurrent edits cannot corrupt an in-flight checkout.
func (s *CartService) SnapshotForCheckout(ctx context.Context, userID string) (*domain.CartSnapshot, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return domain.NewCart(userID).Snapshot(), nil
		}
		return nil, err
	}
	return cart.Snapshot(), nil
}

// CompleteCheckout appends the attempt's payment records to the cart's
// history and clears the items, as the final step of a committed checkout.
func (s *CartService) CompleteCheckout(ctx context.Context, userID string, records []domain.PaymentRecord) error {
	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return err
	}

	for _, rec := range records {
		cart.RecordPayment(rec)
	}
	cart.Clear()

	if err := s.repo.UpsertCart(ctx, cart); err != nil {
		return err
	}

	s.invalidateCache(userID)
	return nil
}

func (s *CartService) loadOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return domain.NewCart(userID), nil
		}
		return nil, err
	}
	return cart, nil
}

func (s *CartService) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
