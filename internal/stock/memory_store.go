package stock

import (
	"context"
	"sync"

	"github.com/cedromirror/talkcart-web-sub009/internal/domain"
)

type memoryProduct struct {
	stock     int64
	isNFT     bool
	nftStatus string
}

// MemoryStore implements Store with in-memory storage, mirroring the
// conditional-update semantics of the Mongo implementation under one mutex.
type MemoryStore struct {
	mu       sync.Mutex
	products map[string]*memoryProduct
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{products: make(map[string]*memoryProduct)}
}

// SetStock sets the stock level for a product (used for initialization).
func (s *MemoryStore) SetStock(productID string, qty int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[productID] = &memoryProduct{stock: qty}
}

// SetNFT registers an NFT product in the given availability state.
func (s *MemoryStore) SetNFT(productID, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[productID] = &memoryProduct{isNFT: true, nftStatus: status}
}

// Stock returns the current stock level, for assertions in tests.
func (s *MemoryStore) Stock(productID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[productID]; ok {
		return p.stock
	}
	return 0
}

// NFTStatus returns the current availability of an NFT product.
func (s *MemoryStore) NFTStatus(productID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[productID]; ok {
		return p.nftStatus
	}
	return ""
}

func (s *MemoryStore) Reserve(_ context.Context, productID string, qty int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.products[productID]
	if !exists {
		return ErrProductNotFound
	}
	if p.stock < qty {
		return ErrInsufficientStock
	}
	p.stock -= qty
	return nil
}

func (s *MemoryStore) Release(_ context.Context, productID string, qty int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.products[productID]
	if !exists {
		return ErrProductNotFound
	}
	p.stock += qty
	return nil
}

func (s *MemoryStore) ReserveNFT(_ context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.products[productID]
	if !exists {
		return ErrProductNotFound
	}
	if !p.isNFT || p.nftStatus != domain.NFTAvailable {
		return ErrAlreadySold
	}
	p.nftStatus = domain.NFTReserved
	return nil
}

func (s *MemoryStore) ReleaseNFT(_ context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.products[productID]
	if !exists {
		return ErrProductNotFound
	}
	if p.nftStatus == domain.NFTReserved {
		p.nftStatus = domain.NFTAvailable
	}
	return nil
}

func (s *MemoryStore) FinalizeNFT(_ context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.products[productID]
	if !exists {
		return ErrProductNotFound
	}
	if p.nftStatus == domain.NFTReserved {
		p.nftStatus = domain.NFTSold
	}
	return nil
}
