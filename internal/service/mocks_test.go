package service

import (
	"context"
	"sync"

	"github.com/cedromirror/talkcart-web-sub009/internal/cache"
	"github.com/cedromirror/talkcart-web-sub009/internal/domain"
	"github.com/cedromirror/talkcart-web-sub009/internal/provider"
	"github.com/cedromirror/talkcart-web-sub009/internal/repository"
)

type mockCartRepository struct {
	mu    sync.Mutex
	carts map[string]*domain.Cart

	getErr    error
	upsertErr error
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: make(map[string]*domain.Cart)}
}

func (m *mockCartRepository) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	cart, ok := m.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	copied := *cart
	copied.Items = append([]domain.CartItem(nil), cart.Items...)
	copied.Payments = append([]domain.PaymentRecord(nil), cart.Payments...)
	return &copied, nil
}

func (m *mockCartRepository) UpsertCart(_ context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.carts[cart.UserID] = cart
	return nil
}

func (m *mockCartRepository) SetPaymentStatus(_ context.Context, chargeRef, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cart := range m.carts {
		for i := range cart.Payments {
			if cart.Payments[i].ChargeRef == chargeRef {
				cart.Payments[i].Status = status
				return nil
			}
		}
	}
	return repository.ErrCartNotFound
}

type mockProductRepository struct {
	products map[string]*domain.Product
}

func newMockProductRepository(products ...*domain.Product) *mockProductRepository {
	m := &mockProductRepository{products: make(map[string]*domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockProductRepository) GetProduct(_ context.Context, productID string) (*domain.Product, error) {
	p, ok := m.products[productID]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

// noopCache always misses, so cart reads fall through to the repository.
type noopCache struct{}

func (noopCache) Get(context.Context, string) (*domain.Cart, error) { return nil, cache.ErrCacheMiss }
func (noopCache) Set(context.Context, string, *domain.Cart) error   { return nil }
func (noopCache) Delete(context.Context, string) error              { return nil }

type mockOrderRepository struct {
	mu        sync.Mutex
	orders    []*domain.Order
	createErr error
}

func (m *mockOrderRepository) CreateOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	order.ID = "order-id-1"
	m.orders = append(m.orders, order)
	return nil
}

func (m *mockOrderRepository) GetOrder(_ context.Context, userID, orderNumber string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.UserID == userID && o.OrderNumber == orderNumber {
			return o, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderRepository) created() []*domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Order(nil), m.orders...)
}

type mockOutbox struct {
	mu     sync.Mutex
	events []*repository.OutboxEvent
}

func (m *mockOutbox) Append(_ context.Context, eventType, aggregateID string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, &repository.OutboxEvent{
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     payload,
	})
	return nil
}

func (m *mockOutbox) FetchUnprocessed(_ context.Context, limit int64) ([]*repository.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*repository.OutboxEvent(nil), m.events...), nil
}

func (m *mockOutbox) MarkProcessed(_ context.Context, id string) error { return nil }

func (m *mockOutbox) appended() []*repository.OutboxEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*repository.OutboxEvent(nil), m.events...)
}

// mockVerifier resolves charges by the proof's event id, so tests can stage
// one canned verification per submitted proof.
type mockVerifier struct {
	verifications map[string]*provider.ChargeVerification
	errs          map[string]error
}

func newMockVerifier() *mockVerifier {
	return &mockVerifier{
		verifications: make(map[string]*provider.ChargeVerification),
		errs:          make(map[string]error),
	}
}

func (m *mockVerifier) stage(eventID string, v *provider.ChargeVerification) {
	m.verifications[eventID] = v
}

func (m *mockVerifier) VerifyCharge(_ context.Context, proof domain.PaymentProof) (*provider.ChargeVerification, error) {
	if err, ok := m.errs[proof.EventID()]; ok {
		return nil, err
	}
	if v, ok := m.verifications[proof.EventID()]; ok {
		return v, nil
	}
	return nil, provider.ErrVerificationFailed
}
