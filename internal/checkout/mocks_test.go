package checkout

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/catalog"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/domain"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/orders"
)

// MockCatalog implements catalog.ProductCatalog for testing
type MockCatalog struct {
	Products map[string]*catalog.Product
	Err      error
}

func (m *MockCatalog) GetProduct(_ context.Context, itemID string) (*catalog.Product, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.Products[itemID]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

// MockRepository implements orders.OrderRepository for testing. Per-seller
// failures and one-shot duplicate order numbers are injectable.
type MockRepository struct {
	mu             sync.Mutex
	Created        []*domain.Order
	FailSellers    map[string]error
	DuplicateOnce  bool
	duplicateFired bool
}

func (m *MockRepository) CreateOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.FailSellers[order.SellerID]; ok {
		return err
	}
	if m.DuplicateOnce && !m.duplicateFired {
		m.duplicateFired = true
		return orders.ErrDuplicateOrderNumber
	}
	cp := *order
	m.Created = append(m.Created, &cp)
	return nil
}

func (m *MockRepository) GetOrderByID(context.Context, uuid.UUID) (*domain.Order, error) {
	return nil, orders.ErrOrderNotFound
}

func (m *MockRepository) ListOrdersBySeller(context.Context, string) ([]*domain.Order, error) {
	return nil, nil
}

func (m *MockRepository) UpdateStatus(context.Context, uuid.UUID, domain.OrderStatus, domain.OrderStatus) error {
	return nil
}

func (m *MockRepository) Close() error {
	return nil
}

func (m *MockRepository) CreatedForSeller(sellerID string) *domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range m.Created {
		if o.SellerID == sellerID {
			return o
		}
	}
	return nil
}
