package catalog

import (
	"context"
	"sync"

	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/domain"
)

// MemoryCatalog implements ProductCatalog with in-memory storage.
type MemoryCatalog struct {
	mu       sync.RWMutex
	products map[string]*Product
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{products: make(map[string]*Product)}
}

func (c *MemoryCatalog) PutProduct(p Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.products[p.ID] = &p
}

func (c *MemoryCatalog) GetProduct(_ context.Context, itemID string) (*Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[itemID]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

// MemoryRegistry implements PaymentRegistry with in-memory storage. Method
// order per seller is preserved as registered, so offer lists are stable.
type MemoryRegistry struct {
	mu      sync.RWMutex
	methods map[string][]domain.PaymentMethod
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{methods: make(map[string][]domain.PaymentMethod)}
}

func (r *MemoryRegistry) SetSellerMethods(sellerID string, methods []domain.PaymentMethod) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := make([]domain.PaymentMethod, len(methods))
	copy(cp, methods)
	r.methods[sellerID] = cp
}

func (r *MemoryRegistry) MethodsForSeller(_ context.Context, sellerID string) ([]domain.PaymentMethod, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	methods, ok := r.methods[sellerID]
	if !ok {
		return nil, ErrSellerNotFound
	}
	cp := make([]domain.PaymentMethod, len(methods))
	copy(cp, methods)
	return cp, nil
}
