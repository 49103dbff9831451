package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/domain"
)

// MemoryStore implements OrderRepository and EventSource with in-memory
// storage, for tests and database-less runs. The compare-and-set in
// UpdateStatus holds the same guarantee the postgres store gives: exactly
// one of two racing transitions on the same order wins.
type MemoryStore struct {
	mu      sync.RWMutex
	orders  map[uuid.UUID]*domain.Order
	numbers map[string]bool
	events  []*OutboxEvent
	nextID  int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:  make(map[uuid.UUID]*domain.Order),
		numbers: make(map[string]bool),
	}
}

func (s *MemoryStore) CreateOrder(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.numbers[order.OrderNumber] {
		return ErrDuplicateOrderNumber
	}

	now := time.Now()
	cp := cloneOrder(order)
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now

	s.orders[cp.ID] = cp
	s.numbers[cp.OrderNumber] = true
	s.appendEvent(cp.ID, EventOrderCreated, cp)
	return nil
}

func (s *MemoryStore) GetOrderByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

func (s *MemoryStore) ListOrdersBySeller(_ context.Context, sellerID string) ([]*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Order
	for _, order := range s.orders {
		if order.SellerID == sellerID {
			out = append(out, cloneOrder(order))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id uuid.UUID, from, to domain.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	if order.Status != from {
		return ErrStatusConflict
	}

	order.Status = to
	order.UpdatedAt = time.Now()
	s.appendEvent(order.ID, EventOrderStatusChanged, order)
	return nil
}

// appendEvent must be called with the lock held.
func (s *MemoryStore) appendEvent(orderID uuid.UUID, eventType string, order *domain.Order) {
	payload, err := json.Marshal(order)
	if err != nil {
		// domain.Order always marshals; guard against future field surprises
		payload = []byte(fmt.Sprintf(`{"order_id":%q}`, orderID))
	}
	s.nextID++
	s.events = append(s.events, &OutboxEvent{
		ID:          s.nextID,
		AggregateID: orderID.String(),
		EventType:   eventType,
		Payload:     payload,
		CreatedAt:   time.Now(),
	})
}

func (s *MemoryStore) GetUnprocessedEvents(_ context.Context, limit int) ([]*OutboxEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := limit
	if n > len(s.events) {
		n = len(s.events)
	}
	out := make([]*OutboxEvent, n)
	for i := 0; i < n; i++ {
		cp := *s.events[i]
		out[i] = &cp
	}
	return out, nil
}

func (s *MemoryStore) MarkEventAsProcessed(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.events {
		if e.ID == id {
			s.events = append(s.events[:i], s.events[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func cloneOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Lines = make([]domain.OrderLine, len(o.Lines))
	copy(cp.Lines, o.Lines)
	return &cp
}
