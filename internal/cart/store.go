package cart

import (
	"sync"

	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/domain"
)

// EventKind identifies what changed in a cart.
type EventKind string

const (
	EventItemAdded       EventKind = "item_added"
	EventItemRemoved     EventKind = "item_removed"
	EventQuantityChanged EventKind = "quantity_changed"
	EventCleared         EventKind = "cleared"
)

// Event is delivered to watchers after every mutation.
type Event struct {
	Kind   EventKind
	ItemID string
}

// Store holds one shopper session's cart lines. It is owned by that session
// and mutated only by its own actions; the lock exists so read projections
// and the HTTP layer can safely overlap with mutations.
//
// UI layers observe changes through Watch rather than the store depending on
// any reactivity framework.
type Store struct {
	mu       sync.RWMutex
	lines    []domain.CartLine
	watchers []chan Event
}

func NewStore() *Store {
	return &Store{}
}

// Watch returns a channel receiving an Event after every mutation. Delivery
// is best-effort: a watcher that stops draining misses events instead of
// blocking cart operations.
func (s *Store) Watch() <-chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, 16)
	s.watchers = append(s.watchers, ch)
	return ch
}

// Unwatch detaches a channel previously returned by Watch and closes it.
func (s *Store) Unwatch(ch <-chan Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, w := range s.watchers {
		if w == ch {
			s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
			close(w)
			return
		}
	}
}

// notify must be called with the lock held.
func (s *Store) notify(e Event) {
	for _, w := range s.watchers {
		select {
		case w <- e:
		default: // watcher is not draining, drop rather than block
		}
	}
}

// AddItem appends a new line, or increments the quantity when the item is
// already in the cart. Quantities below one are treated as one.
func (s *Store) AddItem(line domain.CartLine) {
	if line.Quantity < 1 {
		line.Quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].ItemID == line.ItemID {
			s.lines[i].Quantity += line.Quantity
			s.notify(Event{Kind: EventQuantityChanged, ItemID: line.ItemID})
			return
		}
	}

	s.lines = append(s.lines, line)
	s.notify(Event{Kind: EventItemAdded, ItemID: line.ItemID})
}

// RemoveItem deletes the line unconditionally. Removing an absent item is a no-op.
func (s *Store) RemoveItem(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(itemID)
}

func (s *Store) removeLocked(itemID string) {
	for i := range s.lines {
		if s.lines[i].ItemID == itemID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			s.notify(Event{Kind: EventItemRemoved, ItemID: itemID})
			return
		}
	}
}

// SetQuantity replaces the line's quantity. A quantity of zero or less
// behaves exactly like RemoveItem. No upper bound is enforced here; stock
// limits are re-validated against the catalog at checkout time.
func (s *Store) SetQuantity(itemID string, qty int32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if qty <= 0 {
		s.removeLocked(itemID)
		return
	}

	for i := range s.lines {
		if s.lines[i].ItemID == itemID {
			s.lines[i].Quantity = qty
			s.notify(Event{Kind: EventQuantityChanged, ItemID: itemID})
			return
		}
	}
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.notify(Event{Kind: EventCleared})
}

// Len returns the number of lines (not the summed quantity).
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.lines)
}

// Lines returns a copy of the cart lines in insertion order.
func (s *Store) Lines() []domain.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Totals recomputes the item count and amount from the live lines on every
// call. Nothing is cached or denormalized.
func (s *Store) Totals() domain.CartTotals {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var t domain.CartTotals
	for _, l := range s.lines {
		t.ItemCount += l.Quantity
		t.AmountMinor += l.SubtotalMinor()
	}
	return t
}

// GroupBySeller partitions the cart by seller, preserving the order in which
// each seller first appeared. The projection is read-only: lines are copied.
func (s *Store) GroupBySeller() []domain.SellerGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index := make(map[string]int)
	var groups []domain.SellerGroup
	for _, l := range s.lines {
		i, ok := index[l.SellerID]
		if !ok {
			i = len(groups)
			index[l.SellerID] = i
			groups = append(groups, domain.SellerGroup{SellerID: l.SellerID})
		}
		groups[i].Lines = append(groups[i].Lines, l)
		groups[i].ItemCount += l.Quantity
		groups[i].SubtotalMinor += l.SubtotalMinor()
	}
	return groups
}

// SellerIDs returns the distinct sellers in first-seen order.
func (s *Store) SellerIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var ids []string
	for _, l := range s.lines {
		if !seen[l.SellerID] {
			seen[l.SellerID] = true
			ids = append(ids, l.SellerID)
		}
	}
	return ids
}
