package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/domain"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/pkg/metrics"
)

// InvalidTransitionError rejects a status change outside the transition
// table, including lost races: From always carries the order's current
// persisted status at the time of rejection.
type InvalidTransitionError struct {
	OrderID uuid.UUID
	From    domain.OrderStatus
	To      domain.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order %s: invalid transition %s -> %s", e.OrderID, e.From, e.To)
}

// Manager applies order-status transitions. Every seller- and admin-facing
// caller goes through it, so the transition table cannot drift between
// entry points.
type Manager struct {
	repo OrderRepository
	mts  *metrics.Metrics
}

func NewManager(repo OrderRepository, mts *metrics.Metrics) *Manager {
	return &Manager{repo: repo, mts: mts}
}

// Transition moves the order to the requested status. The order's current
// persisted status is read, validated against the table, then written with
// a compare-and-set; if the status changed underneath the caller, the
// transition is rejected with InvalidTransitionError and nothing is written.
// There is no automatic retry.
func (m *Manager) Transition(ctx context.Context, orderID uuid.UUID, to domain.OrderStatus) (*domain.Order, error) {
	if !domain.IsValidStatus(to) {
		return nil, fmt.Errorf("unknown order status %q", to)
	}

	order, err := m.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}

	if !domain.CanTransition(order.Status, to) {
		m.count("rejected")
		return nil, &InvalidTransitionError{OrderID: orderID, From: order.Status, To: to}
	}

	if err := m.repo.UpdateStatus(ctx, orderID, order.Status, to); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			// Lost the race: report against whatever is persisted now.
			current, readErr := m.repo.GetOrderByID(ctx, orderID)
			if readErr != nil {
				return nil, fmt.Errorf("reload order after conflict: %w", readErr)
			}
			m.count("conflict")
			return nil, &InvalidTransitionError{OrderID: orderID, From: current.Status, To: to}
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	order.Status = to
	m.count("applied")
	return order, nil
}

// ListForSeller returns the seller's orders, newest first.
func (m *Manager) ListForSeller(ctx context.Context, sellerID string) ([]*domain.Order, error) {
	return m.repo.ListOrdersBySeller(ctx, sellerID)
}

func (m *Manager) count(outcome string) {
	if m.mts != nil {
		m.mts.Transitions.WithLabelValues(outcome).Inc()
	}
}
