package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/domain"
)

var (
	ErrOrderNotFound = errors.New("order not found")

	// ErrDuplicateOrderNumber is the persistence-level uniqueness constraint
	// firing. Order numbers are generated probabilistically; the constraint
	// makes collisions loud instead of silent.
	ErrDuplicateOrderNumber = errors.New("order number already exists")

	// ErrStatusConflict means the order's persisted status changed between
	// the caller's read and its compare-and-set write.
	ErrStatusConflict = errors.New("order status changed concurrently")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// OrderRepository persists seller orders. CreateOrder writes the header and
// all its lines as one unit; an order is never stored without its lines.
// UpdateStatus is a compare-and-set: it succeeds only when the persisted
// status still equals from.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrdersBySeller(ctx context.Context, sellerID string) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) error
	Close() error
}

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OutboxEvent is a pending integration event written in the same unit of
// work as the order change it describes.
type OutboxEvent struct {
	ID          int64
	AggregateID string // order id, used as the kafka message key for ordering
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

// EventSource is the outbox side of a repository, polled by the publisher.
type EventSource interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}
