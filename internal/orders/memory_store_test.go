package orders

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/domain"
)

func testOrder(sellerID string) *domain.Order {
	return &domain.Order{
		ID:              uuid.New(),
		OrderNumber:     "ORD-TEST-" + uuid.NewString()[:8],
		SellerID:        sellerID,
		CustomerName:    "Ada Nguema",
		CustomerPhone:   "+240 222 123456",
		DeliveryAddress: "Malabo II",
		PaymentMethodID: "cash",
		TotalMinor:      5000,
		Currency:        "XAF",
		Status:          domain.OrderStatusPending,
		Lines: []domain.OrderLine{
			{CatalogItemID: "widget", Name: "Widget", UnitPriceMinor: 5000, Quantity: 1, SubtotalMinor: 5000},
		},
	}
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	store := NewMemoryStore()
	order := testOrder("seller-1")

	require.NoError(t, store.CreateOrder(context.Background(), order))

	got, err := store.GetOrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, got.OrderNumber)
	assert.Equal(t, order.TotalMinor, got.TotalMinor)
	require.Len(t, got.Lines, 1)
	assert.False(t, got.CreatedAt.IsZero())

	// the stored copy must be isolated from the caller's struct
	got.Lines[0].Quantity = 99
	again, err := store.GetOrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), again.Lines[0].Quantity)
}

func TestMemoryStore_GetMissingOrder(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.GetOrderByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestMemoryStore_DuplicateOrderNumberRejected(t *testing.T) {
	store := NewMemoryStore()
	first := testOrder("seller-1")
	require.NoError(t, store.CreateOrder(context.Background(), first))

	second := testOrder("seller-1")
	second.OrderNumber = first.OrderNumber

	err := store.CreateOrder(context.Background(), second)
	assert.ErrorIs(t, err, ErrDuplicateOrderNumber)

	_, err = store.GetOrderByID(context.Background(), second.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound, "rejected order must not be stored")
}

func TestMemoryStore_ListOrdersBySellerNewestFirst(t *testing.T) {
	store := NewMemoryStore()

	old := testOrder("seller-1")
	old.CreatedAt = time.Now().Add(-time.Hour)
	recent := testOrder("seller-1")
	recent.CreatedAt = time.Now()
	other := testOrder("seller-2")

	require.NoError(t, store.CreateOrder(context.Background(), old))
	require.NoError(t, store.CreateOrder(context.Background(), recent))
	require.NoError(t, store.CreateOrder(context.Background(), other))

	list, err := store.ListOrdersBySeller(context.Background(), "seller-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, recent.ID, list[0].ID)
	assert.Equal(t, old.ID, list[1].ID)

	empty, err := store.ListOrdersBySeller(context.Background(), "seller-none")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStore_UpdateStatusCompareAndSet(t *testing.T) {
	store := NewMemoryStore()
	order := testOrder("seller-1")
	require.NoError(t, store.CreateOrder(context.Background(), order))

	err := store.UpdateStatus(context.Background(), order.ID, domain.OrderStatusPending, domain.OrderStatusConfirmed)
	require.NoError(t, err)

	// stale from value
	err = store.UpdateStatus(context.Background(), order.ID, domain.OrderStatusPending, domain.OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrStatusConflict)

	got, err := store.GetOrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, got.Status)
}

func TestMemoryStore_UpdateStatusMissingOrder(t *testing.T) {
	store := NewMemoryStore()

	err := store.UpdateStatus(context.Background(), uuid.New(), domain.OrderStatusPending, domain.OrderStatusConfirmed)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestMemoryStore_OutboxLifecycle(t *testing.T) {
	store := NewMemoryStore()
	order := testOrder("seller-1")
	require.NoError(t, store.CreateOrder(context.Background(), order))
	require.NoError(t, store.UpdateStatus(context.Background(), order.ID, domain.OrderStatusPending, domain.OrderStatusConfirmed))

	events, err := store.GetUnprocessedEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventOrderCreated, events[0].EventType)
	assert.Equal(t, EventOrderStatusChanged, events[1].EventType)
	assert.Equal(t, order.ID.String(), events[0].AggregateID)

	var payload domain.Order
	require.NoError(t, json.Unmarshal(events[1].Payload, &payload))
	assert.Equal(t, domain.OrderStatusConfirmed, payload.Status)

	require.NoError(t, store.MarkEventAsProcessed(context.Background(), events[0].ID))

	remaining, err := store.GetUnprocessedEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, EventOrderStatusChanged, remaining[0].EventType)
}

func TestMemoryStore_GetUnprocessedEventsHonorsLimit(t *testing.T) {
	store := NewMemoryStore()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.CreateOrder(context.Background(), testOrder("seller-1")))
	}

	events, err := store.GetUnprocessedEvents(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}
