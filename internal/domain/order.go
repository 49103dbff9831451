package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

// transitions is the single source of truth for legal status moves.
// Every caller (seller screens, admin screens) goes through it; the table
// is never rebuilt at call sites.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// CanTransition reports whether moving from -> to is allowed by the table.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses an order may legally move to from the
// given one. The returned slice is a copy.
func NextStatuses(from OrderStatus) []OrderStatus {
	next := transitions[from]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

func (s OrderStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// IsValidStatus reports whether s is one of the known order statuses.
func IsValidStatus(s OrderStatus) bool {
	_, ok := transitions[s]
	return ok
}

// OrderLine is frozen at order-creation time. Later catalog edits never
// alter historical orders.
type OrderLine struct {
	CatalogItemID  string `json:"catalog_item_id"`
	Name           string `json:"name"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
	Quantity       int32  `json:"quantity"`
	SubtotalMinor  int64  `json:"subtotal_minor"`
}

// Order is one seller's share of a checkout. Immutable after creation
// except Status, which moves only through the lifecycle manager.
type Order struct {
	ID              uuid.UUID   `json:"id"`
	OrderNumber     string      `json:"order_number"`
	SellerID        string      `json:"seller_id"`
	CustomerName    string      `json:"customer_name"`
	CustomerPhone   string      `json:"customer_phone"`
	DeliveryAddress string      `json:"delivery_address"`
	PaymentMethodID string      `json:"payment_method_id"`
	TotalMinor      int64       `json:"total_minor"`
	Currency        string      `json:"currency"`
	Notes           string      `json:"notes,omitempty"`
	Status          OrderStatus `json:"status"`
	Lines           []OrderLine `json:"lines"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}
