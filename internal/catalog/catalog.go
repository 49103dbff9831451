package catalog

import (
	"context"
	"errors"

	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrSellerNotFound  = errors.New("seller not found")
)

// Product is the catalog's view of an item. The cart snapshots it at
// add-time; checkout re-snapshots it so price or name drift between add and
// checkout resolves in favor of the checkout-time value.
type Product struct {
	ID             string
	SellerID       string
	Name           string
	UnitPriceMinor int64
	ImageRef       string
	CurrentStock   int32
}

// ProductCatalog is the external catalog collaborator.
type ProductCatalog interface {
	GetProduct(ctx context.Context, itemID string) (*Product, error)
}

// PaymentRegistry maps each seller to the payment methods it accepts.
// Owned by the external seller/payment-catalog registry; read-only here.
type PaymentRegistry interface {
	MethodsForSeller(ctx context.Context, sellerID string) ([]domain.PaymentMethod, error)
}
