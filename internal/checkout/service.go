package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/cart"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/catalog"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/domain"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/orders"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/payment"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/verification"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/pkg/metrics"
)

// Form is the transient checkout submission. It is validated, consumed and
// discarded; nothing on it is persisted as-is.
type Form struct {
	CustomerName    string
	CustomerPhone   string
	DeliveryAddress string
	Notes           string
	PaymentMethodID string
}

// CreatedOrder is one seller's successfully persisted order.
type CreatedOrder struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	SellerID    string    `json:"seller_id"`
	TotalMinor  int64     `json:"total_minor"`
}

// Result reports the checkout outcome per seller.
type Result struct {
	Orders      []CreatedOrder  `json:"orders"`
	Failed      []SellerFailure `json:"failed,omitempty"`
	CartCleared bool            `json:"cart_cleared"`
}

// Service turns a cart into one persisted order per distinct seller.
type Service struct {
	catalog  catalog.ProductCatalog
	resolver *payment.Resolver
	verifier verification.Provider
	repo     orders.OrderRepository
	currency string
	mts      *metrics.Metrics

	now func() time.Time
}

func NewService(
	productCatalog catalog.ProductCatalog,
	resolver *payment.Resolver,
	verifier verification.Provider,
	repo orders.OrderRepository,
	currency string,
	mts *metrics.Metrics,
) *Service {
	return &Service{
		catalog:  productCatalog,
		resolver: resolver,
		verifier: verifier,
		repo:     repo,
		currency: currency,
		mts:      mts,
		now:      time.Now,
	}
}

// Submit validates the form against the cart and, on success, persists one
// order per seller group. Each seller's header+lines write is one unit of
// work; units run concurrently and fail independently. The cart is cleared
// only when every unit succeeded.
//
// The returned error is nil on full success, *ValidationError or
// *EligibilityError when nothing was written, and *PartialFailure when some
// units failed; in that case Result still lists the orders that were
// created, because they are not rolled back.
func (s *Service) Submit(ctx context.Context, store *cart.Store, shopperID string, form *Form) (*Result, error) {
	groups := store.GroupBySeller()

	if err := validateForm(groups, form); err != nil {
		s.count("validation_error")
		return nil, err
	}

	status, err := s.verifier.Status(ctx, shopperID)
	if err != nil {
		return nil, fmt.Errorf("resolve verification status: %w", err)
	}

	sellerIDs := make([]string, len(groups))
	for i, g := range groups {
		sellerIDs[i] = g.SellerID
	}

	method, err := s.resolver.EligibleMethod(ctx, sellerIDs, form.PaymentMethodID, status)
	if err != nil {
		s.count("eligibility_error")
		return nil, &EligibilityError{MethodID: form.PaymentMethodID, Err: err}
	}

	// One persistence unit per seller. Units touch disjoint seller-owned
	// records and run concurrently; a failed unit must not roll back or
	// block another's success.
	type unitResult struct {
		created *CreatedOrder
		err     error
	}
	results := make([]unitResult, len(groups))

	var wg sync.WaitGroup
	for i, group := range groups {
		wg.Add(1)
		go func(i int, group domain.SellerGroup) {
			defer wg.Done()
			created, err := s.persistSellerOrder(ctx, group, method.ID, form)
			results[i] = unitResult{created: created, err: err}
		}(i, group)
	}
	wg.Wait()

	result := &Result{}
	for i, r := range results {
		if r.err != nil {
			log.Printf("checkout: seller %s order failed: %v", groups[i].SellerID, r.err)
			result.Failed = append(result.Failed, SellerFailure{
				SellerID: groups[i].SellerID,
				Reason:   r.err.Error(),
			})
			continue
		}
		result.Orders = append(result.Orders, *r.created)
		if s.mts != nil {
			s.mts.OrdersCreated.Inc()
		}
	}

	if len(result.Failed) > 0 {
		s.count("partial_failure")
		return result, &PartialFailure{Failed: result.Failed}
	}

	store.Clear()
	result.CartCleared = true
	s.count("success")
	return result, nil
}

// persistSellerOrder freezes checkout-time snapshots for one seller group
// and writes its order. Snapshots are taken from the catalog now, not from
// the values captured at add-to-cart time.
func (s *Service) persistSellerOrder(ctx context.Context, group domain.SellerGroup, methodID string, form *Form) (*CreatedOrder, error) {
	lines := make([]domain.OrderLine, len(group.Lines))
	var total int64
	for i, cartLine := range group.Lines {
		product, err := s.catalog.GetProduct(ctx, cartLine.ItemID)
		if err != nil {
			return nil, fmt.Errorf("snapshot item %s: %w", cartLine.ItemID, err)
		}
		if product.CurrentStock < cartLine.Quantity {
			return nil, fmt.Errorf("item %s: %w", cartLine.ItemID, ErrInsufficientStock)
		}

		subtotal := product.UnitPriceMinor * int64(cartLine.Quantity)
		lines[i] = domain.OrderLine{
			CatalogItemID:  cartLine.ItemID,
			Name:           product.Name,
			UnitPriceMinor: product.UnitPriceMinor,
			Quantity:       cartLine.Quantity,
			SubtotalMinor:  subtotal,
		}
		total += subtotal
	}

	order := &domain.Order{
		ID:              uuid.New(),
		OrderNumber:     newOrderNumber(s.now()),
		SellerID:        group.SellerID,
		CustomerName:    strings.TrimSpace(form.CustomerName),
		CustomerPhone:   strings.TrimSpace(form.CustomerPhone),
		DeliveryAddress: strings.TrimSpace(form.DeliveryAddress),
		PaymentMethodID: methodID,
		TotalMinor:      total,
		Currency:        s.currency,
		Notes:           strings.TrimSpace(form.Notes),
		Status:          domain.OrderStatusPending,
		Lines:           lines,
	}

	err := s.repo.CreateOrder(ctx, order)
	if errors.Is(err, orders.ErrDuplicateOrderNumber) {
		// The random suffix collided; one retry with a fresh number.
		order.OrderNumber = newOrderNumber(s.now())
		err = s.repo.CreateOrder(ctx, order)
	}
	if err != nil {
		return nil, fmt.Errorf("persist order for seller %s: %w", group.SellerID, err)
	}

	return &CreatedOrder{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		SellerID:    order.SellerID,
		TotalMinor:  order.TotalMinor,
	}, nil
}

// validateForm checks every precondition in order and reports the first
// failure by field. No state is written on a validation failure.
func validateForm(groups []domain.SellerGroup, form *Form) error {
	if len(groups) == 0 {
		return &ValidationError{Field: "cart", Reason: "cart is empty"}
	}
	if strings.TrimSpace(form.CustomerName) == "" {
		return &ValidationError{Field: "customer_name", Reason: "required"}
	}
	if strings.TrimSpace(form.CustomerPhone) == "" {
		return &ValidationError{Field: "customer_phone", Reason: "required"}
	}
	if strings.TrimSpace(form.DeliveryAddress) == "" {
		return &ValidationError{Field: "delivery_address", Reason: "required"}
	}
	if strings.TrimSpace(form.PaymentMethodID) == "" {
		return &ValidationError{Field: "payment_method_id", Reason: "required"}
	}
	return nil
}

func (s *Service) count(outcome string) {
	if s.mts != nil {
		s.mts.Checkouts.WithLabelValues(outcome).Inc()
	}
}
