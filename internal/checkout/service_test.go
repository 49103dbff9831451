package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/cart"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/catalog"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/domain"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/payment"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/verification"
)

func validForm() *Form {
	return &Form{
		CustomerName:    "Ada Nguema",
		CustomerPhone:   "+240 222 123456",
		DeliveryAddress: "Malabo II, Calle de Kenia",
		PaymentMethodID: "cash",
	}
}

// newTestService wires a checkout service over in-memory collaborators: a
// two-seller catalog where both sellers accept cash and only S1 accepts bank.
func newTestService(repo *MockRepository) (*Service, *cart.Store, *verification.MemoryProvider) {
	mockCatalog := &MockCatalog{Products: map[string]*catalog.Product{
		"widget": {ID: "widget", SellerID: "S1", Name: "Widget", UnitPriceMinor: 5000, CurrentStock: 10},
		"gadget": {ID: "gadget", SellerID: "S2", Name: "Gadget", UnitPriceMinor: 3000, CurrentStock: 10},
	}}

	cash := domain.PaymentMethod{ID: "cash", DisplayName: "Cash on delivery", Enabled: true}
	bank := domain.PaymentMethod{ID: "bank", DisplayName: "Bank transfer", Enabled: true}
	wallet := domain.PaymentMethod{ID: "wallet", DisplayName: "Mobile wallet", RequiresVerification: true, Enabled: true}

	registry := catalog.NewMemoryRegistry()
	registry.SetSellerMethods("S1", []domain.PaymentMethod{bank, cash, wallet})
	registry.SetSellerMethods("S2", []domain.PaymentMethod{cash, wallet})

	verifier := verification.NewMemoryProvider()

	svc := NewService(mockCatalog, payment.NewResolver(registry), verifier, repo, "XAF", nil)

	store := cart.NewStore()
	return svc, store, verifier
}

func fillTwoSellerCart(store *cart.Store) {
	store.AddItem(domain.CartLine{ItemID: "widget", SellerID: "S1", Name: "Widget", UnitPriceMinor: 5000, Quantity: 2})
	store.AddItem(domain.CartLine{ItemID: "gadget", SellerID: "S2", Name: "Gadget", UnitPriceMinor: 3000, Quantity: 1})
}

func TestSubmit_TwoSellersProduceTwoOrders(t *testing.T) {
	repo := &MockRepository{}
	svc, store, _ := newTestService(repo)
	fillTwoSellerCart(store)

	result, err := svc.Submit(context.Background(), store, "shopper-1", validForm())

	require.NoError(t, err)
	require.Len(t, result.Orders, 2)
	assert.Empty(t, result.Failed)
	assert.True(t, result.CartCleared)
	assert.Equal(t, 0, store.Len(), "cart must be cleared on full success")

	s1 := repo.CreatedForSeller("S1")
	require.NotNil(t, s1)
	assert.Equal(t, int64(10000), s1.TotalMinor)
	require.Len(t, s1.Lines, 1)
	assert.Equal(t, int32(2), s1.Lines[0].Quantity)
	assert.Equal(t, domain.OrderStatusPending, s1.Status)
	assert.Equal(t, "XAF", s1.Currency)
	assert.NotEmpty(t, s1.OrderNumber)

	s2 := repo.CreatedForSeller("S2")
	require.NotNil(t, s2)
	assert.Equal(t, int64(3000), s2.TotalMinor)
	require.Len(t, s2.Lines, 1)
	assert.Equal(t, int32(1), s2.Lines[0].Quantity)

	assert.NotEqual(t, s1.OrderNumber, s2.OrderNumber)

	// one customer/payment selection shared across both orders
	assert.Equal(t, s1.CustomerName, s2.CustomerName)
	assert.Equal(t, "cash", s1.PaymentMethodID)
	assert.Equal(t, "cash", s2.PaymentMethodID)
}

func TestSubmit_LineSubtotalsSumToOrderTotal(t *testing.T) {
	repo := &MockRepository{}
	svc, store, _ := newTestService(repo)
	store.AddItem(domain.CartLine{ItemID: "widget", SellerID: "S1", UnitPriceMinor: 5000, Quantity: 3})

	_, err := svc.Submit(context.Background(), store, "shopper-1", validForm())
	require.NoError(t, err)

	order := repo.CreatedForSeller("S1")
	require.NotNil(t, order)
	var sum int64
	for _, l := range order.Lines {
		assert.Equal(t, l.UnitPriceMinor*int64(l.Quantity), l.SubtotalMinor)
		sum += l.SubtotalMinor
	}
	assert.Equal(t, order.TotalMinor, sum)
}

func TestSubmit_EmptyCartIsValidationError(t *testing.T) {
	repo := &MockRepository{}
	svc, store, _ := newTestService(repo)

	_, err := svc.Submit(context.Background(), store, "shopper-1", validForm())

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "cart", validationErr.Field)
	assert.Empty(t, repo.Created, "no partial order may be written")
}

func TestSubmit_BlankFieldsRejectedInOrder(t *testing.T) {
	repo := &MockRepository{}
	svc, store, _ := newTestService(repo)
	fillTwoSellerCart(store)

	cases := []struct {
		mutate func(*Form)
		field  string
	}{
		{func(f *Form) { f.CustomerName = "   " }, "customer_name"},
		{func(f *Form) { f.CustomerPhone = "" }, "customer_phone"},
		{func(f *Form) { f.DeliveryAddress = "\t" }, "delivery_address"},
		{func(f *Form) { f.PaymentMethodID = "" }, "payment_method_id"},
	}

	for _, tc := range cases {
		form := validForm()
		tc.mutate(form)

		_, err := svc.Submit(context.Background(), store, "shopper-1", form)

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr, "field %s", tc.field)
		assert.Equal(t, tc.field, validationErr.Field)
	}

	assert.Empty(t, repo.Created)
	assert.NotZero(t, store.Len(), "cart untouched after validation failures")
}

func TestSubmit_MethodNotAcceptedByEverySeller(t *testing.T) {
	repo := &MockRepository{}
	svc, store, _ := newTestService(repo)
	fillTwoSellerCart(store)

	form := validForm()
	form.PaymentMethodID = "bank" // S1 only

	_, err := svc.Submit(context.Background(), store, "shopper-1", form)

	var eligibilityErr *EligibilityError
	require.ErrorAs(t, err, &eligibilityErr)
	assert.ErrorIs(t, err, payment.ErrMethodNotEligible)
	assert.Empty(t, repo.Created)
}

func TestSubmit_GatedMethodNeedsVerifiedShopper(t *testing.T) {
	repo := &MockRepository{}
	svc, store, verifier := newTestService(repo)
	fillTwoSellerCart(store)

	form := validForm()
	form.PaymentMethodID = "wallet"

	_, err := svc.Submit(context.Background(), store, "shopper-1", form)
	assert.ErrorIs(t, err, payment.ErrVerificationRequired)
	assert.Empty(t, repo.Created)

	verifier.SetStatus("shopper-1", domain.VerificationVerified)

	result, err := svc.Submit(context.Background(), store, "shopper-1", form)
	require.NoError(t, err)
	assert.Len(t, result.Orders, 2)
}

func TestSubmit_SnapshotsTakenAtCheckoutTime(t *testing.T) {
	repo := &MockRepository{}
	svc, store, _ := newTestService(repo)

	// added at the old price
	store.AddItem(domain.CartLine{ItemID: "widget", SellerID: "S1", Name: "Old name", UnitPriceMinor: 1, Quantity: 2})

	_, err := svc.Submit(context.Background(), store, "shopper-1", validForm())
	require.NoError(t, err)

	order := repo.CreatedForSeller("S1")
	require.NotNil(t, order)
	assert.Equal(t, "Widget", order.Lines[0].Name, "name drift resolves to checkout-time value")
	assert.Equal(t, int64(5000), order.Lines[0].UnitPriceMinor)
	assert.Equal(t, int64(10000), order.TotalMinor)
}

func TestSubmit_InsufficientStockFailsThatSellerOnly(t *testing.T) {
	repo := &MockRepository{}
	svc, store, _ := newTestService(repo)
	store.AddItem(domain.CartLine{ItemID: "widget", SellerID: "S1", UnitPriceMinor: 5000, Quantity: 99})
	store.AddItem(domain.CartLine{ItemID: "gadget", SellerID: "S2", UnitPriceMinor: 3000, Quantity: 1})

	result, err := svc.Submit(context.Background(), store, "shopper-1", validForm())

	var partial *PartialFailure
	require.ErrorAs(t, err, &partial)
	require.Len(t, partial.Failed, 1)
	assert.Equal(t, "S1", partial.Failed[0].SellerID)

	require.Len(t, result.Orders, 1)
	assert.Equal(t, "S2", result.Orders[0].SellerID)
	assert.False(t, result.CartCleared)
	assert.NotZero(t, store.Len(), "cart must not be cleared on partial failure")
}

func TestSubmit_OneSellerFailureDoesNotBlockOthers(t *testing.T) {
	repo := &MockRepository{FailSellers: map[string]error{"S2": errors.New("connection reset")}}
	svc, store, _ := newTestService(repo)
	fillTwoSellerCart(store)

	result, err := svc.Submit(context.Background(), store, "shopper-1", validForm())

	var partial *PartialFailure
	require.ErrorAs(t, err, &partial)
	require.Len(t, partial.Failed, 1)
	assert.Equal(t, "S2", partial.Failed[0].SellerID)

	require.Len(t, result.Orders, 1)
	assert.Equal(t, "S1", result.Orders[0].SellerID, "S1's order survives S2's failure")
}

func TestSubmit_NoCommonMethodBlocksCheckout(t *testing.T) {
	repo := &MockRepository{}
	mockCatalog := &MockCatalog{Products: map[string]*catalog.Product{
		"widget": {ID: "widget", SellerID: "S1", Name: "Widget", UnitPriceMinor: 5000, CurrentStock: 10},
		"gadget": {ID: "gadget", SellerID: "S2", Name: "Gadget", UnitPriceMinor: 3000, CurrentStock: 10},
	}}
	registry := catalog.NewMemoryRegistry()
	registry.SetSellerMethods("S1", []domain.PaymentMethod{{ID: "bank", Enabled: true}})
	registry.SetSellerMethods("S2", []domain.PaymentMethod{{ID: "card", Enabled: true}})
	svc := NewService(mockCatalog, payment.NewResolver(registry), verification.NewMemoryProvider(), repo, "XAF", nil)

	store := cart.NewStore()
	fillTwoSellerCart(store)

	form := validForm()
	form.PaymentMethodID = "bank"

	_, err := svc.Submit(context.Background(), store, "shopper-1", form)

	assert.ErrorIs(t, err, payment.ErrNoCommonMethod)
	assert.Empty(t, repo.Created)
}

func TestSubmit_RetriesOnceOnDuplicateOrderNumber(t *testing.T) {
	repo := &MockRepository{DuplicateOnce: true}
	svc, store, _ := newTestService(repo)
	store.AddItem(domain.CartLine{ItemID: "widget", SellerID: "S1", UnitPriceMinor: 5000, Quantity: 1})

	result, err := svc.Submit(context.Background(), store, "shopper-1", validForm())

	require.NoError(t, err)
	assert.Len(t, result.Orders, 1)
	assert.Len(t, repo.Created, 1)
}
