package domain

// CartLine is one item row in a shopper's cart. Name, price and image are
// snapshots taken from the catalog when the item was added; checkout takes
// fresh snapshots before persisting anything.
type CartLine struct {
	ItemID         string `json:"item_id"`
	SellerID       string `json:"seller_id"`
	Name           string `json:"name"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
	Quantity       int32  `json:"quantity"`
	ImageRef       string `json:"image_ref,omitempty"`
}

// SubtotalMinor is the line subtotal in minor currency units.
func (l CartLine) SubtotalMinor() int64 {
	return l.UnitPriceMinor * int64(l.Quantity)
}

// CartTotals is always recomputed from the live lines, never cached.
type CartTotals struct {
	ItemCount   int32 `json:"item_count"`
	AmountMinor int64 `json:"amount_minor"`
}

// SellerGroup is the read-only per-seller partition of a cart. Groups keep
// the order in which each seller first appeared in the cart.
type SellerGroup struct {
	SellerID      string     `json:"seller_id"`
	Lines         []CartLine `json:"lines"`
	ItemCount     int32      `json:"item_count"`
	SubtotalMinor int64      `json:"subtotal_minor"`
}
