package domain

// PaymentMethod describes one way to pay. Owned by the external payment
// catalog; read-only here.
type PaymentMethod struct {
	ID                   string `json:"id"`
	DisplayName          string `json:"display_name"`
	FeeNote              string `json:"fee_note,omitempty"`
	RequiresVerification bool   `json:"requires_verification"`
	Enabled              bool   `json:"enabled"`
}

// OfferState classifies a payment method for the current cart and shopper.
// The set is closed; eligibility logic switches over it exhaustively.
type OfferState string

const (
	// OfferAvailable means the method can be selected right now.
	OfferAvailable OfferState = "available"
	// OfferComingSoon means the method matches every seller but is globally disabled.
	OfferComingSoon OfferState = "coming_soon"
	// OfferVerificationRequired means the method matches every seller but the
	// shopper's verification status does not permit it yet.
	OfferVerificationRequired OfferState = "verification_required"
)

// MethodOffer is one payment method together with its state for the cart
// being quoted. Only methods accepted by every seller in the cart appear
// as offers at all.
type MethodOffer struct {
	Method PaymentMethod `json:"method"`
	State  OfferState    `json:"state"`
}
