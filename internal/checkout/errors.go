package checkout

import (
	"errors"
	"fmt"
)

// ErrInsufficientStock fails one seller's unit when a line exceeds the
// catalog's stock at checkout time. This is a point-in-time read, not a
// reservation.
var ErrInsufficientStock = errors.New("insufficient stock")

// ValidationError identifies the checkout field that failed validation.
// Nothing is written when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid checkout field %s: %s", e.Field, e.Reason)
}

// EligibilityError wraps the resolver's verdict on the chosen payment
// method. It is distinct from ValidationError so callers can route to the
// cart-editing or identity-verification flow instead of a generic form
// message.
type EligibilityError struct {
	MethodID string
	Err      error
}

func (e *EligibilityError) Error() string {
	if e.MethodID == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("payment method %s: %v", e.MethodID, e.Err)
}

func (e *EligibilityError) Unwrap() error {
	return e.Err
}

// SellerFailure is one seller's failed persistence unit.
type SellerFailure struct {
	SellerID string `json:"seller_id"`
	Reason   string `json:"reason"`
}

// PartialFailure reports a checkout where some per-seller orders were
// created and others were not. Created orders are never rolled back; the
// shopper retries exactly the sellers listed here.
type PartialFailure struct {
	Failed []SellerFailure
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("checkout failed for %d seller(s)", len(e.Failed))
}
