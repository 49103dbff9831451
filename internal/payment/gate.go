package payment

import (
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/domain"
)

// Usable reports whether the shopper's verification status permits the
// method. It is false only when the method requires verification and the
// shopper is not verified; a gated method is never silently substituted or
// silently allowed. Pure function: it never mutates verification state.
func Usable(method domain.PaymentMethod, status domain.VerificationStatus) bool {
	if !method.RequiresVerification {
		return true
	}
	return status == domain.VerificationVerified
}
