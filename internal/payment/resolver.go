package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/catalog"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/domain"
)

var (
	// ErrNoCommonMethod means the sellers in the cart share no payment method
	// at all. Checkout is blocked; nothing is silently defaulted.
	ErrNoCommonMethod = errors.New("no payment method is accepted by every seller in the cart")

	// ErrMethodNotEligible means the chosen method is not accepted by every
	// seller in the cart.
	ErrMethodNotEligible = errors.New("payment method is not accepted by every seller in the cart")

	// ErrMethodNotAvailable means the chosen method matches the cart but is
	// globally disabled.
	ErrMethodNotAvailable = errors.New("payment method is not available yet")

	// ErrVerificationRequired means the chosen method needs a verified
	// shopper. Callers route this to the identity-verification flow, not to a
	// generic form error.
	ErrVerificationRequired = errors.New("payment method requires identity verification")
)

// Resolver computes which payment methods can cover a whole cart. A method
// qualifies only when every seller in the cart accepts it: the resolution is
// an intersection across sellers, never a union.
type Resolver struct {
	registry catalog.PaymentRegistry
}

func NewResolver(registry catalog.PaymentRegistry) *Resolver {
	return &Resolver{registry: registry}
}

// Offers returns one MethodOffer per method accepted by every seller, in the
// first seller's catalog order, each classified for the given shopper. An
// empty cart has no sellers and therefore no offers. When sellers share no
// method at all, ErrNoCommonMethod is returned.
func (r *Resolver) Offers(ctx context.Context, sellerIDs []string, status domain.VerificationStatus) ([]domain.MethodOffer, error) {
	common, err := r.commonMethods(ctx, sellerIDs)
	if err != nil {
		return nil, err
	}

	offers := make([]domain.MethodOffer, len(common))
	for i, m := range common {
		offers[i] = domain.MethodOffer{Method: m, State: classify(m, status)}
	}
	return offers, nil
}

// EligibleMethod resolves the chosen method against the cart's sellers and
// the shopper's verification status. It returns the method only when it may
// actually be used to check out right now.
func (r *Resolver) EligibleMethod(ctx context.Context, sellerIDs []string, methodID string, status domain.VerificationStatus) (*domain.PaymentMethod, error) {
	common, err := r.commonMethods(ctx, sellerIDs)
	if err != nil {
		return nil, err
	}

	for _, m := range common {
		if m.ID != methodID {
			continue
		}
		switch classify(m, status) {
		case domain.OfferAvailable:
			return &m, nil
		case domain.OfferComingSoon:
			return nil, ErrMethodNotAvailable
		case domain.OfferVerificationRequired:
			return nil, ErrVerificationRequired
		}
	}
	return nil, ErrMethodNotEligible
}

func (r *Resolver) commonMethods(ctx context.Context, sellerIDs []string) ([]domain.PaymentMethod, error) {
	if len(sellerIDs) == 0 {
		return nil, nil
	}

	common, err := r.registry.MethodsForSeller(ctx, sellerIDs[0])
	if err != nil {
		return nil, fmt.Errorf("load methods for seller %s: %w", sellerIDs[0], err)
	}

	for _, sellerID := range sellerIDs[1:] {
		methods, err := r.registry.MethodsForSeller(ctx, sellerID)
		if err != nil {
			return nil, fmt.Errorf("load methods for seller %s: %w", sellerID, err)
		}
		accepted := make(map[string]bool, len(methods))
		for _, m := range methods {
			accepted[m.ID] = true
		}

		kept := common[:0]
		for _, m := range common {
			if accepted[m.ID] {
				kept = append(kept, m)
			}
		}
		common = kept
	}

	if len(common) == 0 {
		return nil, ErrNoCommonMethod
	}
	return common, nil
}

// classify maps a method to its closed offer state. Disabled wins over the
// verification gate: a coming-soon method is not selectable regardless of
// who is asking.
func classify(m domain.PaymentMethod, status domain.VerificationStatus) domain.OfferState {
	if !m.Enabled {
		return domain.OfferComingSoon
	}
	if !Usable(m, status) {
		return domain.OfferVerificationRequired
	}
	return domain.OfferAvailable
}
