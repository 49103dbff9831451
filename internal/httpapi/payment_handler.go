package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/cart"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/domain"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/payment"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/verification"
)

type PaymentHandler struct {
	sessions *cart.Sessions
	resolver *payment.Resolver
	verifier verification.Provider
	timeout  time.Duration
}

func NewPaymentHandler(sessions *cart.Sessions, resolver *payment.Resolver, verifier verification.Provider, timeout time.Duration) *PaymentHandler {
	return &PaymentHandler{
		sessions: sessions,
		resolver: resolver,
		verifier: verifier,
		timeout:  timeout,
	}
}

// MethodOffersDTO lists the methods every seller in the cart accepts, each
// flagged available / coming_soon / verification_required. NoCommonMethod is
// set when the cart's sellers share no method at all, so the UI can send the
// shopper back to cart editing instead of showing an empty picker.
type MethodOffersDTO struct {
	Offers         []domain.MethodOffer `json:"offers"`
	NoCommonMethod bool                 `json:"no_common_method,omitempty"`
}

func (h *PaymentHandler) ListOffers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := sessionIDFromContext(r.Context())
	store := h.sessions.Get(sessionID)

	status, err := h.verifier.Status(ctx, sessionID)
	if err != nil {
		respondError(w, http.StatusBadGateway, "verification_error", "verification lookup failed")
		return
	}

	offers, err := h.resolver.Offers(ctx, store.SellerIDs(), status)
	if err != nil {
		if errors.Is(err, payment.ErrNoCommonMethod) {
			respondJSON(w, http.StatusOK, MethodOffersDTO{Offers: []domain.MethodOffer{}, NoCommonMethod: true})
			return
		}
		respondError(w, http.StatusBadGateway, "registry_error", "payment registry lookup failed")
		return
	}
	if offers == nil {
		offers = []domain.MethodOffer{}
	}

	respondJSON(w, http.StatusOK, MethodOffersDTO{Offers: offers})
}
