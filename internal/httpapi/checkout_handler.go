package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/cart"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/checkout"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/payment"
)

type CheckoutHandler struct {
	sessions *cart.Sessions
	service  *checkout.Service
	timeout  time.Duration
}

func NewCheckoutHandler(sessions *cart.Sessions, service *checkout.Service, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		sessions: sessions,
		service:  service,
		timeout:  timeout,
	}
}

type CheckoutRequestDTO struct {
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	DeliveryAddress string `json:"delivery_address"`
	Notes           string `json:"notes"`
	PaymentMethodID string `json:"payment_method_id"`
}

func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	sessionID := sessionIDFromContext(r.Context())
	store := h.sessions.Get(sessionID)

	form := &checkout.Form{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		DeliveryAddress: req.DeliveryAddress,
		Notes:           req.Notes,
		PaymentMethodID: req.PaymentMethodID,
	}

	result, err := h.service.Submit(ctx, store, sessionID, form)
	if err != nil {
		handleCheckoutError(w, result, err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

func handleCheckoutError(w http.ResponseWriter, result *checkout.Result, err error) {
	var validationErr *checkout.ValidationError
	if errors.As(err, &validationErr) {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   validationErr.Reason,
			Code:    "validation_error",
			Details: validationErr.Field,
		})
		return
	}

	var eligibilityErr *checkout.EligibilityError
	if errors.As(err, &eligibilityErr) {
		code := "method_not_eligible"
		switch {
		case errors.Is(eligibilityErr, payment.ErrNoCommonMethod):
			code = "no_common_payment_method"
		case errors.Is(eligibilityErr, payment.ErrVerificationRequired):
			code = "verification_required"
		case errors.Is(eligibilityErr, payment.ErrMethodNotAvailable):
			code = "method_unavailable"
		}
		respondError(w, http.StatusUnprocessableEntity, code, eligibilityErr.Error())
		return
	}

	var partial *checkout.PartialFailure
	if errors.As(err, &partial) {
		// Created orders are not rolled back; the body carries both the
		// orders that exist and the sellers that must be retried.
		respondJSON(w, http.StatusMultiStatus, result)
		return
	}

	respondError(w, http.StatusInternalServerError, "internal_error", "checkout failed")
}
