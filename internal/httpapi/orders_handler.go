package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/domain"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/orders"
)

type OrdersHandler struct {
	manager *orders.Manager
	timeout time.Duration
}

func NewOrdersHandler(manager *orders.Manager, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		manager: manager,
		timeout: timeout,
	}
}

// OrderDTO adds the legal next statuses to an order, so management screens
// render exactly the actions the transition table permits.
type OrderDTO struct {
	domain.Order
	NextStatuses []domain.OrderStatus `json:"next_statuses"`
}

type TransitionRequestDTO struct {
	Status domain.OrderStatus `json:"status"`
}

type TransitionConflictDTO struct {
	Error         string               `json:"error"`
	Code          string               `json:"code"`
	CurrentStatus domain.OrderStatus   `json:"current_status"`
	NextStatuses  []domain.OrderStatus `json:"next_statuses"`
}

func (h *OrdersHandler) ListSellerOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sellerID := chi.URLParam(r, "seller_id")
	if sellerID == "" {
		respondError(w, http.StatusBadRequest, "invalid_seller_id", "seller_id is required")
		return
	}

	list, err := h.manager.ListForSeller(ctx, sellerID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list orders")
		return
	}

	out := make([]OrderDTO, len(list))
	for i, order := range list {
		out[i] = OrderDTO{Order: *order, NextStatuses: domain.NextStatuses(order.Status)}
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) TransitionStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return
	}

	var req TransitionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if !domain.IsValidStatus(req.Status) {
		respondError(w, http.StatusBadRequest, "invalid_status", "unknown order status")
		return
	}

	order, err := h.manager.Transition(ctx, orderID, req.Status)
	if err != nil {
		var invalid *orders.InvalidTransitionError
		if errors.As(err, &invalid) {
			respondJSON(w, http.StatusConflict, TransitionConflictDTO{
				Error:         invalid.Error(),
				Code:          "invalid_transition",
				CurrentStatus: invalid.From,
				NextStatuses:  domain.NextStatuses(invalid.From),
			})
			return
		}
		if errors.Is(err, orders.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "order not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update order status")
		return
	}

	respondJSON(w, http.StatusOK, OrderDTO{Order: *order, NextStatuses: domain.NextStatuses(order.Status)})
}
