package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/cart"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/catalog"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/domain"
)

type CartHandler struct {
	sessions *cart.Sessions
	catalog  catalog.ProductCatalog
	timeout  time.Duration
}

func NewCartHandler(sessions *cart.Sessions, productCatalog catalog.ProductCatalog, timeout time.Duration) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		catalog:  productCatalog,
		timeout:  timeout,
	}
}

type AddItemRequestDTO struct {
	ItemID   string `json:"item_id"`
	Quantity int32  `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int32 `json:"quantity"`
}

// CartSummaryDTO is the grouped-by-seller projection checkout screens use.
type CartSummaryDTO struct {
	Groups []domain.SellerGroup `json:"groups"`
	Totals domain.CartTotals    `json:"totals"`
}

func summarize(store *cart.Store) CartSummaryDTO {
	groups := store.GroupBySeller()
	if groups == nil {
		groups = []domain.SellerGroup{}
	}
	return CartSummaryDTO{Groups: groups, Totals: store.Totals()}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	store := h.sessions.Get(sessionIDFromContext(r.Context()))
	respondJSON(w, http.StatusOK, summarize(store))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ItemID == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item_id is required")
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	product, err := h.catalog.GetProduct(ctx, req.ItemID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "item not found in catalog")
			return
		}
		respondError(w, http.StatusBadGateway, "catalog_error", "catalog lookup failed")
		return
	}

	store := h.sessions.Get(sessionIDFromContext(r.Context()))
	store.AddItem(domain.CartLine{
		ItemID:         product.ID,
		SellerID:       product.SellerID,
		Name:           product.Name,
		UnitPriceMinor: product.UnitPriceMinor,
		Quantity:       req.Quantity,
		ImageRef:       product.ImageRef,
	})

	respondJSON(w, http.StatusCreated, summarize(store))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "item_id")
	if itemID == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item_id is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	// A quantity of zero or less removes the line.
	store := h.sessions.Get(sessionIDFromContext(r.Context()))
	store.SetQuantity(itemID, req.Quantity)

	respondJSON(w, http.StatusOK, summarize(store))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "item_id")
	if itemID == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item_id is required")
		return
	}

	store := h.sessions.Get(sessionIDFromContext(r.Context()))
	store.RemoveItem(itemID)

	respondJSON(w, http.StatusOK, summarize(store))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	store := h.sessions.Get(sessionIDFromContext(r.Context()))
	store.Clear()

	respondJSON(w, http.StatusOK, summarize(store))
}
