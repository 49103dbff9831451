package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Cart     *CartHandler
	Payment  *PaymentHandler
	Checkout *CheckoutHandler
	Orders   *OrdersHandler
	Metrics  http.Handler
}

func NewRouter(h Handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Shopper-facing routes need a session.
		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.GetCart)
				r.Delete("/", h.Cart.ClearCart)
				r.Post("/items", h.Cart.AddItem)
				r.Put("/items/{item_id}", h.Cart.UpdateQuantity)
				r.Delete("/items/{item_id}", h.Cart.RemoveItem)
			})

			r.Get("/payment-methods", h.Payment.ListOffers)
			r.Post("/checkout", h.Checkout.Submit)
		})

		// Seller/admin order management.
		r.Get("/sellers/{seller_id}/orders", h.Orders.ListSellerOrders)
		r.Post("/orders/{order_id}/status", h.Orders.TransitionStatus)
	})

	return r
}
