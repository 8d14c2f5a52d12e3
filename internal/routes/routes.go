// Package routes wires the HTTP surface onto the router.
package routes

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gersemi/storefront/internal/handler/storefront"
	"github.com/gersemi/storefront/internal/router"
)

// Handlers bundles everything route registration needs.
type Handlers struct {
	Products *storefront.ProductHandler
	Cart     *storefront.CartHandler
	Checkout *storefront.CheckoutHandler
	Orders   *storefront.OrderHandler
}

// Register mounts all routes on the router.
func Register(r *router.Router, h Handlers) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle(http.MethodGet, "/metrics", promhttp.Handler())

	// Catalog
	r.Get("/products/{slug}", h.Products.Show)

	// Cart
	r.Get("/cart", h.Cart.View)
	r.Post("/cart/items", h.Cart.Add)
	r.Put("/cart/items/{variant_id}", h.Cart.Update)
	r.Delete("/cart/items/{variant_id}", h.Cart.Remove)
	r.Delete("/cart", h.Cart.Clear)
	r.Post("/cart/merge", h.Cart.Merge)

	// Checkout
	r.Get("/checkout", h.Checkout.Show)
	r.Post("/checkout", h.Checkout.Submit)

	// Orders
	r.Get("/orders/{number}", h.Orders.Show)
	r.Post("/orders/{number}/status", h.Orders.UpdateStatus)
	r.Post("/orders/{number}/fulfillment", h.Orders.UpdateFulfillment)
}
