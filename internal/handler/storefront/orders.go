package storefront

import (
	"net/http"

	"github.com/gersemi/storefront/internal/domain"
	"github.com/gersemi/storefront/internal/handler"
)

// OrderHandler serves order lookup and the status transition endpoints.
type OrderHandler struct {
	orders domain.OrderService
}

func NewOrderHandler(orders domain.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Show handles GET /orders/{number}
func (h *OrderHandler) Show(w http.ResponseWriter, r *http.Request) {
	detail, err := h.orders.GetOrderByNumber(r.Context(), r.PathValue("number"))
	if err != nil {
		handler.Error(w, r, err)
		return
	}
	handler.OK(w, newOrderView(detail))
}

// UpdateStatus handles POST /orders/{number}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	detail, err := h.orders.GetOrderByNumber(ctx, r.PathValue("number"))
	if err != nil {
		handler.Error(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		handler.Error(w, r, domain.Invalid("order.update_status", "Invalid form data"))
		return
	}

	to := domain.OrderStatus(r.FormValue("status"))
	if err := h.orders.UpdateStatus(ctx, detail.Order.ID, to); err != nil {
		handler.Error(w, r, err)
		return
	}

	updated, err := h.orders.GetOrder(ctx, detail.Order.ID)
	if err != nil {
		handler.Error(w, r, err)
		return
	}
	handler.OK(w, newOrderView(updated))
}

// UpdateFulfillment handles POST /orders/{number}/fulfillment
func (h *OrderHandler) UpdateFulfillment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	detail, err := h.orders.GetOrderByNumber(ctx, r.PathValue("number"))
	if err != nil {
		handler.Error(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		handler.Error(w, r, domain.Invalid("order.update_fulfillment", "Invalid form data"))
		return
	}

	to := domain.FulfillmentStatus(r.FormValue("fulfillment_status"))
	if err := h.orders.UpdateFulfillment(ctx, detail.Order.ID, to); err != nil {
		handler.Error(w, r, err)
		return
	}

	updated, err := h.orders.GetOrder(ctx, detail.Order.ID)
	if err != nil {
		handler.Error(w, r, err)
		return
	}
	handler.OK(w, newOrderView(updated))
}
