package storefront

import (
	"errors"
	"net/http"

	"github.com/gersemi/storefront/internal/domain"
	"github.com/gersemi/storefront/internal/handler"
)

// CheckoutHandler drives the checkout page and submission.
type CheckoutHandler struct {
	checkout domain.CheckoutService
	carts    domain.CartService
}

func NewCheckoutHandler(checkout domain.CheckoutService, carts domain.CartService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, carts: carts}
}

// Show handles GET /checkout. An empty or missing cart redirects back to the
// cart page; otherwise the response carries the cart summary plus any form
// state saved by a previously failed submission.
func (h *CheckoutHandler) Show(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := GetSessionTokenFromCookie(r)
	if token == "" {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}
	cart, err := h.carts.GetCart(ctx, token)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			http.Redirect(w, r, "/cart", http.StatusSeeOther)
			return
		}
		handler.Error(w, r, err)
		return
	}
	summary, err := h.carts.GetCartSummary(ctx, cart.ID)
	if err != nil {
		handler.Error(w, r, err)
		return
	}
	if len(summary.Lines) == 0 {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}

	saved, err := h.checkout.SavedForm(ctx, token)
	if err != nil {
		handler.Error(w, r, err)
		return
	}

	resource := map[string]any{"cart": newCartView(summary)}
	if saved != nil {
		resource["form"] = saved
	}
	handler.OK(w, resource)
}

// Submit handles POST /checkout. Validation failures come back as field
// errors with the form preserved server-side; a successful submission
// converts the cart and returns the created order.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := GetSessionTokenFromCookie(r)
	if token == "" {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		handler.Error(w, r, domain.Invalid("checkout.submit", "Invalid form data"))
		return
	}

	form := domain.CheckoutForm{
		Email:          r.FormValue("email"),
		Phone:          r.FormValue("phone"),
		FullName:       r.FormValue("full_name"),
		DeliveryMethod: r.FormValue("delivery_method"),
		DeliveryDate:   r.FormValue("delivery_date"),
		DeliverySlot:   r.FormValue("delivery_slot"),
		AddressLine1:   r.FormValue("address_line1"),
		AddressLine2:   r.FormValue("address_line2"),
		City:           r.FormValue("city"),
		PostalCode:     r.FormValue("postal_code"),
		Country:        r.FormValue("country"),
		Notes:          r.FormValue("notes"),
	}

	detail, err := h.checkout.Submit(ctx, token, form)
	if err != nil {
		if errors.Is(err, domain.ErrCartNotFound) || errors.Is(err, domain.ErrEmptyCart) {
			http.Redirect(w, r, "/cart", http.StatusSeeOther)
			return
		}
		handler.Error(w, r, err)
		return
	}
	handler.Created(w, newOrderView(detail))
}
