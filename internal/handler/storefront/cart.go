package storefront

import (
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gersemi/storefront/internal/domain"
	"github.com/gersemi/storefront/internal/handler"
)

// CartHandler handles all cart-related storefront routes
type CartHandler struct {
	carts  domain.CartService
	merges domain.MergeService
	secure bool
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts domain.CartService, merges domain.MergeService, secure bool) *CartHandler {
	return &CartHandler{carts: carts, merges: merges, secure: secure}
}

// View handles GET /cart
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := GetSessionTokenFromCookie(r)
	if token == "" {
		handler.OK(w, cartView{Lines: []cartLineView{}})
		return
	}

	cart, err := h.carts.GetCart(ctx, token)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			handler.OK(w, cartView{Lines: []cartLineView{}})
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
	handler.OK(w, newCartView(summary))
}

// Add handles POST /cart/items
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		handler.Error(w, r, domain.Invalid("cart.add_item", "Invalid form data"))
		return
	}

	variantID, err := parseUUID(r.FormValue("variant_id"))
	if err != nil {
		handler.Error(w, r, domain.Invalid("cart.add_item", "Invalid variant ID"))
		return
	}
	quantity, err := parseQuantity(r.FormValue("quantity"))
	if err != nil {
		handler.Error(w, r, err)
		return
	}

	token := GetSessionTokenFromCookie(r)
	cart, newToken, err := h.carts.GetOrCreateCart(ctx, token)
	if err != nil {
		handler.Error(w, r, err)
		return
	}
	if newToken != token {
		SetSessionCookie(w, newToken, h.secure)
	}

	summary, err := h.carts.AddItem(ctx, cart.ID, variantID, quantity)
	if err != nil {
		handler.Error(w, r, err)
		return
	}
	handler.OK(w, newCartView(summary))
}

// Update handles PUT /cart/items/{variant_id}. A quantity of zero removes
// the line.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	variantID, err := parseUUID(r.PathValue("variant_id"))
	if err != nil {
		handler.Error(w, r, domain.Invalid("cart.set_quantity", "Invalid variant ID"))
		return
	}
	if err := r.ParseForm(); err != nil {
		handler.Error(w, r, domain.Invalid("cart.set_quantity", "Invalid form data"))
		return
	}
	quantity, err := strconv.ParseInt(r.FormValue("quantity"), 10, 32)
	if err != nil {
		handler.Error(w, r, domain.Invalid("cart.set_quantity", "Invalid quantity"))
		return
	}

	cart, err := h.requireCart(r)
	if err != nil {
		handler.Error(w, r, err)
		return
	}

	summary, err := h.carts.SetItemQuantity(ctx, cart.ID, variantID, int32(quantity))
	if err != nil {
		handler.Error(w, r, err)
		return
	}
	handler.OK(w, newCartView(summary))
}

// Remove handles DELETE /cart/items/{variant_id}
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	variantID, err := parseUUID(r.PathValue("variant_id"))
	if err != nil {
		handler.Error(w, r, domain.Invalid("cart.set_quantity", "Invalid variant ID"))
		return
	}

	cart, err := h.requireCart(r)
	if err != nil {
		handler.Error(w, r, err)
		return
	}

	summary, err := h.carts.SetItemQuantity(ctx, cart.ID, variantID, 0)
	if err != nil {
		handler.Error(w, r, err)
		return
	}
	handler.OK(w, newCartView(summary))
}

// Clear handles DELETE /cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cart, err := h.requireCart(r)
	if err != nil {
		handler.Error(w, r, err)
		return
	}

	result, err := h.carts.Clear(ctx, cart.ID)
	if err != nil {
		handler.Error(w, r, err)
		return
	}
	handler.OK(w, map[string]any{"cleared": len(result.Cleared)})
}

// Merge handles POST /cart/merge. Called at login to reconcile the guest
// cart with the authenticated user's cart.
func (h *CartHandler) Merge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		handler.Error(w, r, domain.Invalid("cart.merge", "Invalid form data"))
		return
	}
	userID, err := parseUUID(r.FormValue("user_id"))
	if err != nil {
		handler.Error(w, r, domain.Invalid("cart.merge", "Invalid user ID"))
		return
	}

	cart, err := h.requireCart(r)
	if err != nil {
		handler.Error(w, r, err)
		return
	}

	result, err := h.merges.AdoptOrMerge(ctx, userID, cart.ID)
	if err != nil {
		handler.Error(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, handler.Response{
		Success:  true,
		Resource: map[string]any{"merged_count": result.MergedCount},
		Errors:   result.Errors,
	})
}

func (h *CartHandler) requireCart(r *http.Request) (*domain.Cart, error) {
	token := GetSessionTokenFromCookie(r)
	if token == "" {
		return nil, domain.ErrCartNotFound
	}
	return h.carts.GetCart(r.Context(), token)
}

func parseUUID(s string) (pgtype.UUID, error) {
	var id pgtype.UUID
	if err := id.Scan(s); err != nil {
		return id, err
	}
	return id, nil
}

func parseQuantity(s string) (int32, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil || n < 1 {
		return 0, domain.Invalid("cart.add_item", "Invalid quantity")
	}
	return int32(n), nil
}
