package domain

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// =============================================================================
// CART DOMAIN ERRORS
// =============================================================================

var (
	ErrCartNotFound     = &Error{Code: ENOTFOUND, Message: "Cart not found"}
	ErrCartLineNotFound = &Error{Code: ENOTFOUND, Message: "Cart item not found"}
	ErrSessionNotFound  = &Error{Code: ENOTFOUND, Message: "Session not found"}
	ErrCartAbandoned    = &Error{Code: ECONFLICT, Message: "Cart is no longer active"}
)

// CartService provides business logic for shopping cart mutations.
// Every mutation validates quantity inside the same transaction that writes,
// with the affected rows locked.
type CartService interface {
	// GetOrCreateCart retrieves the active cart for a session token, creating
	// the session and cart lazily on first use. Returns the cart and the
	// session token (newly generated when the input token is empty).
	GetOrCreateCart(ctx context.Context, sessionToken string) (*Cart, string, error)

	// GetCart retrieves an active cart by session token.
	GetCart(ctx context.Context, sessionToken string) (*Cart, error)

	// AddItem adds quantity of a variant to the cart, creating the unique
	// cart line for (cart, variant) or topping up the existing one. The
	// line's price snapshot is refreshed from the live variant price.
	AddItem(ctx context.Context, cartID, variantID pgtype.UUID, quantity int32) (*CartSummary, error)

	// SetItemQuantity sets the absolute quantity of a cart line.
	// A quantity of zero or less deletes the line; this is the canonical
	// removal path.
	SetItemQuantity(ctx context.Context, cartID, variantID pgtype.UUID, quantity int32) (*CartSummary, error)

	// Clear removes every line from the cart in one transaction. On failure
	// the whole clear rolls back and the returned result reports which lines
	// had been cleared before the failure.
	Clear(ctx context.Context, cartID pgtype.UUID) (*ClearResult, error)

	// GetCartSummary retrieves the cart with its lines and derived totals.
	GetCartSummary(ctx context.Context, cartID pgtype.UUID) (*CartSummary, error)
}

// MergeService reconciles a guest cart into a user cart at authentication time.
type MergeService interface {
	// Merge moves the guest cart's lines into the user cart. Conflicting
	// lines are combined through the normal quantity validation path; excess
	// over stock or the per-line cap is dropped and reported, never raised.
	// The guest cart is soft-closed afterwards, making a re-triggered merge
	// a no-op.
	Merge(ctx context.Context, userCartID, guestCartID pgtype.UUID) (*MergeResult, error)

	// AdoptOrMerge attaches the guest cart directly to the user when the user
	// has no active cart, and merges otherwise. Called once at login.
	AdoptOrMerge(ctx context.Context, userID, guestCartID pgtype.UUID) (*MergeResult, error)
}

// Cart is the ephemeral aggregate holding a shopper's in-progress selection.
// A nil UserID means a guest cart. AbandonedAt is set (never deleted) once the
// cart is merged away or converted into an order.
type Cart struct {
	ID           pgtype.UUID
	UserID       pgtype.UUID
	SessionToken string
	AbandonedAt  pgtype.Timestamptz
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

// Active reports whether the cart can still be mutated.
func (c *Cart) Active() bool {
	return !c.AbandonedAt.Valid
}

// CartLine is one (cart, variant) row. UnitPriceCents and Currency are the
// price snapshot captured when the line was created or last updated; cart
// totals sum snapshots, not live catalog prices.
type CartLine struct {
	ID             pgtype.UUID
	CartID         pgtype.UUID
	VariantID      pgtype.UUID
	Quantity       int32
	UnitPriceCents int32
	Currency       string
	CreatedAt      pgtype.Timestamptz
	UpdatedAt      pgtype.Timestamptz
}

// CartLineView is a cart line joined with catalog display fields, in stable
// creation order.
type CartLineView struct {
	CartLine
	ProductName  string
	VariantName  string
	SKU          string
	LineSubtotal int32
}

// CartSummary aggregates a cart with its lines and derived totals. Totals are
// always recomputed from live lines, never stored.
type CartSummary struct {
	Cart          Cart
	Lines         []CartLineView
	SubtotalCents int32
	Currency      string
	ItemCount     int32
}

// ClearResult reports the outcome of a Clear operation. When Err is set the
// transaction rolled back and Cleared lists the lines that had succeeded
// before the failure, for observability only.
type ClearResult struct {
	Cleared []pgtype.UUID
	Failed  pgtype.UUID
}

// MergeResult reports how many guest lines reached the user cart and any
// lines whose quantity was capped or dropped along the way.
type MergeResult struct {
	MergedCount int
	Errors      []string
}
