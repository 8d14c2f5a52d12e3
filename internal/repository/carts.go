package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gersemi/storefront/internal/domain"
)

const cartColumns = `id, user_id, session_token, abandoned_at, created_at, updated_at`

func scanCart(row pgx.Row) (domain.Cart, error) {
	var c domain.Cart
	err := row.Scan(&c.ID, &c.UserID, &c.SessionToken, &c.AbandonedAt, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

type CreateCartParams struct {
	UserID       pgtype.UUID
	SessionToken string
}

func (q *Queries) CreateCart(ctx context.Context, arg CreateCartParams) (domain.Cart, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO carts (user_id, session_token) VALUES ($1, $2) RETURNING `+cartColumns,
		arg.UserID, arg.SessionToken)
	return scanCart(row)
}

func (q *Queries) GetCartByID(ctx context.Context, id pgtype.UUID) (domain.Cart, error) {
	row := q.db.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1`, id)
	return scanCart(row)
}

// GetCartForUpdate locks the cart row. Cart-level mutations (merge, clear,
// order creation) take this lock first so they serialize per cart.
func (q *Queries) GetCartForUpdate(ctx context.Context, id pgtype.UUID) (domain.Cart, error) {
	row := q.db.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1 FOR UPDATE`, id)
	return scanCart(row)
}

func (q *Queries) GetActiveCartBySessionToken(ctx context.Context, token string) (domain.Cart, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+cartColumns+` FROM carts WHERE session_token = $1 AND abandoned_at IS NULL`,
		token)
	return scanCart(row)
}

func (q *Queries) GetActiveCartByUserID(ctx context.Context, userID pgtype.UUID) (domain.Cart, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+cartColumns+` FROM carts
		 WHERE user_id = $1 AND abandoned_at IS NULL
		 ORDER BY created_at DESC LIMIT 1`,
		userID)
	return scanCart(row)
}

type AssignCartUserParams struct {
	ID     pgtype.UUID
	UserID pgtype.UUID
}

func (q *Queries) AssignCartUser(ctx context.Context, arg AssignCartUserParams) error {
	_, err := q.db.Exec(ctx,
		`UPDATE carts SET user_id = $2, updated_at = now() WHERE id = $1`,
		arg.ID, arg.UserID)
	return err
}

// MarkCartAbandoned soft-closes a cart. Carts are never hard-deleted; merged
// and converted carts keep their rows for analytics continuity.
func (q *Queries) MarkCartAbandoned(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx,
		`UPDATE carts SET abandoned_at = now(), updated_at = now() WHERE id = $1 AND abandoned_at IS NULL`,
		id)
	return err
}

const cartLineColumns = `id, cart_id, variant_id, quantity, unit_price_cents, currency, created_at, updated_at`

func scanCartLine(row pgx.Row) (domain.CartLine, error) {
	var l domain.CartLine
	err := row.Scan(&l.ID, &l.CartID, &l.VariantID, &l.Quantity, &l.UnitPriceCents, &l.Currency, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

type CartLineKeyParams struct {
	CartID    pgtype.UUID
	VariantID pgtype.UUID
}

func (q *Queries) GetCartLine(ctx context.Context, arg CartLineKeyParams) (domain.CartLine, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+cartLineColumns+` FROM cart_lines WHERE cart_id = $1 AND variant_id = $2`,
		arg.CartID, arg.VariantID)
	return scanCartLine(row)
}

func (q *Queries) GetCartLineForUpdate(ctx context.Context, arg CartLineKeyParams) (domain.CartLine, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+cartLineColumns+` FROM cart_lines WHERE cart_id = $1 AND variant_id = $2 FOR UPDATE`,
		arg.CartID, arg.VariantID)
	return scanCartLine(row)
}

type UpsertCartLineParams struct {
	CartID         pgtype.UUID
	VariantID      pgtype.UUID
	Quantity       int32
	UnitPriceCents int32
	Currency       string
}

// UpsertCartLine writes the unique (cart, variant) line with a fresh price
// snapshot. The ON CONFLICT arm makes the uniqueness constraint the backstop
// against duplicate-row races rather than an application-level find-first.
func (q *Queries) UpsertCartLine(ctx context.Context, arg UpsertCartLineParams) (domain.CartLine, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO cart_lines (cart_id, variant_id, quantity, unit_price_cents, currency)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (cart_id, variant_id) DO UPDATE
		 SET quantity = EXCLUDED.quantity,
		     unit_price_cents = EXCLUDED.unit_price_cents,
		     currency = EXCLUDED.currency,
		     updated_at = now()
		 RETURNING `+cartLineColumns,
		arg.CartID, arg.VariantID, arg.Quantity, arg.UnitPriceCents, arg.Currency)
	return scanCartLine(row)
}

type UpdateCartLineQuantityParams struct {
	ID       pgtype.UUID
	Quantity int32
}

func (q *Queries) UpdateCartLineQuantity(ctx context.Context, arg UpdateCartLineQuantityParams) error {
	_, err := q.db.Exec(ctx,
		`UPDATE cart_lines SET quantity = $2, updated_at = now() WHERE id = $1`,
		arg.ID, arg.Quantity)
	return err
}

func (q *Queries) DeleteCartLine(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM cart_lines WHERE id = $1`, id)
	return err
}

type ReparentCartLineParams struct {
	ID     pgtype.UUID
	CartID pgtype.UUID
}

// ReparentCartLine moves an existing line to another cart, preserving its
// identity and creation order instead of re-creating it.
func (q *Queries) ReparentCartLine(ctx context.Context, arg ReparentCartLineParams) error {
	_, err := q.db.Exec(ctx,
		`UPDATE cart_lines SET cart_id = $2, updated_at = now() WHERE id = $1`,
		arg.ID, arg.CartID)
	return err
}

// ListCartLines returns the cart's lines joined with catalog display fields,
// in stable creation order. Order-line generation reads this same ordering so
// an order's lines match what the buyer saw.
func (q *Queries) ListCartLines(ctx context.Context, cartID pgtype.UUID) ([]domain.CartLineView, error) {
	rows, err := q.db.Query(ctx,
		`SELECT cl.id, cl.cart_id, cl.variant_id, cl.quantity, cl.unit_price_cents, cl.currency,
		        cl.created_at, cl.updated_at,
		        p.name AS product_name, v.name AS variant_name, v.sku
		 FROM cart_lines cl
		 JOIN product_variants v ON v.id = cl.variant_id
		 JOIN products p ON p.id = v.product_id
		 WHERE cl.cart_id = $1
		 ORDER BY cl.created_at, cl.id`,
		cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.CartLineView
	for rows.Next() {
		var l domain.CartLineView
		err := rows.Scan(
			&l.ID, &l.CartID, &l.VariantID, &l.Quantity, &l.UnitPriceCents, &l.Currency,
			&l.CreatedAt, &l.UpdatedAt,
			&l.ProductName, &l.VariantName, &l.SKU,
		)
		if err != nil {
			return nil, err
		}
		l.LineSubtotal = l.Quantity * l.UnitPriceCents
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
