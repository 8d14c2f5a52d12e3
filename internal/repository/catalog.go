package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gersemi/storefront/internal/domain"
)

const productColumns = `id, name, slug, description, status, sort_order, created_at, updated_at`

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.Status, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (q *Queries) GetProductByID(ctx context.Context, id pgtype.UUID) (domain.Product, error) {
	row := q.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

func (q *Queries) GetProductBySlug(ctx context.Context, slug string) (domain.Product, error) {
	row := q.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE slug = $1`, slug)
	return scanProduct(row)
}

const variantColumns = `id, product_id, sku, name, price_cents, compare_at_cents, currency,
	stock_quantity, track_inventory, allow_backorder, is_default, is_canonical,
	sales_count, conversion_score, size_value, size_unit, size_type, color_name, color_hex,
	position, created_at, updated_at`

func scanVariant(row pgx.Row) (domain.Variant, error) {
	var v domain.Variant
	err := row.Scan(
		&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.PriceCents, &v.CompareAtCents, &v.Currency,
		&v.StockQuantity, &v.TrackInventory, &v.AllowBackorder, &v.IsDefault, &v.IsCanonical,
		&v.SalesCount, &v.ConversionScore, &v.SizeValue, &v.SizeUnit, &v.SizeType, &v.ColorName, &v.ColorHex,
		&v.Position, &v.CreatedAt, &v.UpdatedAt,
	)
	return v, err
}

// ListVariantsByProduct returns the product's variants in display order.
// This ordering is what the selector cascade treats as "first".
func (q *Queries) ListVariantsByProduct(ctx context.Context, productID pgtype.UUID) ([]domain.Variant, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+variantColumns+` FROM product_variants WHERE product_id = $1 ORDER BY position, id`,
		productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variants []domain.Variant
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

func (q *Queries) GetVariantByID(ctx context.Context, id pgtype.UUID) (domain.Variant, error) {
	row := q.db.QueryRow(ctx, `SELECT `+variantColumns+` FROM product_variants WHERE id = $1`, id)
	return scanVariant(row)
}

// GetVariantForUpdate locks the variant row for the duration of the enclosing
// transaction.
func (q *Queries) GetVariantForUpdate(ctx context.Context, id pgtype.UUID) (domain.Variant, error) {
	row := q.db.QueryRow(ctx, `SELECT `+variantColumns+` FROM product_variants WHERE id = $1 FOR UPDATE`, id)
	return scanVariant(row)
}

type DecrementVariantStockParams struct {
	ID       pgtype.UUID
	Quantity int32
}

// DecrementVariantStock decrements tracked stock with an optimistic guard.
// Returns the number of rows affected; zero means the remaining stock could
// not cover the quantity and the caller must abort its transaction.
func (q *Queries) DecrementVariantStock(ctx context.Context, arg DecrementVariantStockParams) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE product_variants
		 SET stock_quantity = stock_quantity - $2, updated_at = now()
		 WHERE id = $1 AND stock_quantity >= $2`,
		arg.ID, arg.Quantity)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
