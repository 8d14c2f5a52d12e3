package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gersemi/storefront/internal/domain"
)

const orderColumns = `id, order_number, user_id, email, phone,
	status, payment_status, fulfillment_status,
	delivery_method, delivery_date, delivery_slot,
	shipping_address, billing_address,
	subtotal_cents, tax_cents, shipping_cents, discount_cents, total_cents, currency,
	created_at, updated_at`

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.Email, &o.Phone,
		&o.Status, &o.PaymentStatus, &o.FulfillmentStatus,
		&o.DeliveryMethod, &o.DeliveryDate, &o.DeliverySlot,
		&o.ShippingAddress, &o.BillingAddress,
		&o.SubtotalCents, &o.TaxCents, &o.ShippingCents, &o.DiscountCents, &o.TotalCents, &o.Currency,
		&o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

type CreateOrderParams struct {
	OrderNumber     string
	UserID          pgtype.UUID
	Email           string
	Phone           string
	Status          domain.OrderStatus
	PaymentStatus   domain.PaymentStatus
	DeliveryMethod  domain.DeliveryMethod
	DeliveryDate    pgtype.Date
	DeliverySlot    pgtype.Text
	ShippingAddress map[string]string
	BillingAddress  map[string]string
	Currency        string
}

// CreateOrder inserts the order header with zero totals; the enclosing
// transaction fills totals in after the lines are written.
func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (domain.Order, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO orders (
			order_number, user_id, email, phone,
			status, payment_status, fulfillment_status,
			delivery_method, delivery_date, delivery_slot,
			shipping_address, billing_address, currency
		) VALUES ($1, $2, $3, $4, $5, $6, 'unfulfilled', $7, $8, $9, $10, $11, $12)
		RETURNING `+orderColumns,
		arg.OrderNumber, arg.UserID, arg.Email, arg.Phone,
		arg.Status, arg.PaymentStatus,
		arg.DeliveryMethod, arg.DeliveryDate, arg.DeliverySlot,
		arg.ShippingAddress, arg.BillingAddress, arg.Currency)
	return scanOrder(row)
}

const orderLineColumns = `id, order_id, variant_id, product_name, variant_name, sku,
	unit_price_cents, quantity, total_price_cents, created_at`

func scanOrderLine(row pgx.Row) (domain.OrderLine, error) {
	var l domain.OrderLine
	err := row.Scan(
		&l.ID, &l.OrderID, &l.VariantID, &l.ProductName, &l.VariantName, &l.SKU,
		&l.UnitPriceCents, &l.Quantity, &l.TotalPriceCents, &l.CreatedAt,
	)
	return l, err
}

type CreateOrderLineParams struct {
	OrderID         pgtype.UUID
	VariantID       pgtype.UUID
	ProductName     string
	VariantName     string
	SKU             string
	UnitPriceCents  int32
	Quantity        int32
	TotalPriceCents int32
}

func (q *Queries) CreateOrderLine(ctx context.Context, arg CreateOrderLineParams) (domain.OrderLine, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO order_lines (
			order_id, variant_id, product_name, variant_name, sku,
			unit_price_cents, quantity, total_price_cents
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+orderLineColumns,
		arg.OrderID, arg.VariantID, arg.ProductName, arg.VariantName, arg.SKU,
		arg.UnitPriceCents, arg.Quantity, arg.TotalPriceCents)
	return scanOrderLine(row)
}

type UpdateOrderTotalsParams struct {
	ID            pgtype.UUID
	SubtotalCents int32
	TaxCents      int32
	ShippingCents int32
	DiscountCents int32
	TotalCents    int32
}

func (q *Queries) UpdateOrderTotals(ctx context.Context, arg UpdateOrderTotalsParams) error {
	_, err := q.db.Exec(ctx,
		`UPDATE orders
		 SET subtotal_cents = $2, tax_cents = $3, shipping_cents = $4,
		     discount_cents = $5, total_cents = $6, updated_at = now()
		 WHERE id = $1`,
		arg.ID, arg.SubtotalCents, arg.TaxCents, arg.ShippingCents, arg.DiscountCents, arg.TotalCents)
	return err
}

func (q *Queries) GetOrderByID(ctx context.Context, id pgtype.UUID) (domain.Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

// GetOrderForUpdate locks the order row so status transitions validate and
// write under the same lock.
func (q *Queries) GetOrderForUpdate(ctx context.Context, id pgtype.UUID) (domain.Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
	return scanOrder(row)
}

func (q *Queries) GetOrderByNumber(ctx context.Context, orderNumber string) (domain.Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, orderNumber)
	return scanOrder(row)
}

func (q *Queries) ListOrderLines(ctx context.Context, orderID pgtype.UUID) ([]domain.OrderLine, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+orderLineColumns+` FROM order_lines WHERE order_id = $1 ORDER BY created_at, id`,
		orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		l, err := scanOrderLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

type UpdateOrderStatusParams struct {
	ID     pgtype.UUID
	Status domain.OrderStatus
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) error {
	_, err := q.db.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`,
		arg.ID, arg.Status)
	return err
}

type UpdateOrderFulfillmentParams struct {
	ID                pgtype.UUID
	FulfillmentStatus domain.FulfillmentStatus
}

func (q *Queries) UpdateOrderFulfillment(ctx context.Context, arg UpdateOrderFulfillmentParams) error {
	_, err := q.db.Exec(ctx,
		`UPDATE orders SET fulfillment_status = $2, updated_at = now() WHERE id = $1`,
		arg.ID, arg.FulfillmentStatus)
	return err
}

type UpdateOrderPaymentStatusParams struct {
	ID            pgtype.UUID
	PaymentStatus domain.PaymentStatus
}

func (q *Queries) UpdateOrderPaymentStatus(ctx context.Context, arg UpdateOrderPaymentStatusParams) error {
	_, err := q.db.Exec(ctx,
		`UPDATE orders SET payment_status = $2, updated_at = now() WHERE id = $1`,
		arg.ID, arg.PaymentStatus)
	return err
}
