// Package repository is the hand-written persistence layer over pgx. It
// follows the Querier/params-struct convention so services depend on a narrow
// interface and tests can substitute fakes.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gersemi/storefront/internal/domain"
)

// DBTX is the subset of pgx shared by a pool and a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries executes individual statements against a pool or transaction.
type Queries struct {
	db DBTX
}

// New creates a Queries bound to the given connection source.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Querier is the persistence interface services depend on.
type Querier interface {
	// Catalog (read-only; the engine never mutates catalog data except the
	// commit-time stock decrement)
	GetProductByID(ctx context.Context, id pgtype.UUID) (domain.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (domain.Product, error)
	ListVariantsByProduct(ctx context.Context, productID pgtype.UUID) ([]domain.Variant, error)
	GetVariantByID(ctx context.Context, id pgtype.UUID) (domain.Variant, error)
	GetVariantForUpdate(ctx context.Context, id pgtype.UUID) (domain.Variant, error)
	DecrementVariantStock(ctx context.Context, arg DecrementVariantStockParams) (int64, error)

	// Carts
	CreateCart(ctx context.Context, arg CreateCartParams) (domain.Cart, error)
	GetCartByID(ctx context.Context, id pgtype.UUID) (domain.Cart, error)
	GetCartForUpdate(ctx context.Context, id pgtype.UUID) (domain.Cart, error)
	GetActiveCartBySessionToken(ctx context.Context, token string) (domain.Cart, error)
	GetActiveCartByUserID(ctx context.Context, userID pgtype.UUID) (domain.Cart, error)
	AssignCartUser(ctx context.Context, arg AssignCartUserParams) error
	MarkCartAbandoned(ctx context.Context, id pgtype.UUID) error

	// Cart lines
	GetCartLine(ctx context.Context, arg CartLineKeyParams) (domain.CartLine, error)
	GetCartLineForUpdate(ctx context.Context, arg CartLineKeyParams) (domain.CartLine, error)
	UpsertCartLine(ctx context.Context, arg UpsertCartLineParams) (domain.CartLine, error)
	UpdateCartLineQuantity(ctx context.Context, arg UpdateCartLineQuantityParams) error
	DeleteCartLine(ctx context.Context, id pgtype.UUID) error
	ReparentCartLine(ctx context.Context, arg ReparentCartLineParams) error
	ListCartLines(ctx context.Context, cartID pgtype.UUID) ([]domain.CartLineView, error)

	// Orders
	CreateOrder(ctx context.Context, arg CreateOrderParams) (domain.Order, error)
	CreateOrderLine(ctx context.Context, arg CreateOrderLineParams) (domain.OrderLine, error)
	UpdateOrderTotals(ctx context.Context, arg UpdateOrderTotalsParams) error
	GetOrderByID(ctx context.Context, id pgtype.UUID) (domain.Order, error)
	GetOrderForUpdate(ctx context.Context, id pgtype.UUID) (domain.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (domain.Order, error)
	ListOrderLines(ctx context.Context, orderID pgtype.UUID) ([]domain.OrderLine, error)
	UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) error
	UpdateOrderFulfillment(ctx context.Context, arg UpdateOrderFulfillmentParams) error
	UpdateOrderPaymentStatus(ctx context.Context, arg UpdateOrderPaymentStatusParams) error

	// Sessions
	CreateSession(ctx context.Context, arg CreateSessionParams) (domain.Session, error)
	GetSessionByToken(ctx context.Context, token string) (domain.Session, error)
	UpdateSessionData(ctx context.Context, arg UpdateSessionDataParams) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

var _ Querier = (*Queries)(nil)

// Store is a Querier that can also open transactions. InTx runs fn inside a
// single database transaction; fn's Querier is bound to that transaction, and
// any error rolls the whole unit of work back.
type Store interface {
	Querier
	InTx(ctx context.Context, fn func(Querier) error) error
}

// PgxStore implements Store on a pgx connection pool.
type PgxStore struct {
	*Queries
	pool *pgxpool.Pool
}

var _ Store = (*PgxStore)(nil)

// NewStore creates a Store backed by the given pool.
func NewStore(pool *pgxpool.Pool) *PgxStore {
	return &PgxStore{
		Queries: New(pool),
		pool:    pool,
	}
}

// InTx executes fn inside one read-committed transaction. Row locks taken via
// the ForUpdate queries serialize concurrent mutations of the same cart or
// order rows; the uniqueness constraint on (cart_id, variant_id) is the final
// backstop if a check-then-act window slips through.
func (s *PgxStore) InTx(ctx context.Context, fn func(Querier) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(New(tx))
	})
}
