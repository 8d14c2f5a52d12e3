package service

import (
	"bytes"
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gersemi/storefront/internal/domain"
	"github.com/gersemi/storefront/internal/repository"
)

// fakeStore is an in-memory repository.Store for service tests. InTx
// snapshots the state up front and restores it when the unit of work fails,
// mirroring a rolled-back database transaction.
type fakeStore struct {
	products   map[pgtype.UUID]domain.Product
	variants   map[pgtype.UUID]domain.Variant
	carts      map[pgtype.UUID]domain.Cart
	cartLines  map[pgtype.UUID]domain.CartLine
	orders     map[pgtype.UUID]domain.Order
	orderLines map[pgtype.UUID][]domain.OrderLine
	sessions   map[string]domain.Session

	clock time.Time

	// failDeleteLine makes DeleteCartLine fail for the given line,
	// to exercise rollback paths.
	failDeleteLine pgtype.UUID
	errDeleteLine  error
}

var _ repository.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:   make(map[pgtype.UUID]domain.Product),
		variants:   make(map[pgtype.UUID]domain.Variant),
		carts:      make(map[pgtype.UUID]domain.Cart),
		cartLines:  make(map[pgtype.UUID]domain.CartLine),
		orders:     make(map[pgtype.UUID]domain.Order),
		orderLines: make(map[pgtype.UUID][]domain.OrderLine),
		sessions:   make(map[string]domain.Session),
		clock:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newID() pgtype.UUID {
	u := uuid.New()
	var id pgtype.UUID
	copy(id.Bytes[:], u[:])
	id.Valid = true
	return id
}

func (f *fakeStore) tick() pgtype.Timestamptz {
	f.clock = f.clock.Add(time.Second)
	return pgtype.Timestamptz{Time: f.clock, Valid: true}
}

type fakeSnapshot struct {
	products   map[pgtype.UUID]domain.Product
	variants   map[pgtype.UUID]domain.Variant
	carts      map[pgtype.UUID]domain.Cart
	cartLines  map[pgtype.UUID]domain.CartLine
	orders     map[pgtype.UUID]domain.Order
	orderLines map[pgtype.UUID][]domain.OrderLine
	sessions   map[string]domain.Session
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (f *fakeStore) snapshot() fakeSnapshot {
	lines := make(map[pgtype.UUID][]domain.OrderLine, len(f.orderLines))
	for k, v := range f.orderLines {
		lines[k] = append([]domain.OrderLine(nil), v...)
	}
	return fakeSnapshot{
		products:   cloneMap(f.products),
		variants:   cloneMap(f.variants),
		carts:      cloneMap(f.carts),
		cartLines:  cloneMap(f.cartLines),
		orders:     cloneMap(f.orders),
		orderLines: lines,
		sessions:   cloneMap(f.sessions),
	}
}

func (f *fakeStore) restore(s fakeSnapshot) {
	f.products = s.products
	f.variants = s.variants
	f.carts = s.carts
	f.cartLines = s.cartLines
	f.orders = s.orders
	f.orderLines = s.orderLines
	f.sessions = s.sessions
}

func (f *fakeStore) InTx(ctx context.Context, fn func(repository.Querier) error) error {
	snap := f.snapshot()
	if err := fn(f); err != nil {
		f.restore(snap)
		return err
	}
	return nil
}

// --- seeding helpers ---

func (f *fakeStore) seedProduct(slug string) domain.Product {
	p := domain.Product{
		ID:        newID(),
		Name:      slug,
		Slug:      slug,
		Status:    domain.ProductStatusActive,
		CreatedAt: f.tick(),
	}
	f.products[p.ID] = p
	return p
}

func (f *fakeStore) seedVariant(p domain.Product, sku string, priceCents, stockQty int32) domain.Variant {
	v := domain.Variant{
		ID:             newID(),
		ProductID:      p.ID,
		SKU:            sku,
		Name:           sku,
		PriceCents:     priceCents,
		Currency:       "USD",
		StockQuantity:  stockQty,
		TrackInventory: true,
		CreatedAt:      f.tick(),
	}
	f.variants[v.ID] = v
	return v
}

func (f *fakeStore) seedCart(token string) domain.Cart {
	c := domain.Cart{
		ID:           newID(),
		SessionToken: token,
		CreatedAt:    f.tick(),
	}
	f.carts[c.ID] = c
	f.sessions[token] = domain.Session{
		ID:        newID(),
		Token:     token,
		Data:      []byte(`{}`),
		ExpiresAt: pgtype.Timestamptz{Time: time.Now().Add(time.Hour), Valid: true},
		CreatedAt: f.tick(),
	}
	return c
}

// --- catalog ---

func (f *fakeStore) GetProductByID(ctx context.Context, id pgtype.UUID) (domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return domain.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func (f *fakeStore) GetProductBySlug(ctx context.Context, slug string) (domain.Product, error) {
	for _, p := range f.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return domain.Product{}, pgx.ErrNoRows
}

func (f *fakeStore) ListVariantsByProduct(ctx context.Context, productID pgtype.UUID) ([]domain.Variant, error) {
	var out []domain.Variant
	for _, v := range f.variants {
		if v.ProductID == productID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return bytes.Compare(out[i].ID.Bytes[:], out[j].ID.Bytes[:]) < 0
	})
	return out, nil
}

func (f *fakeStore) GetVariantByID(ctx context.Context, id pgtype.UUID) (domain.Variant, error) {
	v, ok := f.variants[id]
	if !ok {
		return domain.Variant{}, pgx.ErrNoRows
	}
	return v, nil
}

func (f *fakeStore) GetVariantForUpdate(ctx context.Context, id pgtype.UUID) (domain.Variant, error) {
	return f.GetVariantByID(ctx, id)
}

func (f *fakeStore) DecrementVariantStock(ctx context.Context, arg repository.DecrementVariantStockParams) (int64, error) {
	v, ok := f.variants[arg.ID]
	if !ok || v.StockQuantity < arg.Quantity {
		return 0, nil
	}
	v.StockQuantity -= arg.Quantity
	f.variants[arg.ID] = v
	return 1, nil
}

// --- carts ---

func (f *fakeStore) CreateCart(ctx context.Context, arg repository.CreateCartParams) (domain.Cart, error) {
	c := domain.Cart{
		ID:           newID(),
		UserID:       arg.UserID,
		SessionToken: arg.SessionToken,
		CreatedAt:    f.tick(),
	}
	f.carts[c.ID] = c
	return c, nil
}

func (f *fakeStore) GetCartByID(ctx context.Context, id pgtype.UUID) (domain.Cart, error) {
	c, ok := f.carts[id]
	if !ok {
		return domain.Cart{}, pgx.ErrNoRows
	}
	return c, nil
}

func (f *fakeStore) GetCartForUpdate(ctx context.Context, id pgtype.UUID) (domain.Cart, error) {
	return f.GetCartByID(ctx, id)
}

func (f *fakeStore) GetActiveCartBySessionToken(ctx context.Context, token string) (domain.Cart, error) {
	for _, c := range f.carts {
		if c.SessionToken == token && !c.AbandonedAt.Valid {
			return c, nil
		}
	}
	return domain.Cart{}, pgx.ErrNoRows
}

func (f *fakeStore) GetActiveCartByUserID(ctx context.Context, userID pgtype.UUID) (domain.Cart, error) {
	for _, c := range f.carts {
		if c.UserID == userID && !c.AbandonedAt.Valid {
			return c, nil
		}
	}
	return domain.Cart{}, pgx.ErrNoRows
}

func (f *fakeStore) AssignCartUser(ctx context.Context, arg repository.AssignCartUserParams) error {
	c, ok := f.carts[arg.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	c.UserID = arg.UserID
	f.carts[arg.ID] = c
	return nil
}

func (f *fakeStore) MarkCartAbandoned(ctx context.Context, id pgtype.UUID) error {
	c, ok := f.carts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if !c.AbandonedAt.Valid {
		c.AbandonedAt = f.tick()
		f.carts[id] = c
	}
	return nil
}

// --- cart lines ---

func (f *fakeStore) findCartLine(cartID, variantID pgtype.UUID) (domain.CartLine, bool) {
	for _, l := range f.cartLines {
		if l.CartID == cartID && l.VariantID == variantID {
			return l, true
		}
	}
	return domain.CartLine{}, false
}

func (f *fakeStore) GetCartLine(ctx context.Context, arg repository.CartLineKeyParams) (domain.CartLine, error) {
	l, ok := f.findCartLine(arg.CartID, arg.VariantID)
	if !ok {
		return domain.CartLine{}, pgx.ErrNoRows
	}
	return l, nil
}

func (f *fakeStore) GetCartLineForUpdate(ctx context.Context, arg repository.CartLineKeyParams) (domain.CartLine, error) {
	return f.GetCartLine(ctx, arg)
}

func (f *fakeStore) UpsertCartLine(ctx context.Context, arg repository.UpsertCartLineParams) (domain.CartLine, error) {
	if l, ok := f.findCartLine(arg.CartID, arg.VariantID); ok {
		l.Quantity = arg.Quantity
		l.UnitPriceCents = arg.UnitPriceCents
		l.Currency = arg.Currency
		l.UpdatedAt = f.tick()
		f.cartLines[l.ID] = l
		return l, nil
	}
	l := domain.CartLine{
		ID:             newID(),
		CartID:         arg.CartID,
		VariantID:      arg.VariantID,
		Quantity:       arg.Quantity,
		UnitPriceCents: arg.UnitPriceCents,
		Currency:       arg.Currency,
		CreatedAt:      f.tick(),
	}
	f.cartLines[l.ID] = l
	return l, nil
}

func (f *fakeStore) UpdateCartLineQuantity(ctx context.Context, arg repository.UpdateCartLineQuantityParams) error {
	l, ok := f.cartLines[arg.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	l.Quantity = arg.Quantity
	l.UpdatedAt = f.tick()
	f.cartLines[arg.ID] = l
	return nil
}

func (f *fakeStore) DeleteCartLine(ctx context.Context, id pgtype.UUID) error {
	if f.errDeleteLine != nil && id == f.failDeleteLine {
		return f.errDeleteLine
	}
	delete(f.cartLines, id)
	return nil
}

func (f *fakeStore) ReparentCartLine(ctx context.Context, arg repository.ReparentCartLineParams) error {
	l, ok := f.cartLines[arg.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	l.CartID = arg.CartID
	l.UpdatedAt = f.tick()
	f.cartLines[arg.ID] = l
	return nil
}

func (f *fakeStore) ListCartLines(ctx context.Context, cartID pgtype.UUID) ([]domain.CartLineView, error) {
	var out []domain.CartLineView
	for _, l := range f.cartLines {
		if l.CartID != cartID {
			continue
		}
		view := domain.CartLineView{CartLine: l, LineSubtotal: l.Quantity * l.UnitPriceCents}
		if v, ok := f.variants[l.VariantID]; ok {
			view.VariantName = v.Name
			view.SKU = v.SKU
			if p, ok := f.products[v.ProductID]; ok {
				view.ProductName = p.Name
			}
		}
		out = append(out, view)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Time.Equal(out[j].CreatedAt.Time) {
			return out[i].CreatedAt.Time.Before(out[j].CreatedAt.Time)
		}
		return bytes.Compare(out[i].ID.Bytes[:], out[j].ID.Bytes[:]) < 0
	})
	return out, nil
}

// --- orders ---

func (f *fakeStore) CreateOrder(ctx context.Context, arg repository.CreateOrderParams) (domain.Order, error) {
	o := domain.Order{
		ID:                newID(),
		OrderNumber:       arg.OrderNumber,
		UserID:            arg.UserID,
		Email:             arg.Email,
		Phone:             arg.Phone,
		Status:            arg.Status,
		PaymentStatus:     arg.PaymentStatus,
		FulfillmentStatus: domain.FulfillmentUnfulfilled,
		DeliveryMethod:    arg.DeliveryMethod,
		DeliveryDate:      arg.DeliveryDate,
		DeliverySlot:      arg.DeliverySlot,
		ShippingAddress:   arg.ShippingAddress,
		BillingAddress:    arg.BillingAddress,
		Currency:          arg.Currency,
		CreatedAt:         f.tick(),
	}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeStore) CreateOrderLine(ctx context.Context, arg repository.CreateOrderLineParams) (domain.OrderLine, error) {
	l := domain.OrderLine{
		ID:              newID(),
		OrderID:         arg.OrderID,
		VariantID:       arg.VariantID,
		ProductName:     arg.ProductName,
		VariantName:     arg.VariantName,
		SKU:             arg.SKU,
		UnitPriceCents:  arg.UnitPriceCents,
		Quantity:        arg.Quantity,
		TotalPriceCents: arg.TotalPriceCents,
		CreatedAt:       f.tick(),
	}
	f.orderLines[arg.OrderID] = append(f.orderLines[arg.OrderID], l)
	return l, nil
}

func (f *fakeStore) UpdateOrderTotals(ctx context.Context, arg repository.UpdateOrderTotalsParams) error {
	o, ok := f.orders[arg.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	o.SubtotalCents = arg.SubtotalCents
	o.TaxCents = arg.TaxCents
	o.ShippingCents = arg.ShippingCents
	o.DiscountCents = arg.DiscountCents
	o.TotalCents = arg.TotalCents
	f.orders[arg.ID] = o
	return nil
}

func (f *fakeStore) GetOrderByID(ctx context.Context, id pgtype.UUID) (domain.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return domain.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (f *fakeStore) GetOrderForUpdate(ctx context.Context, id pgtype.UUID) (domain.Order, error) {
	return f.GetOrderByID(ctx, id)
}

func (f *fakeStore) GetOrderByNumber(ctx context.Context, orderNumber string) (domain.Order, error) {
	for _, o := range f.orders {
		if o.OrderNumber == orderNumber {
			return o, nil
		}
	}
	return domain.Order{}, pgx.ErrNoRows
}

func (f *fakeStore) ListOrderLines(ctx context.Context, orderID pgtype.UUID) ([]domain.OrderLine, error) {
	return append([]domain.OrderLine(nil), f.orderLines[orderID]...), nil
}

func (f *fakeStore) UpdateOrderStatus(ctx context.Context, arg repository.UpdateOrderStatusParams) error {
	o, ok := f.orders[arg.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	o.Status = arg.Status
	f.orders[arg.ID] = o
	return nil
}

func (f *fakeStore) UpdateOrderFulfillment(ctx context.Context, arg repository.UpdateOrderFulfillmentParams) error {
	o, ok := f.orders[arg.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	o.FulfillmentStatus = arg.FulfillmentStatus
	f.orders[arg.ID] = o
	return nil
}

func (f *fakeStore) UpdateOrderPaymentStatus(ctx context.Context, arg repository.UpdateOrderPaymentStatusParams) error {
	o, ok := f.orders[arg.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	o.PaymentStatus = arg.PaymentStatus
	f.orders[arg.ID] = o
	return nil
}

// --- sessions ---

func (f *fakeStore) CreateSession(ctx context.Context, arg repository.CreateSessionParams) (domain.Session, error) {
	s := domain.Session{
		ID:        newID(),
		Token:     arg.Token,
		Data:      arg.Data,
		ExpiresAt: arg.ExpiresAt,
		CreatedAt: f.tick(),
	}
	f.sessions[arg.Token] = s
	return s, nil
}

func (f *fakeStore) GetSessionByToken(ctx context.Context, token string) (domain.Session, error) {
	s, ok := f.sessions[token]
	if !ok {
		return domain.Session{}, pgx.ErrNoRows
	}
	return s, nil
}

func (f *fakeStore) UpdateSessionData(ctx context.Context, arg repository.UpdateSessionDataParams) error {
	s, ok := f.sessions[arg.Token]
	if !ok {
		return pgx.ErrNoRows
	}
	s.Data = arg.Data
	f.sessions[arg.Token] = s
	return nil
}

func (f *fakeStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	var n int64
	for token, s := range f.sessions {
		if s.ExpiresAt.Valid && !s.ExpiresAt.Time.After(time.Now()) {
			delete(f.sessions, token)
			n++
		}
	}
	return n, nil
}
