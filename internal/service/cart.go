package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gersemi/storefront/internal/domain"
	"github.com/gersemi/storefront/internal/repository"
	"github.com/gersemi/storefront/internal/stock"
	"github.com/gersemi/storefront/internal/telemetry"
)

// SessionTTL is how long an anonymous shopping session lives.
const SessionTTL = 30 * 24 * time.Hour

type cartService struct {
	store    repository.Store
	logger   *slog.Logger
	currency string
}

// NewCartService creates the cart service. currency is the store currency
// reported on empty carts; populated carts take theirs from the line snapshots.
func NewCartService(store repository.Store, logger *slog.Logger, currency string) domain.CartService {
	return &cartService{store: store, logger: logger, currency: currency}
}

func (s *cartService) GetOrCreateCart(ctx context.Context, sessionToken string) (*domain.Cart, string, error) {
	const op = "cart.get_or_create"

	if sessionToken != "" {
		cart, err := s.store.GetActiveCartBySessionToken(ctx, sessionToken)
		if err == nil {
			return &cart, sessionToken, nil
		}
		if !noRows(err) {
			return nil, "", domain.Internal(err, op, "failed to look up cart")
		}
		// The session may still be live with its cart converted or merged
		// away; keep the token and just open a fresh cart on it.
		if _, err := s.store.GetSessionByToken(ctx, sessionToken); err != nil {
			if !noRows(err) {
				return nil, "", domain.Internal(err, op, "failed to look up session")
			}
			sessionToken = ""
		}
	}

	if sessionToken == "" {
		token, err := GenerateSessionToken()
		if err != nil {
			return nil, "", domain.Internal(err, op, "failed to generate session token")
		}
		sessionToken = token

		expires := pgtype.Timestamptz{Time: time.Now().Add(SessionTTL), Valid: true}
		if _, err := s.store.CreateSession(ctx, repository.CreateSessionParams{
			Token:     sessionToken,
			Data:      []byte(`{}`),
			ExpiresAt: expires,
		}); err != nil {
			return nil, "", domain.Internal(err, op, "failed to create session")
		}
	}

	cart, err := s.store.CreateCart(ctx, repository.CreateCartParams{SessionToken: sessionToken})
	if err != nil {
		return nil, "", domain.Internal(err, op, "failed to create cart")
	}

	telemetry.Business.RecordCartCreated()
	s.logger.InfoContext(ctx, "cart created", "cart_id", cart.ID.String())
	return &cart, sessionToken, nil
}

func (s *cartService) GetCart(ctx context.Context, sessionToken string) (*domain.Cart, error) {
	const op = "cart.get"

	cart, err := s.store.GetActiveCartBySessionToken(ctx, sessionToken)
	if err != nil {
		if noRows(err) {
			return nil, domain.ErrCartNotFound
		}
		return nil, domain.Internal(err, op, "failed to look up cart")
	}
	return &cart, nil
}

// AddItem validates and tops up the unique (cart, variant) line inside one
// transaction, with the cart and variant rows locked. The line's price
// snapshot is refreshed from the live variant price on every add.
func (s *cartService) AddItem(ctx context.Context, cartID, variantID pgtype.UUID, quantity int32) (*domain.CartSummary, error) {
	const op = "cart.add_item"

	err := s.store.InTx(ctx, func(q repository.Querier) error {
		cart, err := q.GetCartForUpdate(ctx, cartID)
		if err != nil {
			if noRows(err) {
				return domain.ErrCartNotFound
			}
			return domain.Internal(err, op, "failed to lock cart")
		}
		if !cart.Active() {
			return domain.ErrCartAbandoned
		}

		variant, err := q.GetVariantForUpdate(ctx, variantID)
		if err != nil {
			if noRows(err) {
				return domain.ErrVariantNotFound
			}
			return domain.Internal(err, op, "failed to lock variant")
		}
		product, err := q.GetProductByID(ctx, variant.ProductID)
		if err != nil {
			return domain.Internal(err, op, "failed to load product")
		}
		if !stock.Purchasable(&product, &variant) {
			return stock.ErrOutOfStock
		}

		var existing int32
		line, err := q.GetCartLine(ctx, repository.CartLineKeyParams{CartID: cartID, VariantID: variantID})
		switch {
		case err == nil:
			existing = line.Quantity
		case !noRows(err):
			return domain.Internal(err, op, "failed to load cart line")
		}

		final, err := stock.ValidateQuantity(&variant, quantity, existing, stock.ModeAdd)
		if err != nil {
			return err
		}

		if _, err := q.UpsertCartLine(ctx, repository.UpsertCartLineParams{
			CartID:         cartID,
			VariantID:      variantID,
			Quantity:       final,
			UnitPriceCents: variant.PriceCents,
			Currency:       variant.Currency,
		}); err != nil {
			return domain.Internal(err, op, "failed to write cart line")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	telemetry.Business.RecordCartUpdate()
	return s.GetCartSummary(ctx, cartID)
}

// SetItemQuantity sets the absolute quantity of an existing line. Zero or
// negative deletes the line; this is the only removal path.
func (s *cartService) SetItemQuantity(ctx context.Context, cartID, variantID pgtype.UUID, quantity int32) (*domain.CartSummary, error) {
	const op = "cart.set_quantity"

	err := s.store.InTx(ctx, func(q repository.Querier) error {
		cart, err := q.GetCartForUpdate(ctx, cartID)
		if err != nil {
			if noRows(err) {
				return domain.ErrCartNotFound
			}
			return domain.Internal(err, op, "failed to lock cart")
		}
		if !cart.Active() {
			return domain.ErrCartAbandoned
		}

		line, err := q.GetCartLineForUpdate(ctx, repository.CartLineKeyParams{CartID: cartID, VariantID: variantID})
		if err != nil {
			if noRows(err) {
				return domain.ErrCartLineNotFound
			}
			return domain.Internal(err, op, "failed to lock cart line")
		}

		if quantity <= 0 {
			if err := q.DeleteCartLine(ctx, line.ID); err != nil {
				return domain.Internal(err, op, "failed to delete cart line")
			}
			return nil
		}

		variant, err := q.GetVariantForUpdate(ctx, variantID)
		if err != nil {
			return domain.Internal(err, op, "failed to lock variant")
		}
		final, err := stock.ValidateQuantity(&variant, quantity, 0, stock.ModeSet)
		if err != nil {
			return err
		}

		if err := q.UpdateCartLineQuantity(ctx, repository.UpdateCartLineQuantityParams{
			ID:       line.ID,
			Quantity: final,
		}); err != nil {
			return domain.Internal(err, op, "failed to update cart line")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	telemetry.Business.RecordCartUpdate()
	return s.GetCartSummary(ctx, cartID)
}

// Clear deletes every line in one transaction. A failure rolls the whole
// clear back; the result still reports how far it got.
func (s *cartService) Clear(ctx context.Context, cartID pgtype.UUID) (*domain.ClearResult, error) {
	const op = "cart.clear"

	result := &domain.ClearResult{}
	err := s.store.InTx(ctx, func(q repository.Querier) error {
		cart, err := q.GetCartForUpdate(ctx, cartID)
		if err != nil {
			if noRows(err) {
				return domain.ErrCartNotFound
			}
			return domain.Internal(err, op, "failed to lock cart")
		}
		if !cart.Active() {
			return domain.ErrCartAbandoned
		}

		lines, err := q.ListCartLines(ctx, cartID)
		if err != nil {
			return domain.Internal(err, op, "failed to list cart lines")
		}
		for _, line := range lines {
			if err := q.DeleteCartLine(ctx, line.ID); err != nil {
				result.Failed = line.ID
				return domain.Internal(err, op, "failed to clear cart")
			}
			result.Cleared = append(result.Cleared, line.ID)
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	telemetry.Business.RecordCartCleared()
	return result, nil
}

func (s *cartService) GetCartSummary(ctx context.Context, cartID pgtype.UUID) (*domain.CartSummary, error) {
	const op = "cart.summary"

	cart, err := s.store.GetCartByID(ctx, cartID)
	if err != nil {
		if noRows(err) {
			return nil, domain.ErrCartNotFound
		}
		return nil, domain.Internal(err, op, "failed to load cart")
	}
	lines, err := s.store.ListCartLines(ctx, cartID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list cart lines")
	}

	summary := &domain.CartSummary{
		Cart:     cart,
		Lines:    lines,
		Currency: s.currency,
	}
	for _, line := range lines {
		summary.SubtotalCents += line.LineSubtotal
		summary.ItemCount += line.Quantity
	}
	if len(lines) > 0 {
		summary.Currency = lines[0].Currency
	}
	return summary, nil
}
