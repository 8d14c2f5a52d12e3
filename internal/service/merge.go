package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gersemi/storefront/internal/domain"
	"github.com/gersemi/storefront/internal/repository"
	"github.com/gersemi/storefront/internal/stock"
	"github.com/gersemi/storefront/internal/telemetry"
)

type mergeService struct {
	store  repository.Store
	logger *slog.Logger
}

// NewMergeService creates the login-time cart reconciliation service.
func NewMergeService(store repository.Store, logger *slog.Logger) domain.MergeService {
	return &mergeService{store: store, logger: logger}
}

// Merge moves the guest cart's lines into the user cart in one transaction.
// Quantity conflicts are resolved through the normal validation path; excess
// over stock or the per-line cap is dropped and reported in the result rather
// than failing the merge. An already-closed guest cart makes the whole call a
// no-op, so a retried login cannot double-merge.
func (s *mergeService) Merge(ctx context.Context, userCartID, guestCartID pgtype.UUID) (*domain.MergeResult, error) {
	const op = "cart.merge"

	result := &domain.MergeResult{}
	if userCartID == guestCartID {
		return result, nil
	}

	err := s.store.InTx(ctx, func(q repository.Querier) error {
		userCart, guestCart, err := lockCartPair(ctx, q, userCartID, guestCartID)
		if err != nil {
			if noRows(err) {
				return domain.ErrCartNotFound
			}
			return domain.Internal(err, op, "failed to lock carts")
		}
		if !guestCart.Active() {
			// Already merged or converted; nothing to do.
			return nil
		}
		if !userCart.Active() {
			return domain.ErrCartAbandoned
		}

		guestLines, err := q.ListCartLines(ctx, guestCartID)
		if err != nil {
			return domain.Internal(err, op, "failed to list guest cart lines")
		}

		for _, guestLine := range guestLines {
			userLine, err := q.GetCartLine(ctx, repository.CartLineKeyParams{
				CartID:    userCartID,
				VariantID: guestLine.VariantID,
			})
			if err != nil {
				if !noRows(err) {
					return domain.Internal(err, op, "failed to load user cart line")
				}
				// No conflict: move the line as-is.
				if err := q.ReparentCartLine(ctx, repository.ReparentCartLineParams{
					ID:     guestLine.ID,
					CartID: userCartID,
				}); err != nil {
					return domain.Internal(err, op, "failed to move cart line")
				}
				result.MergedCount++
				continue
			}

			variant, err := q.GetVariantForUpdate(ctx, guestLine.VariantID)
			if err != nil {
				return domain.Internal(err, op, "failed to lock variant")
			}

			combined, dropped := combineQuantities(&variant, userLine.Quantity, guestLine.Quantity)
			if combined > userLine.Quantity {
				if err := q.UpdateCartLineQuantity(ctx, repository.UpdateCartLineQuantityParams{
					ID:       userLine.ID,
					Quantity: combined,
				}); err != nil {
					return domain.Internal(err, op, "failed to combine cart lines")
				}
				result.MergedCount++
			}
			if dropped > 0 {
				result.Errors = append(result.Errors,
					fmt.Sprintf("%s: %d unit(s) could not be carried over", guestLine.SKU, dropped))
			}
			if err := q.DeleteCartLine(ctx, guestLine.ID); err != nil {
				return domain.Internal(err, op, "failed to remove merged line")
			}
		}

		if err := q.MarkCartAbandoned(ctx, guestCartID); err != nil {
			return domain.Internal(err, op, "failed to close guest cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.MergedCount > 0 {
		telemetry.Business.RecordCartMerged()
	}
	return result, nil
}

// AdoptOrMerge attaches the guest cart directly to the user when the user has
// no active cart of their own, avoiding a line-by-line merge on first login.
func (s *mergeService) AdoptOrMerge(ctx context.Context, userID, guestCartID pgtype.UUID) (*domain.MergeResult, error) {
	const op = "cart.adopt"

	userCart, err := s.store.GetActiveCartByUserID(ctx, userID)
	if err == nil {
		return s.Merge(ctx, userCart.ID, guestCartID)
	}
	if !noRows(err) {
		return nil, domain.Internal(err, op, "failed to look up user cart")
	}

	result := &domain.MergeResult{}
	err = s.store.InTx(ctx, func(q repository.Querier) error {
		guestCart, err := q.GetCartForUpdate(ctx, guestCartID)
		if err != nil {
			if noRows(err) {
				return domain.ErrCartNotFound
			}
			return domain.Internal(err, op, "failed to lock guest cart")
		}
		if !guestCart.Active() {
			return nil
		}

		if err := q.AssignCartUser(ctx, repository.AssignCartUserParams{
			ID:     guestCartID,
			UserID: userID,
		}); err != nil {
			return domain.Internal(err, op, "failed to assign cart")
		}

		lines, err := q.ListCartLines(ctx, guestCartID)
		if err != nil {
			return domain.Internal(err, op, "failed to list cart lines")
		}
		result.MergedCount = len(lines)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.MergedCount > 0 {
		telemetry.Business.RecordCartMerged()
	}
	return result, nil
}

// lockCartPair locks both carts in a stable ID order so two concurrent merges
// touching the same pair cannot deadlock.
func lockCartPair(ctx context.Context, q repository.Querier, userCartID, guestCartID pgtype.UUID) (user, guest domain.Cart, err error) {
	first, second := userCartID, guestCartID
	if bytes.Compare(guestCartID.Bytes[:], userCartID.Bytes[:]) < 0 {
		first, second = guestCartID, userCartID
	}

	a, err := q.GetCartForUpdate(ctx, first)
	if err != nil {
		return user, guest, err
	}
	b, err := q.GetCartForUpdate(ctx, second)
	if err != nil {
		return user, guest, err
	}

	if a.ID == userCartID {
		return a, b, nil
	}
	return b, a, nil
}

// combineQuantities resolves a merge conflict on one variant. It returns the
// final quantity for the user's line and how many guest units were dropped to
// respect stock and the per-line ceiling.
func combineQuantities(v *domain.Variant, userQty, guestQty int32) (final, dropped int32) {
	combined, err := stock.ValidateQuantity(v, guestQty, userQty, stock.ModeAdd)
	if err == nil {
		return combined, 0
	}

	limit := stock.MaxLineQuantity
	if v.TrackInventory && !v.AllowBackorder && v.StockQuantity < limit {
		limit = v.StockQuantity
	}
	if !v.InStock() || limit < userQty {
		limit = userQty
	}
	return limit, userQty + guestQty - limit
}
