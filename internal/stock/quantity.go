// Package stock holds the purchasability policy and the quantity validator.
// Everything here is pure; services call it inside the same transaction that
// performs the mutation so validation never races the write.
package stock

import (
	"fmt"

	"github.com/gersemi/storefront/internal/domain"
)

// MaxLineQuantity is the system-wide per-line quantity ceiling. It is an
// anti-abuse limit independent of any variant's stock level.
const MaxLineQuantity int32 = 99

// Mode selects how a requested quantity combines with what is already in the
// cart.
type Mode int

const (
	// ModeAdd treats the request as an increment on the existing line.
	ModeAdd Mode = iota
	// ModeSet treats the request as the absolute new quantity.
	ModeSet
)

var (
	ErrOutOfStock      = domain.Errorf(domain.ECONFLICT, "", "Item is out of stock")
	ErrInvalidQuantity = domain.Errorf(domain.EINVALID, "", "Quantity must be greater than 0")
	ErrExceedsLimit    = domain.Errorf(domain.EINVALID, "", "Quantity cannot exceed %d per item", MaxLineQuantity)
)

// InsufficientStockError reports how many units are still available to this
// cart when a tracked, non-backorder variant cannot cover the request.
type InsufficientStockError struct {
	Available int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("only %d available", e.Available)
}

// Purchasable combines the product and variant availability predicates.
func Purchasable(p *domain.Product, v *domain.Variant) bool {
	return v.Available(p)
}

// ValidateQuantity resolves and validates the final quantity for a cart line.
// existing is the quantity already on the line (zero for a new line). The
// returned quantity is what the caller persists on success.
func ValidateQuantity(v *domain.Variant, requested, existing int32, mode Mode) (int32, error) {
	if !v.InStock() {
		return 0, ErrOutOfStock
	}
	if requested <= 0 {
		return 0, ErrInvalidQuantity
	}
	if requested > MaxLineQuantity {
		return 0, ErrExceedsLimit
	}

	final := requested
	if mode == ModeAdd {
		final = existing + requested
	}
	if final > MaxLineQuantity {
		return 0, ErrExceedsLimit
	}

	if v.TrackInventory && !v.AllowBackorder && final > v.StockQuantity {
		available := v.StockQuantity - existing
		if available < 0 {
			available = 0
		}
		return 0, domain.WrapError(
			&InsufficientStockError{Available: available},
			domain.ECONFLICT, "",
			fmt.Sprintf("Only %d left in stock", available),
		)
	}

	return final, nil
}
