package stock

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gersemi/storefront/internal/domain"
)

func tracked(stockQty int32) *domain.Variant {
	return &domain.Variant{
		SKU:            "SKU-1",
		PriceCents:     1000,
		StockQuantity:  stockQty,
		TrackInventory: true,
	}
}

func TestValidateQuantityAdd(t *testing.T) {
	tests := []struct {
		name      string
		variant   *domain.Variant
		requested int32
		existing  int32
		want      int32
		wantErr   error
	}{
		{
			name:      "new line",
			variant:   tracked(10),
			requested: 3,
			want:      3,
		},
		{
			name:      "tops up existing line",
			variant:   tracked(10),
			requested: 3,
			existing:  4,
			want:      7,
		},
		{
			name:      "zero quantity rejected",
			variant:   tracked(10),
			requested: 0,
			wantErr:   ErrInvalidQuantity,
		},
		{
			name:      "negative quantity rejected",
			variant:   tracked(10),
			requested: -2,
			wantErr:   ErrInvalidQuantity,
		},
		{
			name:      "request above ceiling rejected",
			variant:   tracked(500),
			requested: 100,
			wantErr:   ErrExceedsLimit,
		},
		{
			name:      "combined total above ceiling rejected",
			variant:   tracked(500),
			requested: 1,
			existing:  99,
			wantErr:   ErrExceedsLimit,
		},
		{
			name:      "exactly at ceiling allowed",
			variant:   tracked(500),
			requested: 1,
			existing:  98,
			want:      99,
		},
		{
			name:      "out of stock rejected before quantity checks",
			variant:   tracked(0),
			requested: 0,
			wantErr:   ErrOutOfStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateQuantity(tt.variant, tt.requested, tt.existing, ModeAdd)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateQuantitySetIgnoresExisting(t *testing.T) {
	v := tracked(10)

	got, err := ValidateQuantity(v, 5, 8, ModeSet)
	assert.NoError(t, err)
	assert.Equal(t, int32(5), got)
}

func TestValidateQuantityInsufficientStock(t *testing.T) {
	v := tracked(5)

	_, err := ValidateQuantity(v, 4, 3, ModeAdd)
	assert.Error(t, err)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))

	var insufficient *InsufficientStockError
	assert.True(t, errors.As(err, &insufficient))
	// 5 in stock, 3 already on the line: only 2 more fit.
	assert.Equal(t, int32(2), insufficient.Available)
}

func TestValidateQuantityAvailableNeverNegative(t *testing.T) {
	// Stock dropped below what the cart already holds.
	v := tracked(2)

	_, err := ValidateQuantity(v, 1, 5, ModeAdd)
	var insufficient *InsufficientStockError
	assert.True(t, errors.As(err, &insufficient))
	assert.Equal(t, int32(0), insufficient.Available)
}

func TestValidateQuantityUntrackedInventory(t *testing.T) {
	v := &domain.Variant{PriceCents: 1000, TrackInventory: false}

	got, err := ValidateQuantity(v, 50, 0, ModeAdd)
	assert.NoError(t, err)
	assert.Equal(t, int32(50), got)
}

func TestValidateQuantityBackorder(t *testing.T) {
	v := tracked(0)
	v.AllowBackorder = true

	got, err := ValidateQuantity(v, 10, 0, ModeAdd)
	assert.NoError(t, err)
	assert.Equal(t, int32(10), got)
}

func TestPurchasable(t *testing.T) {
	active := &domain.Product{Status: domain.ProductStatusActive}
	draft := &domain.Product{Status: domain.ProductStatusDraft}

	assert.True(t, Purchasable(active, tracked(5)))
	assert.False(t, Purchasable(active, tracked(0)))
	assert.False(t, Purchasable(draft, tracked(5)))
}
