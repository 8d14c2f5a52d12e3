package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeVariant implements Candidate for cascade tests.
type fakeVariant struct {
	sku          string
	inStock      bool
	price        int32
	salesScore   float64
	hasSalesData bool
	adminDefault bool
	canonical    bool
	sizeValue    float64
	hasSize      bool
	colored      bool
}

func (f *fakeVariant) InStock() bool            { return f.inStock }
func (f *fakeVariant) Price() int32             { return f.price }
func (f *fakeVariant) SalesScore() float64      { return f.salesScore }
func (f *fakeVariant) HasSalesData() bool       { return f.hasSalesData }
func (f *fakeVariant) AdminDefault() bool       { return f.adminDefault }
func (f *fakeVariant) Canonical() bool          { return f.canonical }
func (f *fakeVariant) Size() (float64, bool)    { return f.sizeValue, f.hasSize }
func (f *fakeVariant) Colored() bool            { return f.colored }

func scopeOf(vs ...*fakeVariant) []Candidate {
	scope := make([]Candidate, len(vs))
	for i, v := range vs {
		scope[i] = v
	}
	return scope
}

func sku(c Candidate) string {
	return c.(*fakeVariant).sku
}

func TestPickEmptyScope(t *testing.T) {
	assert.Nil(t, Pick(nil))
	assert.Nil(t, Pick([]Candidate{}))
}

func TestPickAdminDefaultWins(t *testing.T) {
	scope := scopeOf(
		&fakeVariant{sku: "a", inStock: true, price: 1000, salesScore: 99, hasSalesData: true},
		&fakeVariant{sku: "b", inStock: true, price: 2000, adminDefault: true},
	)
	assert.Equal(t, "b", sku(Pick(scope)))
}

func TestPickAdminDefaultSkippedWhenOutOfStock(t *testing.T) {
	scope := scopeOf(
		&fakeVariant{sku: "a", inStock: true, price: 1000},
		&fakeVariant{sku: "b", inStock: false, price: 2000, adminDefault: true},
	)
	// The override only applies while purchasable.
	assert.Equal(t, "a", sku(Pick(scope)))
}

func TestPickAllOutOfStock(t *testing.T) {
	t.Run("canonical fallback", func(t *testing.T) {
		scope := scopeOf(
			&fakeVariant{sku: "a", price: 1000},
			&fakeVariant{sku: "b", price: 2000, canonical: true},
		)
		assert.Equal(t, "b", sku(Pick(scope)))
	})

	t.Run("first when no canonical", func(t *testing.T) {
		scope := scopeOf(
			&fakeVariant{sku: "a", price: 1000},
			&fakeVariant{sku: "b", price: 2000},
		)
		assert.Equal(t, "a", sku(Pick(scope)))
	})
}

func TestPickBestseller(t *testing.T) {
	scope := scopeOf(
		&fakeVariant{sku: "a", inStock: true, price: 1000, salesScore: 10, hasSalesData: true},
		&fakeVariant{sku: "b", inStock: true, price: 2000, salesScore: 42, hasSalesData: true},
		&fakeVariant{sku: "c", inStock: true, price: 500},
	)
	assert.Equal(t, "b", sku(Pick(scope)))
}

func TestPickBestsellerTieKeepsDisplayOrder(t *testing.T) {
	scope := scopeOf(
		&fakeVariant{sku: "a", inStock: true, price: 1000, salesScore: 42, hasSalesData: true},
		&fakeVariant{sku: "b", inStock: true, price: 2000, salesScore: 42, hasSalesData: true},
	)
	assert.Equal(t, "a", sku(Pick(scope)))
}

func TestPickBestsellerIgnoresOutOfStock(t *testing.T) {
	scope := scopeOf(
		&fakeVariant{sku: "a", inStock: false, price: 1000, salesScore: 99, hasSalesData: true},
		&fakeVariant{sku: "b", inStock: true, price: 2000, salesScore: 1, hasSalesData: true},
	)
	assert.Equal(t, "b", sku(Pick(scope)))
}

func TestPickEntryLevelPrices(t *testing.T) {
	t.Run("two price points takes cheapest", func(t *testing.T) {
		scope := scopeOf(
			&fakeVariant{sku: "a", inStock: true, price: 1000},
			&fakeVariant{sku: "b", inStock: true, price: 2000},
		)
		assert.Equal(t, "a", sku(Pick(scope)))
	})

	t.Run("three price points takes second lowest", func(t *testing.T) {
		scope := scopeOf(
			&fakeVariant{sku: "a", inStock: true, price: 1000},
			&fakeVariant{sku: "b", inStock: true, price: 2000},
			&fakeVariant{sku: "c", inStock: true, price: 5000},
		)
		assert.Equal(t, "b", sku(Pick(scope)))
	})

	t.Run("duplicate prices count once", func(t *testing.T) {
		scope := scopeOf(
			&fakeVariant{sku: "a", inStock: true, price: 1000},
			&fakeVariant{sku: "b", inStock: true, price: 1000},
			&fakeVariant{sku: "c", inStock: true, price: 2000},
		)
		// Two distinct points, cheapest wins, earliest at that price.
		assert.Equal(t, "a", sku(Pick(scope)))
	})
}

func TestPickEntryLevelSizeOnly(t *testing.T) {
	scope := scopeOf(
		&fakeVariant{sku: "large", inStock: true, price: 3000, hasSize: true, sizeValue: 1000},
		&fakeVariant{sku: "small", inStock: true, price: 1200, hasSize: true, sizeValue: 250},
		&fakeVariant{sku: "medium", inStock: true, price: 2000, hasSize: true, sizeValue: 500},
	)
	assert.Equal(t, "small", sku(Pick(scope)))
}

func TestPickSizeOnlySkipsOutOfStockSizes(t *testing.T) {
	scope := scopeOf(
		&fakeVariant{sku: "small", inStock: false, price: 1200, hasSize: true, sizeValue: 250},
		&fakeVariant{sku: "medium", inStock: true, price: 2000, hasSize: true, sizeValue: 500},
	)
	assert.Equal(t, "medium", sku(Pick(scope)))
}

func TestPickColoredScopeUsesPriceRanking(t *testing.T) {
	// A color dimension disables the size shortcut even when sizes exist.
	scope := scopeOf(
		&fakeVariant{sku: "a", inStock: true, price: 1000, hasSize: true, sizeValue: 250, colored: true},
		&fakeVariant{sku: "b", inStock: true, price: 2000, hasSize: true, sizeValue: 500, colored: true},
		&fakeVariant{sku: "c", inStock: true, price: 5000, hasSize: true, sizeValue: 750, colored: true},
	)
	assert.Equal(t, "b", sku(Pick(scope)))
}

func TestPickDeterministic(t *testing.T) {
	scope := scopeOf(
		&fakeVariant{sku: "a", inStock: true, price: 1000, salesScore: 3, hasSalesData: true},
		&fakeVariant{sku: "b", inStock: true, price: 2000, salesScore: 7, hasSalesData: true},
		&fakeVariant{sku: "c", inStock: true, price: 500},
	)
	first := Pick(scope)
	for i := 0; i < 50; i++ {
		assert.Same(t, first, Pick(scope))
	}
}
