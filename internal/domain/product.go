package domain

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// =============================================================================
// PRODUCT DOMAIN TYPES
// =============================================================================

// ProductStatus represents the lifecycle state of a product.
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusActive   ProductStatus = "active"
	ProductStatusArchived ProductStatus = "archived"
)

// Historical performance weights for the bestseller score.
// Sales volume dominates; conversion rate refines ties between
// similarly-selling variants.
const (
	SalesCountWeight      = 0.7
	ConversionScoreWeight = 0.3
)

// Product represents a catalog entry. A product has no price or stock of its
// own; both always live on its variants.
type Product struct {
	ID          pgtype.UUID
	Name        string
	Slug        string
	Description pgtype.Text
	Status      ProductStatus
	SortOrder   int32
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

// Available reports whether the product can be sold at all.
func (p *Product) Available() bool {
	return p.Status == ProductStatusActive
}

// Variant is the sellable unit of a product.
type Variant struct {
	ID        pgtype.UUID
	ProductID pgtype.UUID
	SKU       string
	Name      string

	// Pricing. PriceCents must be positive; CompareAtCents marks a sale
	// when it exceeds the current price.
	PriceCents     int32
	CompareAtCents pgtype.Int4
	Currency       string

	// Inventory. StockQuantity is never negative. TrackInventory=false means
	// stock is not enforced at all; AllowBackorder permits selling through
	// zero tracked stock.
	StockQuantity  int32
	TrackInventory bool
	AllowBackorder bool

	// Merchandising flags and historical performance signals.
	IsDefault       bool
	IsCanonical     bool
	SalesCount      int32
	ConversionScore float64

	// Optional size and color dimensions.
	SizeValue pgtype.Float8
	SizeUnit  pgtype.Text
	SizeType  pgtype.Text
	ColorName pgtype.Text
	ColorHex  pgtype.Text

	// Position is the admin-controlled display order within the product.
	Position  int32
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

// InStock reports whether the variant is purchasable from a stock standpoint:
// untracked inventory, positive tracked stock, or backorders allowed.
func (v *Variant) InStock() bool {
	return !v.TrackInventory || v.StockQuantity > 0 || v.AllowBackorder
}

// Available reports full purchasability: the owning product must be sellable
// and the variant in stock.
func (v *Variant) Available(p *Product) bool {
	return p.Available() && v.InStock()
}

// OnSale reports whether the variant carries a valid compare-at price above
// its current price.
func (v *Variant) OnSale() bool {
	return v.CompareAtCents.Valid && v.CompareAtCents.Int32 > v.PriceCents && v.PriceCents > 0
}

// Price returns the variant price in minor currency units.
func (v *Variant) Price() int32 {
	return v.PriceCents
}

// SalesScore returns the weighted historical performance score used to rank
// bestsellers.
func (v *Variant) SalesScore() float64 {
	return SalesCountWeight*float64(v.SalesCount) + ConversionScoreWeight*v.ConversionScore
}

// HasSalesData reports whether either performance signal is non-zero.
func (v *Variant) HasSalesData() bool {
	return v.SalesCount > 0 || v.ConversionScore > 0
}

// AdminDefault reports the admin "pre-select this variant" override.
func (v *Variant) AdminDefault() bool {
	return v.IsDefault
}

// Canonical reports the admin-marked representative variant flag.
func (v *Variant) Canonical() bool {
	return v.IsCanonical
}

// Size returns the numeric size value when the variant has a size dimension.
func (v *Variant) Size() (float64, bool) {
	if !v.SizeValue.Valid {
		return 0, false
	}
	return v.SizeValue.Float64, true
}

// Colored reports whether the variant has a color dimension.
func (v *Variant) Colored() bool {
	return v.ColorName.Valid
}

// ProductDetail aggregates a product with its variants in display order and
// the computed default variant (nil when the product has no variants).
type ProductDetail struct {
	Product        Product
	Variants       []Variant
	DefaultVariant *Variant
}

// CatalogService provides the storefront read path for products.
type CatalogService interface {
	// GetProductDetail returns the product, its variants in display order and
	// the deterministically selected default variant.
	GetProductDetail(ctx context.Context, slug string) (*ProductDetail, error)
}

// Product-specific errors.
var (
	ErrProductNotFound = &Error{Code: ENOTFOUND, Message: "Product not found"}
	ErrVariantNotFound = &Error{Code: ENOTFOUND, Message: "Variant not found"}
)
