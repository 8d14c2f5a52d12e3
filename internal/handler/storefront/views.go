package storefront

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gersemi/storefront/internal/domain"
)

// View types shape domain aggregates into the JSON the storefront client
// consumes. Money stays in minor units; formatting is the client's job.

type variantView struct {
	ID             string  `json:"id"`
	SKU            string  `json:"sku"`
	Name           string  `json:"name"`
	PriceCents     int32   `json:"price_cents"`
	CompareAtCents *int32  `json:"compare_at_cents,omitempty"`
	Currency       string  `json:"currency"`
	InStock        bool    `json:"in_stock"`
	OnSale         bool    `json:"on_sale"`
	SizeValue      *float64 `json:"size_value,omitempty"`
	SizeUnit       string  `json:"size_unit,omitempty"`
	ColorName      string  `json:"color_name,omitempty"`
	IsDefault      bool    `json:"is_default"`
}

type productView struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Description string        `json:"description,omitempty"`
	Variants    []variantView `json:"variants"`
}

func newProductView(detail *domain.ProductDetail) productView {
	view := productView{
		ID:          detail.Product.ID.String(),
		Name:        detail.Product.Name,
		Slug:        detail.Product.Slug,
		Description: detail.Product.Description.String,
		Variants:    make([]variantView, 0, len(detail.Variants)),
	}
	for i := range detail.Variants {
		v := &detail.Variants[i]
		vv := variantView{
			ID:         v.ID.String(),
			SKU:        v.SKU,
			Name:       v.Name,
			PriceCents: v.PriceCents,
			Currency:   v.Currency,
			InStock:    v.InStock(),
			OnSale:     v.OnSale(),
			SizeUnit:   v.SizeUnit.String,
			ColorName:  v.ColorName.String,
			IsDefault:  detail.DefaultVariant != nil && detail.DefaultVariant.ID == v.ID,
		}
		if v.CompareAtCents.Valid {
			c := v.CompareAtCents.Int32
			vv.CompareAtCents = &c
		}
		if v.SizeValue.Valid {
			s := v.SizeValue.Float64
			vv.SizeValue = &s
		}
		view.Variants = append(view.Variants, vv)
	}
	return view
}

type cartLineView struct {
	VariantID      string `json:"variant_id"`
	ProductName    string `json:"product_name"`
	VariantName    string `json:"variant_name"`
	SKU            string `json:"sku"`
	Quantity       int32  `json:"quantity"`
	UnitPriceCents int32  `json:"unit_price_cents"`
	LineSubtotal   int32  `json:"line_subtotal_cents"`
}

type cartView struct {
	CartID        string         `json:"cart_id"`
	Lines         []cartLineView `json:"lines"`
	SubtotalCents int32          `json:"subtotal_cents"`
	Currency      string         `json:"currency"`
	ItemCount     int32          `json:"item_count"`
}

func newCartView(summary *domain.CartSummary) cartView {
	view := cartView{
		CartID:        summary.Cart.ID.String(),
		Lines:         make([]cartLineView, 0, len(summary.Lines)),
		SubtotalCents: summary.SubtotalCents,
		Currency:      summary.Currency,
		ItemCount:     summary.ItemCount,
	}
	for _, l := range summary.Lines {
		view.Lines = append(view.Lines, cartLineView{
			VariantID:      l.VariantID.String(),
			ProductName:    l.ProductName,
			VariantName:    l.VariantName,
			SKU:            l.SKU,
			Quantity:       l.Quantity,
			UnitPriceCents: l.UnitPriceCents,
			LineSubtotal:   l.LineSubtotal,
		})
	}
	return view
}

type orderLineView struct {
	ProductName     string `json:"product_name"`
	VariantName     string `json:"variant_name"`
	SKU             string `json:"sku"`
	Quantity        int32  `json:"quantity"`
	UnitPriceCents  int32  `json:"unit_price_cents"`
	TotalPriceCents int32  `json:"total_price_cents"`
}

type orderView struct {
	OrderNumber       string            `json:"order_number"`
	Status            string            `json:"status"`
	PaymentStatus     string            `json:"payment_status"`
	FulfillmentStatus string            `json:"fulfillment_status"`
	DeliveryMethod    string            `json:"delivery_method"`
	DeliveryDate      string            `json:"delivery_date,omitempty"`
	DeliverySlot      string            `json:"delivery_slot,omitempty"`
	ShippingAddress   map[string]string `json:"shipping_address"`
	Lines             []orderLineView   `json:"lines"`
	SubtotalCents     int32             `json:"subtotal_cents"`
	ShippingCents     int32             `json:"shipping_cents"`
	TotalCents        int32             `json:"total_cents"`
	Currency          string            `json:"currency"`
	CreatedAt         string            `json:"created_at"`
}

func newOrderView(detail *domain.OrderDetail) orderView {
	o := &detail.Order
	view := orderView{
		OrderNumber:       o.OrderNumber,
		Status:            string(o.Status),
		PaymentStatus:     string(o.PaymentStatus),
		FulfillmentStatus: string(o.FulfillmentStatus),
		DeliveryMethod:    string(o.DeliveryMethod),
		DeliverySlot:      o.DeliverySlot.String,
		ShippingAddress:   o.ShippingAddress,
		Lines:             make([]orderLineView, 0, len(detail.Lines)),
		SubtotalCents:     o.SubtotalCents,
		ShippingCents:     o.ShippingCents,
		TotalCents:        o.TotalCents,
		Currency:          o.Currency,
		CreatedAt:         formatTimestamp(o.CreatedAt),
	}
	if o.DeliveryDate.Valid {
		view.DeliveryDate = o.DeliveryDate.Time.Format("2006-01-02")
	}
	for _, l := range detail.Lines {
		view.Lines = append(view.Lines, orderLineView{
			ProductName:     l.ProductName,
			VariantName:     l.VariantName,
			SKU:             l.SKU,
			Quantity:        l.Quantity,
			UnitPriceCents:  l.UnitPriceCents,
			TotalPriceCents: l.TotalPriceCents,
		})
	}
	return view
}

func formatTimestamp(ts pgtype.Timestamptz) string {
	if !ts.Valid {
		return ""
	}
	return ts.Time.Format(time.RFC3339)
}
