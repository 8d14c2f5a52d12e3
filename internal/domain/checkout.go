package domain

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// CheckoutService owns the session/form lifecycle and the commit protocol
// tying cart, validation and order creation together.
type CheckoutService interface {
	// Submit validates the checkout form. On validation failure the form is
	// persisted into the session so the buyer does not retype it, and a
	// ValidationError is returned without touching order creation. On success
	// the cart is converted to an order and the saved form is discarded.
	Submit(ctx context.Context, sessionToken string, form CheckoutForm) (*OrderDetail, error)

	// SavedForm returns the form persisted by a previously failed Submit,
	// or nil when the session holds none.
	SavedForm(ctx context.Context, sessionToken string) (*CheckoutForm, error)
}

// CheckoutForm carries the customer/delivery input from the checkout page.
// Address fields are required only for courier delivery.
type CheckoutForm struct {
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,e164"`
	FullName string `json:"full_name" validate:"required,min=2"`

	DeliveryMethod string `json:"delivery_method" validate:"required,oneof=courier pickup"`
	DeliveryDate   string `json:"delivery_date" validate:"omitempty,datetime=2006-01-02"`
	DeliverySlot   string `json:"delivery_slot" validate:"omitempty"`

	AddressLine1 string `json:"address_line1" validate:"required_if=DeliveryMethod courier"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city" validate:"required_if=DeliveryMethod courier"`
	PostalCode   string `json:"postal_code" validate:"required_if=DeliveryMethod courier"`
	Country      string `json:"country"`

	Notes string `json:"notes" validate:"max=500"`
}

// AddressSnapshot flattens the form's address fields into the key-value map
// frozen onto the order.
func (f *CheckoutForm) AddressSnapshot() map[string]string {
	if DeliveryMethod(f.DeliveryMethod) != DeliveryCourier {
		return map[string]string{}
	}
	return map[string]string{
		"full_name":     f.FullName,
		"address_line1": f.AddressLine1,
		"address_line2": f.AddressLine2,
		"city":          f.City,
		"postal_code":   f.PostalCode,
		"country":       f.Country,
		"phone":         f.Phone,
	}
}

// Session is an opaque key-value row carrying the cart token and in-progress
// checkout-form state across requests.
type Session struct {
	ID        pgtype.UUID
	Token     string
	Data      []byte
	ExpiresAt pgtype.Timestamptz
	CreatedAt pgtype.Timestamptz
}
