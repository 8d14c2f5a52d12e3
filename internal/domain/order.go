package domain

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// Order-related domain errors.
var (
	ErrOrderNotFound      = &Error{Code: ENOTFOUND, Message: "Order not found"}
	ErrEmptyCart          = &Error{Code: EINVALID, Message: "Cart is empty"}
	ErrMissingCustomer    = &Error{Code: EINVALID, Message: "Customer information is required"}
	ErrCartConverted      = &Error{Code: ECONFLICT, Message: "Cart already converted to order"}
	ErrInsufficientStock  = &Error{Code: ECONFLICT, Message: "Insufficient stock for one or more items"}
	ErrInvalidTransition  = &Error{Code: ECONFLICT, Message: "Invalid status transition"}
	ErrOrderNotCancelable = &Error{Code: ECONFLICT, Message: "Order can no longer be cancelled"}
)

// OrderStatus is the overall lifecycle axis of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Terminal reports whether no further status transitions are allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// ValidStatusTransition reports whether an order may move from one status to
// another. Cancellation is allowed from any non-terminal status; forward
// movement is strictly sequential.
func ValidStatusTransition(from, to OrderStatus) bool {
	if from.Terminal() {
		return false
	}
	if to == OrderStatusCancelled {
		return true
	}
	switch from {
	case OrderStatusPending:
		return to == OrderStatusProcessing
	case OrderStatusProcessing:
		return to == OrderStatusShipped
	case OrderStatusShipped:
		return to == OrderStatusDelivered
	}
	return false
}

// PaymentStatus models the single cash-on-delivery payment flow.
type PaymentStatus string

const (
	PaymentStatusCashOnDelivery PaymentStatus = "cash_on_delivery"
	PaymentStatusPaid           PaymentStatus = "paid"
	PaymentStatusRefused        PaymentStatus = "refused"
)

// FulfillmentStatus is the physical-handling axis, independent of the order
// status. A cancelled order keeps whatever fulfillment progress it had; the
// cancelled fulfillment state only wipes the progress display, never the
// historical order data.
type FulfillmentStatus string

const (
	FulfillmentUnfulfilled FulfillmentStatus = "unfulfilled"
	FulfillmentPacked      FulfillmentStatus = "packed"
	FulfillmentDispatched  FulfillmentStatus = "dispatched"
	FulfillmentDelivered   FulfillmentStatus = "delivered"
	FulfillmentPickedUp    FulfillmentStatus = "picked_up"
	FulfillmentCancelled   FulfillmentStatus = "cancelled"
)

// DeliveryMethod selects which fulfillment path applies.
type DeliveryMethod string

const (
	DeliveryCourier DeliveryMethod = "courier"
	DeliveryPickup  DeliveryMethod = "pickup"
)

// ValidFulfillmentTransition reports whether fulfillment may advance from one
// state to another under the given delivery method. Cancellation is allowed
// from any non-terminal fulfillment state.
func ValidFulfillmentTransition(method DeliveryMethod, from, to FulfillmentStatus) bool {
	if from == FulfillmentDelivered || from == FulfillmentPickedUp || from == FulfillmentCancelled {
		return false
	}
	if to == FulfillmentCancelled {
		return true
	}
	switch from {
	case FulfillmentUnfulfilled:
		return to == FulfillmentPacked
	case FulfillmentPacked:
		if method == DeliveryPickup {
			return to == FulfillmentPickedUp
		}
		return to == FulfillmentDispatched
	case FulfillmentDispatched:
		return method == DeliveryCourier && to == FulfillmentDelivered
	}
	return false
}

// Order is immutable once created; only the three status axes may change.
// Address snapshots are plain key-value maps copied by value at creation so
// later address-book edits never touch historical orders.
type Order struct {
	ID          pgtype.UUID
	OrderNumber string
	UserID      pgtype.UUID
	Email       string
	Phone       string

	Status            OrderStatus
	PaymentStatus     PaymentStatus
	FulfillmentStatus FulfillmentStatus

	DeliveryMethod DeliveryMethod
	DeliveryDate   pgtype.Date
	DeliverySlot   pgtype.Text

	ShippingAddress map[string]string
	BillingAddress  map[string]string

	SubtotalCents int32
	TaxCents      int32
	ShippingCents int32
	DiscountCents int32
	TotalCents    int32
	Currency      string

	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

// OrderLine is a frozen snapshot of a cart line at commit time. Product and
// variant names, unit price and total are denormalized so later catalog
// edits or deletions never alter historical order data.
type OrderLine struct {
	ID              pgtype.UUID
	OrderID         pgtype.UUID
	VariantID       pgtype.UUID
	ProductName     string
	VariantName     string
	SKU             string
	UnitPriceCents  int32
	Quantity        int32
	TotalPriceCents int32
	CreatedAt       pgtype.Timestamptz
}

// OrderDetail aggregates an order with its lines in the order the buyer saw
// at checkout.
type OrderDetail struct {
	Order Order
	Lines []OrderLine
}

// CustomerInfo is the validated checkout input consumed by order creation.
// Address maps are copied by value into the order's frozen snapshots.
type CustomerInfo struct {
	UserID          pgtype.UUID
	Email           string
	Phone           string
	FullName        string
	DeliveryMethod  DeliveryMethod
	DeliveryDate    pgtype.Date
	DeliverySlot    string
	ShippingAddress map[string]string
	BillingAddress  map[string]string
	Notes           string
}

// OrderService provides business logic for order operations.
type OrderService interface {
	// Create snapshots the cart into an immutable order inside one
	// transaction. On success the source cart is cleared best-effort outside
	// the transaction; a cleanup failure never invalidates the order.
	Create(ctx context.Context, cartID pgtype.UUID, info CustomerInfo) (*OrderDetail, error)

	// GetOrder retrieves an order with its lines by ID.
	GetOrder(ctx context.Context, orderID pgtype.UUID) (*OrderDetail, error)

	// GetOrderByNumber retrieves an order with its lines by order number.
	GetOrderByNumber(ctx context.Context, orderNumber string) (*OrderDetail, error)

	// UpdateStatus advances the order status axis, validating the transition.
	UpdateStatus(ctx context.Context, orderID pgtype.UUID, to OrderStatus) error

	// UpdateFulfillment advances the fulfillment axis, validating the
	// transition against the order's delivery method.
	UpdateFulfillment(ctx context.Context, orderID pgtype.UUID, to FulfillmentStatus) error
}
