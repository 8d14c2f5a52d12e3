package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gersemi/storefront/internal/domain"
	"github.com/gersemi/storefront/internal/repository"
	"github.com/gersemi/storefront/internal/telemetry"
)

// savedFormKey is where an unsubmitted checkout form lives in session data.
const savedFormKey = "checkout_form"

type checkoutService struct {
	store    repository.Store
	carts    domain.CartService
	orders   domain.OrderService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewCheckoutService creates the checkout orchestrator.
func NewCheckoutService(store repository.Store, carts domain.CartService, orders domain.OrderService, logger *slog.Logger) domain.CheckoutService {
	return &checkoutService{
		store:    store,
		carts:    carts,
		orders:   orders,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Submit runs the checkout protocol: form validation first, then cart
// conversion. A validation failure persists the form into the session so the
// buyer does not retype it, and never touches order creation. Order creation
// failures (stock conflicts included) leave the saved form in place too.
func (s *checkoutService) Submit(ctx context.Context, sessionToken string, form domain.CheckoutForm) (*domain.OrderDetail, error) {
	const op = "checkout.submit"

	cart, err := s.carts.GetCart(ctx, sessionToken)
	if err != nil {
		return nil, err
	}

	if err := s.validate.Struct(form); err != nil {
		s.saveForm(ctx, sessionToken, &form)
		telemetry.Business.RecordCheckoutFailure()
		return nil, fieldErrors(op, err)
	}

	info, err := customerInfo(op, form)
	if err != nil {
		s.saveForm(ctx, sessionToken, &form)
		telemetry.Business.RecordCheckoutFailure()
		return nil, err
	}

	detail, err := s.orders.Create(ctx, cart.ID, info)
	if err != nil {
		s.saveForm(ctx, sessionToken, &form)
		return nil, err
	}

	s.discardForm(ctx, sessionToken)
	telemetry.Business.RecordCheckoutCompleted()
	return detail, nil
}

// SavedForm returns the form persisted by a previously failed Submit, or nil
// when the session holds none.
func (s *checkoutService) SavedForm(ctx context.Context, sessionToken string) (*domain.CheckoutForm, error) {
	const op = "checkout.saved_form"

	session, err := s.store.GetSessionByToken(ctx, sessionToken)
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, domain.Internal(err, op, "failed to load session")
	}

	data := sessionData(session.Data)
	raw, ok := data[savedFormKey]
	if !ok {
		return nil, nil
	}

	var form domain.CheckoutForm
	if err := json.Unmarshal(raw, &form); err != nil {
		return nil, domain.Internal(err, op, "corrupt saved checkout form")
	}
	return &form, nil
}

func (s *checkoutService) saveForm(ctx context.Context, sessionToken string, form *domain.CheckoutForm) {
	if err := s.writeFormKey(ctx, sessionToken, form); err != nil {
		s.logger.WarnContext(ctx, "failed to save checkout form", "error", err)
	}
}

func (s *checkoutService) discardForm(ctx context.Context, sessionToken string) {
	if err := s.writeFormKey(ctx, sessionToken, nil); err != nil {
		s.logger.WarnContext(ctx, "failed to discard checkout form", "error", err)
	}
}

// writeFormKey sets or removes the saved-form key in the session's data blob.
func (s *checkoutService) writeFormKey(ctx context.Context, sessionToken string, form *domain.CheckoutForm) error {
	session, err := s.store.GetSessionByToken(ctx, sessionToken)
	if err != nil {
		return err
	}

	data := sessionData(session.Data)
	if form == nil {
		delete(data, savedFormKey)
	} else {
		raw, err := json.Marshal(form)
		if err != nil {
			return err
		}
		data[savedFormKey] = raw
	}

	blob, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.store.UpdateSessionData(ctx, repository.UpdateSessionDataParams{
		Token: sessionToken,
		Data:  blob,
	})
}

func sessionData(blob []byte) map[string]json.RawMessage {
	data := make(map[string]json.RawMessage)
	if len(blob) > 0 {
		_ = json.Unmarshal(blob, &data)
	}
	return data
}

// customerInfo converts a validated form into the order-creation input.
func customerInfo(op string, form domain.CheckoutForm) (domain.CustomerInfo, error) {
	info := domain.CustomerInfo{
		Email:          form.Email,
		Phone:          form.Phone,
		FullName:       form.FullName,
		DeliveryMethod: domain.DeliveryMethod(form.DeliveryMethod),
		DeliverySlot:   form.DeliverySlot,
		Notes:          form.Notes,
	}

	if form.DeliveryDate != "" {
		t, err := time.Parse("2006-01-02", form.DeliveryDate)
		if err != nil {
			return info, domain.NewValidationError(op, "delivery_date", "Enter a valid date (YYYY-MM-DD)")
		}
		info.DeliveryDate = pgtype.Date{Time: t, Valid: true}
	}

	snapshot := form.AddressSnapshot()
	info.ShippingAddress = snapshot
	info.BillingAddress = snapshot
	return info, nil
}

// fieldErrors converts validator output into field-level validation errors
// with messages safe to show on the checkout page.
func fieldErrors(op string, err error) error {
	ves, ok := err.(validator.ValidationErrors)
	if !ok {
		return domain.Internal(err, op, "form validation failed")
	}

	out := &domain.ValidationError{Op: op, Fields: make(map[string]string, len(ves))}
	for _, fe := range ves {
		out.Fields[fieldName(fe.Field())] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "This field is required"
	case "email":
		return "Enter a valid email address"
	case "e164":
		return "Enter a phone number in international format (+...)"
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "oneof":
		return "Choose one of the offered options"
	case "datetime":
		return "Enter a valid date (YYYY-MM-DD)"
	}
	return "Invalid value"
}

// fieldName maps struct field names back to their form (json) names.
func fieldName(structField string) string {
	switch structField {
	case "Email":
		return "email"
	case "Phone":
		return "phone"
	case "FullName":
		return "full_name"
	case "DeliveryMethod":
		return "delivery_method"
	case "DeliveryDate":
		return "delivery_date"
	case "DeliverySlot":
		return "delivery_slot"
	case "AddressLine1":
		return "address_line1"
	case "AddressLine2":
		return "address_line2"
	case "City":
		return "city"
	case "PostalCode":
		return "postal_code"
	case "Country":
		return "country"
	case "Notes":
		return "notes"
	}
	return structField
}
