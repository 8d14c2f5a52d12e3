package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gersemi/storefront/internal/domain"
)

func newCheckoutFixture() (*fakeStore, domain.CartService, domain.CheckoutService) {
	store := newFakeStore()
	carts := NewCartService(store, testLogger(), "USD")
	orders := NewOrderService(store, testLogger(), nil, 500)
	return store, carts, NewCheckoutService(store, carts, orders, testLogger())
}

func courierForm() domain.CheckoutForm {
	return domain.CheckoutForm{
		Email:          "jo@example.com",
		Phone:          "+15550100",
		FullName:       "Jo Smith",
		DeliveryMethod: "courier",
		DeliveryDate:   "2025-06-05",
		AddressLine1:   "1 Main St",
		City:           "Springfield",
		PostalCode:     "12345",
	}
}

func TestCheckoutSubmit(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) (*fakeStore, domain.CheckoutService) {
		store, carts, checkout := newCheckoutFixture()
		p := store.seedProduct("coffee")
		v := store.seedVariant(p, "COF-12", 1500, 10)
		cart := store.seedCart("tok")
		_, err := carts.AddItem(ctx, cart.ID, v.ID, 2)
		require.NoError(t, err)
		return store, checkout
	}

	t.Run("valid courier form converts the cart", func(t *testing.T) {
		_, checkout := seed(t)

		detail, err := checkout.Submit(ctx, "tok", courierForm())
		require.NoError(t, err)
		assert.Equal(t, int32(3000), detail.Order.SubtotalCents)
		assert.Equal(t, int32(500), detail.Order.ShippingCents)
		assert.Equal(t, domain.DeliveryCourier, detail.Order.DeliveryMethod)
		assert.Equal(t, "Springfield", detail.Order.ShippingAddress["city"])
		assert.Equal(t, "2025-06-05", detail.Order.DeliveryDate.Time.Format("2006-01-02"))

		saved, err := checkout.SavedForm(ctx, "tok")
		require.NoError(t, err)
		assert.Nil(t, saved)
	})

	t.Run("pickup needs no address", func(t *testing.T) {
		_, checkout := seed(t)

		form := courierForm()
		form.DeliveryMethod = "pickup"
		form.AddressLine1 = ""
		form.City = ""
		form.PostalCode = ""

		detail, err := checkout.Submit(ctx, "tok", form)
		require.NoError(t, err)
		assert.Equal(t, int32(0), detail.Order.ShippingCents)
		assert.Empty(t, detail.Order.ShippingAddress)
	})

	t.Run("invalid form reports fields and saves the draft", func(t *testing.T) {
		store, checkout := seed(t)

		form := courierForm()
		form.Email = "not-an-email"
		form.Phone = ""

		_, err := checkout.Submit(ctx, "tok", form)
		require.True(t, domain.IsValidationError(err))
		fields := domain.GetValidationFields(err)
		assert.Equal(t, "Enter a valid email address", fields["email"])
		assert.Equal(t, "This field is required", fields["phone"])

		// Nothing converted, and the draft survives for the retry.
		assert.Empty(t, store.orders)
		saved, err := checkout.SavedForm(ctx, "tok")
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, "not-an-email", saved.Email)
	})

	t.Run("courier delivery requires an address", func(t *testing.T) {
		_, checkout := seed(t)

		form := courierForm()
		form.AddressLine1 = ""
		form.City = ""
		form.PostalCode = ""

		_, err := checkout.Submit(ctx, "tok", form)
		require.True(t, domain.IsValidationError(err))
		fields := domain.GetValidationFields(err)
		assert.Contains(t, fields, "address_line1")
		assert.Contains(t, fields, "city")
		assert.Contains(t, fields, "postal_code")
	})

	t.Run("malformed delivery date is a field error", func(t *testing.T) {
		_, checkout := seed(t)

		form := courierForm()
		form.DeliveryDate = "05/06/2025"

		_, err := checkout.Submit(ctx, "tok", form)
		require.True(t, domain.IsValidationError(err))
		assert.Contains(t, domain.GetValidationFields(err), "delivery_date")
	})

	t.Run("empty cart fails but keeps the draft", func(t *testing.T) {
		store, _, checkout := newCheckoutFixture()
		store.seedCart("tok")

		_, err := checkout.Submit(ctx, "tok", courierForm())
		assert.ErrorIs(t, err, domain.ErrEmptyCart)

		saved, err := checkout.SavedForm(ctx, "tok")
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, "jo@example.com", saved.Email)
	})

	t.Run("stock conflict fails but keeps the draft", func(t *testing.T) {
		store, carts, checkout := newCheckoutFixture()
		p := store.seedProduct("coffee")
		v := store.seedVariant(p, "COF-12", 1500, 5)
		cart := store.seedCart("tok")
		_, err := carts.AddItem(ctx, cart.ID, v.ID, 5)
		require.NoError(t, err)

		depleted := store.variants[v.ID]
		depleted.StockQuantity = 1
		store.variants[v.ID] = depleted

		_, err = checkout.Submit(ctx, "tok", courierForm())
		assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))

		saved, err := checkout.SavedForm(ctx, "tok")
		require.NoError(t, err)
		assert.NotNil(t, saved)
	})

	t.Run("unknown session has no cart", func(t *testing.T) {
		_, _, checkout := newCheckoutFixture()

		_, err := checkout.Submit(ctx, "missing", courierForm())
		assert.ErrorIs(t, err, domain.ErrCartNotFound)
	})

	t.Run("retry after a failed submit succeeds and discards the draft", func(t *testing.T) {
		_, checkout := seed(t)

		broken := courierForm()
		broken.Email = ""
		_, err := checkout.Submit(ctx, "tok", broken)
		require.True(t, domain.IsValidationError(err))

		_, err = checkout.Submit(ctx, "tok", courierForm())
		require.NoError(t, err)

		saved, err := checkout.SavedForm(ctx, "tok")
		require.NoError(t, err)
		assert.Nil(t, saved)
	})
}

func TestSavedFormEmptySession(t *testing.T) {
	ctx := context.Background()
	store, _, checkout := newCheckoutFixture()
	store.seedCart("tok")

	saved, err := checkout.SavedForm(ctx, "tok")
	require.NoError(t, err)
	assert.Nil(t, saved)

	// A token with no session row is not an error either.
	saved, err = checkout.SavedForm(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, saved)
}
