// Package telemetry exposes Prometheus metrics for the commerce flows.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics tracks commerce outcomes rather than HTTP mechanics.
// All record methods are safe to call on a nil receiver so code paths work
// before InitBusinessMetrics runs (tests, tooling).
type BusinessMetrics struct {
	CartsCreated prometheus.Counter
	CartUpdates  prometheus.Counter
	CartsCleared prometheus.Counter
	CartsMerged  prometheus.Counter

	CheckoutFailures   prometheus.Counter
	CheckoutsCompleted prometheus.Counter

	OrdersCreated  prometheus.Counter
	OrderValue     prometheus.Histogram
	OrderItemCount prometheus.Histogram

	StockConflicts prometheus.Counter
}

// Business is the process-wide metrics instance, set by InitBusinessMetrics.
var Business *BusinessMetrics

// InitBusinessMetrics registers all business metrics with the default
// Prometheus registry. Call once at startup.
func InitBusinessMetrics() *BusinessMetrics {
	Business = &BusinessMetrics{
		CartsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "storefront_carts_created_total",
			Help: "Number of carts created",
		}),
		CartUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "storefront_cart_updates_total",
			Help: "Number of cart line mutations (add, set, delete)",
		}),
		CartsCleared: promauto.NewCounter(prometheus.CounterOpts{
			Name: "storefront_carts_cleared_total",
			Help: "Number of carts fully cleared",
		}),
		CartsMerged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "storefront_carts_merged_total",
			Help: "Number of guest carts merged or adopted at login",
		}),
		CheckoutFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "storefront_checkout_failures_total",
			Help: "Number of checkout submissions rejected by validation",
		}),
		CheckoutsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "storefront_checkouts_completed_total",
			Help: "Number of checkouts that produced an order",
		}),
		OrdersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_created_total",
			Help: "Number of orders created",
		}),
		OrderValue: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "storefront_order_value_cents",
			Help:    "Order totals in minor currency units",
			Buckets: prometheus.ExponentialBuckets(500, 2.5, 10),
		}),
		OrderItemCount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "storefront_order_item_count",
			Help:    "Number of distinct lines per order",
			Buckets: prometheus.LinearBuckets(1, 1, 15),
		}),
		StockConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "storefront_stock_conflicts_total",
			Help: "Number of order attempts aborted by the commit-time stock check",
		}),
	}
	return Business
}

func (m *BusinessMetrics) RecordCartCreated() {
	if m == nil {
		return
	}
	m.CartsCreated.Inc()
}

func (m *BusinessMetrics) RecordCartUpdate() {
	if m == nil {
		return
	}
	m.CartUpdates.Inc()
}

func (m *BusinessMetrics) RecordCartCleared() {
	if m == nil {
		return
	}
	m.CartsCleared.Inc()
}

func (m *BusinessMetrics) RecordCartMerged() {
	if m == nil {
		return
	}
	m.CartsMerged.Inc()
}

func (m *BusinessMetrics) RecordCheckoutFailure() {
	if m == nil {
		return
	}
	m.CheckoutFailures.Inc()
}

func (m *BusinessMetrics) RecordCheckoutCompleted() {
	if m == nil {
		return
	}
	m.CheckoutsCompleted.Inc()
}

func (m *BusinessMetrics) RecordOrderCreated(totalCents int32, lineCount int) {
	if m == nil {
		return
	}
	m.OrdersCreated.Inc()
	m.OrderValue.Observe(float64(totalCents))
	m.OrderItemCount.Observe(float64(lineCount))
}

func (m *BusinessMetrics) RecordStockConflict() {
	if m == nil {
		return
	}
	m.StockConflicts.Inc()
}
