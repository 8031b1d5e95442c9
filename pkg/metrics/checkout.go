package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records order building and checkout outcomes.
type CheckoutMetrics struct {
	orders        *prometheus.CounterVec
	failures      *prometheus.CounterVec
	buildDuration *prometheus.HistogramVec
	orderValue    *prometheus.HistogramVec
	vendorsPer    prometheus.Histogram
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_total",
		Help: "Orders created at checkout.",
	}, []string{"currency"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failures_total",
		Help: "Checkout attempts rejected or failed, by reason.",
	}, []string{"reason"})
	buildDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Time spent building and persisting an order.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	orderValue := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_order_value",
		Help:    "Order totals in major currency units.",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"currency"})
	vendorsPer := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_vendors_per_order",
		Help:    "Distinct vendors contributing to an order.",
		Buckets: []float64{1, 2, 3, 5, 8, 13},
	})
	reg.MustRegister(orders, failures, buildDuration, orderValue, vendorsPer)
	return &CheckoutMetrics{
		orders:        orders,
		failures:      failures,
		buildDuration: buildDuration,
		orderValue:    orderValue,
		vendorsPer:    vendorsPer,
	}
}

// ObserveOrder records a successful checkout.
func (m *CheckoutMetrics) ObserveOrder(currency string, total float64, vendors int, duration time.Duration) {
	if m == nil || m.orders == nil {
		return
	}
	currency = normalizeLabel(currency)
	m.orders.WithLabelValues(currency).Inc()
	m.orderValue.WithLabelValues(currency).Observe(total)
	m.vendorsPer.Observe(float64(vendors))
	m.buildDuration.WithLabelValues("success").Observe(duration.Seconds())
}

// ObserveFailure records a failed checkout with a short reason label.
func (m *CheckoutMetrics) ObserveFailure(reason string, duration time.Duration) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(reason)).Inc()
	m.buildDuration.WithLabelValues("failure").Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
