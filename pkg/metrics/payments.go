package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records checkout and reconciliation outcomes.
type PaymentMetrics struct {
	ordersCreated    *prometheus.CounterVec
	providerFailures *prometheus.CounterVec
	transitions      *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders persisted after provider acceptance, by payment method.",
	}, []string{"method"})
	providerFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "provider_failures_total",
		Help: "Provider rejections and dependency failures, by payment method.",
	}, []string{"method"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_transitions_total",
		Help: "Reconciler state transitions, by resulting state.",
	}, []string{"state"})
	reg.MustRegister(ordersCreated, providerFailures, transitions)
	return &PaymentMetrics{
		ordersCreated:    ordersCreated,
		providerFailures: providerFailures,
		transitions:      transitions,
	}
}

// IncOrderCreated counts a persisted order for the given method.
func (m *PaymentMetrics) IncOrderCreated(method string) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.WithLabelValues(normalizeLabel(method)).Inc()
}

// IncProviderFailure counts a failed provider interaction for the method.
func (m *PaymentMetrics) IncProviderFailure(method string) {
	if m == nil || m.providerFailures == nil {
		return
	}
	m.providerFailures.WithLabelValues(normalizeLabel(method)).Inc()
}

// IncTransition counts a reconciler outcome by canonical state.
func (m *PaymentMetrics) IncTransition(state string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(state)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
