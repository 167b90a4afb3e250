package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StoreMetrics counts order lifecycle transitions. Each instance owns
// its registry so tests can construct them freely.
type StoreMetrics struct {
	registry *prometheus.Registry

	OrdersCreated     prometheus.Counter
	PaymentsConfirmed prometheus.Counter
	PaymentsDeclined  prometheus.Counter
	Reconciliations   prometheus.Counter
}

func New() *StoreMetrics {
	m := &StoreMetrics{
		registry: prometheus.NewRegistry(),
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "velora",
			Name:      "orders_created_total",
			Help:      "Orders created at checkout submission.",
		}),
		PaymentsConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "velora",
			Name:      "payments_confirmed_total",
			Help:      "Payments confirmed with a terminal succeeded status.",
		}),
		PaymentsDeclined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "velora",
			Name:      "payments_declined_total",
			Help:      "Payment confirmations that did not succeed.",
		}),
		Reconciliations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "velora",
			Name:      "payment_reconciliations_total",
			Help:      "Confirmed charges whose order record update failed.",
		}),
	}

	m.registry.MustRegister(
		m.OrdersCreated,
		m.PaymentsConfirmed,
		m.PaymentsDeclined,
		m.Reconciliations,
	)
	return m
}

// Handler serves the scrape endpoint for this instance's registry.
func (m *StoreMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
