package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the counters the checkout and order-lifecycle paths report.
type Metrics struct {
	Checkouts     *prometheus.CounterVec
	OrdersCreated prometheus.Counter
	Transitions   *prometheus.CounterVec
}

// New registers the metrics on the given registerer. Tests pass a fresh
// prometheus.NewRegistry so repeated construction does not collide.
func New(reg prometheus.Registerer) *Metrics {
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "umpla",
		Subsystem: "checkout",
		Name:      "submissions_total",
		Help:      "Checkout submissions by outcome.",
	}, []string{"outcome"})
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "umpla",
		Subsystem: "orders",
		Name:      "created_total",
		Help:      "Orders created.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "umpla",
		Subsystem: "orders",
		Name:      "status_transitions_total",
		Help:      "Order status transitions by outcome.",
	}, []string{"outcome"})

	reg.MustRegister(checkouts, ordersCreated, transitions)
	return &Metrics{
		Checkouts:     checkouts,
		OrdersCreated: ordersCreated,
		Transitions:   transitions,
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
