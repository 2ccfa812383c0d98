package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CheckoutMetrics counts checkout outcomes, ledger decisions and provider
// verification latency.
type CheckoutMetrics struct {
	Checkouts         *prometheus.CounterVec
	LedgerEvents      *prometheus.CounterVec
	ProviderLatencyMS *prometheus.HistogramVec
}

func NewCheckoutMetrics() *CheckoutMetrics {
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "talkcart",
		Subsystem: "checkout",
		Name:      "attempts_total",
		Help:      "Total checkout attempts by terminal outcome.",
	}, []string{"outcome"})
	ledgerEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "talkcart",
		Subsystem: "checkout",
		Name:      "ledger_events_total",
		Help:      "Idempotency ledger decisions by source and outcome.",
	}, []string{"source", "outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "talkcart",
		Subsystem: "checkout",
		Name:      "provider_verify_duration_ms",
		Help:      "Charge verification latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"provider"})

	prometheus.MustRegister(checkouts, ledgerEvents, latency)
	return &CheckoutMetrics{
		Checkouts:         checkouts,
		LedgerEvents:      ledgerEvents,
		ProviderLatencyMS: latency,
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
