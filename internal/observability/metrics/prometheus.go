// Package metrics provides Prometheus metrics for the billing services.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics
type Metrics struct {
	InvoicesCreated        prometheus.Counter
	InvoicesDispatched     prometheus.Counter
	InvoicesRejected       prometheus.Counter
	CodeValidationRequests prometheus.Counter
	TestCodeRequests       prometheus.Counter
	RenderDuration         prometheus.Histogram
	DispatchDuration       prometheus.Histogram
	KafkaMessagesProduced  prometheus.Counter
	KafkaMessagesConsumed  prometheus.Counter
	OutboxPending          prometheus.Gauge
	CircuitBreakerState    *prometheus.GaugeVec
}

// New creates and registers all metrics
func New() *Metrics {
	m := &Metrics{
		InvoicesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billing_invoices_created_total",
			Help: "Total invoices created",
		}),
		InvoicesDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billing_invoices_dispatched_total",
			Help: "Total invoices dispatched to insurers",
		}),
		InvoicesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billing_invoices_rejected_total",
			Help: "Total invoices rejected by insurers",
		}),
		CodeValidationRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billing_code_validation_requests_total",
			Help: "Total activation code validation requests built",
		}),
		TestCodeRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billing_test_code_requests_total",
			Help: "Validation requests carrying a test activation code",
		}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "billing_document_render_duration_seconds",
			Help:    "XML document render duration",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1},
		}),
		DispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "billing_dispatch_duration_seconds",
			Help:    "Insurer endpoint round-trip duration",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		KafkaMessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kafka_messages_produced_total",
			Help: "Total Kafka messages produced",
		}),
		KafkaMessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kafka_messages_consumed_total",
			Help: "Total Kafka messages consumed",
		}),
		OutboxPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "outbox_pending_entries",
			Help: "Pending outbox entries",
		}),
		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		}, []string{"name"}),
	}

	prometheus.MustRegister(
		m.InvoicesCreated,
		m.InvoicesDispatched,
		m.InvoicesRejected,
		m.CodeValidationRequests,
		m.TestCodeRequests,
		m.RenderDuration,
		m.DispatchDuration,
		m.KafkaMessagesProduced,
		m.KafkaMessagesConsumed,
		m.OutboxPending,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
