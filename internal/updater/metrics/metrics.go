package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the price updater on a
// dedicated registry.
type Metrics struct {
	Registry        *prometheus.Registry
	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	RetriesTotal    prometheus.Counter
	ItemsTotal      *prometheus.CounterVec
	LedgerWrites    *prometheus.CounterVec
}

// New constructs and registers all collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "updater_http_requests_total",
			Help: "Outbound HTTP requests by terminal fetch status.",
		},
		[]string{"status"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "updater_http_request_duration_seconds",
			Help:    "Outbound HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "updater_http_retries_total",
			Help: "Retry attempts scheduled by the fetch layer.",
		},
	)
	items := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "updater_items_processed_total",
			Help: "Work items processed by extraction result.",
		},
		[]string{"result"},
	)
	ledgerWrites := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "updater_ledger_writes_total",
			Help: "Ledger batch write round trips by result.",
		},
		[]string{"result"},
	)

	registry.MustRegister(requests, requestDuration, retries, items, ledgerWrites)

	return &Metrics{
		Registry:        registry,
		RequestsTotal:   requests,
		RequestDuration: requestDuration,
		RetriesTotal:    retries,
		ItemsTotal:      items,
		LedgerWrites:    ledgerWrites,
	}
}

// IncRequest counts one finished outbound request.
func (m *Metrics) IncRequest(status string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(status).Inc()
}

// ObserveDuration records one request latency.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncRetry counts one scheduled retry.
func (m *Metrics) IncRetry() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncItem counts one processed work item.
func (m *Metrics) IncItem(result string) {
	if m == nil {
		return
	}
	m.ItemsTotal.WithLabelValues(result).Inc()
}

// IncLedgerWrite counts one ledger write round trip.
func (m *Metrics) IncLedgerWrite(result string) {
	if m == nil {
		return
	}
	m.LedgerWrites.WithLabelValues(result).Inc()
}
