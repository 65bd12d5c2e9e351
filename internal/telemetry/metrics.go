package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	ProviderCalls    *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec
	QuotesTotal      *prometheus.CounterVec
	CacheLookups     *prometheus.CounterVec
}

// NewMetrics creates metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postage_http_requests_total",
				Help: "Total number of HTTP requests by route and status",
			},
			[]string{"route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "postage_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		ProviderCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postage_provider_calls_total",
				Help: "Carrier provider calls by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		ProviderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "postage_provider_call_duration_seconds",
				Help:    "Carrier provider call duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
			},
			[]string{"provider"},
		),
		QuotesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postage_quotes_total",
				Help: "Quote requests answered, by whether bracket pricing was used",
			},
			[]string{"rule_fallback"},
		),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postage_quote_cache_lookups_total",
				Help: "Quote cache lookups by provider and result",
			},
			[]string{"provider", "result"},
		),
	}
}

// RecordRequest records an HTTP request.
func (m *Metrics) RecordRequest(route string, status int, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordProviderCall records one carrier call.
func (m *Metrics) RecordProviderCall(provider, outcome string, d time.Duration) {
	m.ProviderCalls.WithLabelValues(provider, outcome).Inc()
	m.ProviderDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// RecordQuote records a completed quote.
func (m *Metrics) RecordQuote(fallback bool) {
	m.QuotesTotal.WithLabelValues(strconv.FormatBool(fallback)).Inc()
}

// RecordCacheLookup records a cache hit, miss or error.
func (m *Metrics) RecordCacheLookup(provider, result string) {
	m.CacheLookups.WithLabelValues(provider, result).Inc()
}
