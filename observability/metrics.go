package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "insulation"

// Outcome label values.
const (
	OutcomeSuccess      = "success"
	OutcomeInvalidInput = "invalid_input"
	OutcomeMalformed    = "malformed"
	OutcomeError        = "error"
)

// Metrics holds the Prometheus collectors for the calculator API.
type Metrics struct {
	Calculations        *prometheus.CounterVec   // labels: outcome
	Reports             *prometheus.CounterVec   // labels: format (pdf), outcome
	ReportRenderSeconds prometheus.Histogram
	HTTPRequests        *prometheus.CounterVec   // labels: route, status
	HTTPRequestSeconds  *prometheus.HistogramVec // labels: route
}

// NewMetrics creates the collectors and registers them with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh
// prometheus.NewRegistry() in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculations_total",
			Help:      "Savings calculations by outcome.",
		}, []string{"outcome"}),
		Reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Rendered reports by format and outcome.",
		}, []string{"format", "outcome"}),
		ReportRenderSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_render_seconds",
			Help:      "Time to build and encode one report.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "status"}),
		HTTPRequestSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		m.Calculations,
		m.Reports,
		m.ReportRenderSeconds,
		m.HTTPRequests,
		m.HTTPRequestSeconds,
	)

	return m
}
