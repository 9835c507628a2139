package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors, registered on their own registry.
type Metrics struct {
	registry *prometheus.Registry

	ValidationFailures   *prometheus.CounterVec
	Submissions          *prometheus.CounterVec
	CollaboratorDuration *prometheus.HistogramVec
	HTTPRequests         *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ValidationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moviequiz_validation_failures_total",
				Help: "Quiz step validations that failed, by notice",
			},
			[]string{"notice"},
		),
		Submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moviequiz_submissions_total",
				Help: "Quiz submissions by outcome",
			},
			[]string{"outcome"},
		),
		CollaboratorDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "moviequiz_collaborator_request_duration_seconds",
				Help:    "Duration of search/recommend calls",
				Buckets: []float64{0.1, 0.5, 1, 2, 5},
			},
			[]string{"operation", "outcome"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moviequiz_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
	}
	m.registry.MustRegister(
		m.ValidationFailures,
		m.Submissions,
		m.CollaboratorDuration,
		m.HTTPRequests,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Outcome maps an error to the outcome label.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
