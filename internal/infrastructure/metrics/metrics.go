package metrics

import (
	"net/http"
	"time"

	"proofdrop-scorer/internal/domain/entity"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ScorerMetrics holds the Prometheus collectors of the scoring service
type ScorerMetrics struct {
	registry *prometheus.Registry

	ScoresTotal      *prometheus.CounterVec
	ScoreValue       prometheus.Histogram
	ProviderDuration *prometheus.HistogramVec
	ProviderFailures *prometheus.CounterVec
	RequestsTotal    *prometheus.CounterVec
}

// NewScorerMetrics creates the collectors on a dedicated registry
func NewScorerMetrics() *ScorerMetrics {
	m := &ScorerMetrics{
		registry: prometheus.NewRegistry(),

		ScoresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proofdrop_scores_total",
				Help: "Total number of wallets scored by badge",
			},
			[]string{"badge"},
		),

		ScoreValue: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "proofdrop_score_value",
				Help:    "Distribution of computed reputation scores",
				Buckets: []float64{0, 10, 25, 50, 75, 90, 100},
			},
		),

		ProviderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "proofdrop_provider_duration_seconds",
				Help:    "Duration of supplemental provider lookups in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"provider"},
		),

		ProviderFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proofdrop_provider_failures_total",
				Help: "Total number of supplemental provider lookups that degraded to zero",
			},
			[]string{"provider"},
		),

		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proofdrop_requests_total",
				Help: "Total number of score requests by transport and status",
			},
			[]string{"transport", "status"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ScoresTotal,
		m.ScoreValue,
		m.ProviderDuration,
		m.ProviderFailures,
		m.RequestsTotal,
	)

	return m
}

// ObserveScore records one computed score
func (m *ScorerMetrics) ObserveScore(badge entity.Badge, score int) {
	m.ScoresTotal.WithLabelValues(string(badge)).Inc()
	m.ScoreValue.Observe(float64(score))
}

// ObserveProvider records one provider lookup
func (m *ScorerMetrics) ObserveProvider(provider string, elapsed time.Duration, err error) {
	m.ProviderDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
	if err != nil {
		m.ProviderFailures.WithLabelValues(provider).Inc()
	}
}

// ObserveRequest records one inbound request outcome
func (m *ScorerMetrics) ObserveRequest(transport, status string) {
	m.RequestsTotal.WithLabelValues(transport, status).Inc()
}

// Handler returns the HTTP handler exposing the registry
func (m *ScorerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
