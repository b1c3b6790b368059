package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics exports resolver observations as Prometheus series.
type PrometheusMetrics struct {
	resolveTotal     *prometheus.CounterVec
	resolveDuration  *prometheus.HistogramVec
	resolveTools     prometheus.Histogram
	providerDuration *prometheus.HistogramVec
	extractedTools   *prometheus.CounterVec
}

// NewPrometheusMetrics registers the resolver metrics with registerer, or
// the default registerer when nil.
func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		resolveTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolscout_resolve_total",
				Help: "Total number of query resolutions by outcome",
			},
			[]string{"outcome"},
		),
		resolveDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "toolscout_resolve_duration_seconds",
				Help:    "Duration of query resolutions in seconds",
				Buckets: []float64{.001, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"outcome"},
		),
		resolveTools: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "toolscout_resolve_tools",
				Help:    "Number of tools returned per resolution",
				Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 8, 10},
			},
		),
		providerDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "toolscout_provider_duration_seconds",
				Help:    "Latency of search provider calls in seconds",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"provider", "status"},
		),
		extractedTools: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolscout_extracted_tools_total",
				Help: "Total number of tools extracted by source",
			},
			[]string{"source"},
		),
	}
}

func (p *PrometheusMetrics) ObserveResolve(outcome Outcome, duration time.Duration, tools int) {
	p.resolveTotal.WithLabelValues(string(outcome)).Inc()
	p.resolveDuration.WithLabelValues(string(outcome)).Observe(duration.Seconds())
	p.resolveTools.Observe(float64(tools))
}

func (p *PrometheusMetrics) ObserveProvider(provider string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	p.providerDuration.WithLabelValues(provider, status).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) ObserveExtracted(source string, count int) {
	p.extractedTools.WithLabelValues(source).Add(float64(count))
}

var _ Metrics = (*PrometheusMetrics)(nil)
