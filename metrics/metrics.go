// Package metrics exposes the engine's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/agriaid/agriaid/core"
)

// Metrics holds the collectors the pipeline records into. A nil *Metrics is
// valid and records nothing, so tests can skip instrumentation entirely.
type Metrics struct {
	pipelines        *prometheus.CounterVec
	pipelineDuration prometheus.Histogram
	providerResults  *prometheus.CounterVec
	segmentsSent     prometheus.Counter
	sendFailures     prometheus.Counter
}

// New registers the collectors with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		pipelines: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agriaid_pipelines_total",
			Help: "Completed message pipelines by outcome.",
		}, []string{"outcome"}),
		pipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "agriaid_pipeline_duration_seconds",
			Help:    "Wall time of a full message pipeline.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		providerResults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agriaid_provider_results_total",
			Help: "Provider fetch outcomes by data source and status.",
		}, []string{"provider", "status"}),
		segmentsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "agriaid_sms_segments_sent_total",
			Help: "Outbound SMS segments handed to the transport.",
		}),
		sendFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "agriaid_sms_send_failures_total",
			Help: "Outbound SMS segments the transport failed to deliver.",
		}),
	}
}

// ObservePipeline records one finished pipeline.
func (m *Metrics) ObservePipeline(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.pipelines.WithLabelValues(outcome).Inc()
	m.pipelineDuration.Observe(seconds)
}

// ObserveDataResults records the per-provider outcomes of one fetch round.
func (m *Metrics) ObserveDataResults(results []core.DataResult) {
	if m == nil {
		return
	}
	for _, r := range results {
		m.providerResults.WithLabelValues(string(r.Tag), string(r.Status)).Inc()
	}
}

// ObserveSegment records one outbound segment attempt.
func (m *Metrics) ObserveSegment(failed bool) {
	if m == nil {
		return
	}
	m.segmentsSent.Inc()
	if failed {
		m.sendFailures.Inc()
	}
}
