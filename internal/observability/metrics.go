package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// report intake pipeline and the analytics components.
type Metrics struct {
	ReportsConsumed prometheus.Counter
	ReportsScored   prometheus.Counter
	TransformErrors prometheus.Counter
	PipelineRunning prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Geo resolution metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: strategy={gazetteer,remote}, outcome={success,miss,error}
	GeocodeCache       *prometheus.CounterVec   // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram

	// Scoring metrics.
	SpamDecisions *prometheus.CounterVec // labels: action={accept,review,reject}

	// Language and translation metrics.
	LanguageDetections  *prometheus.CounterVec // labels: method={remote,heuristic,cache}
	TranslationRequests *prometheus.CounterVec // labels: outcome={success,unavailable}
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.ReportsConsumed,
		m.ReportsScored,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.SpamDecisions,
		m.LanguageDetections,
		m.TranslationRequests,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "incident_analytics",
			Name:      "reports_consumed_total",
			Help:      "Total report submissions read from the source topic.",
		}),
		ReportsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "incident_analytics",
			Name:      "reports_scored_total",
			Help:      "Total scored reports written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "incident_analytics",
			Name:      "transform_errors_total",
			Help:      "Total raw submissions that could not be parsed.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "incident_analytics",
			Name:      "pipeline_running",
			Help:      "1 when the intake pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "incident_analytics",
			Name:      "batch_size",
			Help:      "Number of submissions per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "incident_analytics",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-score-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incident_analytics",
			Name:      "geocode_requests_total",
			Help:      "Geo resolution attempts by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incident_analytics",
			Name:      "geocode_cache_total",
			Help:      "Geo resolution cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "incident_analytics",
			Name:      "geocode_api_duration_seconds",
			Help:      "Remote geocoding request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 8},
		}),
		SpamDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incident_analytics",
			Name:      "spam_decisions_total",
			Help:      "Spam verdicts by resulting action.",
		}, []string{"action"}),
		LanguageDetections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incident_analytics",
			Name:      "language_detections_total",
			Help:      "Language detections by method used.",
		}, []string{"method"}),
		TranslationRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incident_analytics",
			Name:      "translation_requests_total",
			Help:      "Translation calls by outcome.",
		}, []string{"outcome"}),
	}
}
