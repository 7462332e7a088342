package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// alerting platform.
type Metrics struct {
	AlertsCreated    *prometheus.CounterVec // labels: type
	AlertsSuppressed *prometheus.CounterVec // labels: type
	AlertsResolved   prometheus.Counter

	CheckDuration prometheus.Histogram
	CropsAnalyzed prometheus.Histogram

	// External provider metrics.
	ProviderRequests    *prometheus.CounterVec   // labels: provider={weather,geocode,price}, outcome={success,error,fallback}
	ProviderAPIDuration *prometheus.HistogramVec // labels: provider
	ProviderCache       *prometheus.CounterVec   // labels: provider, result={hit,miss}

	// Observation ingest metrics.
	ObservationsConsumed prometheus.Counter
	ObservationsStored   prometheus.Counter
	ParseErrors          prometheus.Counter
	IngestRunning        prometheus.Gauge
	IngestBatchSize      prometheus.Histogram

	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter
}

// NewMetrics creates and registers all platform metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		AlertsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agrialert",
			Name:      "alerts_created_total",
			Help:      "Alerts recorded, by alert type.",
		}, []string{"type"}),
		AlertsSuppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agrialert",
			Name:      "alerts_suppressed_total",
			Help:      "Alerts suppressed as duplicates, by alert type.",
		}, []string{"type"}),
		AlertsResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agrialert",
			Name:      "alerts_resolved_total",
			Help:      "Active alerts auto-resolved by the staleness sweep.",
		}),
		CheckDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agrialert",
			Name:      "weather_check_duration_seconds",
			Help:      "Duration of a complete weather check over all active crops.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		CropsAnalyzed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agrialert",
			Name:      "crops_analyzed",
			Help:      "Number of active crops walked per weather check.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agrialert",
			Name:      "provider_requests_total",
			Help:      "External provider requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agrialert",
			Name:      "provider_api_duration_seconds",
			Help:      "External provider request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		ProviderCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agrialert",
			Name:      "provider_cache_total",
			Help:      "Provider cache lookups by provider and result.",
		}, []string{"provider", "result"}),
		ObservationsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agrialert",
			Name:      "observations_consumed_total",
			Help:      "Total station observations read from the ingest topic.",
		}),
		ObservationsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agrialert",
			Name:      "observations_stored_total",
			Help:      "Total observations persisted after dedup.",
		}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agrialert",
			Name:      "observation_parse_errors_total",
			Help:      "Total ingest messages rejected by the parser.",
		}),
		IngestRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "agrialert",
			Name:      "ingest_running",
			Help:      "1 when the observation ingest loop is active, 0 when shut down.",
		}),
		IngestBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agrialert",
			Name:      "ingest_batch_size",
			Help:      "Number of messages per batch read from the ingest topic.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agrialert",
			Name:      "notifications_sent_total",
			Help:      "Alert emails delivered.",
		}),
		NotificationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agrialert",
			Name:      "notifications_failed_total",
			Help:      "Alert emails that failed to send.",
		}),
	}

	prometheus.MustRegister(
		m.AlertsCreated,
		m.AlertsSuppressed,
		m.AlertsResolved,
		m.CheckDuration,
		m.CropsAnalyzed,
		m.ProviderRequests,
		m.ProviderAPIDuration,
		m.ProviderCache,
		m.ObservationsConsumed,
		m.ObservationsStored,
		m.ParseErrors,
		m.IngestRunning,
		m.IngestBatchSize,
		m.NotificationsSent,
		m.NotificationsFailed,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		AlertsCreated:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "agrialert", Name: "alerts_created_total"}, []string{"type"}),
		AlertsSuppressed:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "agrialert", Name: "alerts_suppressed_total"}, []string{"type"}),
		AlertsResolved:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "agrialert", Name: "alerts_resolved_total"}),
		CheckDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "agrialert", Name: "weather_check_duration_seconds"}),
		CropsAnalyzed:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "agrialert", Name: "crops_analyzed"}),
		ProviderRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "agrialert", Name: "provider_requests_total"}, []string{"provider", "outcome"}),
		ProviderAPIDuration:  prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "agrialert", Name: "provider_api_duration_seconds"}, []string{"provider"}),
		ProviderCache:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "agrialert", Name: "provider_cache_total"}, []string{"provider", "result"}),
		ObservationsConsumed: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "agrialert", Name: "observations_consumed_total"}),
		ObservationsStored:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "agrialert", Name: "observations_stored_total"}),
		ParseErrors:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "agrialert", Name: "observation_parse_errors_total"}),
		IngestRunning:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "agrialert", Name: "ingest_running"}),
		IngestBatchSize:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "agrialert", Name: "ingest_batch_size"}),
		NotificationsSent:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "agrialert", Name: "notifications_sent_total"}),
		NotificationsFailed:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "agrialert", Name: "notifications_failed_total"}),
	}
}
