// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	RunsTotal          *prometheus.CounterVec
	RunDuration        prometheus.Histogram
	EventsFetched      prometheus.Counter
	EventsFiltered     prometheus.Counter
	TransfersPersisted prometheus.Counter
	TokensDiscovered   prometheus.Counter
	ChunkErrors        prometheus.Counter

	// External API metrics
	FetchErrors     *prometheus.CounterVec
	APICallLatency  *prometheus.HistogramVec
	PriceSamplesGot prometheus.Counter

	// Watermark metrics
	ResumeBlock       prometheus.Gauge
	HighestBlockSeen  prometheus.Gauge
	LastSuccessfulRun prometheus.Gauge

	// Live price metrics
	LivePrice *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "bridge_transfer_indexer"
	}

	return &Metrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"status"}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Pipeline run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		EventsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "events_fetched_total",
			Help:      "Total number of transfer events fetched from the explorer",
		}),
		EventsFiltered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "events_filtered_total",
			Help:      "Total number of bridge-inbound events kept after filtering",
		}),
		TransfersPersisted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "transfers_persisted_total",
			Help:      "Total number of transfer records persisted",
		}),
		TokensDiscovered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "tokens_discovered_total",
			Help:      "Total number of distinct tokens submitted to the registry",
		}),
		ChunkErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "chunk_errors_total",
			Help:      "Total number of persistence chunks that failed",
		}),
		FetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "external",
			Name:      "fetch_errors_total",
			Help:      "Total number of external API fetch failures by source",
		}, []string{"source"}),
		APICallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "external",
			Name:      "api_call_latency_seconds",
			Help:      "External API call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		PriceSamplesGot: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "external",
			Name:      "price_samples_total",
			Help:      "Total number of price samples fetched from the feed",
		}),
		ResumeBlock: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "watermark",
			Name:      "resume_block",
			Help:      "Block number the current run resumed from",
		}),
		HighestBlockSeen: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "watermark",
			Name:      "highest_block_seen",
			Help:      "Highest block number observed in fetched events",
		}),
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
		LivePrice: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pricefeed",
			Name:      "live_price",
			Help:      "Most recent live price per asset symbol",
		}, []string{"symbol"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRun records a completed pipeline run.
func RecordRun(status string, durationSeconds float64) {
	DefaultMetrics.RunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.RunDuration.Observe(durationSeconds)
}

// RecordFetchError records an external API failure.
func RecordFetchError(source string) {
	DefaultMetrics.FetchErrors.WithLabelValues(source).Inc()
}

// RecordAPILatency records an external API call latency.
func RecordAPILatency(source string, seconds float64) {
	DefaultMetrics.APICallLatency.WithLabelValues(source).Observe(seconds)
}

// UpdateLivePrice updates the live price gauge for a symbol.
func UpdateLivePrice(symbol string, price float64) {
	DefaultMetrics.LivePrice.WithLabelValues(symbol).Set(price)
}
