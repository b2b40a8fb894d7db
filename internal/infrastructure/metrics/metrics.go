package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus metrics for the turn pipeline
type Metrics struct {
	// Turn submission metrics
	TurnsSubmitted  prometheus.Counter
	TurnsDuplicated prometheus.Counter
	TurnDuration    prometheus.Histogram

	// Extraction metrics
	ExtractionRequests prometheus.Counter
	ExtractionFailures prometheus.Counter
	ExtractionLatency  prometheus.Histogram

	// Resolution metrics
	ActionsApplied  *prometheus.CounterVec
	ActionsSkipped  prometheus.Counter
	BatchFailures   prometheus.Counter
	ItemsPerHuddle  prometheus.Gauge

	// Presence metrics
	PresenceDemoted prometheus.Counter
	PresenceEvicted prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		TurnsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "huddle_turns_submitted_total",
			Help: "Total number of voice turns submitted",
		}),
		TurnsDuplicated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "huddle_turns_duplicated_total",
			Help: "Total number of turn submissions answered from the dedup store",
		}),
		TurnDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "huddle_turn_duration_seconds",
			Help:    "Duration of submitted turn clips in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s to ~1 minute
		}),
		ExtractionRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "huddle_extraction_requests_total",
			Help: "Total number of extraction service calls",
		}),
		ExtractionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "huddle_extraction_failures_total",
			Help: "Total number of failed extraction service calls",
		}),
		ExtractionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "huddle_extraction_latency_seconds",
			Help:    "Latency of extraction service calls",
			Buckets: prometheus.DefBuckets,
		}),
		ActionsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "huddle_actions_applied_total",
			Help: "Total number of edit actions applied, by action type",
		}, []string{"action"}),
		ActionsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "huddle_actions_skipped_total",
			Help: "Total number of edit actions skipped for unresolved keys",
		}),
		BatchFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "huddle_batch_failures_total",
			Help: "Total number of action batches rolled back",
		}),
		ItemsPerHuddle: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "huddle_planning_items",
			Help: "Planning items in the most recently resolved huddle",
		}),
		PresenceDemoted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "huddle_presence_demoted_total",
			Help: "Total number of participants demoted for missed heartbeats",
		}),
		PresenceEvicted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "huddle_presence_evicted_total",
			Help: "Total number of stale presence records evicted",
		}),
	}
}
