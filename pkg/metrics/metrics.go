package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TierLatency tracks per-tier evaluation latency in seconds.
	TierLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "validation_tier_latency_seconds",
			Help:    "Latency of individual evidence tier evaluations",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		},
		[]string{"tier"},
	)

	// TierStatus counts tier outcomes by status.
	TierStatus = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "validation_tier_status_total",
			Help: "Count of tier results by tier and status",
		},
		[]string{"tier", "status"},
	)

	// VerdictPattern counts classified verdicts by pattern.
	VerdictPattern = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "validation_verdict_pattern_total",
			Help: "Count of validation verdicts by outcome pattern",
		},
		[]string{"pattern"},
	)

	// AggregatedConfidence tracks the fused confidence distribution.
	AggregatedConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "validation_aggregated_confidence",
			Help:    "Distribution of aggregated confidence scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	// ValidationDuration tracks end-to-end validation latency in seconds.
	ValidationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "validation_duration_seconds",
			Help:    "End-to-end latency of one validation request",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
	)

	// CacheLookups counts verdict cache lookups by result.
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "validation_cache_lookups_total",
			Help: "Count of verdict cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)
)

// RecordTierResult records latency and status for one tier evaluation.
func RecordTierResult(tier, status string, latencySeconds float64) {
	TierLatency.WithLabelValues(tier).Observe(latencySeconds)
	TierStatus.WithLabelValues(tier, status).Inc()
}

// RecordVerdict records the classified pattern and fused confidence.
func RecordVerdict(pattern string, confidence float64) {
	VerdictPattern.WithLabelValues(pattern).Inc()
	AggregatedConfidence.Observe(confidence)
}

// RecordValidation records the end-to-end request latency.
func RecordValidation(durationSeconds float64) {
	ValidationDuration.Observe(durationSeconds)
}

// RecordCacheLookup records the outcome of a verdict cache lookup.
func RecordCacheLookup(result string) {
	CacheLookups.WithLabelValues(result).Inc()
}
