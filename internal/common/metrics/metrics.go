// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScoresComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_scores_computed_total",
			Help: "Total number of (job, candidate) pairs scored",
		},
		[]string{"strategy", "outcome"},
	)

	ScoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "engine_score_duration_seconds",
			Help: "Duration of composite scoring in seconds",
		},
		[]string{"strategy"},
	)

	PredictionsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_predictions_issued_total",
			Help: "Total number of predictions issued",
		},
		[]string{"decision"},
	)

	FeedbackIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_feedback_ingested_total",
			Help: "Total number of feedback events ingested",
		},
		[]string{"outcome", "source"},
	)

	WeightCacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_weight_cache_invalidations_total",
			Help: "Total number of tenant weight profile invalidations",
		},
	)

	BatchCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_batch_cache_requests_total",
			Help: "Batch pipeline cache lookups by result",
		},
		[]string{"result"},
	)

	RetrainRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_retrain_runs_total",
			Help: "Total number of retrain runs by status",
		},
		[]string{"status"},
	)
)
