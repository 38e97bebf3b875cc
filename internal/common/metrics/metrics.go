package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	MatchingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_runs_total",
			Help: "Matching runs by terminal status",
		},
		[]string{"status"},
	)

	MatchingRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_run_duration_seconds",
			Help:    "Wall time of a matching run",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		},
	)

	PairsEvaluated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_pairs_evaluated_total",
			Help: "Candidate/job pairs scored",
		},
	)

	MatchesFound = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_matches_found_total",
			Help: "Pairs whose score reached the match threshold",
		},
	)

	AutoApplyDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoapply_decisions_total",
			Help: "Auto-apply decisions by outcome",
		},
		[]string{"outcome"},
	)

	EmbeddingsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embeddings_generated_total",
			Help: "Embeddings generated by entity type and result",
		},
		[]string{"entity_type", "result"},
	)
)
