package indexer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts ingestion runs.
	// Labels: result (success, no_files, no_chunks, store_failed, busy, error)
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "repo_ingest",
			Name:      "runs_total",
			Help:      "Total number of ingestion runs by result",
		},
		[]string{"result"},
	)

	// ChunksTotal counts chunks written to the vector store.
	ChunksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "repo_ingest",
			Name:      "chunks_total",
			Help:      "Total number of chunks stored",
		},
	)

	// FilesSkippedTotal counts files left out of a run.
	// Labels: reason (binary, too_large, excluded_path, unsupported_type, excluded_dir, empty, fetch_failed, ...)
	FilesSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "repo_ingest",
			Name:      "files_skipped_total",
			Help:      "Total number of repository files skipped by reason",
		},
		[]string{"reason"},
	)

	// BatchesTotal counts embed+upsert batches.
	// Labels: result (success, embed_error, upsert_error)
	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "repo_ingest",
			Name:      "batches_total",
			Help:      "Total number of chunk batches by result",
		},
		[]string{"result"},
	)

	// RunDuration tracks end-to-end run time.
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "repo_ingest",
			Name:      "run_duration_seconds",
			Help:      "Duration of ingestion runs in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)
)
