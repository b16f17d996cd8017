// Package metrics holds the Prometheus collectors of the eviction workflows.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BlobDeletes counts blob delete attempts by backend and outcome.
	BlobDeletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eviction_blob_deletes_total",
		Help: "Blob delete attempts by backend and outcome",
	}, []string{"backend", "outcome"})

	// DocumentsDeleted counts documents removed through batched deletes.
	DocumentsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eviction_documents_deleted_total",
		Help: "Documents removed by batched deletes",
	})

	// AccountDeletions counts account deletion runs.
	AccountDeletions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eviction_account_deletions_total",
		Help: "Account deletion runs",
	})

	// AccountStepFailures counts failed account deletion steps by step name.
	AccountStepFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eviction_account_step_failures_total",
		Help: "Failed account deletion steps",
	}, []string{"step"})

	// PhotosEvicted counts photos permanently removed by the sweep.
	PhotosEvicted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eviction_photos_evicted_total",
		Help: "Soft-deleted photos permanently removed",
	}, []string{"source"})

	// PhotoEvictionErrors counts photos the sweep failed to remove.
	PhotoEvictionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eviction_photo_errors_total",
		Help: "Photos the sweep failed to remove",
	}, []string{"source"})

	// SweepDuration records how long each sweep took.
	SweepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "eviction_sweep_duration_seconds",
		Help:    "Duration of soft-delete sweeps",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 180, 540},
	}, []string{"source", "status"})
)
