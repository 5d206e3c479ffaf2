package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DatasetsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarqc_datasets_processed_total",
			Help: "Total dataset pipeline runs by outcome",
		},
		[]string{"dataset", "status"},
	)

	RowsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarqc_rows_loaded_total",
			Help: "Total rows loaded from source files",
		},
		[]string{"dataset"},
	)

	RowsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarqc_rows_dropped_total",
			Help: "Total rows dropped for unparseable timestamps",
		},
		[]string{"dataset"},
	)

	NegativesCorrected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarqc_negatives_corrected_total",
			Help: "Total negative readings clamped to zero",
		},
		[]string{"dataset"},
	)

	CellsImputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarqc_cells_imputed_total",
			Help: "Total missing cells imputed with column medians",
		},
		[]string{"dataset"},
	)

	OutliersFlagged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarqc_outliers_flagged_total",
			Help: "Total cells flagged beyond the z-score threshold",
		},
		[]string{"dataset"},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "solarqc_run_duration_seconds",
			Help:    "Pipeline run duration per dataset in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"dataset"},
	)
)
