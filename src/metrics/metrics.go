package metrics

import (
	"github.com/pingcap/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GenerationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tpch_generation_total",
			Help: "Total number of generator invocations",
		},
		[]string{"status"},
	)

	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tpch_generation_duration_seconds",
			Help:    "Duration of generator invocations",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 14), // 0.1s to ~27 minutes
		},
	)

	FilesDiscovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tpch_files_discovered_total",
			Help: "Total number of generator output files discovered",
		},
		[]string{"table"},
	)

	RowsMaterialized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tpch_rows_materialized_total",
			Help: "Total number of rows converted into record batches",
		},
		[]string{"table"},
	)

	ExportBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tpch_export_bytes_total",
			Help: "Total number of bytes written to external storage",
		},
		[]string{"format"},
	)
)

// WriteTextfile dumps the default registry in the node exporter textfile
// format. An empty path is a no-op.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return errors.Trace(prometheus.WriteToTextfile(path, prometheus.DefaultGatherer))
}
