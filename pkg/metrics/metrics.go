// Package metrics exposes Prometheus metrics for ingestion runs.
//
// # Basic Usage
//
//	collector := metrics.NewCollector("orders")
//	stream, err := filereader.Open(ctx, location, cfg, filereader.WithRecorder(collector))
//
// Metrics are registered with the default registry on package load.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsRead counts successfully assembled rows.
	RowsRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filereader_rows_read_total",
			Help: "Total number of rows read",
		},
		[]string{"run"},
	)

	// RowErrors counts failed rows by error kind.
	RowErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filereader_row_errors_total",
			Help: "Total number of rows that failed to read",
		},
		[]string{"run", "kind"},
	)

	// BytesRead counts uncompressed input bytes.
	BytesRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filereader_bytes_read_total",
			Help: "Total uncompressed bytes read",
		},
		[]string{"run"},
	)

	// RunDuration tracks how long streams stay open.
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filereader_run_duration_seconds",
			Help:    "Duration of ingestion runs",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"run", "outcome"},
	)

	// DomainValues tracks the size of accumulated value sets.
	DomainValues = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "filereader_domain_values",
			Help: "Distinct values accumulated per column",
		},
		[]string{"run", "column"},
	)
)

// Collector records the metrics of one named run.
type Collector struct {
	run       string
	rows      prometheus.Counter
	startTime time.Time
}

// NewCollector creates a collector labelled with run.
func NewCollector(run string) *Collector {
	return &Collector{
		run:       run,
		rows:      RowsRead.WithLabelValues(run),
		startTime: time.Now(),
	}
}

// Run is the label value of the collector.
func (c *Collector) Run() string {
	return c.run
}

// RowRead counts one assembled row.
func (c *Collector) RowRead() {
	c.rows.Inc()
}

// RowFailed counts a failed row of the given kind.
func (c *Collector) RowFailed(kind string) {
	RowErrors.WithLabelValues(c.run, kind).Inc()
}

// DomainSize publishes the value set size of column.
func (c *Collector) DomainSize(column string, n int) {
	DomainValues.WithLabelValues(c.run, column).Set(float64(n))
}

// Finished records the end of the run.
func (c *Collector) Finished(outcome string, bytes int64, d time.Duration) {
	BytesRead.WithLabelValues(c.run).Add(float64(bytes))
	RunDuration.WithLabelValues(c.run, outcome).Observe(d.Seconds())
}
