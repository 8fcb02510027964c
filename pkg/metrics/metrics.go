// Package metrics tracks cleaning activity with Prometheus collectors.
//
// Metrics are registered on the default registry. A CLI run has no
// scrape endpoint, so WriteTextfile dumps the registry in the text
// exposition format for the node_exporter textfile collector.
//
// # Basic Usage
//
//	timer := metrics.NewTimer(transform.OpRemoveOutliers)
//	out, report, err := op.Apply(ds)
//	metrics.RecordOperation(op.Name(), report, err, timer.Stop())
//
//	if err := metrics.WriteTextfile("/var/lib/node_exporter/viswalis.prom"); err != nil {
//	    ...
//	}
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/viswalis/viswalis/pkg/errors"
	"github.com/viswalis/viswalis/pkg/transform"
)

var (
	// OperationsTotal counts applied operations.
	// Labels: operation, status (success/error)
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viswalis_operations_total",
			Help: "Total number of cleaning operations applied",
		},
		[]string{"operation", "status"},
	)

	// OperationErrors counts failed operations by error kind
	OperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viswalis_operation_errors_total",
			Help: "Failed cleaning operations by error type",
		},
		[]string{"operation", "error_type"},
	)

	// RowsRemoved counts rows dropped by filtering operations
	RowsRemoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viswalis_rows_removed_total",
			Help: "Rows removed by cleaning operations",
		},
		[]string{"operation"},
	)

	// CellsFilled counts missing cells replaced by imputation
	CellsFilled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viswalis_cells_filled_total",
			Help: "Missing cells filled by imputation",
		},
		[]string{"operation"},
	)

	// CellsCoerced counts values replaced by zero during numeric coercion
	CellsCoerced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "viswalis_cells_coerced_total",
			Help: "Unparseable values replaced by zero during numeric coercion",
		},
	)

	// OperationLatency tracks operation durations in seconds
	OperationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "viswalis_operation_duration_seconds",
			Help: "Cleaning operation duration in seconds",
			Buckets: []float64{
				1e-5, // 10μs
				1e-4, // 100μs
				1e-3, // 1ms
				1e-2, // 10ms
				1e-1, // 100ms
				1,    // 1s
				10,   // 10s
			},
		},
		[]string{"operation"},
	)

	// DatasetRows reports the row count of the latest working dataset
	DatasetRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "viswalis_dataset_rows",
			Help: "Rows in the current working dataset",
		},
	)

	// DatasetColumns reports the column count of the latest working dataset
	DatasetColumns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "viswalis_dataset_columns",
			Help: "Columns in the current working dataset",
		},
	)
)

// RecordOperation updates the collectors for one applied operation. report
// is nil when err is set.
func RecordOperation(operation string, report *transform.Report, err error, duration time.Duration) {
	OperationLatency.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		OperationsTotal.WithLabelValues(operation, "error").Inc()
		OperationErrors.WithLabelValues(operation, string(errors.TypeOf(err))).Inc()
		return
	}
	OperationsTotal.WithLabelValues(operation, "success").Inc()
	if report == nil {
		return
	}
	if removed := report.RowsRemoved(); removed > 0 {
		RowsRemoved.WithLabelValues(operation).Add(float64(removed))
	}
	if report.FilledCells > 0 {
		CellsFilled.WithLabelValues(operation).Add(float64(report.FilledCells))
	}
	if report.CoercedCells > 0 {
		CellsCoerced.Add(float64(report.CoercedCells))
	}
	DatasetRows.Set(float64(report.RowsAfter))
	DatasetColumns.Set(float64(report.ColumnsAfter))
}

// WriteTextfile writes every registered metric to path in the Prometheus
// text format. The file is replaced atomically.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write metrics textfile").
			WithDetail("path", path)
	}
	return nil
}

// Timer provides a simple timing mechanism for measuring operation durations.
// It captures the start time on creation and calculates elapsed time on stop.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the name the timer was created with
func (t *Timer) Name() string { return t.name }

// Stop returns the elapsed duration since creation. It can be called
// more than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// Session accumulates totals for one cleaning session. Safe for
// concurrent use.
type Session struct {
	mu          sync.Mutex
	id          string
	operations  int
	failures    int
	rowsRemoved int
	startTime   time.Time
}

// NewSession starts accumulating totals for session id
func NewSession(id string) *Session {
	return &Session{id: id, startTime: time.Now()}
}

// Observe records one operation outcome in the session totals and the
// global collectors.
func (s *Session) Observe(operation string, report *transform.Report, err error, duration time.Duration) {
	RecordOperation(operation, report, err, duration)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.operations++
	if err != nil {
		s.failures++
		return
	}
	if report != nil {
		s.rowsRemoved += report.RowsRemoved()
	}
}

// Summary returns the session totals
func (s *Session) Summary() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]interface{}{
		"session_id":   s.id,
		"operations":   s.operations,
		"failures":     s.failures,
		"rows_removed": s.rowsRemoved,
		"uptime":       time.Since(s.startTime).Seconds(),
	}
}
