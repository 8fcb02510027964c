package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viswalis/viswalis/pkg/errors"
	"github.com/viswalis/viswalis/pkg/transform"
)

func TestRecordOperation(t *testing.T) {
	op := "test_record_operation"
	report := &transform.Report{Operation: op, RowsBefore: 10, RowsAfter: 7, ColumnsAfter: 3, FilledCells: 2}

	RecordOperation(op, report, nil, time.Millisecond)
	RecordOperation(op, nil, errors.New(errors.ErrorTypeUnknownColumn, "missing"), time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(OperationsTotal.WithLabelValues(op, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(OperationsTotal.WithLabelValues(op, "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(OperationErrors.WithLabelValues(op, "unknown_column")))
	assert.Equal(t, 3.0, testutil.ToFloat64(RowsRemoved.WithLabelValues(op)))
	assert.Equal(t, 2.0, testutil.ToFloat64(CellsFilled.WithLabelValues(op)))
	assert.Equal(t, 7.0, testutil.ToFloat64(DatasetRows))
}

func TestSessionSummary(t *testing.T) {
	s := NewSession("abc")
	s.Observe("test_session", &transform.Report{RowsBefore: 5, RowsAfter: 4}, nil, 0)
	s.Observe("test_session", nil, errors.New(errors.ErrorTypeInvalidStrategy, "bogus"), 0)

	summary := s.Summary()
	assert.Equal(t, "abc", summary["session_id"])
	assert.Equal(t, 2, summary["operations"])
	assert.Equal(t, 1, summary["failures"])
	assert.Equal(t, 1, summary["rows_removed"])
}

func TestWriteTextfile(t *testing.T) {
	RecordOperation("test_textfile", &transform.Report{}, nil, time.Microsecond)

	path := filepath.Join(t.TempDir(), "viswalis.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `viswalis_operations_total{operation="test_textfile",status="success"} 1`)
}

func TestTimer(t *testing.T) {
	timer := NewTimer("x")
	time.Sleep(time.Millisecond)
	assert.GreaterOrEqual(t, timer.Stop(), time.Millisecond)
	assert.Equal(t, "x", timer.Name())
}
