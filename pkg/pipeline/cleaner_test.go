package pipeline

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/viswalis/viswalis/pkg/dataset"
	"github.com/viswalis/viswalis/pkg/errors"
	"github.com/viswalis/viswalis/pkg/testutil"
	"github.com/viswalis/viswalis/pkg/transform"
)

func newCleaner(t *testing.T, ds *dataset.Dataset) *Cleaner {
	t.Helper()
	return NewCleaner(ds, WithLogger(testutil.TestLogger(t)), WithSource("people.csv"))
}

func TestCleanerChainsOperations(t *testing.T) {
	c := newCleaner(t, testutil.People(t))

	c.HandleMissing(transform.MissingOptions{Strategy: transform.StrategyMean}).
		DropDuplicates().
		RemoveOutliers("age").
		StandardizeNames(transform.NameOptions{Case: transform.CaseUpper}).
		DropColumn("CITY")

	require.NoError(t, c.Err())
	assert.Empty(t, c.Errors())

	out := c.CleanedData()
	assert.Equal(t, []string{"NAME", "AGE", "JOINED"}, out.ColumnNames())
	assert.Equal(t, 4, out.NumRows())

	results := c.Results()
	require.Len(t, results, 5)
	assert.Equal(t, transform.OpHandleMissing, results[0].Operation)
	assert.Equal(t, "handle_missing(strategy=mean)", results[0].Params)
	assert.Equal(t, 1, results[0].Report.FilledCells)
	assert.True(t, results[4].OK())
}

func TestCleanerFailureLeavesDatasetUnchanged(t *testing.T) {
	ds := testutil.People(t)
	c := newCleaner(t, ds)
	before := c.CleanedData()

	c.HandleMissing(transform.MissingOptions{Strategy: "bogus"})

	err := c.Err()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidStrategy))
	assert.True(t, c.CleanedData().Equal(before))

	last, ok := c.LastResult()
	require.True(t, ok)
	assert.False(t, last.OK())
	assert.Nil(t, last.Report)
}

func TestCleanerContinuesAfterFailure(t *testing.T) {
	c := newCleaner(t, testutil.People(t))

	c.RemoveOutliers("city").
		DropColumn("zip").
		HandleMissing(transform.MissingOptions{Strategy: transform.StrategyDrop})

	require.NoError(t, c.Err())
	errs := c.Errors()
	require.Len(t, errs, 2)
	assert.True(t, errors.IsType(errs[0], errors.ErrorTypeTypeMismatch))
	assert.True(t, errors.IsType(errs[1], errors.ErrorTypeUnknownColumn))
	assert.Equal(t, 2, c.CleanedData().NumRows())
}

func TestCleanerFillWithoutParametersIsReported(t *testing.T) {
	c := newCleaner(t, testutil.People(t))

	c.HandleMissing(transform.MissingOptions{Strategy: transform.StrategyFill, TargetColumn: "city"})

	assert.True(t, errors.IsType(c.Err(), errors.ErrorTypeMissingParameter))
}

func TestCleanerCoercionFallbackWarning(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ds := testutil.LoadCSV(t, "price\n1\nfree\n2\n")
	c := NewCleaner(ds, WithLogger(zap.New(core)), WithSessionID("s-1"))

	c.CoerceNumeric("price")

	require.NoError(t, c.Err())
	warnings := c.Warnings()
	require.Len(t, warnings, 1)
	assert.True(t, errors.IsType(warnings[0], errors.ErrorTypeCoercionFallback))

	warned := logs.FilterMessage("numeric coercion fell back to zero").All()
	require.Len(t, warned, 1)
	assert.Equal(t, "s-1", warned[0].ContextMap()["session_id"])
	assert.Equal(t, int64(1), warned[0].ContextMap()["cells"])
}

func TestCleanerCleanedDataIsSnapshot(t *testing.T) {
	c := newCleaner(t, testutil.People(t))

	snap := c.CleanedData()
	col, _ := snap.Column("name")
	col.Values[0] = dataset.TextValue("changed")

	again, _ := c.CleanedData().Column("name")
	assert.Equal(t, "Ann", again.Values[0].Str())
}

type panicky struct{}

func (panicky) Name() string { return "panicky" }

func (panicky) Apply(*dataset.Dataset) (*dataset.Dataset, *transform.Report, error) {
	panic("boom")
}

func TestCleanerRecoversFromPanics(t *testing.T) {
	c := newCleaner(t, testutil.People(t))

	c.Apply(context.Background(), panicky{})

	assert.True(t, errors.IsType(c.Err(), errors.ErrorTypeInternal))
	assert.Equal(t, 4, c.CleanedData().NumRows())
}

func TestCleanerSerializesConcurrentCalls(t *testing.T) {
	c := newCleaner(t, testutil.People(t))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.DropDuplicates()
		}()
	}
	wg.Wait()

	assert.Len(t, c.Results(), 8)
	assert.Equal(t, 8, c.Summary()["operations"])
}

func TestCleanerAutoClean(t *testing.T) {
	c := newCleaner(t, testutil.LoadCSV(t, testutil.GenerateCSV(50)))

	c.AutoClean()

	require.NoError(t, c.Err())
	out := c.CleanedData()
	assert.Equal(t, 0, out.NullCount())
	score, _ := out.Column("score")
	for _, v := range score.Floats() {
		assert.Less(t, v, 100000.0)
	}
}
