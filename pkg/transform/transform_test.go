package transform

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viswalis/viswalis/pkg/dataset"
	"github.com/viswalis/viswalis/pkg/errors"
)

func load(t *testing.T, csv string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.ReadCSV(strings.NewReader(csv), dataset.ReadOptions{})
	require.NoError(t, err)
	return ds
}

func numbers(t *testing.T, ds *dataset.Dataset, name string) []float64 {
	t.Helper()
	col, ok := ds.Column(name)
	require.True(t, ok, "column %s", name)
	return col.Floats()
}

const people = "name,age,city,joined\n" +
	"Ann,20,Paris,2024-01-02\n" +
	"Bob,35,,2024-02-03\n" +
	"Cid,,Rome,\n" +
	"Dee,999,Paris,2024-03-04\n"

func TestHandleMissingDropLeavesNoNulls(t *testing.T) {
	ds := load(t, people)

	out, report, err := HandleMissing(ds, MissingOptions{Strategy: StrategyDrop})
	require.NoError(t, err)

	assert.Equal(t, 2, out.NumRows())
	assert.Equal(t, 0, out.NullCount())
	assert.Equal(t, ds.NumColumns(), out.NumColumns())
	assert.Equal(t, 2, report.RowsRemoved())
}

func TestHandleMissingMean(t *testing.T) {
	ds := load(t, "age\n20\n35\nNA\n999\n")

	out, report, err := HandleMissing(ds, MissingOptions{Strategy: StrategyMean})
	require.NoError(t, err)

	ages := numbers(t, out, "age")
	require.Len(t, ages, 4)
	assert.InDelta(t, 351.33, ages[2], 0.01)
	assert.Equal(t, 1, report.FilledCells)
}

func TestHandleMissingMedianLeavesTextAlone(t *testing.T) {
	ds := load(t, people)

	out, _, err := HandleMissing(ds, MissingOptions{Strategy: StrategyMedian})
	require.NoError(t, err)

	assert.Equal(t, []float64{20, 35, 35, 999}, numbers(t, out, "age"))
	city, _ := out.Column("city")
	assert.True(t, city.Values[1].IsNull())
}

func TestHandleMissingMode(t *testing.T) {
	ds := load(t, "city,empty\nb,\na,\nb,\na,\n,\n")

	out, report, err := HandleMissing(ds, MissingOptions{Strategy: StrategyMode})
	require.NoError(t, err)

	city, _ := out.Column("city")
	assert.Equal(t, "a", city.Values[4].Str(), "ties resolve to the smallest value")

	empty, _ := out.Column("empty")
	assert.Equal(t, dataset.Text, empty.Type)
	for _, v := range empty.Values {
		assert.Equal(t, UnknownSentinel, v.Str())
	}
	assert.Equal(t, 6, report.FilledCells)
}

func TestHandleMissingFill(t *testing.T) {
	ds := load(t, people)

	out, report, err := HandleMissing(ds, MissingOptions{Strategy: StrategyFill, TargetColumn: "city", FillValue: "Oslo"})
	require.NoError(t, err)
	city, _ := out.Column("city")
	assert.Equal(t, "Oslo", city.Values[1].Str())
	assert.Equal(t, 1, report.FilledCells)

	age, _ := out.Column("age")
	assert.True(t, age.Values[2].IsNull(), "other columns untouched")

	out, _, err = HandleMissing(ds, MissingOptions{Strategy: StrategyFill, TargetColumn: "joined", FillValue: "2024-05-06"})
	require.NoError(t, err)
	joined, _ := out.Column("joined")
	assert.Equal(t, "2024-05-06", joined.Format(2))
}

func TestHandleMissingErrors(t *testing.T) {
	ds := load(t, people)
	snapshot := ds.Clone()

	tests := []struct {
		name string
		opts MissingOptions
		want errors.ErrorType
	}{
		{"unknown strategy", MissingOptions{Strategy: "bogus"}, errors.ErrorTypeInvalidStrategy},
		{"fill without column", MissingOptions{Strategy: StrategyFill, FillValue: "x"}, errors.ErrorTypeMissingParameter},
		{"fill without value", MissingOptions{Strategy: StrategyFill, TargetColumn: "city"}, errors.ErrorTypeMissingParameter},
		{"fill unknown column", MissingOptions{Strategy: StrategyFill, TargetColumn: "zip", FillValue: "x"}, errors.ErrorTypeUnknownColumn},
		{"fill text into numeric", MissingOptions{Strategy: StrategyFill, TargetColumn: "age", FillValue: "old"}, errors.ErrorTypeTypeMismatch},
		{"fill text into temporal", MissingOptions{Strategy: StrategyFill, TargetColumn: "joined", FillValue: "soon"}, errors.ErrorTypeTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, report, err := HandleMissing(ds, tt.opts)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.want), "got %v", err)
			assert.Nil(t, out)
			assert.Nil(t, report)
			assert.True(t, ds.Equal(snapshot))
		})
	}
}

func TestDropDuplicatesIsIdempotent(t *testing.T) {
	ds := load(t, "a,b\n1,x\n2,y\n1,x\n,\n,\n2,z\n")

	once, report, err := DropDuplicates(ds)
	require.NoError(t, err)
	twice, _, err := DropDuplicates(once)
	require.NoError(t, err)

	assert.Equal(t, 4, once.NumRows())
	assert.Equal(t, 2, report.RowsRemoved())
	assert.True(t, once.Equal(twice))
	assert.Equal(t, []float64{1, 2, 2}, numbers(t, once, "a"), "first occurrences in order")
}

func TestDropDuplicatesComparesWholeCells(t *testing.T) {
	ds := dataset.MustNew(
		dataset.NewColumn("a", dataset.Text, []dataset.Value{
			dataset.TextValue("x\x1fsy"), dataset.TextValue("x"), dataset.TextValue("x"),
		}),
		dataset.NewColumn("b", dataset.Text, []dataset.Value{
			dataset.TextValue("z"), dataset.TextValue("y\x1fsz"), dataset.TextValue("y\x1fsz"),
		}),
	)

	out, report, err := DropDuplicates(ds)
	require.NoError(t, err)
	assert.Equal(t, 2, out.NumRows())
	assert.Equal(t, 1, report.RowsRemoved())
}

func TestDropEmptyRows(t *testing.T) {
	ds := load(t, "a,b\n1,\n,\n,x\n")

	out, _, err := DropEmptyRows(ds)
	require.NoError(t, err)
	assert.Equal(t, 2, out.NumRows())
}

func TestRemoveOutliersFenceCorrectness(t *testing.T) {
	ds := load(t, "v\n1\n2\n3\n4\n5\n6\n7\n8\n9\n100\n-80\n")
	fence := IQRFence("v", numbers(t, ds, "v"))

	out, report, err := RemoveOutliers(ds, "v")
	require.NoError(t, err)

	for _, v := range numbers(t, out, "v") {
		assert.True(t, fence.Contains(v), "%v outside [%v, %v]", v, fence.Lower, fence.Upper)
	}
	assert.Equal(t, 9, out.NumRows())
	require.Len(t, report.Fences, 1)
	assert.Equal(t, 2, report.Fences[0].Removed)
	assert.Equal(t, ds.NumColumns(), out.NumColumns())
}

func TestRemoveOutliersIsSequential(t *testing.T) {
	ds := load(t, "a,b\n20,20\n1,40\n5,4\n2,10\n1,1\n1,1\n")

	ab, _, err := RemoveOutliers(ds, "a", "b")
	require.NoError(t, err)
	ba, _, err := RemoveOutliers(ds, "b", "a")
	require.NoError(t, err)

	assert.Equal(t, 4, ab.NumRows())
	assert.Equal(t, 5, ba.NumRows())
}

func TestRemoveOutliersAfterMeanImputation(t *testing.T) {
	ds := load(t, "age\n20\n35\nNA\n999\n")

	filled, _, err := HandleMissing(ds, MissingOptions{Strategy: StrategyMean})
	require.NoError(t, err)
	out, report, err := RemoveOutliers(filled, "age")
	require.NoError(t, err)

	f := report.Fences[0]
	assert.InDelta(t, 31.25, f.Q1, 1e-9)
	assert.InDelta(t, 513.25, f.Q3, 1e-9)
	assert.InDelta(t, 1236.25, f.Upper, 1e-9)
	// 999 sits inside the 1.5·IQR fence of these four values
	assert.Equal(t, 4, out.NumRows())
}

func TestRemoveOutliersDropsNulls(t *testing.T) {
	ds := load(t, "v\n1\n2\nNA\n3\n")

	out, _, err := RemoveOutliers(ds, "v")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, numbers(t, out, "v"))
}

func TestRemoveOutliersErrors(t *testing.T) {
	ds := load(t, people)

	_, _, err := RemoveOutliers(ds)
	assert.True(t, errors.IsType(err, errors.ErrorTypeMissingParameter))

	_, _, err = RemoveOutliers(ds, "age", "city")
	assert.True(t, errors.IsType(err, errors.ErrorTypeTypeMismatch))

	_, _, err = RemoveOutliers(ds, "age", "zip")
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnknownColumn))
}

func TestQuantile(t *testing.T) {
	assert.Equal(t, 2.5, Quantile([]float64{4, 1, 3, 2}, 0.5))
	assert.Equal(t, 1.75, Quantile([]float64{1, 2, 3, 4}, 0.25))
	assert.Equal(t, 7.0, Quantile([]float64{7}, 0.75))
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))

	f := IQRFence("x", nil)
	assert.True(t, f.Empty)
	assert.False(t, f.Contains(0))
}

func TestStandardizeNames(t *testing.T) {
	ds := load(t, "First Name,Age \n1,2\n")

	out, report, err := StandardizeNames(ds, NameOptions{Case: CaseLower, Find: " ", Replace: "_"})
	require.NoError(t, err)
	assert.Equal(t, []string{"first_name", "age"}, out.ColumnNames())
	assert.Equal(t, "first_name", report.Renamed["First Name"])
	assert.Equal(t, []string{"First Name", "Age "}, ds.ColumnNames())
}

func TestStandardizeNamesCases(t *testing.T) {
	ds := load(t, "  first NAME ,age\n1,2\n")

	tests := []struct {
		c    Case
		want string
	}{
		{CaseUpper, "FIRST NAME"},
		{CaseTitle, "First Name"},
		{CaseSentence, "First name"},
		{"Sentence case", "First name"},
		{CaseNone, "first NAME"},
	}
	for _, tt := range tests {
		t.Run(string(tt.c), func(t *testing.T) {
			out, _, err := StandardizeNames(ds, NameOptions{Case: tt.c})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.ColumnNames()[0])
		})
	}
}

func TestStandardizeNamesErrors(t *testing.T) {
	ds := load(t, "Age,age \n1,2\n")

	_, _, err := StandardizeNames(ds, NameOptions{Case: "camel"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidStrategy))

	_, _, err = StandardizeNames(ds, NameOptions{Case: CaseLower})
	assert.True(t, errors.IsType(err, errors.ErrorTypeDuplicateColumn))
}

func TestDropColumn(t *testing.T) {
	ds := load(t, people)

	out, report, err := DropColumn(ds, "city")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age", "joined"}, out.ColumnNames())
	assert.Equal(t, 4, report.ColumnsBefore)
	assert.Equal(t, 3, report.ColumnsAfter)

	_, _, err = DropColumn(ds, "zip")
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnknownColumn))
}

func TestCoerceNumeric(t *testing.T) {
	ds := load(t, "price,label\n1.5,a\nfree,b\n,c\n3,d\n")

	out, report, err := CoerceNumeric(ds, "price")
	require.NoError(t, err)

	price, _ := out.Column("price")
	assert.Equal(t, dataset.Numeric, price.Type)
	assert.Equal(t, 1.5, price.Values[0].Num())
	assert.Equal(t, 0.0, price.Values[1].Num())
	assert.True(t, price.Values[2].IsNull())
	assert.Equal(t, 3.0, price.Values[3].Num())
	assert.Equal(t, 1, report.CoercedCells)
	assert.Equal(t, map[string]int{"price": 1}, report.CoercedByColumn)

	_, _, err = CoerceNumeric(load(t, people), "joined")
	assert.True(t, errors.IsType(err, errors.ErrorTypeTypeMismatch))
	_, _, err = CoerceNumeric(ds)
	assert.True(t, errors.IsType(err, errors.ErrorTypeMissingParameter))
}

func TestTrimWhitespace(t *testing.T) {
	ds := load(t, "name,n\n\" Ann \",1\nBob,2\n")

	out, report, err := TrimWhitespace(ds)
	require.NoError(t, err)
	name, _ := out.Column("name")
	assert.Equal(t, "Ann", name.Values[0].Str())
	assert.Equal(t, 1, report.ChangedCells)

	orig, _ := ds.Column("name")
	assert.Equal(t, " Ann ", orig.Values[0].Str())
}

func TestAutoClean(t *testing.T) {
	ds := load(t, "name,score\n Ann ,10\nBob,12\nBob,12\n,\nCid,\nDee,11\nEve,500\n")

	out, report, err := AutoClean(ds)
	require.NoError(t, err)

	assert.Equal(t, 0, out.NullCount())
	name, _ := out.Column("name")
	assert.Equal(t, "Ann", name.Values[0].Str())
	for _, v := range numbers(t, out, "score") {
		assert.Less(t, v, 500.0)
	}
	require.Len(t, report.Steps, 6)
	assert.Equal(t, OpDropEmptyRows, report.Steps[0].Operation)
	assert.Equal(t, OpCoerceNumeric, report.Steps[5].Operation)
}

func TestOperations(t *testing.T) {
	ds := load(t, people)
	ops := []Operation{
		Missing(MissingOptions{Strategy: StrategyMean}),
		Dedup(),
		Outliers("age"),
		Names(NameOptions{Case: CaseUpper}),
		Drop("CITY"),
		Trim(),
		EmptyRows(),
	}

	current := ds
	for _, op := range ops {
		next, report, err := op.Apply(current)
		require.NoError(t, err, op.Name())
		assert.Equal(t, op.Name(), report.Operation)
		current = next
	}
	assert.Equal(t, []string{"NAME", "AGE", "JOINED"}, current.ColumnNames())
	assert.Equal(t, "remove_outliers(age)", Outliers("age").(*Func).String())
}
