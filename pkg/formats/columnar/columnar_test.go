package columnar

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viswalis/viswalis/pkg/dataset"
	"github.com/viswalis/viswalis/pkg/errors"
	"github.com/viswalis/viswalis/pkg/testutil"
)

func roundTrip(t *testing.T, ds *dataset.Dataset, config *WriterConfig) *dataset.Dataset {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ds, config))
	require.NotZero(t, buf.Len())

	got, err := Read(&buf, config.Format)
	require.NoError(t, err)
	return got
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		format      Format
		compression string
	}{
		{Parquet, "snappy"},
		{Parquet, "zstd"},
		{Parquet, "gzip"},
		{Parquet, "none"},
		{Arrow, "none"},
		{Arrow, "zstd"},
		{Arrow, "lz4"},
		{Avro, "none"},
		{Avro, "deflate"},
		{Avro, "snappy"},
	}

	ds := testutil.People(t)
	for _, tc := range cases {
		tc := tc
		t.Run(string(tc.format)+"/"+tc.compression, func(t *testing.T) {
			got := roundTrip(t, ds, &WriterConfig{Format: tc.format, Compression: tc.compression, BatchSize: 3})

			assert.Equal(t, ds.ColumnNames(), got.ColumnNames())
			assert.Equal(t, ds.NumRows(), got.NumRows())
			assert.True(t, ds.Equal(got), "cells differ after %s round trip", tc.format)

			joined, ok := got.Column("joined")
			require.True(t, ok)
			assert.Equal(t, dataset.Temporal, joined.Type)
			assert.True(t, joined.Values[2].IsNull())
		})
	}
}

func TestTemporalLayoutSurvives(t *testing.T) {
	ds := testutil.People(t)
	for _, f := range []Format{Arrow, Avro} {
		got := roundTrip(t, ds, &WriterConfig{Format: f})
		joined, _ := got.Column("joined")
		assert.Equal(t, "2006-01-02", joined.TimeLayout(), f)
	}
}

func TestEmptyDataset(t *testing.T) {
	ds := testutil.People(t).FilterRows(func(int) bool { return false })
	require.Zero(t, ds.NumRows())

	for _, f := range []Format{Parquet, Arrow, Avro} {
		got := roundTrip(t, ds, &WriterConfig{Format: f})
		assert.Equal(t, ds.ColumnNames(), got.ColumnNames(), f)
		assert.Zero(t, got.NumRows(), f)
	}
}

func TestAvroNames(t *testing.T) {
	ds := testutil.LoadCSV(t, "First Name,first-name,2nd\nAnn,Bee,1\n")

	got := roundTrip(t, ds, &WriterConfig{Format: Avro})
	assert.Equal(t, []string{"First Name", "first-name", "2nd"}, got.ColumnNames())

	seen := make(map[string]bool)
	assert.Equal(t, "First_Name", avroName("First Name", seen))
	assert.Equal(t, "first_name", avroName("first-name", seen))
	assert.Equal(t, "first_name_1", avroName("first_name", seen))
	assert.Equal(t, "_2nd", avroName("2nd", seen))
}

func TestNumericTextStaysText(t *testing.T) {
	ds := dataset.MustNew(dataset.NewColumn("zip", dataset.Text, []dataset.Value{
		dataset.TextValue("01234"), dataset.Null(), dataset.TextValue("98765"),
	}))
	for _, f := range []Format{Parquet, Arrow, Avro} {
		got := roundTrip(t, ds, &WriterConfig{Format: f})
		zip, _ := got.Column("zip")
		assert.Equal(t, dataset.Text, zip.Type, f)
		assert.Equal(t, "01234", zip.Values[0].Str(), f)
	}
}

func TestUnsupported(t *testing.T) {
	ds := testutil.People(t)

	err := Write(&bytes.Buffer{}, ds, &WriterConfig{Format: "orc"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	err = Write(&bytes.Buffer{}, ds, &WriterConfig{Format: Arrow, Compression: "snappy"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	err = Write(&bytes.Buffer{}, ds, &WriterConfig{Format: Avro, Compression: "zstd"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = Read(bytes.NewReader([]byte("not parquet")), Parquet)
	assert.True(t, errors.IsType(err, errors.ErrorTypeParse))
}

func TestParseFormat(t *testing.T) {
	f, ok := ParseFormat("Feather")
	assert.True(t, ok)
	assert.Equal(t, Arrow, f)

	_, ok = ParseFormat("csv")
	assert.False(t, ok)

	f, ok = FormatFromPath("/tmp/out.PARQUET")
	assert.True(t, ok)
	assert.Equal(t, Parquet, f)

	_, ok = FormatFromPath("out.csv.gz")
	assert.False(t, ok)
}
