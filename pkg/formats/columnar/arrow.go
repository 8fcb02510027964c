package columnar

import (
	"io"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/viswalis/viswalis/pkg/dataset"
	"github.com/viswalis/viswalis/pkg/errors"
)

const layoutMetadataKey = "viswalis.layout"

var timestampType = &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}

// arrowSchema maps dataset columns to nullable Arrow fields. Temporal
// columns carry their layout in field metadata.
func arrowSchema(ds *dataset.Dataset) *arrow.Schema {
	fields := make([]arrow.Field, ds.NumColumns())
	for i, col := range ds.Columns() {
		f := arrow.Field{Name: col.Name, Nullable: true}
		switch col.Type {
		case dataset.Numeric:
			f.Type = arrow.PrimitiveTypes.Float64
		case dataset.Temporal:
			f.Type = timestampType
			f.Metadata = arrow.NewMetadata([]string{layoutMetadataKey}, []string{col.TimeLayout()})
		default:
			f.Type = arrow.BinaryTypes.String
		}
		fields[i] = f
	}
	return arrow.NewSchema(fields, nil)
}

// buildRecords slices ds into records of at most batchSize rows. An empty
// dataset yields one empty record so the schema is still written.
func buildRecords(mem memory.Allocator, schema *arrow.Schema, ds *dataset.Dataset, batchSize int) []arrow.Record {
	builder := array.NewRecordBuilder(mem, schema)
	defer builder.Release()

	n := ds.NumRows()
	var records []arrow.Record
	for start := 0; ; start += batchSize {
		end := min(start+batchSize, n)
		for j, col := range ds.Columns() {
			appendColumn(builder.Field(j), col, start, end)
		}
		records = append(records, builder.NewRecord())
		if end >= n {
			return records
		}
	}
}

func appendColumn(b array.Builder, col *dataset.Column, start, end int) {
	for _, v := range col.Values[start:end] {
		if v.IsNull() {
			b.AppendNull()
			continue
		}
		switch fb := b.(type) {
		case *array.Float64Builder:
			fb.Append(v.Num())
		case *array.TimestampBuilder:
			fb.Append(arrow.Timestamp(v.Time().UnixMicro()))
		case *array.StringBuilder:
			fb.Append(v.Str())
		default:
			b.AppendNull()
		}
	}
}

func releaseAll(records []arrow.Record) {
	for _, r := range records {
		r.Release()
	}
}

func writeArrow(w io.Writer, ds *dataset.Dataset, config *WriterConfig) error {
	mem := memory.NewGoAllocator()
	schema := arrowSchema(ds)

	opts := []ipc.Option{ipc.WithSchema(schema), ipc.WithAllocator(mem)}
	switch config.Compression {
	case "", "none", "uncompressed":
	case "zstd":
		opts = append(opts, ipc.WithZstd())
	case "lz4":
		opts = append(opts, ipc.WithLZ4())
	default:
		return errors.Newf(errors.ErrorTypeConfig, "arrow files support zstd or lz4 compression, not %q", config.Compression)
	}

	fw, err := ipc.NewFileWriter(w, opts...)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to create Arrow writer")
	}

	records := buildRecords(mem, schema, ds, config.BatchSize)
	defer releaseAll(records)
	for _, rec := range records {
		if err := fw.Write(rec); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write Arrow record")
		}
	}
	if err := fw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close Arrow writer")
	}
	return nil
}

func readArrow(r ipc.ReadAtSeeker) (*dataset.Dataset, error) {
	fr, err := ipc.NewFileReader(r, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "invalid Arrow file")
	}
	defer fr.Close()

	cols, err := newColumns(fr.Schema())
	if err != nil {
		return nil, err
	}
	for i := 0; i < fr.NumRecords(); i++ {
		// records are owned by the reader and released on the next call
		rec, err := fr.Record(i)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeParse, "failed to read Arrow record")
		}
		for j, col := range cols {
			appendArray(col, rec.Column(j))
		}
	}
	return assemble(cols)
}

// newColumns creates empty dataset columns matching schema
func newColumns(schema *arrow.Schema) ([]*dataset.Column, error) {
	cols := make([]*dataset.Column, schema.NumFields())
	for j, field := range schema.Fields() {
		col, err := columnFromArrow(field)
		if err != nil {
			return nil, err
		}
		cols[j] = col
	}
	return cols, nil
}

func assemble(cols []*dataset.Column) (*dataset.Dataset, error) {
	ds, err := dataset.New(cols...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "invalid columnar schema")
	}
	return ds, nil
}

func columnFromArrow(field arrow.Field) (*dataset.Column, error) {
	col := &dataset.Column{Name: field.Name}
	switch t := field.Type.(type) {
	case *arrow.Float64Type, *arrow.Float32Type, *arrow.Int64Type, *arrow.Int32Type:
		col.Type = dataset.Numeric
	case *arrow.StringType, *arrow.LargeStringType:
		col.Type = dataset.Text
	case *arrow.TimestampType:
		col.Type = dataset.Temporal
		if i := field.Metadata.FindKey(layoutMetadataKey); i >= 0 {
			col.Layout = field.Metadata.Values()[i]
		}
	default:
		return nil, errors.Newf(errors.ErrorTypeParse, "column %q has unsupported type %s", field.Name, t).
			WithDetail("column", field.Name)
	}

	return col, nil
}

// appendArray appends the cells of arr to col
func appendArray(col *dataset.Column, arr arrow.Array) {
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			col.Values = append(col.Values, dataset.Null())
			continue
		}
		col.Values = append(col.Values, valueAt(arr, i))
	}
}

func valueAt(arr arrow.Array, i int) dataset.Value {
	switch a := arr.(type) {
	case *array.Float64:
		return dataset.NumberValue(a.Value(i))
	case *array.Float32:
		return dataset.NumberValue(float64(a.Value(i)))
	case *array.Int64:
		return dataset.NumberValue(float64(a.Value(i)))
	case *array.Int32:
		return dataset.NumberValue(float64(a.Value(i)))
	case *array.String:
		return dataset.TextValue(a.Value(i))
	case *array.LargeString:
		return dataset.TextValue(a.Value(i))
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return dataset.TimeValue(a.Value(i).ToTime(unit).In(time.UTC))
	default:
		return dataset.Null()
	}
}
