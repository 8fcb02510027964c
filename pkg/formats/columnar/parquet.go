package columnar

import (
	"context"
	"io"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/viswalis/viswalis/pkg/dataset"
	"github.com/viswalis/viswalis/pkg/errors"
)

func parquetCompression(name string) (compress.Compression, error) {
	switch strings.ToLower(name) {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "none", "uncompressed":
		return compress.Codecs.Uncompressed, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "lz4":
		return compress.Codecs.Lz4Raw, nil
	case "brotli":
		return compress.Codecs.Brotli, nil
	default:
		return compress.Codecs.Uncompressed, errors.Newf(errors.ErrorTypeConfig, "unsupported parquet compression %q", name)
	}
}

func writeParquet(w io.Writer, ds *dataset.Dataset, config *WriterConfig) error {
	codec, err := parquetCompression(config.Compression)
	if err != nil {
		return err
	}

	mem := memory.NewGoAllocator()
	schema := arrowSchema(ds)

	props := parquet.NewWriterProperties(
		parquet.WithCompression(codec),
		parquet.WithMaxRowGroupLength(int64(config.BatchSize)),
		parquet.WithAllocator(mem),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithAllocator(mem),
		pqarrow.WithStoreSchema(),
	)

	// the parquet writer closes sinks that implement io.Closer
	fw, err := pqarrow.NewFileWriter(schema, struct{ io.Writer }{w}, props, arrowProps)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to create Parquet writer")
	}

	records := buildRecords(mem, schema, ds, config.BatchSize)
	defer releaseAll(records)
	for _, rec := range records {
		if err := fw.Write(rec); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write Parquet row group")
		}
	}
	if err := fw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close Parquet writer")
	}
	return nil
}

func readParquet(r parquet.ReaderAtSeeker) (*dataset.Dataset, error) {
	mem := memory.NewGoAllocator()
	table, err := pqarrow.ReadTable(context.Background(), r, parquet.NewReaderProperties(mem),
		pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "invalid Parquet file")
	}
	defer table.Release()

	cols, err := newColumns(table.Schema())
	if err != nil {
		return nil, err
	}

	tr := array.NewTableReader(table, -1)
	defer tr.Release()
	for tr.Next() {
		rec := tr.Record()
		for j, col := range cols {
			appendArray(col, rec.Column(j))
		}
	}
	if err := tr.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "failed to read Parquet rows")
	}
	return assemble(cols)
}
