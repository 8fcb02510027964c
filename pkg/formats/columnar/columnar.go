// Package columnar exports datasets to Parquet, Arrow IPC and Avro, and reads
// them back.
//
// Column types map as follows:
//
//	numeric   float64 (nullable)
//	text      utf8 string (nullable)
//	temporal  timestamp[us, UTC] in Parquet and Arrow; formatted string in Avro
//
// Avro field names must match [A-Za-z_][A-Za-z0-9_]*, so names are sanitized
// and the original name is kept in the field's doc attribute.
package columnar

import (
	"bytes"
	"io"
	"strings"

	"github.com/viswalis/viswalis/pkg/dataset"
	"github.com/viswalis/viswalis/pkg/errors"
)

// Format represents a columnar storage format
type Format string

const (
	// Parquet is Apache Parquet format
	Parquet Format = "parquet"
	// Arrow is the Apache Arrow IPC file format
	Arrow Format = "arrow"
	// Avro is an Apache Avro object container file
	Avro Format = "avro"
)

// ParseFormat parses a format name; "feather" and "ipc" select Arrow
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "parquet", "pq":
		return Parquet, true
	case "arrow", "ipc", "feather":
		return Arrow, true
	case "avro":
		return Avro, true
	}
	return "", false
}

// FormatFromPath returns the format implied by the file extension
func FormatFromPath(path string) (Format, bool) {
	lower := strings.ToLower(path)
	for _, ext := range []string{".parquet", ".arrow", ".feather", ".ipc", ".avro"} {
		if strings.HasSuffix(lower, ext) {
			return ParseFormat(strings.TrimPrefix(ext, "."))
		}
	}
	return "", false
}

// WriterConfig configures columnar writers
type WriterConfig struct {
	Format Format
	// Compression is the codec inside the file: for Parquet one of
	// snappy, gzip, zstd, lz4, brotli or none; for Arrow zstd, lz4 or none;
	// for Avro snappy, deflate or none.
	Compression string
	// BatchSize bounds the rows per record batch (Parquet row group, Arrow
	// record, Avro block)
	BatchSize int
}

// DefaultWriterConfig returns default writer configuration
func DefaultWriterConfig() *WriterConfig {
	return &WriterConfig{
		Format:      Parquet,
		Compression: "snappy",
		BatchSize:   64 * 1024,
	}
}

// Write encodes ds to w in config.Format
func Write(w io.Writer, ds *dataset.Dataset, config *WriterConfig) error {
	if config == nil {
		config = DefaultWriterConfig()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultWriterConfig().BatchSize
	}

	switch config.Format {
	case Parquet:
		return writeParquet(w, ds, config)
	case Arrow:
		return writeArrow(w, ds, config)
	case Avro:
		return writeAvro(w, ds, config)
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unsupported columnar format %q", config.Format)
	}
}

// Read decodes a whole file in format f. Parquet and Arrow need random
// access, so r is buffered in memory first.
func Read(r io.Reader, f Format) (*dataset.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read columnar input")
	}

	switch f {
	case Parquet:
		return readParquet(bytes.NewReader(data))
	case Arrow:
		return readArrow(bytes.NewReader(data))
	case Avro:
		return readAvro(bytes.NewReader(data))
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported columnar format %q", f)
	}
}
