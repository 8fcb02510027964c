package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/viswalis/viswalis/pkg/errors"
)

const utf8BOM = "\ufeff"

// ReadOptions configures ReadCSV
type ReadOptions struct {
	// Delimiter separates fields; zero means comma
	Delimiter rune
	// Inference controls missing markers and temporal layouts
	Inference InferenceOptions
}

// ReadCSV parses CSV with a header row into a typed Dataset. Short rows are
// padded with missing cells; rows longer than the header are a parse error.
// Any failure is reported as ErrorTypeParse and no Dataset is produced.
func ReadCSV(r io.Reader, opts ReadOptions) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrorTypeParse, "input has no header row")
	}
	if err != nil {
		return nil, wrapCSVError(err, "failed to read header")
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	names := mangleHeader(header)

	raw := make([][]string, len(names))
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, wrapCSVError(err, "failed to read row")
		}
		line++
		if len(record) > len(names) {
			return nil, errors.Newf(errors.ErrorTypeParse, "row has %d fields, header has %d", len(record), len(names)).
				WithDetail("line", line)
		}
		for j := range names {
			if j < len(record) {
				raw[j] = append(raw[j], record[j])
			} else {
				raw[j] = append(raw[j], "")
			}
		}
	}

	inferrer := NewInferrer(opts.Inference)
	columns := make([]*Column, len(names))
	for j, name := range names {
		columns[j] = inferrer.InferColumn(name, raw[j])
	}

	ds, err := New(columns...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "failed to assemble dataset")
	}
	return ds, nil
}

// mangleHeader names blank headers "Unnamed: i" and suffixes repeats with
// ".1", ".2", ... so column names are unique.
func mangleHeader(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for {
			n, dup := seen[name]
			if !dup {
				break
			}
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", h, n+1)
		}
		seen[name] = 0
		names[i] = name
	}
	return names
}

func wrapCSVError(err error, message string) error {
	wrapped := errors.Wrap(err, errors.ErrorTypeParse, message)
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		wrapped = wrapped.WithDetail("line", pe.Line).WithDetail("column", pe.Column)
	}
	return wrapped
}

// WriteOptions configures WriteCSV
type WriteOptions struct {
	// Delimiter separates fields; zero means comma
	Delimiter rune
	// BOMPrefix writes a UTF-8 byte order mark first, for Excel
	BOMPrefix bool
}

// WriteCSV renders the dataset as CSV: a header row, then one line per row,
// with no index column. Missing cells are written empty.
func WriteCSV(w io.Writer, d *Dataset, opts WriteOptions) error {
	if opts.BOMPrefix {
		if _, err := io.WriteString(w, utf8BOM); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write BOM")
		}
	}

	writer := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		writer.Comma = opts.Delimiter
	}

	if err := writer.Write(d.ColumnNames()); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write header")
	}

	record := make([]string, d.NumColumns())
	for i := 0; i < d.NumRows(); i++ {
		for j, col := range d.columns {
			record[j] = col.Format(i)
		}
		if err := writer.Write(record); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write row").WithDetail("row", i)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush CSV")
	}
	return nil
}
