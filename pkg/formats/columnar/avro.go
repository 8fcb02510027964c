package columnar

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/linkedin/goavro/v2"

	"github.com/viswalis/viswalis/pkg/dataset"
	"github.com/viswalis/viswalis/pkg/errors"
)

const (
	avroRecordName = "Row"
	avroNamespace  = "viswalis"
)

var invalidAvroName = regexp.MustCompile(`[^A-Za-z0-9_]`)

type avroField struct {
	Name    string      `json:"name"`
	Doc     string      `json:"doc,omitempty"`
	Type    []string    `json:"type"`
	Default interface{} `json:"default"`
	Kind    string      `json:"viswalis.type"`
	Layout  string      `json:"viswalis.layout,omitempty"`

	column *dataset.Column
}

type avroSchema struct {
	Type      string      `json:"type"`
	Name      string      `json:"name"`
	Namespace string      `json:"namespace"`
	Fields    []avroField `json:"fields"`
}

// avroName turns a column name into a valid, unique Avro field name
func avroName(name string, seen map[string]bool) string {
	s := invalidAvroName.ReplaceAllString(name, "_")
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		s = "_" + s
	}
	base := s
	for i := 1; seen[s]; i++ {
		s = base + "_" + strconv.Itoa(i)
	}
	seen[s] = true
	return s
}

func buildAvroSchema(ds *dataset.Dataset) *avroSchema {
	seen := make(map[string]bool)
	schema := &avroSchema{Type: "record", Name: avroRecordName, Namespace: avroNamespace}
	for _, col := range ds.Columns() {
		f := avroField{
			Name:   avroName(col.Name, seen),
			Doc:    col.Name,
			Kind:   col.Type.String(),
			column: col,
		}
		switch col.Type {
		case dataset.Numeric:
			f.Type = []string{"null", "double"}
		case dataset.Temporal:
			f.Type = []string{"null", "string"}
			f.Layout = col.TimeLayout()
		default:
			f.Type = []string{"null", "string"}
		}
		schema.Fields = append(schema.Fields, f)
	}
	return schema
}

func avroCompression(name string) (string, error) {
	switch strings.ToLower(name) {
	case "", "none", "null":
		return goavro.CompressionNullLabel, nil
	case "deflate":
		return goavro.CompressionDeflateLabel, nil
	case "snappy":
		return goavro.CompressionSnappyLabel, nil
	default:
		return "", errors.Newf(errors.ErrorTypeConfig, "avro files support snappy or deflate compression, not %q", name)
	}
}

func writeAvro(w io.Writer, ds *dataset.Dataset, config *WriterConfig) error {
	codecName, err := avroCompression(config.Compression)
	if err != nil {
		return err
	}

	schema := buildAvroSchema(ds)
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode Avro schema")
	}

	ocf, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               w,
		Schema:          string(schemaJSON),
		CompressionName: codecName,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to create Avro writer")
	}

	n := ds.NumRows()
	for start := 0; start < n; start += config.BatchSize {
		end := min(start+config.BatchSize, n)
		block := make([]interface{}, 0, end-start)
		for i := start; i < end; i++ {
			block = append(block, avroRecord(schema, i))
		}
		if err := ocf.Append(block); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write Avro block")
		}
	}
	return nil
}

func avroRecord(schema *avroSchema, row int) map[string]interface{} {
	rec := make(map[string]interface{}, len(schema.Fields))
	for _, f := range schema.Fields {
		v := f.column.Values[row]
		switch {
		case v.IsNull():
			rec[f.Name] = nil
		case f.column.Type == dataset.Numeric:
			rec[f.Name] = goavro.Union("double", v.Num())
		default:
			rec[f.Name] = goavro.Union("string", f.column.Format(row))
		}
	}
	return rec
}

func readAvro(r io.Reader) (*dataset.Dataset, error) {
	ocf, err := goavro.NewOCFReader(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "invalid Avro file")
	}

	var schema avroSchema
	if err := json.Unmarshal(ocf.MetaData()["avro.schema"], &schema); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "unsupported Avro schema").
			WithDetail("schema", ocf.Codec().Schema())
	}

	cols := make([]*dataset.Column, len(schema.Fields))
	for j := range schema.Fields {
		f := &schema.Fields[j]
		name := f.Doc
		if name == "" {
			name = f.Name
		}
		typ, ok := dataset.ParseColumnType(f.Kind)
		if !ok {
			typ = dataset.Text
			if len(f.Type) == 2 && f.Type[1] == "double" {
				typ = dataset.Numeric
			}
		}
		cols[j] = &dataset.Column{Name: name, Type: typ}
		if typ == dataset.Temporal {
			cols[j].Layout = f.Layout
		}
	}

	for ocf.Scan() {
		datum, err := ocf.Read()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeParse, "failed to read Avro record")
		}
		rec, ok := datum.(map[string]interface{})
		if !ok {
			return nil, errors.New(errors.ErrorTypeParse, "Avro datum is not a record")
		}
		for j, f := range schema.Fields {
			v, err := avroValue(cols[j], rec[f.Name])
			if err != nil {
				return nil, err
			}
			cols[j].Values = append(cols[j].Values, v)
		}
	}
	if err := ocf.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "failed to read Avro file")
	}
	return assemble(cols)
}

// avroValue converts a decoded ["null", T] union into a cell of col
func avroValue(col *dataset.Column, datum interface{}) (dataset.Value, error) {
	union, ok := datum.(map[string]interface{})
	if datum == nil || !ok {
		return dataset.Null(), nil
	}
	for _, raw := range union {
		switch x := raw.(type) {
		case float64:
			return dataset.NumberValue(x), nil
		case string:
			switch col.Type {
			case dataset.Temporal:
				t, ok := dataset.ParseTime(x, col.TimeLayout())
				if !ok {
					return dataset.Null(), errors.Newf(errors.ErrorTypeParse, "column %q: cannot parse %q as time", col.Name, x).
						WithDetail("column", col.Name)
				}
				return dataset.TimeValue(t), nil
			case dataset.Numeric:
				if f, ok := dataset.ParseNumber(x); ok {
					return dataset.NumberValue(f), nil
				}
				return dataset.Null(), nil
			default:
				return dataset.TextValue(x), nil
			}
		}
	}
	return dataset.Null(), nil
}
