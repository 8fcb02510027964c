package config

import (
	"unicode/utf8"

	"github.com/viswalis/viswalis/pkg/compression"
	"github.com/viswalis/viswalis/pkg/errors"
	"github.com/viswalis/viswalis/pkg/formats/columnar"
	"github.com/viswalis/viswalis/pkg/storage"
)

// FormatCSV selects CSV output
const FormatCSV = "csv"

// Config is the complete configuration of one cleaning run
type Config struct {
	// Input controls how the CSV is parsed and typed
	Input InputConfig `yaml:"input" json:"input"`

	// Steps is the cleaning recipe, applied in order
	Steps []Step `yaml:"steps" json:"steps"`

	// Output controls where and how the cleaned data is written
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configures the global zap logger
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Observability settings for metrics and tracing
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`

	// Storage configures the clients used for s3:// and gs:// locations
	Storage StorageConfig `yaml:"storage,omitempty" json:"storage,omitempty"`
}

// InputConfig contains CSV parsing settings
type InputConfig struct {
	// Path of the input CSV, or an s3:// or gs:// URL; compression is
	// detected from its extension
	Path string `yaml:"path" json:"path"`
	// Delimiter is a single character, comma when empty
	Delimiter string `yaml:"delimiter" json:"delimiter"`
	// MissingMarkers replace the default NA list when set
	MissingMarkers []string `yaml:"missing_markers,omitempty" json:"missing_markers,omitempty"`
	// TimeLayouts are Go layouts tried in order when detecting temporal columns
	TimeLayouts []string `yaml:"time_layouts,omitempty" json:"time_layouts,omitempty"`
}

// Step is one operation of the recipe. Which parameters apply depends on Op.
type Step struct {
	Op string `yaml:"op" json:"op"`

	// handle_missing
	Strategy     string `yaml:"strategy,omitempty" json:"strategy,omitempty"`
	TargetColumn string `yaml:"target_column,omitempty" json:"target_column,omitempty"`
	FillValue    string `yaml:"fill_value,omitempty" json:"fill_value,omitempty"`

	// remove_outliers, coerce_numeric
	Columns []string `yaml:"columns,omitempty" json:"columns,omitempty"`

	// standardize_names
	Case    string `yaml:"case,omitempty" json:"case,omitempty"`
	Find    string `yaml:"find,omitempty" json:"find,omitempty"`
	Replace string `yaml:"replace,omitempty" json:"replace,omitempty"`

	// drop_column
	Column string `yaml:"column,omitempty" json:"column,omitempty"`
}

// OutputConfig contains export settings
type OutputConfig struct {
	// Path or s3:// / gs:// URL of the cleaned file; empty writes to stdout
	Path string `yaml:"path" json:"path"`
	// Format is csv, parquet, arrow or avro; empty means infer from Path
	Format string `yaml:"format" json:"format"`
	// Compression is the stream codec for CSV or the in-file codec for
	// columnar formats
	Compression string `yaml:"compression" json:"compression"`
	// Level is fastest, default, better or best
	Level string `yaml:"level" json:"level"`
	// BOM prefixes CSV output with a UTF-8 byte order mark
	BOM bool `yaml:"bom" json:"bom"`
	// BatchSize bounds rows per columnar batch
	BatchSize int `yaml:"batch_size" json:"batch_size"`
	// Report, when set, receives the JSON run report
	Report string `yaml:"report,omitempty" json:"report,omitempty"`
}

// LoggingConfig contains logger settings
type LoggingConfig struct {
	Level       string   `yaml:"level" json:"level"`
	Encoding    string   `yaml:"encoding" json:"encoding"`
	Development bool     `yaml:"development" json:"development"`
	OutputPaths []string `yaml:"output_paths,omitempty" json:"output_paths,omitempty"`
}

// ObservabilityConfig contains monitoring settings
type ObservabilityConfig struct {
	// MetricsTextfile, when set, receives Prometheus metrics in text format
	// at the end of the run
	MetricsTextfile string `yaml:"metrics_textfile,omitempty" json:"metrics_textfile,omitempty"`
	// Tracing writes OpenTelemetry spans to stderr
	Tracing bool `yaml:"tracing" json:"tracing"`
	// TracingSampleRate is the fraction of runs traced
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate"`
}

// StorageConfig contains object store client settings
type StorageConfig struct {
	S3Region           string `yaml:"s3_region,omitempty" json:"s3_region,omitempty"`
	S3Endpoint         string `yaml:"s3_endpoint,omitempty" json:"s3_endpoint,omitempty"`
	S3PathStyle        bool   `yaml:"s3_path_style,omitempty" json:"s3_path_style,omitempty"`
	S3PartSize         int64  `yaml:"s3_part_size,omitempty" json:"s3_part_size,omitempty"`
	S3Concurrency      int    `yaml:"s3_concurrency,omitempty" json:"s3_concurrency,omitempty"`
	GCSCredentialsFile string `yaml:"gcs_credentials_file,omitempty" json:"gcs_credentials_file,omitempty"`
}

// NewDefaultConfig creates a configuration with sensible defaults and an
// empty recipe.
func NewDefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Delimiter: ",",
		},
		Output: OutputConfig{
			Level:     "default",
			BatchSize: 64 * 1024,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
		},
		Observability: ObservabilityConfig{
			TracingSampleRate: 1.0,
		},
	}
}

// Validate checks the configuration for correctness. Step parameters are
// checked when the recipe is built.
func (c *Config) Validate() error {
	if c.Input.Delimiter != "" && utf8.RuneCountInString(c.Input.Delimiter) != 1 {
		return errors.Newf(errors.ErrorTypeConfig, "input.delimiter must be a single character, got %q", c.Input.Delimiter)
	}
	for _, loc := range []string{c.Input.Path, c.Output.Path, c.Output.Report} {
		if loc == "" || loc == "-" {
			continue
		}
		if _, err := storage.ParseLocation(loc); err != nil {
			return err
		}
	}
	for i, s := range c.Steps {
		if s.Op == "" {
			return errors.Newf(errors.ErrorTypeConfig, "steps[%d].op is required", i).WithDetail("step", i)
		}
	}
	format, err := c.Output.ResolveFormat()
	if err != nil {
		return err
	}
	if format == FormatCSV {
		if _, err := compression.ParseAlgorithm(c.Output.Compression); err != nil {
			return err
		}
	}
	if _, err := compression.ParseLevel(c.Output.Level); err != nil {
		return err
	}
	if c.Output.BatchSize < 0 {
		return errors.New(errors.ErrorTypeConfig, "output.batch_size cannot be negative")
	}
	if c.Storage.S3PartSize < 0 || c.Storage.S3Concurrency < 0 {
		return errors.New(errors.ErrorTypeConfig, "storage part size and concurrency cannot be negative")
	}
	if r := c.Observability.TracingSampleRate; r < 0 || r > 1 {
		return errors.Newf(errors.ErrorTypeConfig, "observability.tracing_sample_rate must be within [0, 1], got %g", r)
	}
	return nil
}

// DelimiterRune returns the input delimiter, zero for the default comma
func (i *InputConfig) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(i.Delimiter)
	if r == utf8.RuneError {
		return 0
	}
	return r
}

// ResolveFormat returns the output format: Format when set, otherwise the
// one implied by Path, otherwise CSV.
func (o *OutputConfig) ResolveFormat() (string, error) {
	if o.Format == "" || o.Format == FormatCSV {
		if f, ok := columnar.FormatFromPath(o.Path); ok && o.Format == "" {
			return string(f), nil
		}
		return FormatCSV, nil
	}
	f, ok := columnar.ParseFormat(o.Format)
	if !ok {
		return "", errors.Newf(errors.ErrorTypeConfig, "unsupported output format %q", o.Format).
			WithDetail("supported", []string{FormatCSV, string(columnar.Parquet), string(columnar.Arrow), string(columnar.Avro)})
	}
	return string(f), nil
}
