// Package runner executes one cleaning run end to end: it loads the input,
// applies the recipe through a pipeline.Cleaner, exports the cleaned data
// and writes the run report.
//
// # Basic Usage
//
//	cfg, _ := config.Load("clean.yaml")
//	r, err := runner.New(cfg, runner.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	report, err := r.Run(ctx)
//
// Input, output and report locations may be local paths or s3:// and gs://
// URLs; see pkg/storage.
//
// Operation failures do not abort a run. They are recorded in the report
// and the dataset is carried forward unchanged; Run only returns an error
// when the input cannot be loaded or the output cannot be written.
package runner

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/viswalis/viswalis/pkg/compression"
	"github.com/viswalis/viswalis/pkg/config"
	"github.com/viswalis/viswalis/pkg/dataset"
	"github.com/viswalis/viswalis/pkg/errors"
	"github.com/viswalis/viswalis/pkg/formats/columnar"
	"github.com/viswalis/viswalis/pkg/json"
	"github.com/viswalis/viswalis/pkg/logger"
	"github.com/viswalis/viswalis/pkg/observability"
	"github.com/viswalis/viswalis/pkg/pipeline"
	"github.com/viswalis/viswalis/pkg/storage"
	"github.com/viswalis/viswalis/pkg/transform"
)

// StdioPath names standard input or output in place of a file path
const StdioPath = "-"

// Runner executes a configured cleaning run
type Runner struct {
	cfg    *config.Config
	ops    []transform.Operation
	logger *zap.Logger
	store  *storage.Store
	stdin  io.Reader
	stdout io.Writer
}

// Option configures a Runner
type Option func(*Runner)

// WithLogger sets the logger. The default is logger.Get().
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithStdio replaces os.Stdin and os.Stdout
func WithStdio(in io.Reader, out io.Writer) Option {
	return func(r *Runner) {
		r.stdin = in
		r.stdout = out
	}
}

// WithStorage sets the store that resolves input, output and report
// locations. The default is built from cfg.Storage.
func WithStorage(s *storage.Store) Option {
	return func(r *Runner) { r.store = s }
}

// New validates cfg and builds its recipe
func New(cfg *config.Config, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ops, err := Build(cfg.Steps)
	if err != nil {
		return nil, err
	}

	r := &Runner{cfg: cfg, ops: ops, stdin: os.Stdin, stdout: os.Stdout}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Get()
	}
	if r.store == nil {
		r.store = storage.New(storage.Config{
			S3Region:           cfg.Storage.S3Region,
			S3Endpoint:         cfg.Storage.S3Endpoint,
			S3PathStyle:        cfg.Storage.S3PathStyle,
			S3PartSize:         cfg.Storage.S3PartSize,
			S3Concurrency:      cfg.Storage.S3Concurrency,
			GCSCredentialsFile: cfg.Storage.GCSCredentialsFile,
		}, storage.WithLogger(r.logger))
	}
	return r, nil
}

// Operations returns the built recipe
func (r *Runner) Operations() []transform.Operation {
	return r.ops
}

// StepResult is the report entry for one applied operation
type StepResult struct {
	Operation  string                 `json:"operation"`
	Params     string                 `json:"params,omitempty"`
	Status     string                 `json:"status"`
	ErrorType  string                 `json:"error_type,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Warning    string                 `json:"warning,omitempty"`
	DurationMS float64                `json:"duration_ms"`
	Report     *transform.Report      `json:"report,omitempty"`
}

// Report summarizes a run
type Report struct {
	SessionID  string                 `json:"session_id"`
	Input      string                 `json:"input"`
	Output     string                 `json:"output"`
	Format     string                 `json:"format"`
	RowsIn     int                    `json:"rows_in"`
	ColumnsIn  int                    `json:"columns_in"`
	RowsOut    int                    `json:"rows_out"`
	ColumnsOut int                    `json:"columns_out"`
	Failures   int                    `json:"failures"`
	Warnings   int                    `json:"warnings"`
	Steps      []StepResult           `json:"steps"`
	Summary    map[string]interface{} `json:"summary"`
	StartedAt  time.Time              `json:"started_at"`
	Duration   float64                `json:"duration_seconds"`
}

// Run loads the input, applies every operation, exports the result and
// writes the report when one is configured.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	ctx, span := observability.StartSpan(ctx, "viswalis.run")
	defer span.End()

	start := time.Now()
	in := r.cfg.Input.Path
	span.SetAttribute("input", in)

	ds, err := r.Load(ctx, r.cfg.Input)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	cleaner := pipeline.NewCleaner(ds,
		pipeline.WithLogger(r.logger),
		pipeline.WithSource(in),
		pipeline.WithContext(ctx))
	for _, op := range r.ops {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "run cancelled")
		}
		cleaner.Apply(ctx, op)
	}

	cleaned := cleaner.CleanedData()
	format, err := r.cfg.Output.ResolveFormat()
	if err != nil {
		return nil, err
	}
	if err := r.Export(ctx, cleaned, r.cfg.Output); err != nil {
		span.RecordError(err)
		return nil, err
	}

	report := &Report{
		SessionID:  cleaner.SessionID(),
		Input:      in,
		Output:     r.cfg.Output.Path,
		Format:     format,
		RowsIn:     ds.NumRows(),
		ColumnsIn:  ds.NumColumns(),
		RowsOut:    cleaned.NumRows(),
		ColumnsOut: cleaned.NumColumns(),
		Summary:    cleaner.Summary(),
		StartedAt:  start.UTC(),
	}
	for _, res := range cleaner.Results() {
		report.Steps = append(report.Steps, stepResult(res))
		if !res.OK() {
			report.Failures++
		}
		if res.Warning != nil {
			report.Warnings++
		}
	}
	report.Duration = time.Since(start).Seconds()

	span.SetAttribute("rows.in", report.RowsIn)
	span.SetAttribute("rows.out", report.RowsOut)
	span.SetAttribute("failures", report.Failures)

	r.logger.Info("cleaning run finished",
		zap.String("session_id", report.SessionID),
		zap.String("input", in),
		zap.String("output", report.Output),
		zap.String("format", format),
		zap.Int("rows_in", report.RowsIn),
		zap.Int("rows_out", report.RowsOut),
		zap.Int("failures", report.Failures),
		zap.Int("warnings", report.Warnings),
		zap.Float64("duration_seconds", report.Duration))

	if path := r.cfg.Output.Report; path != "" {
		if err := r.WriteReport(ctx, path, report); err != nil {
			return report, err
		}
	}
	return report, nil
}

func stepResult(res pipeline.Result) StepResult {
	s := StepResult{
		Operation:  res.Operation,
		Params:     res.Params,
		Status:     "ok",
		DurationMS: float64(res.Duration.Microseconds()) / 1000,
		Report:     res.Report,
	}
	if res.Err != nil {
		s.Status = "failed"
		s.ErrorType = string(errors.TypeOf(res.Err))
		s.Error = res.Err.Error()
		s.Details = errors.DetailsOf(res.Err)
	}
	if res.Warning != nil {
		s.Warning = res.Warning.Error()
	}
	return s
}

// Load reads the input dataset. Parquet, Arrow and Avro files are detected
// by extension; everything else is parsed as CSV, decompressed according to
// its extension.
func (r *Runner) Load(ctx context.Context, in config.InputConfig) (*dataset.Dataset, error) {
	opts := dataset.ReadOptions{
		Delimiter: in.DelimiterRune(),
		Inference: dataset.InferenceOptions{
			MissingMarkers: in.MissingMarkers,
			TimeLayouts:    in.TimeLayouts,
		},
	}

	if in.Path == "" || in.Path == StdioPath {
		return dataset.ReadCSV(r.stdin, opts)
	}

	src, err := r.store.Open(ctx, in.Path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if f, ok := columnar.FormatFromPath(in.Path); ok {
		ds, err := columnar.Read(src, f)
		if err != nil {
			return nil, errors.Wrap(err, errors.TypeOf(err), "failed to load input").
				WithDetail("path", in.Path)
		}
		return ds, nil
	}

	rc, err := compression.NewReader(src, compression.AlgorithmFromPath(in.Path))
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	ds, err := dataset.ReadCSV(rc, opts)
	if err != nil {
		return nil, errors.Wrap(err, errors.TypeOf(err), "failed to load input").
			WithDetail("path", in.Path)
	}
	return ds, nil
}

// Export writes ds according to out
func (r *Runner) Export(ctx context.Context, ds *dataset.Dataset, out config.OutputConfig) error {
	format, err := out.ResolveFormat()
	if err != nil {
		return err
	}

	var dst io.WriteCloser
	if out.Path == "" || out.Path == StdioPath {
		dst = nopCloser{r.stdout}
	} else if dst, err = r.store.Create(ctx, out.Path); err != nil {
		return err
	}

	if err := encode(dst, ds, format, out); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to finish output").
			WithDetail("path", out.Path)
	}
	return nil
}

func encode(w io.Writer, ds *dataset.Dataset, format string, out config.OutputConfig) error {
	if format != config.FormatCSV {
		return columnar.Write(w, ds, &columnar.WriterConfig{
			Format:      columnar.Format(format),
			Compression: strings.ToLower(out.Compression),
			BatchSize:   out.BatchSize,
		})
	}

	level, err := compression.ParseLevel(out.Level)
	if err != nil {
		return err
	}
	algorithm, err := compression.ParseAlgorithm(out.Compression)
	if err != nil {
		return err
	}
	if out.Compression == "" && out.Path != "" {
		algorithm = compression.AlgorithmFromPath(out.Path)
	}

	cw, err := compression.NewWriter(w, algorithm, level)
	if err != nil {
		return err
	}
	if err := dataset.WriteCSV(cw, ds, dataset.WriteOptions{BOMPrefix: out.BOM}); err != nil {
		cw.Close()
		return err
	}
	return cw.Close()
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// WriteReport writes report as indented JSON, or as one JSON line per step
// when path ends in .jsonl
func (r *Runner) WriteReport(ctx context.Context, path string, report *Report) error {
	w, err := r.store.Create(ctx, path)
	if err != nil {
		return err
	}

	if strings.HasSuffix(strings.ToLower(path), ".jsonl") {
		enc := json.NewStreamingEncoder(w, false)
		for _, step := range report.Steps {
			if err = enc.Encode(step); err != nil {
				break
			}
		}
		if cerr := enc.Close(); err == nil {
			err = cerr
		}
	} else {
		err = json.MarshalToWriter(w, report, "  ")
	}

	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write report").
			WithDetail("path", path)
	}
	return nil
}
