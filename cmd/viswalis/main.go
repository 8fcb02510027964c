package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/viswalis/viswalis/internal/runner"
	"github.com/viswalis/viswalis/pkg/config"
	"github.com/viswalis/viswalis/pkg/dataset"
	"github.com/viswalis/viswalis/pkg/errors"
	"github.com/viswalis/viswalis/pkg/json"
	"github.com/viswalis/viswalis/pkg/logger"
	"github.com/viswalis/viswalis/pkg/metrics"
	"github.com/viswalis/viswalis/pkg/observability"
)

var version = "0.1.0"

const envPrefix = "VISWALIS"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := newRootCommand(v).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "viswalis:", err)
		os.Exit(1)
	}
}

func newRootCommand(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:   "viswalis",
		Short: "Viswalis - tabular data cleaning",
		Long: `Viswalis loads a CSV dataset, applies a chain of cleaning operations
(missing values, duplicates, outliers, column names) and exports the result
as CSV, Parquet, Arrow or Avro.

Every flag can also be set through a VISWALIS_* environment variable,
for example VISWALIS_LOG_LEVEL=debug.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringP("config", "c", "", "YAML run configuration (input options, steps, output, logging)")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.String("log-encoding", "", "Log encoding (console or json)")
	pf.Bool("log-dev", false, "Development logging with colored levels and stack traces")
	pf.String("delimiter", "", "Input field delimiter (default ,)")
	pf.StringSlice("missing-markers", nil, "Cell texts read as missing (default: the pandas NA list)")
	pf.String("metrics-textfile", "", "Write Prometheus metrics to this file when the run ends")
	pf.Bool("trace", false, "Write OpenTelemetry spans to stderr")
	pf.String("s3-region", "", "AWS region for s3:// locations")
	pf.String("s3-endpoint", "", "Custom S3 endpoint, e.g. a MinIO server")
	pf.Bool("s3-path-style", false, "Use path-style S3 addressing")
	pf.String("gcs-credentials", "", "Service account key file for gs:// locations")

	root.AddCommand(
		newCleanCommand(v),
		newProfileCommand(v),
		newVersionCommand(),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Viswalis v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func newCleanCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean [input.csv]",
		Short: "Clean a dataset and export the result",
		Long: `Clean applies the steps from --config followed by the steps selected
with flags. Flag steps run in this order: auto, drop-empty, dedup, drop,
strategy, outliers, trim, coerce, then case/find/replace.

Input compressed with gzip, zstd, lz4, snappy or s2 is detected from the
file extension, as are Parquet, Arrow and Avro inputs. Reading from "-"
or with no input reads CSV from stdin. Input, output and report may be
s3://bucket/key or gs://bucket/key URLs.

Example:
  viswalis clean people.csv.gz --dedup --strategy mean --outliers age,income \
      --case lowercase --find " " --replace _ -o cleaned.parquet --report run.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd, v, args)
		},
	}

	f := cmd.Flags()
	f.StringP("output", "o", "", "Output path; format and compression follow the extension (default stdout)")
	f.String("format", "", "Output format: csv, parquet, arrow or avro")
	f.String("compression", "", "CSV stream codec, or the codec inside Parquet/Arrow/Avro files")
	f.String("level", "", "Compression level: fastest, default, better or best")
	f.Bool("bom", false, "Prefix CSV output with a UTF-8 byte order mark")
	f.Int("batch-size", 0, "Rows per columnar batch")
	f.String("report", "", "Write the JSON run report here (.jsonl for one line per step)")
	f.Bool("strict", false, "Exit with an error when any operation failed")

	f.Bool("auto", false, "Run the automatic cleaning pass")
	f.Bool("drop-empty", false, "Drop rows where every cell is missing")
	f.Bool("dedup", false, "Drop duplicate rows, keeping the first")
	f.StringSlice("drop", nil, "Columns to drop")
	f.String("strategy", "", "Missing value strategy: drop, mean, median, mode or fill")
	f.String("fill-column", "", "Column filled by --strategy fill")
	f.String("fill-value", "", "Literal used by --strategy fill")
	f.StringSlice("outliers", nil, "Numeric columns to filter with the 1.5 IQR rule, in order")
	f.Bool("trim", false, "Trim surrounding whitespace in text cells")
	f.StringSlice("coerce", nil, "Columns to convert to numbers; unparseable values become 0")
	f.String("case", "", "Column name case: lowercase, uppercase, title or sentence")
	f.String("find", "", "Substring to replace in column names")
	f.String("replace", "", "Replacement for --find")

	return cmd
}

func newProfileCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile [input.csv]",
		Short: "Print per-column statistics as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfile(cmd, v, args)
		},
	}
	cmd.Flags().Bool("jsonl", false, "One JSON object per column instead of a single document")
	return cmd
}

// loadConfig merges the --config file, environment and flags, in
// increasing precedence
func loadConfig(cmd *cobra.Command, v *viper.Viper, args []string) (*config.Config, error) {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to bind flags")
	}
	if err := v.BindPFlags(cmd.InheritedFlags()); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to bind flags")
	}

	cfg := config.NewDefaultConfig()
	if path := v.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if len(args) == 1 {
		cfg.Input.Path = args[0]
	}

	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	setBool := func(key string, dst *bool) {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}

	setString("delimiter", &cfg.Input.Delimiter)
	if v.IsSet("missing-markers") {
		cfg.Input.MissingMarkers = v.GetStringSlice("missing-markers")
	}
	setString("output", &cfg.Output.Path)
	setString("format", &cfg.Output.Format)
	setString("compression", &cfg.Output.Compression)
	setString("level", &cfg.Output.Level)
	setString("report", &cfg.Output.Report)
	setBool("bom", &cfg.Output.BOM)
	if v.IsSet("batch-size") {
		cfg.Output.BatchSize = v.GetInt("batch-size")
	}
	setString("log-level", &cfg.Logging.Level)
	setString("log-encoding", &cfg.Logging.Encoding)
	setBool("log-dev", &cfg.Logging.Development)
	setString("metrics-textfile", &cfg.Observability.MetricsTextfile)
	setBool("trace", &cfg.Observability.Tracing)
	setString("s3-region", &cfg.Storage.S3Region)
	setString("s3-endpoint", &cfg.Storage.S3Endpoint)
	setBool("s3-path-style", &cfg.Storage.S3PathStyle)
	setString("gcs-credentials", &cfg.Storage.GCSCredentialsFile)

	cfg.Steps = append(cfg.Steps, runner.StepsFromFlags(runner.FlagOptions{
		Auto:       v.GetBool("auto"),
		DropEmpty:  v.GetBool("drop-empty"),
		Dedup:      v.GetBool("dedup"),
		Drop:       v.GetStringSlice("drop"),
		Strategy:   v.GetString("strategy"),
		FillColumn: v.GetString("fill-column"),
		FillValue:  v.GetString("fill-value"),
		Outliers:   v.GetStringSlice("outliers"),
		Trim:       v.GetBool("trim"),
		Coerce:     v.GetStringSlice("coerce"),
		Case:       v.GetString("case"),
		Find:       v.GetString("find"),
		Replace:    v.GetString("replace"),
	})...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup initializes logging and tracing for a command. The returned
// function flushes both.
func setup(cfg *config.Config) (func(), error) {
	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		Encoding:    cfg.Logging.Encoding,
		OutputPaths: cfg.Logging.OutputPaths,
	}); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to initialize logger")
	}

	tracing := observability.DefaultTracingConfig()
	tracing.Enabled = cfg.Observability.Tracing
	tracing.ServiceVersion = version
	tracing.SamplingRate = cfg.Observability.TracingSampleRate
	tracing.Output = os.Stderr
	shutdown, err := observability.InitTracing(tracing)
	if err != nil {
		return nil, err
	}

	return func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("failed to flush traces", zap.Error(err))
		}
		_ = logger.Sync()
	}, nil
}

func runClean(cmd *cobra.Command, v *viper.Viper, args []string) error {
	cfg, err := loadConfig(cmd, v, args)
	if err != nil {
		return err
	}
	teardown, err := setup(cfg)
	if err != nil {
		return err
	}
	defer teardown()

	log := logger.With(zap.String("component", "viswalis-cli"))
	if len(cfg.Steps) == 0 {
		log.Warn("no cleaning steps selected, the input is exported unchanged")
	}

	r, err := runner.New(cfg,
		runner.WithLogger(log),
		runner.WithStdio(cmd.InOrStdin(), cmd.OutOrStdout()))
	if err != nil {
		return err
	}
	for i, op := range r.Operations() {
		log.Debug("recipe step", zap.Int("step", i), zap.String("operation", fmt.Sprint(op)))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := r.Run(ctx)
	if path := cfg.Observability.MetricsTextfile; path != "" {
		if merr := metrics.WriteTextfile(path); merr != nil {
			log.Warn("failed to write metrics", zap.Error(merr))
		}
	}
	if err != nil {
		return err
	}

	for _, step := range report.Steps {
		if step.Status != "ok" {
			fmt.Fprintf(cmd.ErrOrStderr(), "step %s failed (%s): %s\n", step.Params, step.ErrorType, step.Error)
		} else if step.Warning != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "step %s: %s\n", step.Params, step.Warning)
		}
	}
	if v.GetBool("strict") && report.Failures > 0 {
		return errors.Newf(errors.ErrorTypeInternal, "%d of %d operations failed", report.Failures, len(report.Steps))
	}
	return nil
}

func runProfile(cmd *cobra.Command, v *viper.Viper, args []string) error {
	cfg, err := loadConfig(cmd, v, args)
	if err != nil {
		return err
	}
	teardown, err := setup(cfg)
	if err != nil {
		return err
	}
	defer teardown()

	r, err := runner.New(cfg, runner.WithStdio(cmd.InOrStdin(), cmd.OutOrStdout()))
	if err != nil {
		return err
	}
	ds, err := r.Load(cmd.Context(), cfg.Input)
	if err != nil {
		return err
	}

	return writeProfile(cmd.OutOrStdout(), dataset.Describe(ds), v.GetBool("jsonl"))
}

func writeProfile(w io.Writer, profile *dataset.Profile, lines bool) error {
	if !lines {
		return json.MarshalToWriter(w, profile, "  ")
	}
	enc := json.NewStreamingEncoder(w, false)
	for _, col := range profile.Columns {
		if err := enc.Encode(col); err != nil {
			return err
		}
	}
	return enc.Close()
}
