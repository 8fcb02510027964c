// Package viswalis is a tabular data cleaning tool. It loads a CSV dataset,
// applies an ordered chain of cleaning operations and exports the result.
//
// # Architecture
//
// A run moves through four layers:
//
//   - pkg/dataset holds the typed, column-oriented Dataset: CSV parsing with
//     per-column type inference (numeric, text, temporal) and CSV export.
//   - pkg/transform implements the cleaning operations. Each operation is a
//     pure function from one Dataset to a new one plus a small report.
//   - pkg/pipeline wraps the current dataset in a Cleaner that applies
//     operations one at a time, swaps the result in atomically and keeps an
//     ordered log of what succeeded and what failed.
//   - internal/runner wires a YAML recipe to a Cleaner and handles input and
//     output: compressed CSV, Parquet, Arrow, Avro, local files, S3 and GCS.
//
// # Operations
//
//   - handle_missing: drop rows with missing cells, or impute with the mean,
//     median, mode or a literal value
//   - drop_duplicates: keep the first occurrence of each row
//   - remove_outliers: 1.5 IQR filter, one column after another
//   - standardize_names: change the case of column names and replace
//     substrings in them
//   - drop_column, drop_empty_rows, trim_whitespace, coerce_numeric
//   - auto_clean: a fixed chain of the above
//
// # Quick Start
//
//	viswalis clean people.csv --strategy mean --outliers age --dedup \
//	    --case lowercase --find " " --replace _ -o people.clean.parquet
//
//	viswalis profile people.clean.parquet
//
// Or from Go:
//
//	ds, err := dataset.ReadCSV(f, dataset.ReadOptions{})
//	c := pipeline.NewCleaner(ds)
//	c.Apply(ctx, transform.Missing(transform.MissingOptions{Strategy: transform.StrategyMean}))
//	c.Apply(ctx, transform.Outliers("age"))
//	cleaned := c.CleanedData()
//
// # Configuration
//
// Recipes are YAML files loaded by pkg/config. Environment variables are
// substituted with ${VAR_NAME} syntax, and every CLI flag can be set from a
// VISWALIS_* variable.
package viswalis
