// Package config provides configuration management for viswalis cleaning runs.
//
// A run is described by one Config: how to read the input CSV, the ordered
// recipe of cleaning steps, where to write the result, and the logging and
// observability settings.
//
// # Usage
//
// ## Loading a Recipe
//
//	cfg, err := config.Load("clean.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// ## Creating a Configuration Programmatically
//
//	cfg := config.NewDefaultConfig()
//	cfg.Steps = []config.Step{
//		{Op: "handle_missing", Strategy: "mean"},
//		{Op: "remove_outliers", Columns: []string{"age"}},
//	}
//	cfg.Output.Path = "cleaned.parquet"
//
// ## Environment Variable Substitution
//
//	# clean.yaml
//	input:
//	  path: ${RAW_DIR}/people.csv.gz
//	steps:
//	  - op: drop_duplicates
//	  - op: handle_missing
//	    strategy: fill
//	    target_column: city
//	    fill_value: ${DEFAULT_CITY}
//	  - op: standardize_names
//	    case: lowercase
//	    find: " "
//	    replace: _
//	output:
//	  path: cleaned.csv.zst
//	  level: best
//
// # Configuration Structure
//
//   - Input: Path, delimiter, missing markers, temporal layouts
//   - Steps: op plus the parameters that op takes
//   - Output: Path, format (csv, parquet, arrow, avro), compression, level, BOM
//   - Logging: Level, encoding, development mode, output paths
//   - Observability: Prometheus textfile path, tracing, sample rate
//
// Unknown keys are rejected. Defaults from NewDefaultConfig apply to every key
// the file leaves out, and Load validates the merged result.
package config
