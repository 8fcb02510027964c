package config_test

import (
	"fmt"
	"log"

	"github.com/viswalis/viswalis/pkg/config"
)

// ExampleNewDefaultConfig demonstrates creating a new configuration
// with default values.
func ExampleNewDefaultConfig() {
	cfg := config.NewDefaultConfig()

	format, _ := cfg.Output.ResolveFormat()
	fmt.Printf("Delimiter: %s\n", cfg.Input.Delimiter)
	fmt.Printf("Output Format: %s\n", format)
	fmt.Printf("Log Level: %s\n", cfg.Logging.Level)

	// Output:
	// Delimiter: ,
	// Output Format: csv
	// Log Level: info
}

// ExampleConfig_Validate shows how to validate a configuration
// before using it.
func ExampleConfig_Validate() {
	cfg := config.NewDefaultConfig()
	cfg.Steps = []config.Step{
		{Op: "handle_missing", Strategy: "median"},
		{Op: "remove_outliers", Columns: []string{"age", "income"}},
	}
	cfg.Output.Path = "cleaned.parquet"
	cfg.Output.Compression = "zstd"

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	format, _ := cfg.Output.ResolveFormat()
	fmt.Println("Configuration is valid!")
	fmt.Println("Format:", format)

	// Output:
	// Configuration is valid!
	// Format: parquet
}

// ExampleParse demonstrates decoding a recipe with environment variable
// substitution.
func ExampleParse() {
	cfg, err := config.Parse([]byte(`
steps:
  - op: drop_duplicates
  - op: drop_column
    column: ${VISWALIS_EXAMPLE_UNSET}notes
output:
  path: out.csv.gz
`))
	if err != nil {
		log.Fatal(err)
	}

	for _, s := range cfg.Steps {
		fmt.Printf("%s %q\n", s.Op, s.Column)
	}

	// Output:
	// drop_duplicates ""
	// drop_column "notes"
}
