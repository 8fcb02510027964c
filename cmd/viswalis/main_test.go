package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viswalis/viswalis/pkg/dataset"
	"github.com/viswalis/viswalis/pkg/json"
	"github.com/viswalis/viswalis/pkg/testutil"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := newRootCommand(v)
	var out, errOut bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Viswalis v"+version)
	assert.Contains(t, out, "OS/Arch:")
}

func TestCleanFromStdin(t *testing.T) {
	out, err := execute(t, testutil.PeopleCSV,
		"clean", "--drop", "joined", "--strategy", "fill", "--fill-column", "city",
		"--fill-value", "Unknown", "--case", "uppercase")
	require.NoError(t, err)
	assert.Equal(t, "NAME,AGE,CITY\nAnn,20,Paris\nBob,35,Unknown\nCid,,Rome\nDee,999,Paris\n", out)
}

func TestCleanWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "people.csv")
	require.NoError(t, os.WriteFile(input, []byte(testutil.PeopleCSV), 0o644))
	output := filepath.Join(dir, "people.parquet")
	recipe := filepath.Join(dir, "clean.yaml")
	require.NoError(t, os.WriteFile(recipe, []byte(`
steps:
  - op: handle_missing
    strategy: drop
`), 0o644))

	_, err := execute(t, "", "clean", input, "--config", recipe, "-o", output, "--dedup")
	require.NoError(t, err)

	out, err := execute(t, "", "profile", output)
	require.NoError(t, err)
	var profile dataset.Profile
	require.NoError(t, json.Unmarshal([]byte(out), &profile))
	assert.Equal(t, 2, profile.Rows)
	assert.Len(t, profile.Columns, 4)
}

func TestStrictFailsOnOperationError(t *testing.T) {
	_, err := execute(t, testutil.PeopleCSV, "clean", "--drop", "nope", "--strict")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 operations failed")

	_, err = execute(t, testutil.PeopleCSV, "clean", "--drop", "nope")
	assert.NoError(t, err)
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("VISWALIS_DEDUP", "true")
	out, err := execute(t, "a,b\n1,2\n1,2\n", "clean")
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", out)
}

func TestProfileJSONLines(t *testing.T) {
	out, err := execute(t, testutil.PeopleCSV, "profile", "--jsonl")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)

	var col dataset.ColumnProfile
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &col))
	assert.Equal(t, "age", col.Name)
}
