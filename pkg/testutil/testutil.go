// Package testutil provides testing utilities for viswalis
package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/viswalis/viswalis/pkg/dataset"
)

// PeopleCSV is a small dataset with every column type and a few missing cells
const PeopleCSV = "name,age,city,joined\n" +
	"Ann,20,Paris,2024-01-02\n" +
	"Bob,35,,2024-02-03\n" +
	"Cid,NA,Rome,\n" +
	"Dee,999,Paris,2024-03-04\n"

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// LoadCSV parses csv with default read options and fails the test on error
func LoadCSV(t *testing.T, csv string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.ReadCSV(strings.NewReader(csv), dataset.ReadOptions{})
	require.NoError(t, err)
	return ds
}

// People returns PeopleCSV loaded as a dataset
func People(t *testing.T) *dataset.Dataset {
	t.Helper()
	return LoadCSV(t, PeopleCSV)
}
