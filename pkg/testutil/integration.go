package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// IntegrationTestSuite provides a temp directory and context for tests
// that read and write real files
type IntegrationTestSuite struct {
	suite.Suite
	ctx       context.Context
	cancel    context.CancelFunc
	tempDir   string
	startTime time.Time
}

// SetupSuite runs before all tests in the suite
func (s *IntegrationTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 5*time.Minute)
	s.startTime = time.Now()

	tempDir, err := os.MkdirTemp("", "viswalis-test-*")
	require.NoError(s.T(), err)
	s.tempDir = tempDir
}

// TearDownSuite runs after all tests in the suite
func (s *IntegrationTestSuite) TearDownSuite() {
	s.cancel()

	if s.tempDir != "" {
		os.RemoveAll(s.tempDir)
	}

	s.T().Logf("suite completed in %v", time.Since(s.startTime))
}

// Context returns the suite context
func (s *IntegrationTestSuite) Context() context.Context {
	return s.ctx
}

// TempDir returns the temporary directory path
func (s *IntegrationTestSuite) TempDir() string {
	return s.tempDir
}

// CreateTempFile creates a file under the suite's temp directory
func (s *IntegrationTestSuite) CreateTempFile(name string, content []byte) string {
	path := filepath.Join(s.tempDir, name)
	err := os.WriteFile(path, content, 0644)
	require.NoError(s.T(), err)
	return path
}

// IntegrationTest marks a test as an integration test
func IntegrationTest(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// GenerateCSV builds a numeric-heavy CSV with rows data rows. Every tenth
// row repeats the previous one, every seventh has a missing score, and the
// last row carries an outlying score.
func GenerateCSV(rows int) string {
	var b strings.Builder
	b.WriteString("id,name,score,joined\n")
	prev := ""
	for i := 0; i < rows; i++ {
		var line string
		switch {
		case i > 0 && i%10 == 0:
			line = prev
		case i == rows-1:
			line = fmt.Sprintf("%d,user_%d,%d,2024-01-%02d\n", i, i, 100000, i%28+1)
		case i%7 == 3:
			line = fmt.Sprintf("%d,user_%d,,2024-01-%02d\n", i, i, i%28+1)
		default:
			line = fmt.Sprintf("%d,user_%d,%.2f,2024-01-%02d\n", i, i, 50+float64(i%20)*1.5, i%28+1)
		}
		b.WriteString(line)
		prev = line
	}
	return b.String()
}
