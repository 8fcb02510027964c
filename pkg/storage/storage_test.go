package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/viswalis/viswalis/pkg/errors"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		raw     string
		want    Location
		wantErr bool
	}{
		{raw: "data/people.csv", want: Location{Scheme: SchemeFile, Key: "data/people.csv"}},
		{raw: "file:///tmp/people.csv", want: Location{Scheme: SchemeFile, Key: "/tmp/people.csv"}},
		{raw: "s3://raw/2024/people.csv.gz", want: Location{Scheme: SchemeS3, Bucket: "raw", Key: "2024/people.csv.gz"}},
		{raw: "GS://lake/out.parquet", want: Location{Scheme: SchemeGCS, Bucket: "lake", Key: "out.parquet"}},
		{raw: "s3://raw", wantErr: true},
		{raw: "s3://raw/dir/", wantErr: true},
		{raw: "gs:///key", wantErr: true},
		{raw: "ftp://host/file.csv", wantErr: true},
		{raw: "file://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseLocation(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocationString(t *testing.T) {
	loc, err := ParseLocation("s3://raw/a/b.csv")
	require.NoError(t, err)
	assert.Equal(t, "s3://raw/a/b.csv", loc.String())
	assert.True(t, IsRemote("gs://x/y"))
	assert.False(t, IsRemote("y.csv"))
	assert.False(t, IsRemote("ftp://x/y"))
}

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := New(Config{}, WithLogger(zaptest.NewLogger(t)))
	path := filepath.Join(t.TempDir(), "out.csv")

	w, err := store.Create(ctx, path)
	require.NoError(t, err)
	_, err = io.WriteString(w, "a,b\n1,2\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := store.Open(ctx, "file://"+path)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))
}

func TestMissingLocalFile(t *testing.T) {
	store := New(Config{}, WithLogger(zaptest.NewLogger(t)))
	_, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBackendOverride(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryBackend()
	store := New(Config{}, WithLogger(zaptest.NewLogger(t)), WithBackend(SchemeS3, mem))

	w, err := store.Create(ctx, "s3://lake/clean/people.csv")
	require.NoError(t, err)
	_, err = io.WriteString(w, "x\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, []string{"lake/clean/people.csv"}, mem.Keys())

	r, err := store.Open(ctx, "s3://lake/clean/people.csv")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "x\n", string(data))

	_, err = store.Open(ctx, "s3://lake/absent.csv")
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv", ContentType("a/b.CSV"))
	assert.Equal(t, "application/vnd.apache.parquet", ContentType("b.parquet"))
	assert.Equal(t, "application/zstd", ContentType("b.csv.zst"))
	assert.Equal(t, "application/octet-stream", ContentType("b.lz4"))
}
