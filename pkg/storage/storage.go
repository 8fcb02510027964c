// Package storage resolves input and output locations to readers and
// writers. Plain paths are local files; s3://bucket/key and gs://bucket/key
// are objects in Amazon S3 and Google Cloud Storage.
//
// # Basic Usage
//
//	store := storage.New(storage.Config{S3Region: "eu-west-1"})
//	r, err := store.Open(ctx, "s3://raw/people.csv.gz")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
// Cloud clients are created on first use with the default credential chain
// of each SDK, so runs that only touch local files never contact a cloud.
package storage

import (
	"context"
	"io"
	"path"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/viswalis/viswalis/pkg/errors"
	"github.com/viswalis/viswalis/pkg/logger"
)

// Supported location schemes
const (
	SchemeFile = "file"
	SchemeS3   = "s3"
	SchemeGCS  = "gs"
)

// Location is a parsed input or output address
type Location struct {
	Scheme string
	// Bucket is empty for local files
	Bucket string
	// Key is the object key, or the file path for local files
	Key string
}

// ParseLocation splits raw into scheme, bucket and key. Anything without a
// scheme is a local path.
func ParseLocation(raw string) (Location, error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return Location{Scheme: SchemeFile, Key: raw}, nil
	}

	scheme = strings.ToLower(scheme)
	switch scheme {
	case SchemeFile:
		if rest == "" {
			return Location{}, errors.Newf(errors.ErrorTypeConfig, "empty file location %q", raw)
		}
		return Location{Scheme: SchemeFile, Key: rest}, nil
	case SchemeS3, SchemeGCS:
		bucket, key, _ := strings.Cut(rest, "/")
		if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
			return Location{}, errors.Newf(errors.ErrorTypeConfig, "location %q must name a bucket and an object key", raw)
		}
		return Location{Scheme: scheme, Bucket: bucket, Key: key}, nil
	default:
		return Location{}, errors.Newf(errors.ErrorTypeConfig, "unsupported location scheme %q", scheme).
			WithDetail("supported", []string{SchemeFile, SchemeS3, SchemeGCS})
	}
}

// String formats the location back into its URL form
func (l Location) String() string {
	if l.Scheme == SchemeFile {
		return l.Key
	}
	return l.Scheme + "://" + l.Bucket + "/" + l.Key
}

// IsRemote reports whether raw names an object store location
func IsRemote(raw string) bool {
	loc, err := ParseLocation(raw)
	return err == nil && loc.Scheme != SchemeFile
}

// Backend reads and writes objects of one scheme
type Backend interface {
	NewReader(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	// NewWriter returns a writer whose Close commits the object
	NewWriter(ctx context.Context, bucket, key string) (io.WriteCloser, error)
}

// Config holds object store client settings
type Config struct {
	S3Region string
	// S3Endpoint overrides the service endpoint, e.g. for MinIO
	S3Endpoint    string
	S3PathStyle   bool
	S3PartSize    int64
	S3Concurrency int

	// GCSCredentialsFile is a service account key; empty uses the
	// application default credentials
	GCSCredentialsFile string
}

type factory func(ctx context.Context, cfg Config) (Backend, error)

// Store routes locations to backends
type Store struct {
	cfg       Config
	logger    *zap.Logger
	mu        sync.Mutex
	backends  map[string]Backend
	factories map[string]factory
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithBackend serves scheme from b instead of the built-in client
func WithBackend(scheme string, b Backend) Option {
	return func(s *Store) { s.backends[scheme] = b }
}

// New creates a Store
func New(cfg Config, opts ...Option) *Store {
	s := &Store{
		cfg:      cfg,
		backends: map[string]Backend{SchemeFile: localBackend{}},
		factories: map[string]factory{
			SchemeS3:  newS3Backend,
			SchemeGCS: newGCSBackend,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	return s
}

func (s *Store) backend(ctx context.Context, scheme string) (Backend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.backends[scheme]; ok {
		return b, nil
	}
	create, ok := s.factories[scheme]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeConfig, "no backend for scheme %q", scheme)
	}
	b, err := create(ctx, s.cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to initialize object store client").
			WithDetail("scheme", scheme)
	}
	s.logger.Debug("object store client initialized", zap.String("scheme", scheme))
	s.backends[scheme] = b
	return b, nil
}

// Open opens raw for reading
func (s *Store) Open(ctx context.Context, raw string) (io.ReadCloser, error) {
	loc, err := ParseLocation(raw)
	if err != nil {
		return nil, err
	}
	b, err := s.backend(ctx, loc.Scheme)
	if err != nil {
		return nil, err
	}
	r, err := b.NewReader(ctx, loc.Bucket, loc.Key)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open input").
			WithDetail("location", loc.String())
	}
	return r, nil
}

// Create opens raw for writing. The object exists once Close succeeds.
func (s *Store) Create(ctx context.Context, raw string) (io.WriteCloser, error) {
	loc, err := ParseLocation(raw)
	if err != nil {
		return nil, err
	}
	b, err := s.backend(ctx, loc.Scheme)
	if err != nil {
		return nil, err
	}
	w, err := b.NewWriter(ctx, loc.Bucket, loc.Key)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create output").
			WithDetail("location", loc.String())
	}
	if loc.Scheme != SchemeFile {
		s.logger.Info("writing object", zap.String("location", loc.String()))
	}
	return w, nil
}

var contentTypes = map[string]string{
	".csv":     "text/csv",
	".parquet": "application/vnd.apache.parquet",
	".arrow":   "application/vnd.apache.arrow.file",
	".feather": "application/vnd.apache.arrow.file",
	".avro":    "application/avro",
	".json":    "application/json",
	".jsonl":   "application/jsonl",
	".gz":      "application/gzip",
	".zst":     "application/zstd",
}

// ContentType guesses the MIME type of an object from its key
func ContentType(key string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(key))]; ok {
		return ct
	}
	return "application/octet-stream"
}
