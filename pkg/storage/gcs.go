package storage

import (
	"context"
	"io"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type gcsBackend struct {
	client *gcs.Client
}

func newGCSBackend(ctx context.Context, cfg Config) (Backend, error) {
	var opts []option.ClientOption
	if cfg.GCSCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCSCredentialsFile))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &gcsBackend{client: client}, nil
}

func (b *gcsBackend) NewReader(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	r, err := b.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (b *gcsBackend) NewWriter(ctx context.Context, bucket, key string) (io.WriteCloser, error) {
	w := b.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ContentType = ContentType(key)
	w.Metadata = map[string]string{
		"created": time.Now().UTC().Format(time.RFC3339),
	}
	return w, nil
}
