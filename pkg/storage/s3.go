package storage

import (
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	defaultUploadPartSize = 5 * 1024 * 1024 // 5MB
	defaultMaxConcurrency = 4
)

type s3Backend struct {
	client   *s3.Client
	uploader *manager.Uploader
}

func newS3Backend(ctx context.Context, cfg Config) (Backend, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.S3Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = cfg.S3PathStyle
	})

	partSize := cfg.S3PartSize
	if partSize <= 0 {
		partSize = defaultUploadPartSize
	}
	concurrency := cfg.S3Concurrency
	if concurrency <= 0 {
		concurrency = defaultMaxConcurrency
	}
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = partSize
		u.Concurrency = concurrency
	})

	return &s3Backend{client: client, uploader: uploader}, nil
}

func (b *s3Backend) NewReader(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

// NewWriter streams into a multipart upload through a pipe
func (b *s3Backend) NewWriter(ctx context.Context, bucket, key string) (io.WriteCloser, error) {
	pr, pw := io.Pipe()
	w := &uploadWriter{pw: pw, done: make(chan error, 1)}

	go func() {
		_, err := b.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(bucket),
			Key:         aws.String(key),
			Body:        pr,
			ContentType: aws.String(ContentType(key)),
			Metadata: map[string]string{
				"created": time.Now().UTC().Format(time.RFC3339),
			},
		})
		// unblocks the writer if the upload stopped early
		pr.CloseWithError(err)
		w.done <- err
	}()

	return w, nil
}

type uploadWriter struct {
	pw   *io.PipeWriter
	done chan error
}

func (w *uploadWriter) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

// Close ends the body and waits for the upload to complete
func (w *uploadWriter) Close() error {
	_ = w.pw.Close()
	return <-w.done
}
