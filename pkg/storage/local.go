package storage

import (
	"context"
	"io"
	"os"
)

type localBackend struct{}

func (localBackend) NewReader(_ context.Context, _, key string) (io.ReadCloser, error) {
	f, err := os.Open(key)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (localBackend) NewWriter(_ context.Context, _, key string) (io.WriteCloser, error) {
	f, err := os.Create(key)
	if err != nil {
		return nil, err
	}
	return f, nil
}
