package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"sort"
	"sync"
)

// MemoryBackend keeps objects in memory. It stands in for a cloud store in
// tests and dry runs.
type MemoryBackend struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryBackend creates an empty MemoryBackend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{objects: make(map[string][]byte)}
}

func memoryKey(bucket, key string) string {
	return bucket + "/" + key
}

// Put stores data under bucket/key
func (m *MemoryBackend) Put(bucket, key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[memoryKey(bucket, key)] = append([]byte(nil), data...)
}

// Get returns the object at bucket/key
func (m *MemoryBackend) Get(bucket, key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[memoryKey(bucket, key)]
	return data, ok
}

// Keys lists stored objects as bucket/key, sorted
func (m *MemoryBackend) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *MemoryBackend) NewReader(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	data, ok := m.Get(bucket, key)
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryBackend) NewWriter(_ context.Context, bucket, key string) (io.WriteCloser, error) {
	return &memoryWriter{backend: m, bucket: bucket, key: key}, nil
}

type memoryWriter struct {
	backend     *MemoryBackend
	bucket, key string
	buf         bytes.Buffer
}

func (w *memoryWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *memoryWriter) Close() error {
	w.backend.Put(w.bucket, w.key, w.buf.Bytes())
	return nil
}
