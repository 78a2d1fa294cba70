package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	apperrors "github.com/kbukum/firekit/errors"
)

// memBackend implements Backend in memory for testing.
type memBackend struct {
	mu     sync.Mutex
	bucket string
	data   map[string][]byte
	types  map[string]string
	failOn string // method name to fail on
	signed bool   // implement SignedURLProvider behavior via signedBackend
}

func newMemBackend(bucket string) *memBackend {
	return &memBackend{
		bucket: bucket,
		data:   make(map[string][]byte),
		types:  make(map[string]string),
	}
}

func (m *memBackend) Bucket() string { return m.bucket }

func (m *memBackend) Upload(_ context.Context, path string, reader io.Reader, contentType string) (*ObjectInfo, error) {
	if m.failOn == "upload" {
		return nil, fmt.Errorf("mock upload error")
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.data[path] = data
	m.types[path] = contentType
	m.mu.Unlock()
	return m.info(path)
}

func (m *memBackend) Download(_ context.Context, path string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[path]
	if !ok {
		return nil, apperrors.ObjectNotFound(path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memBackend) Delete(_ context.Context, path string) error {
	if m.failOn == "delete" {
		return fmt.Errorf("mock delete error")
	}
	m.mu.Lock()
	delete(m.data, path)
	m.mu.Unlock()
	return nil
}

func (m *memBackend) Exists(_ context.Context, path string) (bool, error) {
	if m.failOn == "exists" {
		return false, fmt.Errorf("mock exists error")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[path]
	return ok, nil
}

func (m *memBackend) Metadata(_ context.Context, path string) (*ObjectInfo, error) {
	if m.failOn == "metadata" {
		return nil, fmt.Errorf("mock metadata error")
	}
	return m.info(path)
}

func (m *memBackend) URL(_ context.Context, path string) (string, error) {
	return fmt.Sprintf("https://storage.example.test/%s/%s", m.bucket, path), nil
}

func (m *memBackend) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ObjectInfo
	for p, d := range m.data {
		if len(p) >= len(prefix) && p[:len(prefix)] == prefix {
			out = append(out, ObjectInfo{Bucket: m.bucket, Path: p, Size: int64(len(d))})
		}
	}
	return out, nil
}

func (m *memBackend) info(path string) (*ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[path]
	if !ok {
		return nil, apperrors.ObjectNotFound(path)
	}
	return &ObjectInfo{
		Bucket:      m.bucket,
		Path:        path,
		Size:        int64(len(data)),
		ContentType: m.types[path],
		Updated:     time.Now(),
	}, nil
}

// signedBackend adds SignedURLProvider on top of memBackend.
type signedBackend struct {
	*memBackend
}

func (s *signedBackend) SignedURL(_ context.Context, path string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("https://storage.example.test/%s/%s?sig=abc&ttl=%d", s.bucket, path, int(expiry.Seconds())), nil
}

// chunkReader feeds fixed chunks, optionally gated so tests can hold
// the upload mid-transfer.
type chunkReader struct {
	chunks [][]byte
	idx    int
	gate   chan struct{} // receive one token per chunk when non-nil
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.idx >= len(r.chunks) {
		return 0, io.EOF
	}
	if r.gate != nil {
		<-r.gate
	}
	n := copy(p, r.chunks[r.idx])
	r.idx++
	return n, nil
}
