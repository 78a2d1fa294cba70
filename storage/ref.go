package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"sync"

	apperrors "github.com/kbukum/firekit/errors"
	"github.com/kbukum/firekit/observability"
)

// StringFormat selects how PutString decodes its input.
type StringFormat string

const (
	// FormatRaw uploads the string bytes as-is.
	FormatRaw StringFormat = "raw"
	// FormatBase64 decodes standard base64 before uploading.
	FormatBase64 StringFormat = "base64"
)

// Ref names one object in a bucket. It lazily resolves and caches the
// object's metadata and download URL; Reset drops both caches so the
// next access re-fetches.
type Ref struct {
	backend Backend
	cfg     Config
	path    string

	mu        sync.Mutex
	meta      *ObjectInfo
	cachedURL string
}

// NewRef creates a reference to the object at path.
func NewRef(backend Backend, cfg Config, objectPath string) *Ref {
	cfg.ApplyDefaults()
	return &Ref{
		backend: backend,
		cfg:     cfg,
		path:    strings.Trim(objectPath, "/"),
	}
}

// Path returns the object path within the bucket.
func (r *Ref) Path() string { return r.path }

// Name returns the last path segment.
func (r *Ref) Name() string { return path.Base(r.path) }

// Bucket returns the bucket name.
func (r *Ref) Bucket() string { return r.cfg.Bucket }

// Child returns a reference to a descendant object path.
func (r *Ref) Child(sub string) *Ref {
	sub = strings.Trim(sub, "/")
	joined := sub
	if r.path != "" && sub != "" {
		joined = r.path + "/" + sub
	} else if sub == "" {
		joined = r.path
	}
	return NewRef(r.backend, r.cfg, joined)
}

// Parent returns the parent reference, or nil at the bucket root.
func (r *Ref) Parent() *Ref {
	if r.path == "" {
		return nil
	}
	dir := path.Dir(r.path)
	if dir == "." {
		dir = ""
	}
	return NewRef(r.backend, r.cfg, dir)
}

// GsURI returns the gs://bucket/path URI for this object.
func (r *Ref) GsURI() string {
	return fmt.Sprintf("gs://%s/%s", r.cfg.Bucket, r.path)
}

// Metadata returns the object's metadata, fetching it on first access
// and serving the cached copy afterwards.
func (r *Ref) Metadata(ctx context.Context) (*ObjectInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.meta != nil {
		return r.meta, nil
	}
	info, err := r.backend.Metadata(ctx, r.path)
	if err != nil {
		return nil, err
	}
	r.meta = info
	return info, nil
}

// DownloadURL returns a URL for fetching the object. Backends that can
// sign URLs produce a time-limited one; others return their public URL.
// The result is cached until Reset.
func (r *Ref) DownloadURL(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cachedURL != "" {
		return r.cachedURL, nil
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanDownloadURL)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrObject, r.path)

	exists, err := r.backend.Exists(ctx, r.path)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", apperrors.ObjectNotFound(r.path)
	}

	var u string
	if signer, ok := r.backend.(SignedURLProvider); ok {
		u, err = signer.SignedURL(ctx, r.path, r.cfg.SignedExpiry)
	} else {
		u, err = r.backend.URL(ctx, r.path)
	}
	if err != nil {
		return "", err
	}
	r.cachedURL = u
	return u, nil
}

// Put starts uploading the reader's content to this reference and
// returns the running task. A non-positive size means unknown; progress
// then reports only transferred bytes.
func (r *Ref) Put(ctx context.Context, reader io.Reader, size int64, contentType string) *UploadTask {
	if contentType == "" {
		contentType = r.guessContentType()
	}
	task := newUploadTask(r, reader, size, contentType)
	task.start(ctx)
	return task
}

// PutBytes uploads a byte slice.
func (r *Ref) PutBytes(ctx context.Context, data []byte, contentType string) *UploadTask {
	return r.Put(ctx, bytes.NewReader(data), int64(len(data)), contentType)
}

// PutString uploads string content in the given format.
func (r *Ref) PutString(ctx context.Context, data string, format StringFormat, contentType string) (*UploadTask, error) {
	var payload []byte
	switch format {
	case FormatRaw, "":
		payload = []byte(data)
	case FormatBase64:
		decoded, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, apperrors.InvalidFormat("data", "not valid base64")
		}
		payload = decoded
	default:
		return nil, apperrors.InvalidInput("format", fmt.Sprintf("unsupported string format %q", format))
	}
	return r.PutBytes(ctx, payload, contentType), nil
}

// Download returns a reader for the object's content.
func (r *Ref) Download(ctx context.Context) (io.ReadCloser, error) {
	return r.backend.Download(ctx, r.path)
}

// Delete removes the object and drops the local caches.
func (r *Ref) Delete(ctx context.Context) error {
	exists, err := r.backend.Exists(ctx, r.path)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.ObjectNotFound(r.path)
	}
	if err := r.backend.Delete(ctx, r.path); err != nil {
		return err
	}
	r.Reset()
	return nil
}

// Reset drops the cached metadata and download URL. The remote object
// is untouched.
func (r *Ref) Reset() {
	r.mu.Lock()
	r.meta = nil
	r.cachedURL = ""
	r.mu.Unlock()
}

// invalidate is called after a successful upload so the next metadata
// read sees the new object.
func (r *Ref) invalidate(info *ObjectInfo) {
	r.mu.Lock()
	r.meta = info
	r.cachedURL = ""
	r.mu.Unlock()
}

func (r *Ref) guessContentType() string {
	if ct := mime.TypeByExtension(path.Ext(r.path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
