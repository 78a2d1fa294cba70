package storage

import (
	"context"
	"io"
	"time"
)

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Bucket      string
	Path        string
	Size        int64
	ContentType string
	Updated     time.Time
}

// Backend defines the interface for object storage operations. A Ref
// sits on top of a Backend and adds navigation, caching, and tasks.
type Backend interface {
	// Bucket returns the bucket name this backend writes into.
	Bucket() string

	// Upload writes data from reader to the given path and returns the
	// stored object's metadata.
	Upload(ctx context.Context, path string, reader io.Reader, contentType string) (*ObjectInfo, error)

	// Download returns a reader for the object at the given path.
	// The caller is responsible for closing the returned ReadCloser.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object at the given path. Deleting a missing
	// object is not an error.
	Delete(ctx context.Context, path string) error

	// Exists checks whether an object exists at the given path.
	Exists(ctx context.Context, path string) (bool, error)

	// Metadata returns the stored object's metadata.
	Metadata(ctx context.Context, path string) (*ObjectInfo, error)

	// URL returns a public URL for accessing the object at the given path.
	URL(ctx context.Context, path string) (string, error)

	// List returns metadata for all objects whose path starts with prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// SignedURLProvider is optionally implemented by backends that support
// generating time-limited signed URLs for private object access.
// Ref.DownloadURL prefers it over Backend.URL when present.
type SignedURLProvider interface {
	// SignedURL returns a pre-signed URL valid for the specified duration.
	SignedURL(ctx context.Context, path string, expiry time.Duration) (string, error)
}
