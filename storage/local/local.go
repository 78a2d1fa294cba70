// Package local implements storage.Backend on the local filesystem.
// Objects live under basePath/bucket/; it is intended for development
// and tests.
package local

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/kbukum/firekit/errors"
	"github.com/kbukum/firekit/logger"
	"github.com/kbukum/firekit/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderLocal, func(cfg storage.Config, log *logger.Logger) (storage.Backend, error) {
		c := &Config{BasePath: cfg.BasePath, Bucket: cfg.Bucket}
		c.ApplyDefaults()
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return NewBackend(c)
	})
}

// Backend implements storage.Backend using the local filesystem.
type Backend struct {
	basePath string
	bucket   string
}

// NewBackend creates a filesystem backend rooted at cfg.BasePath/cfg.Bucket.
func NewBackend(cfg *Config) (*Backend, error) {
	abs, err := filepath.Abs(filepath.Join(cfg.BasePath, cfg.Bucket))
	if err != nil {
		return nil, fmt.Errorf("local: resolve base path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("local: create base directory: %w", err)
	}
	return &Backend{basePath: abs, bucket: cfg.Bucket}, nil
}

// Bucket returns the logical bucket name.
func (b *Backend) Bucket() string { return b.bucket }

// Upload writes data from reader to a local file.
func (b *Backend) Upload(_ context.Context, path string, reader io.Reader, _ string) (*storage.ObjectInfo, error) {
	fullPath := filepath.Join(b.basePath, filepath.Clean(path))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return nil, fmt.Errorf("local: create directory: %w", err)
	}

	f, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("local: create file: %w", err)
	}

	if _, err := io.Copy(f, reader); err != nil {
		f.Close()
		os.Remove(fullPath)
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("local: close file: %w", err)
	}
	return b.stat(path, fullPath)
}

// Download returns a reader for the local file at the given path.
func (b *Backend) Download(_ context.Context, path string) (io.ReadCloser, error) {
	fullPath := filepath.Join(b.basePath, filepath.Clean(path))
	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.ObjectNotFound(path)
		}
		return nil, fmt.Errorf("local: open file: %w", err)
	}
	return f, nil
}

// Delete removes a local file. Returns nil if the file does not exist.
func (b *Backend) Delete(_ context.Context, path string) error {
	fullPath := filepath.Join(b.basePath, filepath.Clean(path))
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("local: delete file: %w", err)
	}
	return nil
}

// Exists checks whether a local file exists.
func (b *Backend) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(filepath.Join(b.basePath, filepath.Clean(path)))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("local: stat file: %w", err)
	}
	return true, nil
}

// Metadata returns the local file's metadata.
func (b *Backend) Metadata(_ context.Context, path string) (*storage.ObjectInfo, error) {
	return b.stat(path, filepath.Join(b.basePath, filepath.Clean(path)))
}

// URL returns a file:// URL for the local file.
func (b *Backend) URL(_ context.Context, path string) (string, error) {
	u := &url.URL{Scheme: "file", Path: filepath.Join(b.basePath, filepath.Clean(path))}
	return u.String(), nil
}

// List returns metadata for all files whose relative path starts with prefix.
func (b *Backend) List(_ context.Context, prefix string) ([]storage.ObjectInfo, error) {
	var files []storage.ObjectInfo

	err := filepath.Walk(b.basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		relPath, err := filepath.Rel(b.basePath, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)
		if strings.HasPrefix(relPath, prefix) {
			files = append(files, storage.ObjectInfo{
				Bucket:      b.bucket,
				Path:        relPath,
				Size:        info.Size(),
				Updated:     info.ModTime(),
				ContentType: contentTypeFor(path),
			})
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return []storage.ObjectInfo{}, nil
		}
		return nil, fmt.Errorf("local: list files: %w", err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

func (b *Backend) stat(path, fullPath string) (*storage.ObjectInfo, error) {
	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.ObjectNotFound(path)
		}
		return nil, fmt.Errorf("local: stat file: %w", err)
	}
	return &storage.ObjectInfo{
		Bucket:      b.bucket,
		Path:        strings.Trim(filepath.ToSlash(path), "/"),
		Size:        info.Size(),
		Updated:     info.ModTime(),
		ContentType: contentTypeFor(fullPath),
	}, nil
}

func contentTypeFor(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// compile-time check
var _ storage.Backend = (*Backend)(nil)
