package storage

import (
	"errors"
	"fmt"
	"time"
)

// Provider constants for supported storage backends.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

// Default configuration values.
const (
	DefaultProvider      = ProviderLocal
	DefaultBasePath      = "/tmp/storage"
	DefaultRegion        = "us-east-1"
	DefaultMaxObjectSize = int64(100 * 1024 * 1024) // 100 MB
	DefaultSignedExpiry  = 15 * time.Minute
)

// Config holds storage configuration.
type Config struct {
	// Provider selects the storage backend: "local" or "s3".
	Provider string `mapstructure:"provider" json:"provider"`

	// Bucket names the bucket; it appears in gs:// URIs and object URLs.
	Bucket string `mapstructure:"bucket" json:"bucket"`

	// BasePath is the root directory for local storage.
	BasePath string `mapstructure:"base_path" json:"base_path"`

	// Region is the AWS region for S3.
	Region string `mapstructure:"region" json:"region"`

	// Endpoint is a custom S3-compatible endpoint (e.g. MinIO).
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`

	// AccessKey is the AWS access key ID.
	AccessKey string `mapstructure:"access_key" json:"access_key"`

	// SecretKey is the AWS secret access key.
	SecretKey string `mapstructure:"secret_key" json:"secret_key"`

	// MaxObjectSize is the maximum allowed upload size in bytes. Upload
	// tasks fail once they cross it.
	MaxObjectSize int64 `mapstructure:"max_object_size" json:"max_object_size"`

	// SignedExpiry is how long generated download URLs stay valid on
	// backends that sign them.
	SignedExpiry time.Duration `mapstructure:"signed_expiry" json:"signed_expiry"`

	// Enabled controls whether the storage component is active.
	Enabled bool `mapstructure:"enabled" json:"enabled"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.MaxObjectSize <= 0 {
		c.MaxObjectSize = DefaultMaxObjectSize
	}
	if c.SignedExpiry <= 0 {
		c.SignedExpiry = DefaultSignedExpiry
	}
}

// Validate checks that the configuration is valid for the selected provider.
func (c *Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("storage: bucket is required")
	}
	switch c.Provider {
	case ProviderLocal:
		if c.BasePath == "" {
			return errors.New("storage: base_path is required for local provider")
		}
	case ProviderS3:
		if c.Region == "" {
			return errors.New("storage: region is required for s3 provider")
		}
	default:
		return fmt.Errorf("storage: unsupported provider %q", c.Provider)
	}
	return nil
}
