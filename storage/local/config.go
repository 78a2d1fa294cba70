package local

import "errors"

// Config holds local-filesystem storage configuration.
type Config struct {
	// BasePath is the directory objects are stored under. The bucket
	// name becomes a subdirectory of it.
	BasePath string `mapstructure:"base_path" json:"base_path"`

	// Bucket is the logical bucket name used in URIs.
	Bucket string `mapstructure:"bucket" json:"bucket"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/tmp/storage"
	}
}

// Validate checks that the local configuration is valid.
func (c *Config) Validate() error {
	if c.BasePath == "" {
		return errors.New("local: base_path is required")
	}
	if c.Bucket == "" {
		return errors.New("local: bucket is required")
	}
	return nil
}
