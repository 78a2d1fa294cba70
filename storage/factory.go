package storage

import (
	"fmt"

	"github.com/kbukum/firekit/logger"
)

// BackendFactory creates a Backend from the storage configuration.
type BackendFactory func(cfg Config, log *logger.Logger) (Backend, error)

var factories = make(map[string]BackendFactory)

// RegisterFactory registers a storage backend factory for the given
// provider name. Implementation packages call this in an init function
// to make themselves available to the New constructor.
func RegisterFactory(name string, f BackendFactory) {
	factories[name] = f
}

// New creates a Backend based on the given Config. The provider field
// determines which backend is used. Ensure the desired provider package
// has been imported (e.g. _ "github.com/kbukum/firekit/storage/local")
// so its factory is registered.
func New(cfg Config, log *logger.Logger) (Backend, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := log.WithComponent("storage")

	f, ok := factories[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("storage: unsupported provider %q (not registered)", cfg.Provider)
	}

	l.Info("initializing storage", logger.Fields(
		logger.FieldProvider, cfg.Provider,
		logger.FieldBucket, cfg.Bucket,
	))
	return f(cfg, l)
}
