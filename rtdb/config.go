package rtdb

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/firekit/auth"
)

// Default configuration values.
const (
	DefaultTimeout          = 30 * time.Second
	DefaultStreamBackoffMin = 500 * time.Millisecond
	DefaultStreamBackoffMax = 30 * time.Second
)

// Config holds realtime database client configuration.
type Config struct {
	// URL is the database base URL, e.g. "https://demo.firebaseio.example".
	URL string `mapstructure:"url" json:"url"`

	// AuthToken is sent as the `auth` query parameter on every request.
	// Mint one with the auth package, or leave empty for open rules.
	AuthToken string `mapstructure:"auth_token" json:"auth_token"`

	// TokenProvider resolves the auth token per request and takes
	// precedence over AuthToken. Use auth.Minter.TokenProviderFor so
	// short-lived tokens are re-minted instead of expiring mid-session.
	TokenProvider auth.TokenProvider `mapstructure:"-" json:"-"`

	// Timeout bounds non-streaming requests.
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`

	// StreamBackoffMin is the initial reconnect delay for the event stream.
	StreamBackoffMin time.Duration `mapstructure:"stream_backoff_min" json:"stream_backoff_min"`

	// StreamBackoffMax caps the reconnect delay for the event stream.
	StreamBackoffMax time.Duration `mapstructure:"stream_backoff_max" json:"stream_backoff_max"`

	// Enabled controls whether the database component is active.
	Enabled bool `mapstructure:"enabled" json:"enabled"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.StreamBackoffMin <= 0 {
		c.StreamBackoffMin = DefaultStreamBackoffMin
	}
	if c.StreamBackoffMax <= 0 {
		c.StreamBackoffMax = DefaultStreamBackoffMax
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.New("rtdb: url is required")
	}
	if !strings.HasPrefix(c.URL, "https://") && !strings.HasPrefix(c.URL, "http://") {
		return fmt.Errorf("rtdb: url must be http(s), got %q", c.URL)
	}
	if c.StreamBackoffMin > c.StreamBackoffMax {
		return errors.New("rtdb: stream_backoff_min must not exceed stream_backoff_max")
	}
	return nil
}
