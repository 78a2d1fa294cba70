package auth

import (
	"errors"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// SigningMethod defines supported token signing algorithms. Database
// tokens are HMAC-signed with the database secret.
type SigningMethod string

const (
	HS256 SigningMethod = "HS256"
	HS384 SigningMethod = "HS384"
	HS512 SigningMethod = "HS512"
)

// Default configuration values.
const (
	DefaultMethod   = HS256
	DefaultTokenTTL = time.Hour
)

// Config configures a token Minter.
type Config struct {
	// Secret is the database secret used as the HMAC signing key.
	Secret string `mapstructure:"secret" json:"secret"`

	// Method is the signing algorithm (default: HS256).
	Method SigningMethod `mapstructure:"method" json:"method"`

	// Issuer is the "iss" claim (optional).
	Issuer string `mapstructure:"issuer" json:"issuer"`

	// TokenTTL is the lifetime of minted tokens (default: 1h).
	TokenTTL time.Duration `mapstructure:"token_ttl" json:"token_ttl"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Method == "" {
		c.Method = DefaultMethod
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = DefaultTokenTTL
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Secret == "" {
		return errors.New("auth: secret is required")
	}
	switch c.Method {
	case HS256, HS384, HS512:
	default:
		return errors.New("auth: unsupported signing method: " + string(c.Method))
	}
	return nil
}

// signingMethod returns the golang-jwt SigningMethod instance.
func (c *Config) signingMethod() gojwt.SigningMethod {
	switch c.Method {
	case HS384:
		return gojwt.SigningMethodHS384
	case HS512:
		return gojwt.SigningMethodHS512
	default:
		return gojwt.SigningMethodHS256
	}
}
