package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	apperrors "github.com/kbukum/firekit/errors"
)

// TokenProvider supplies the auth token a database client sends with
// each request.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Static is a TokenProvider returning a fixed token, typically the
// database secret itself or a pre-minted token.
type Static string

// Token returns the fixed token.
func (s Static) Token(_ context.Context) (string, error) { return string(s), nil }

// Claims is the payload of a database auth token. The identity and any
// extra attributes live under Data ("d"), which security rules read.
type Claims struct {
	gojwt.RegisteredClaims
	// Version is the token format version, always 0.
	Version int `json:"v"`
	// Data carries the authenticated identity; "uid" is required.
	Data map[string]any `json:"d"`
	// Admin grants full read/write access, bypassing rules.
	Admin bool `json:"admin,omitempty"`
	// Debug enables verbose rule evaluation output.
	Debug bool `json:"debug,omitempty"`
}

// UID returns the authenticated user id from the Data claim.
func (c *Claims) UID() string {
	uid, _ := c.Data["uid"].(string)
	return uid
}

// MintOption customizes a minted token.
type MintOption func(*Claims)

// WithAdmin marks the token as an admin token.
func WithAdmin() MintOption {
	return func(c *Claims) { c.Admin = true }
}

// WithDebug enables rule debugging for the token.
func WithDebug() MintOption {
	return func(c *Claims) { c.Debug = true }
}

// WithTTL overrides the configured token lifetime.
func WithTTL(ttl time.Duration) MintOption {
	return func(c *Claims) {
		c.ExpiresAt = gojwt.NewNumericDate(time.Now().Add(ttl))
	}
}

// Minter issues and verifies database auth tokens.
type Minter struct {
	cfg Config
}

// NewMinter creates a Minter from the given config.
func NewMinter(cfg Config) (*Minter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Minter{cfg: cfg}, nil
}

// Mint signs a token for uid. Extra data fields become available to
// security rules alongside the uid.
func (m *Minter) Mint(uid string, data map[string]any, opts ...MintOption) (string, error) {
	if uid == "" {
		return "", apperrors.MissingField("uid")
	}

	now := time.Now()
	claims := &Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(m.cfg.TokenTTL)),
		},
		Version: 0,
		Data:    map[string]any{"uid": uid},
	}
	for k, v := range data {
		claims.Data[k] = v
	}
	for _, opt := range opts {
		opt(claims)
	}

	token := gojwt.NewWithClaims(m.cfg.signingMethod(), claims)
	signed, err := token.SignedString([]byte(m.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify validates a token's signature and expiry and returns its claims.
func (m *Minter) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := gojwt.ParseWithClaims(tokenString, claims, m.keyFunc, m.parserOptions()...)
	if err != nil {
		if appErr := classifyParseError(err); appErr != nil {
			return nil, appErr
		}
		return nil, fmt.Errorf("auth: parse token: %w", err)
	}
	if !token.Valid {
		return nil, apperrors.Unauthorized("invalid token")
	}
	return claims, nil
}

// TokenProviderFor returns a provider that mints a fresh token for uid
// on every call.
func (m *Minter) TokenProviderFor(uid string, data map[string]any, opts ...MintOption) TokenProvider {
	return tokenProviderFunc(func(_ context.Context) (string, error) {
		return m.Mint(uid, data, opts...)
	})
}

type tokenProviderFunc func(ctx context.Context) (string, error)

func (f tokenProviderFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// keyFunc is the jwt.Keyfunc used during token parsing.
func (m *Minter) keyFunc(token *gojwt.Token) (interface{}, error) {
	expected := m.cfg.signingMethod()
	if token.Method.Alg() != expected.Alg() {
		return nil, fmt.Errorf("auth: unexpected signing method: %s", token.Method.Alg())
	}
	return []byte(m.cfg.Secret), nil
}

func (m *Minter) parserOptions() []gojwt.ParserOption {
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{m.cfg.signingMethod().Alg()}),
	}
	if m.cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(m.cfg.Issuer))
	}
	return opts
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, gojwt.ErrTokenExpired):
		return apperrors.TokenExpired()
	case errors.Is(err, gojwt.ErrTokenSignatureInvalid):
		return apperrors.Unauthorized("invalid token signature")
	}
	return nil
}
