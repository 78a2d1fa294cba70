package httpclient

import (
	"context"
	"net/http"

	apperrors "github.com/kbukum/firekit/errors"
)

// AuthType identifies the authentication method.
type AuthType int

const (
	// AuthNone disables authentication.
	AuthNone AuthType = iota
	// AuthBearer uses Bearer token authentication.
	AuthBearer
	// AuthQueryToken appends the token as a query parameter, the way
	// the realtime database REST API expects (`auth=<token>`).
	AuthQueryToken
	// AuthCustom uses a custom authentication function.
	AuthCustom
)

// TokenSource resolves an auth token per request. Use it when tokens
// are short-lived and minted on demand rather than fixed for the
// client's lifetime.
type TokenSource func(ctx context.Context) (string, error)

// AuthConfig configures request authentication.
type AuthConfig struct {
	// Type is the authentication method.
	Type AuthType
	// Token is a fixed token value (AuthBearer, AuthQueryToken).
	Token string
	// Source resolves the token per request and takes precedence over
	// Token (AuthBearer, AuthQueryToken).
	Source TokenSource
	// Param is the query parameter name (AuthQueryToken). Defaults to "auth".
	Param string
	// Apply is a custom function to modify the request (AuthCustom).
	Apply func(*http.Request)
}

// BearerAuth creates a bearer token auth config.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, Token: token}
}

// QueryTokenAuth creates an auth config that sends the token as the
// "auth" query parameter.
func QueryTokenAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthQueryToken, Token: token, Param: "auth"}
}

// QueryTokenSource creates an auth config that resolves a fresh token
// for every request and sends it as the "auth" query parameter.
func QueryTokenSource(source TokenSource) *AuthConfig {
	return &AuthConfig{Type: AuthQueryToken, Source: source, Param: "auth"}
}

// CustomAuth creates a custom auth config with a request modifier function.
func CustomAuth(fn func(*http.Request)) *AuthConfig {
	return &AuthConfig{Type: AuthCustom, Apply: fn}
}

// apply applies authentication to an HTTP request.
func (a *AuthConfig) apply(ctx context.Context, req *http.Request) error {
	if a == nil {
		return nil
	}

	token := a.Token
	if a.Source != nil {
		resolved, err := a.Source(ctx)
		if err != nil {
			return apperrors.Unauthorized("resolving auth token").WithCause(err)
		}
		token = resolved
	}

	switch a.Type {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+token)
	case AuthQueryToken:
		param := a.Param
		if param == "" {
			param = "auth"
		}
		q := req.URL.Query()
		q.Set(param, token)
		req.URL.RawQuery = q.Encode()
	case AuthCustom:
		if a.Apply != nil {
			a.Apply(req)
		}
	}
	return nil
}
