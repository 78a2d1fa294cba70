package rtdb

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	apperrors "github.com/kbukum/firekit/errors"
	"github.com/kbukum/firekit/httpclient"
	"github.com/kbukum/firekit/logger"
	"github.com/kbukum/firekit/observability"
)

// Client talks to one realtime database instance.
type Client struct {
	http *httpclient.Client
	cfg  Config
	log  *logger.Logger
}

// NewClient creates a database client from the given config.
func NewClient(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var authCfg *httpclient.AuthConfig
	switch {
	case cfg.TokenProvider != nil:
		authCfg = httpclient.QueryTokenSource(cfg.TokenProvider.Token)
	case cfg.AuthToken != "":
		authCfg = httpclient.QueryTokenAuth(cfg.AuthToken)
	}

	hc, err := httpclient.New(httpclient.Config{
		BaseURL: strings.TrimRight(cfg.URL, "/"),
		Timeout: cfg.Timeout,
		Auth:    authCfg,
		Retry:   httpclient.DefaultRetryConfig(),
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		http: hc,
		cfg:  cfg,
		log:  logger.WithComponent("rtdb"),
	}, nil
}

// Ref returns a reference to the node at path.
func (c *Client) Ref(path string) *Ref {
	return &Ref{client: c, path: normalizePath(path)}
}

// get fetches the JSON value at path with the given query parameters.
func (c *Client) get(ctx context.Context, path string, query map[string]string) (any, error) {
	resp, err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   jsonPath(path),
		Query:  query,
	})
	if err != nil {
		return nil, err
	}

	var value any
	if err := json.Unmarshal(resp.Body, &value); err != nil {
		return nil, apperrors.QueryFailed(path, err)
	}
	return value, nil
}

// write sends value to path with the given HTTP method and decodes the
// server's echo of the written value (or the generated name for POST).
func (c *Client) write(ctx context.Context, method, path string, value any) (any, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanWrite)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrPath, path)

	resp, err := c.http.Do(ctx, httpclient.Request{
		Method: method,
		Path:   jsonPath(path),
		Body:   value,
	})
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}

	var echoed any
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &echoed); err != nil {
			return nil, apperrors.QueryFailed(path, err)
		}
	}
	return echoed, nil
}

// delete removes the value at path.
func (c *Client) delete(ctx context.Context, path string) error {
	_, err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodDelete,
		Path:   jsonPath(path),
	})
	return err
}

// stream opens the SSE event stream for path with the given query
// parameters. The caller owns the returned stream.
func (c *Client) stream(ctx context.Context, path string, query map[string]string) (*httpclient.StreamResponse, error) {
	return c.http.DoStream(ctx, httpclient.Request{
		Method:  http.MethodGet,
		Path:    jsonPath(path),
		Query:   query,
		Headers: map[string]string{"Accept": "text/event-stream"},
	})
}

// jsonPath maps a database path to its REST endpoint.
func jsonPath(path string) string {
	p := strings.Trim(path, "/")
	if p == "" {
		return "/.json"
	}
	return "/" + p + ".json"
}

// normalizePath strips leading/trailing slashes and collapses empties.
func normalizePath(path string) string {
	parts := strings.Split(path, "/")
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}
