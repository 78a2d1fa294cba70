// Package httpclient provides the configured HTTP transport used by the
// realtime database client: auth, TLS, default headers, retry for
// idempotent reads, an optional circuit breaker, and streaming support
// with an SSE reader for text/event-stream responses.
package httpclient
