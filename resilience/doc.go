// Package resilience provides retry, backoff, and circuit breaker
// support for firekit's backend calls. The HTTP client retries
// idempotent reads; the realtime stream uses Backoff to pace
// reconnects.
package resilience
