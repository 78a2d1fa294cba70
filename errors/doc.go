// Package errors provides unified error handling for firekit.
// It implements a structured error type with machine-readable codes,
// retryable detection, and cause chaining, so failures from the
// database stream, query layer, and storage backends surface through
// one shape.
package errors
