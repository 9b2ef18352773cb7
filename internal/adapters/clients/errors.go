// Package clients provides the instrumented HTTP client used to reach
// downstream services.
package clients

import "errors"

// Infrastructure failures. The ACL translates them into domain errors.
var (
	// ErrCircuitOpen means the breaker refused the call.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last failure once every attempt is spent.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)
