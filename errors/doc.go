// Package errors provides unified error handling for regkit.
// It implements structured error types with machine-readable codes, HTTP
// status mapping, and retryable detection, covering the registry error
// taxonomy: validation failures, heartbeats against unknown registrations,
// unresolvable endpoints, and transient store failures.
package errors
