// Package errors defines the audit engine's error taxonomy.
//
// Only InvalidInput, SnapshotMissing, and Unexpected ever surface as
// non-200 HTTP responses; the others describe conditions the
// orchestrator recovers from in-band by degrading a Report instead of
// failing the request.
package errors

import "errors"

var (
	// ErrInvalidInput indicates a missing or malformed target URL.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstreamTimeout indicates the initial page fetch exceeded the overall budget.
	ErrUpstreamTimeout = errors.New("upstream timeout")
	// ErrUpstreamBlocked indicates the origin returned 401/403/429 on both attempts.
	ErrUpstreamBlocked = errors.New("upstream blocked")
	// ErrUpstreamTransient indicates a retryable network failure (reset, DNS, unreachable).
	ErrUpstreamTransient = errors.New("upstream transient error")
	// ErrSnapshotMissing indicates a blob lookup by path or legacy id found nothing.
	ErrSnapshotMissing = errors.New("snapshot not found")
	// ErrQuotaExhausted indicates the sub-request quota was spent before a discretionary probe.
	ErrQuotaExhausted = errors.New("sub-request quota exhausted")
)

// PerProbeError wraps a single probe's failure so the orchestrator can log
// and degrade it without treating it as fatal to the audit.
type PerProbeError struct {
	Probe string
	Err   error
}

func (e *PerProbeError) Error() string {
	return e.Probe + ": " + e.Err.Error()
}

func (e *PerProbeError) Unwrap() error {
	return e.Err
}
