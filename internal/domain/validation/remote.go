// Package validation implements the Validation Loop: a remote FHIR
// validator call protected by retry and circuit-breaker policies, falling
// back to a local structural validator when the remote validator cannot be
// reached.
package validation

import (
	"context"

	"github.com/ehr/clinicaltext/internal/platform/fhir"
)

// RemoteValidator is the transport-level contract a validator client
// implements; the Loop wraps it with retry and circuit-breaker behavior so
// callers of Loop never see transport errors directly.
type RemoteValidator interface {
	Validate(ctx context.Context, bundle *fhir.Bundle) ([]fhir.ValidationIssue, error)
}

// HTTPStatusError is returned by a RemoteValidator implementation so the
// retry policy can distinguish 4xx (no retry, caller error) from 5xx
// (retry twice, then fail) from a transport-level error (retry three
// times), per spec.md §4.5.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return "remote validator returned a non-success status"
}

func (e *HTTPStatusError) is4xx() bool { return e.StatusCode >= 400 && e.StatusCode < 500 }
func (e *HTTPStatusError) is5xx() bool { return e.StatusCode >= 500 && e.StatusCode < 600 }
