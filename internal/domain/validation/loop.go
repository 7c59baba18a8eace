package validation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ehr/clinicaltext/internal/corerr"
	"github.com/ehr/clinicaltext/internal/platform/fhir"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// Result carries a validation outcome along with whether it came from the
// remote validator or the local structural fallback.
type Result struct {
	Issues   []fhir.ValidationIssue
	Degraded bool
}

// Loop is the Validation Loop component: it calls the remote validator
// through a circuit breaker with a bounded retry policy, and falls back to
// the local structural validator when the remote path is exhausted or the
// breaker is open.
type Loop struct {
	remote   RemoteValidator
	breaker  *gobreaker.CircuitBreaker
	local    *StructuralValidator
	log      zerolog.Logger
}

// NewLoop builds a Loop. breakerName distinguishes this loop's breaker in
// metrics/logs when multiple Loops run in the same process (e.g. against
// different validator endpoints).
func NewLoop(remote RemoteValidator, local *StructuralValidator, breakerName string, log zerolog.Logger) *Loop {
	settings := gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &Loop{
		remote:  remote,
		breaker: gobreaker.NewCircuitBreaker(settings),
		local:   local,
		log:     log.With().Str("component", "validation_loop").Logger(),
	}
}

// Validate runs the remote validator with retry, falling back to the local
// structural validator on exhaustion, breaker-open, or a 5xx after its
// retry budget. A 4xx is never retried: it signals the bundle itself is
// malformed, not that the validator is unavailable.
func (l *Loop) Validate(ctx context.Context, bundle *fhir.Bundle) (Result, error) {
	issues, err := l.callRemote(ctx, bundle)
	if err == nil {
		return Result{Issues: issues}, nil
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) && statusErr.is4xx() {
		return Result{}, fmt.Errorf("%w: %s", corerr.ErrInvalidInput, err)
	}

	l.log.Warn().Err(err).Msg("remote validator unavailable, falling back to structural validation")
	fallback := l.local.Validate(bundle)
	return Result{Issues: fallback, Degraded: true}, nil
}

func (l *Loop) callRemote(ctx context.Context, bundle *fhir.Bundle) ([]fhir.ValidationIssue, error) {
	result, err := l.breaker.Execute(func() (interface{}, error) {
		return l.retryRemote(ctx, bundle)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", corerr.ErrValidatorUnavailable)
		}
		return nil, err
	}
	return result.([]fhir.ValidationIssue), nil
}

func (l *Loop) retryRemote(ctx context.Context, bundle *fhir.Bundle) ([]fhir.ValidationIssue, error) {
	var issues []fhir.ValidationIssue
	five0xRetries := 0

	op := func() error {
		var err error
		issues, err = l.remote.Validate(ctx, bundle)
		if err == nil {
			return nil
		}

		var statusErr *HTTPStatusError
		if errors.As(err, &statusErr) {
			if statusErr.is4xx() {
				return backoff.Permanent(err)
			}
			if statusErr.is5xx() {
				five0xRetries++
				if five0xRetries >= 3 {
					return backoff.Permanent(fmt.Errorf("%w: %s", corerr.ErrValidatorUnavailable, err))
				}
				return err
			}
		}
		return err
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 200 * time.Millisecond
	eb.Multiplier = 2
	eb.MaxInterval = 2 * time.Second
	bo := backoff.WithMaxRetries(eb, 3)
	bo2 := backoff.WithContext(bo, ctx)
	if err := backoff.Retry(op, bo2); err != nil {
		return nil, err
	}
	return issues, nil
}
