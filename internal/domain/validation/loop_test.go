package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/ehr/clinicaltext/internal/corerr"
	"github.com/ehr/clinicaltext/internal/platform/fhir"
	"github.com/rs/zerolog"
)

type fakeRemote struct {
	calls   int
	results []fakeResult
}

type fakeResult struct {
	issues []fhir.ValidationIssue
	err    error
}

func (f *fakeRemote) Validate(ctx context.Context, bundle *fhir.Bundle) ([]fhir.ValidationIssue, error) {
	i := f.calls
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	f.calls++
	r := f.results[i]
	return r.issues, r.err
}

func testBundle() *fhir.Bundle {
	return &fhir.Bundle{ResourceType: "Bundle", Type: fhir.BundleTypeTransaction}
}

func TestLoop_SuccessOnFirstCall(t *testing.T) {
	remote := &fakeRemote{results: []fakeResult{{issues: []fhir.ValidationIssue{{Diagnostics: "ok"}}}}}
	loop := NewLoop(remote, NewStructuralValidator(DefaultRequiredFields()), "test-success", zerolog.Nop())
	res, err := loop.Validate(context.Background(), testBundle())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Degraded {
		t.Error("expected non-degraded result on success")
	}
}

func TestLoop_4xxIsNotRetriedAndFailsFast(t *testing.T) {
	remote := &fakeRemote{results: []fakeResult{{err: &HTTPStatusError{StatusCode: 422}}}}
	loop := NewLoop(remote, NewStructuralValidator(DefaultRequiredFields()), "test-4xx", zerolog.Nop())
	_, err := loop.Validate(context.Background(), testBundle())
	if !errors.Is(err, corerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for a 4xx, got %v", err)
	}
	if remote.calls != 1 {
		t.Errorf("expected no retries for a 4xx (exactly one call), got %d calls", remote.calls)
	}
}

func TestLoop_5xxExhaustsThenFallsBackToStructural(t *testing.T) {
	remote := &fakeRemote{results: []fakeResult{
		{err: &HTTPStatusError{StatusCode: 503}},
		{err: &HTTPStatusError{StatusCode: 503}},
	}}
	loop := NewLoop(remote, NewStructuralValidator(DefaultRequiredFields()), "test-5xx", zerolog.Nop())
	res, err := loop.Validate(context.Background(), testBundle())
	if err != nil {
		t.Fatalf("expected fallback rather than error, got %v", err)
	}
	if !res.Degraded {
		t.Error("expected degraded result after falling back to structural validation")
	}
}

func TestLoop_TransportFailureFallsBackAfterRetries(t *testing.T) {
	remote := &fakeRemote{results: []fakeResult{
		{err: errors.New("dial tcp: connection refused")},
	}}
	loop := NewLoop(remote, NewStructuralValidator(DefaultRequiredFields()), "test-transport", zerolog.Nop())
	res, err := loop.Validate(context.Background(), testBundle())
	if err != nil {
		t.Fatalf("expected fallback rather than error, got %v", err)
	}
	if !res.Degraded {
		t.Error("expected degraded result after exhausting transport retries")
	}
}
