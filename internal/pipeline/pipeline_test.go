package pipeline

import (
	"context"
	"testing"

	"github.com/ehr/clinicaltext/internal/config"
	"github.com/ehr/clinicaltext/internal/domain/audit"
	"github.com/ehr/clinicaltext/internal/domain/entity"
	"github.com/ehr/clinicaltext/internal/domain/extraction"
	"github.com/ehr/clinicaltext/internal/domain/resourcefactory"
	"github.com/ehr/clinicaltext/internal/domain/terminology"
	"github.com/ehr/clinicaltext/internal/platform/fhir"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

type alwaysFailRemote struct{}

func (alwaysFailRemote) Validate(ctx context.Context, bundle *fhir.Bundle) ([]fhir.ValidationIssue, error) {
	return nil, &validationTransportError{}
}

type validationTransportError struct{}

func (*validationTransportError) Error() string { return "no remote validator configured in this test" }

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	coder, err := terminology.NewCoder(terminology.DefaultReferenceData(), 64, zerolog.Nop())
	if err != nil {
		t.Fatalf("building coder: %v", err)
	}
	dict := extraction.RuleDictionary{
		MedicationNames: []string{"lisinopril"},
		ConditionNames:  []string{"hypertension"},
	}
	extractor := extraction.NewExtractor(dict, [4]float64{0.85, 0.75, 0.70, 0}, 10000, zerolog.Nop())
	cfg := config.Config{}.WithDefaults()
	return New(cfg, coder, extractor, alwaysFailRemote{}, audit.NopEmitter{}, zerolog.Nop())
}

func TestPipeline_ProcessPrescriptionOrder(t *testing.T) {
	p := newTestPipeline(t)
	req := Request{
		Text: "Prescribe 10mg lisinopril daily for hypertension",
		Subject: Subject{
			FamilyName: "Doe",
			GivenNames: []string{"Jane"},
			Gender:     "female",
		},
		CorrelationToken: "req-1",
	}
	out, err := p.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Bundle == nil {
		t.Fatal("expected a bundle")
	}
	if len(out.Bundle.Entry) < 2 {
		t.Fatalf("expected at least a patient and a medication request entry, got %d", len(out.Bundle.Entry))
	}
	if !out.Validation.Degraded {
		t.Error("expected a degraded validation result since the remote validator always fails in this test")
	}
}

func TestPipeline_TolerantModeAggregatesDroppedResources(t *testing.T) {
	p := newTestPipeline(t)
	p.cfg.TolerantMode = true
	req := Request{
		Subject: Subject{FamilyName: "Doe"},
	}
	alloc := resourcefactory.NewRefAllocator()
	// A Condition entity with an empty normalized surface form fails the
	// factory's required-field check; the Patient input still succeeds.
	extracted := extraction.Result{Entities: []entity.Entity{{Kind: entity.KindCondition}}}
	payloads, dropped, err := p.buildPayloads(req, alloc, extracted)
	if err != nil {
		t.Fatalf("unexpected hard failure in tolerant mode: %v", err)
	}
	if len(payloads) != 1 {
		t.Fatalf("expected only the patient payload to survive, got %d", len(payloads))
	}
	if dropped == nil {
		t.Fatal("expected an aggregated dropped-resource error")
	}
}

func TestPipeline_BackPressureRejectsOverCapacity(t *testing.T) {
	p := newTestPipeline(t)
	p.cfg.MaxConcurrentRequests = 1
	p.admission = semaphore.NewWeighted(1)
	if !p.admission.TryAcquire(1) {
		t.Fatal("expected to acquire the only slot")
	}
	_, err := p.Process(context.Background(), Request{Text: "anything"})
	if err == nil {
		t.Fatal("expected back-pressure rejection while the slot is held")
	}
}
