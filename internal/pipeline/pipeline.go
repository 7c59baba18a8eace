package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ehr/clinicaltext/internal/config"
	"github.com/ehr/clinicaltext/internal/corerr"
	"github.com/ehr/clinicaltext/internal/domain/audit"
	"github.com/ehr/clinicaltext/internal/domain/bundleassembler"
	"github.com/ehr/clinicaltext/internal/domain/extraction"
	"github.com/ehr/clinicaltext/internal/domain/resourcefactory"
	"github.com/ehr/clinicaltext/internal/domain/safety"
	"github.com/ehr/clinicaltext/internal/domain/terminology"
	"github.com/ehr/clinicaltext/internal/domain/validation"
	"github.com/ehr/clinicaltext/internal/platform/fhir"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Pipeline is the single entry point an embedding process calls per
// clinical-text order. Its collaborators are immutable after construction
// and safe to share across concurrently running requests; only the
// RefAllocator inside each Process call is request-scoped.
type Pipeline struct {
	cfg       config.Config
	coder     *terminology.Coder
	extractor *extraction.Extractor
	registry  *resourcefactory.Registry
	assembler *bundleassembler.Assembler
	checker   *safety.Checker
	valLoop   *validation.Loop
	audit     audit.Emitter
	admission *semaphore.Weighted
	log       zerolog.Logger
}

// Outcome is what Process returns: the assembled bundle (if any), the
// safety findings raised against it, and the validation result.
type Outcome struct {
	Bundle         *fhir.Bundle
	SafetyFindings []safety.Finding
	Validation     validation.Result
	BudgetHalted   bool

	// DroppedResources aggregates every factory-build error tolerant mode
	// swallowed in order to still emit a partial bundle, one *multierror.Error
	// wrapped cause per dropped resource. Nil when nothing was dropped.
	DroppedResources error
}

// New builds a Pipeline from its constructed collaborators. The caller is
// responsible for loading terminology reference data and constructing the
// extractor's tiers beforehand (see Options in extraction/terminology),
// since those choices vary by deployment.
func New(
	cfg config.Config,
	coder *terminology.Coder,
	extractor *extraction.Extractor,
	remoteValidator validation.RemoteValidator,
	emitter audit.Emitter,
	log zerolog.Logger,
) *Pipeline {
	cfg = cfg.WithDefaults()
	local := validation.NewStructuralValidator(validation.DefaultRequiredFields())
	return &Pipeline{
		cfg:       cfg,
		coder:     coder,
		extractor: extractor,
		registry:  resourcefactory.NewRegistry(log),
		assembler: bundleassembler.New(),
		checker:   safety.NewChecker(coder),
		valLoop:   validation.NewLoop(remoteValidator, local, "clinicaltext", log),
		audit:     emitter,
		admission: semaphore.NewWeighted(int64(cfg.MaxConcurrentRequests)),
		log:       log.With().Str("component", "pipeline").Logger(),
	}
}

// Process runs one request end to end: admission gate, extraction, factory
// build, bundle assembly, safety checks, and validation. The configured
// per-request timeout bounds ctx for extraction and validation, the stages
// that take ctx; factory build, bundle assembly and safety checks do not
// observe it.
func (p *Pipeline) Process(ctx context.Context, req Request) (Outcome, error) {
	if !p.admission.TryAcquire(1) {
		p.emit(req, audit.EventRequestRejected, audit.OutcomeError, nil)
		return Outcome{}, corerr.ErrBackPressureReject
	}
	defer p.admission.Release(1)

	ctx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.PerRequestTimeoutMS)*time.Millisecond)
	defer cancel()

	extracted, err := p.extractor.Extract(ctx, req.Text, req.CostCeiling)
	if err != nil {
		p.emit(req, audit.EventRequestRejected, audit.OutcomeError, nil)
		return Outcome{}, fmt.Errorf("pipeline: extraction: %w", err)
	}
	p.emit(req, audit.EventExtractionCompleted, audit.OutcomeSuccess, nil)

	alloc := resourcefactory.NewRefAllocator()
	payloads, dropped, err := p.buildPayloads(req, alloc, extracted)
	if err != nil {
		return Outcome{}, fmt.Errorf("pipeline: factory build: %w", err)
	}

	bundleKind := req.BundleKind
	if bundleKind == "" {
		bundleKind = fhir.BundleTypeTransaction
	}
	bundle, err := p.assembler.Assemble(payloads, bundleKind)
	if err != nil {
		p.emit(req, audit.EventRequestRejected, audit.OutcomeError, nil)
		return Outcome{}, fmt.Errorf("pipeline: bundle assembly: %w", err)
	}
	p.emit(req, audit.EventBundleAssembled, audit.OutcomeSuccess, countKinds(payloads))

	findings := p.checker.Run(medicationOrders(payloads, p.coder), req.KnownAllergies, req.Subject.Context)
	if len(findings) > 0 {
		sev := audit.OutcomeWarning
		for _, f := range findings {
			if f.IsBlocking() {
				sev = audit.OutcomeError
			}
		}
		p.emit(req, audit.EventSafetyFindingRaised, sev, nil)
	}

	valResult, err := p.valLoop.Validate(ctx, bundle)
	if err != nil {
		p.emit(req, audit.EventRequestRejected, audit.OutcomeError, nil)
		return Outcome{}, fmt.Errorf("pipeline: validation: %w", err)
	}
	valResult.Issues = append(valResult.Issues, safetyFindingIssues(findings)...)
	valSeverity := audit.OutcomeSuccess
	if valResult.Degraded {
		valSeverity = audit.OutcomeDegraded
	}
	p.emit(req, audit.EventValidationCompleted, valSeverity, nil)

	return Outcome{
		Bundle:           bundle,
		SafetyFindings:   findings,
		Validation:       valResult,
		BudgetHalted:     extracted.BudgetHalted,
		DroppedResources: dropped,
	}, nil
}

// buildPayloads runs every factory input through the registry. In tolerant
// mode, a factory error drops that resource instead of failing the whole
// request; every dropped cause is aggregated into one returned error via
// multierror rather than only logging the first one, so a caller can
// inspect exactly what was dropped and why.
func (p *Pipeline) buildPayloads(req Request, alloc *resourcefactory.RefAllocator, extracted extraction.Result) ([]resourcefactory.Payload, error, error) {
	inputs := buildInputs(req, extracted.Entities)
	payloads := make([]resourcefactory.Payload, 0, len(inputs))

	var dropped *multierror.Error
	for _, in := range inputs {
		payload, err := p.registry.Build(in.Kind, in.Input, alloc, p.coder)
		if err != nil {
			if p.cfg.TolerantMode {
				p.log.Warn().Err(err).Str("kind", string(in.Kind)).Msg("tolerant mode: dropping unbuildable resource")
				dropped = multierror.Append(dropped, fmt.Errorf("%s: %w", in.Kind, err))
				continue
			}
			return nil, nil, err
		}
		payloads = append(payloads, payload)
	}
	return payloads, dropped.ErrorOrNil(), nil
}

func (p *Pipeline) emit(req Request, kind audit.EventKind, severity audit.OutcomeSeverity, counts map[string]int) {
	p.audit.Emit(audit.Event{
		Kind:               kind,
		Timestamp:          time.Now().UTC(),
		CorrelationToken:   req.CorrelationToken,
		ResourceKindCounts: counts,
		OutcomeSeverity:    severity,
	})
}

func countKinds(payloads []resourcefactory.Payload) map[string]int {
	counts := make(map[string]int)
	for _, p := range payloads {
		counts[string(p.Kind)]++
	}
	return counts
}

// medicationOrders extracts the subset of payloads the safety checker
// needs from the built MedicationRequest wire maps.
func medicationOrders(payloads []resourcefactory.Payload, coder *terminology.Coder) []safety.MedicationOrder {
	var orders []safety.MedicationOrder
	for _, p := range payloads {
		if p.Kind != resourcefactory.KindMedicationRequest {
			continue
		}
		cc, _ := p.Wire["medicationCodeableConcept"].(map[string]interface{})
		code, class := drugCodeAndClass(cc, coder)
		orders = append(orders, safety.MedicationOrder{
			PayloadID: p.ID,
			DrugCode:  code,
			DrugClass: class,
		})
	}
	return orders
}

// safetyFindingIssues attaches every safety finding to the validation
// outcome's issue list, per spec.md §4.4's "safety findings merged into the
// issue list preserving severity." Participants feed the issue's location
// so a caller can trace a fatal/error finding back to the resources
// involved without re-running the safety checker.
func safetyFindingIssues(findings []safety.Finding) []fhir.ValidationIssue {
	issues := make([]fhir.ValidationIssue, 0, len(findings))
	for _, f := range findings {
		issues = append(issues, fhir.ValidationIssue{
			Severity:    fhir.IssueSeverity(f.Severity.IssueSeverity()),
			Code:        fhir.VIssueTypeBusinessRule,
			Diagnostics: f.Description,
			Location:    joinParticipants(f.Participants),
		})
	}
	return issues
}

func joinParticipants(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += id
	}
	return out
}

func drugCodeAndClass(cc map[string]interface{}, coder *terminology.Coder) (string, string) {
	if cc == nil {
		return "", ""
	}
	codings, _ := cc["coding"].([]map[string]interface{})
	if len(codings) == 0 {
		return "", ""
	}
	code, _ := codings[0]["code"].(string)
	class, _ := coder.DrugClass(code)
	return code, class
}
