package resourcefactory

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ehr/clinicaltext/internal/corerr"
	"github.com/ehr/clinicaltext/internal/domain/terminology"
	"github.com/rs/zerolog"
)

// Factory builds one resource kind's payload from an Input. A factory
// attaches its own coding issues to the payload; it runs no FieldValidator
// itself.
type Factory interface {
	Kind() Kind
	Build(in Input, alloc *RefAllocator, coder *terminology.Coder) (Payload, error)
}

// Registry looks up the Factory registered for a resource kind. It is
// built once, lazily, on first access via double-checked initialisation
// (spec.md §9): after that it holds no mutable state and is safe to share
// across concurrent requests.
type Registry struct {
	mu       sync.Mutex
	built    atomic.Bool
	factories map[Kind]Factory
	log      zerolog.Logger
}

func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{log: log}
}

func (r *Registry) ensureBuilt() {
	if r.built.Load() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.built.Load() {
		return
	}
	r.factories = defaultFactories()
	r.built.Store(true)
}

// Lookup returns the factory registered for kind, or ErrUnknownResourceKind
// if no factory handles it.
func (r *Registry) Lookup(kind Kind) (Factory, error) {
	r.ensureBuilt()
	f, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", corerr.ErrUnknownResourceKind, kind)
	}
	return f, nil
}

// Build resolves the factory registered for kind and runs it, then appends
// the issues reported by the shared field validators (sharedValidators) to
// whatever issues the factory attached.
func (r *Registry) Build(kind Kind, in Input, alloc *RefAllocator, coder *terminology.Coder) (Payload, error) {
	f, err := r.Lookup(kind)
	if err != nil {
		return Payload{}, err
	}
	p, err := f.Build(in, alloc, coder)
	if err != nil {
		return Payload{}, err
	}
	for _, v := range sharedValidators {
		p.Issues = append(p.Issues, v(&p)...)
	}
	return p, nil
}

var sharedValidators = []FieldValidator{
	ValidIdentifier,
}

func defaultFactories() map[Kind]Factory {
	all := []Factory{
		&patientFactory{},
		&medicationRequestFactory{},
		&conditionFactory{},
		&observationFactory{},
		&allergyIntoleranceFactory{},
		&consentFactory{},
		&medicationAdministrationFactory{},
	}
	m := make(map[Kind]Factory, len(all)+len(genericKinds))
	for _, f := range all {
		m[f.Kind()] = f
	}
	for _, k := range genericKinds {
		if _, ok := m[k]; ok {
			continue
		}
		m[k] = &genericFactory{kind: k}
	}
	return m
}

// genericKinds lists every required resource kind. A kind that also has a
// bespoke factory in defaultFactories keeps that factory; every other kind
// here is built by genericFactory using the same Input/Payload conventions
// but without kind-specific field logic.
var genericKinds = []Kind{
	KindPatient,
	KindPractitioner,
	KindLocation,
	KindEncounter,
	KindMedication,
	KindMedicationRequest,
	KindMedicationAdmin,
	KindMedicationDispense,
	KindMedicationStatement,
	KindObservation,
	KindDiagnosticReport,
	KindCondition,
	KindProcedure,
	KindDevice,
	KindDeviceUseStatement,
	KindAllergyIntolerance,
	KindImmunization,
	KindCarePlan,
	KindCoverage,
	KindSpecimen,
	KindCommunication,
	KindRelatedPerson,
	KindRiskAssessment,
	KindGoal,
	KindImagingStudy,
	KindComposition,
	KindDocumentReference,
	KindAuditEvent,
	KindConsent,
	KindNutritionOrder,
	KindFamilyMemberHistory,
	KindOperationOutcome,
	KindBasic,
}
