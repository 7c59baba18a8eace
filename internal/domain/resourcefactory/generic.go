package resourcefactory

import (
	"fmt"

	"github.com/ehr/clinicaltext/internal/corerr"
	"github.com/ehr/clinicaltext/internal/domain/terminology"
	"github.com/ehr/clinicaltext/pkg/fhirmodels"
)

// genericFactory builds the resource kinds that don't need bespoke field
// logic: it populates subject/code/status from the Input's conventional
// keys by explicit keyed assignment (never reflection or struct tags),
// same as the bespoke factories, just without kind-specific shape.
type genericFactory struct {
	kind Kind
}

func (f *genericFactory) Kind() Kind { return f.kind }

func (f *genericFactory) Build(in Input, alloc *RefAllocator, coder *terminology.Coder) (Payload, error) {
	logicalKey := string(f.kind) + ":" + in.str("logical_key")
	id := alloc.Allocate(logicalKey)
	wire := newWire(f.kind, id, "generic")

	deps := in.strSlice("declared_dependencies")
	if subjectRef, ok := alloc.Lookup("subject"); ok {
		wire[subjectField(f.kind)] = refObj("Patient/" + subjectRef)
		deps = append(deps, subjectRef)
	}
	if status := in.str("status"); status != "" {
		wire["status"] = status
	} else if f.kind == KindEncounter {
		wire["status"] = fhirmodels.EncounterStatusInProgress
	}
	if f.kind == KindEncounter {
		class := in.str("encounter_class")
		if class == "" {
			class = fhirmodels.EncounterClassAmbulatory
		}
		wire["class"] = map[string]interface{}{
			"system": "http://terminology.hl7.org/CodeSystem/v3-ActCode",
			"code":   class,
		}
	}

	var codeIssue *string
	if text := in.str("code_text"); text != "" {
		intent := intentFor(f.kind)
		concept := coder.Code(text, intent)
		wire["code"] = codeableConcept(concept.ToFHIR())
		if !concept.HasCoding() {
			t := text
			codeIssue = &t
		}
	}
	if f.kind == KindEncounter {
		if practRef, ok := alloc.Lookup("practitioner"); ok {
			wire["participant"] = []interface{}{map[string]interface{}{
				"type": []interface{}{codeableConcept((terminology.CodedConcept{
					System: "http://terminology.hl7.org/CodeSystem/v3-ParticipationType",
					Code:   fhirmodels.ParticipantAttender,
				}).ToFHIR())},
				"individual": refObj("Practitioner/" + practRef),
			}}
			deps = append(deps, practRef)
		}
	}
	if f.kind != KindPatient && f.kind != KindPractitioner {
		if _, ok := alloc.Lookup("subject"); !ok {
			return Payload{}, fmt.Errorf("%w: %s requires a resolved subject", corerr.ErrUnresolvedReference, f.kind)
		}
	}

	p := Payload{
		Kind:                 f.kind,
		ID:                   id,
		Wire:                 wire,
		DeclaredDependencies: deps,
		ExternalRefs:         in.strSlice("external_refs"),
	}
	if codeIssue != nil {
		p.Issues = append(p.Issues, fhirCodingUnresolvableIssue(*codeIssue))
	}
	return p, nil
}

// subjectField names the reference field a kind uses for its primary
// subject link; most R4 clinical resources use "subject", a handful of
// older resource shapes use "patient".
func subjectField(kind Kind) string {
	switch kind {
	case KindAllergyIntolerance, KindImmunization, KindCoverage, KindFamilyMemberHistory:
		return "patient"
	default:
		return "subject"
	}
}

func intentFor(kind Kind) terminology.Intent {
	switch kind {
	case KindImmunization:
		return terminology.IntentVaccine
	case KindEncounter:
		return terminology.IntentFacilityType
	case KindRelatedPerson:
		return terminology.IntentRelationship
	case KindProcedure:
		return terminology.IntentProcedure
	default:
		return terminology.IntentCondition
	}
}
