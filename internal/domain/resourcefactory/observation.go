package resourcefactory

import (
	"fmt"

	"github.com/ehr/clinicaltext/internal/corerr"
	"github.com/ehr/clinicaltext/internal/domain/terminology"
	"github.com/ehr/clinicaltext/pkg/fhirmodels"
	"github.com/shopspring/decimal"
)

// observationFactory builds an Observation from a single extracted vital
// sign or lab value, or from a composite reading with multiple components
// (e.g. systolic/diastolic blood pressure sharing one Observation). One
// Input maps to one Observation; the pipeline orchestrator builds one per
// matched vital-sign/lab entity.
type observationFactory struct{}

func (f *observationFactory) Kind() Kind { return KindObservation }

// ObservationComponent is one part of a composite Observation, carried in
// an Input's "observation_components" key.
type ObservationComponent struct {
	CodeText string
	Value    string
	Unit     string
}

func (in Input) observationComponents() []ObservationComponent {
	v, _ := in["observation_components"].([]ObservationComponent)
	return v
}

func (f *observationFactory) Build(in Input, alloc *RefAllocator, coder *terminology.Coder) (Payload, error) {
	code := in.str("observation_code_text")
	components := in.observationComponents()
	if code == "" && len(components) == 0 {
		return Payload{}, fmt.Errorf("%w: observation requires a code", corerr.ErrInvalidInput)
	}
	subjectRef, ok := alloc.Lookup("subject")
	if !ok {
		return Payload{}, fmt.Errorf("%w: observation requires a resolved subject", corerr.ErrUnresolvedReference)
	}

	id := alloc.Allocate("observation:" + code + ":" + in.str("observation_value"))
	wire := newWire(KindObservation, id, "observation")

	concept := coder.Code(code, terminology.IntentLab)
	unresolved := !concept.HasCoding()
	wire["status"] = "final"
	wire["code"] = codeableConcept(concept.ToFHIR())
	wire["subject"] = refObj("Patient/" + subjectRef)
	wire["category"] = []interface{}{codeableConcept((terminology.CodedConcept{
		System: "http://terminology.hl7.org/CodeSystem/observation-category",
		Code:   observationCategory(in),
	}).ToFHIR())}

	if len(components) > 0 {
		comps := make([]interface{}, 0, len(components))
		for _, c := range components {
			cc := coder.Code(c.CodeText, terminology.IntentLab)
			if !cc.HasCoding() {
				unresolved = true
			}
			comp := map[string]interface{}{"code": codeableConcept(cc.ToFHIR())}
			if dec, err := decimal.NewFromString(c.Value); err == nil {
				v, _ := dec.Float64()
				qty := map[string]interface{}{"value": v}
				if c.Unit != "" {
					qty["unit"] = c.Unit
				}
				comp["valueQuantity"] = qty
			}
			comps = append(comps, comp)
		}
		wire["component"] = comps
	} else if val := in.str("observation_value"); val != "" {
		if dec, err := decimal.NewFromString(val); err == nil {
			v, _ := dec.Float64()
			qty := map[string]interface{}{"value": v}
			if unit := in.str("observation_unit"); unit != "" {
				qty["unit"] = unit
			}
			wire["valueQuantity"] = qty
		}
	}

	p := Payload{Kind: KindObservation, ID: id, Wire: wire, DeclaredDependencies: []string{subjectRef}}
	if unresolved {
		p.Issues = append(p.Issues, fhirCodingUnresolvableIssue(code))
	}
	return p, nil
}

// observationCategory maps the extracted entity kind onto the FHIR R4
// observation-category code system; vital-sign entities and lab entities
// both produce Observations but belong to different categories.
func observationCategory(in Input) string {
	switch in.str("observation_category") {
	case "laboratory":
		return fhirmodels.ObsCategoryLaboratory
	default:
		return fhirmodels.ObsCategoryVitalSigns
	}
}
