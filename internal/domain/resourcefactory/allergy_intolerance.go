package resourcefactory

import (
	"fmt"

	"github.com/ehr/clinicaltext/internal/corerr"
	"github.com/ehr/clinicaltext/internal/domain/terminology"
	"github.com/ehr/clinicaltext/pkg/fhirmodels"
)

type allergyIntoleranceFactory struct{}

func (f *allergyIntoleranceFactory) Kind() Kind { return KindAllergyIntolerance }

func (f *allergyIntoleranceFactory) Build(in Input, alloc *RefAllocator, coder *terminology.Coder) (Payload, error) {
	text := in.str("allergen_text")
	if text == "" {
		return Payload{}, fmt.Errorf("%w: allergy intolerance requires an allergen mention", corerr.ErrInvalidInput)
	}
	subjectRef, ok := alloc.Lookup("subject")
	if !ok {
		return Payload{}, fmt.Errorf("%w: allergy intolerance requires a resolved subject", corerr.ErrUnresolvedReference)
	}

	id := alloc.Allocate("allergy:" + text)
	wire := newWire(KindAllergyIntolerance, id, "allergy_intolerance")

	concept := coder.Code(text, terminology.IntentAllergen)
	wire["code"] = codeableConcept(concept.ToFHIR())
	wire["patient"] = refObj("Patient/" + subjectRef)
	wire["clinicalStatus"] = codeableConcept((terminology.CodedConcept{
		System: "http://terminology.hl7.org/CodeSystem/allergyintolerance-clinical",
		Code:   fhirmodels.ConditionActive,
	}).ToFHIR())
	if severity := in.str("allergy_severity"); severity != "" {
		wire["reaction"] = []interface{}{
			map[string]interface{}{"severity": severity},
		}
	}

	p := Payload{Kind: KindAllergyIntolerance, ID: id, Wire: wire, DeclaredDependencies: []string{subjectRef}}
	if !concept.HasCoding() {
		p.Issues = append(p.Issues, fhirCodingUnresolvableIssue(text))
	}
	return p, nil
}
