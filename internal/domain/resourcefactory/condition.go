package resourcefactory

import (
	"fmt"

	"github.com/ehr/clinicaltext/internal/corerr"
	"github.com/ehr/clinicaltext/internal/domain/terminology"
	"github.com/ehr/clinicaltext/pkg/fhirmodels"
)

type conditionFactory struct{}

func (f *conditionFactory) Kind() Kind { return KindCondition }

func (f *conditionFactory) Build(in Input, alloc *RefAllocator, coder *terminology.Coder) (Payload, error) {
	text := in.str("condition_text")
	if text == "" {
		return Payload{}, fmt.Errorf("%w: condition requires a condition mention", corerr.ErrInvalidInput)
	}
	subjectRef, ok := alloc.Lookup("subject")
	if !ok {
		return Payload{}, fmt.Errorf("%w: condition requires a resolved subject", corerr.ErrUnresolvedReference)
	}

	id := alloc.Allocate("condition:" + text)
	wire := newWire(KindCondition, id, "condition")

	concept := coder.Code(text, terminology.IntentCondition)
	wire["code"] = codeableConcept(concept.ToFHIR())
	wire["subject"] = refObj("Patient/" + subjectRef)
	wire["clinicalStatus"] = codeableConcept((terminology.CodedConcept{
		System: "http://terminology.hl7.org/CodeSystem/condition-clinical",
		Code:   fhirmodels.ConditionActive,
	}).ToFHIR())

	p := Payload{Kind: KindCondition, ID: id, Wire: wire, DeclaredDependencies: []string{subjectRef}}
	if !concept.HasCoding() {
		p.Issues = append(p.Issues, fhirCodingUnresolvableIssue(text))
	}
	return p, nil
}
