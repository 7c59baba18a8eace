package resourcefactory

import (
	"fmt"

	"github.com/ehr/clinicaltext/internal/corerr"
	"github.com/ehr/clinicaltext/internal/domain/terminology"
	"github.com/shopspring/decimal"
)

type medicationAdministrationFactory struct{}

func (f *medicationAdministrationFactory) Kind() Kind { return KindMedicationAdmin }

func (f *medicationAdministrationFactory) Build(in Input, alloc *RefAllocator, coder *terminology.Coder) (Payload, error) {
	drugText := in.str("medication_text")
	if drugText == "" {
		return Payload{}, fmt.Errorf("%w: medication administration requires a medication mention", corerr.ErrInvalidInput)
	}
	subjectRef, ok := alloc.Lookup("subject")
	if !ok {
		return Payload{}, fmt.Errorf("%w: medication administration requires a resolved subject", corerr.ErrUnresolvedReference)
	}

	id := alloc.Allocate("medication-administration:" + drugText)
	wire := newWire(KindMedicationAdmin, id, "medication_administration")

	concept := coder.Code(drugText, terminology.IntentDrug)
	wire["status"] = "completed"
	wire["medicationCodeableConcept"] = codeableConcept(concept.ToFHIR())
	wire["subject"] = refObj("Patient/" + subjectRef)
	deps := []string{subjectRef}
	if reqRef, ok := alloc.Lookup("medication-request:" + drugText); ok {
		wire["request"] = refObj("MedicationRequest/" + reqRef)
		deps = append(deps, reqRef)
	}
	if occurred := in.str("administration_date_time"); occurred != "" {
		wire["effectiveDateTime"] = occurred
	}

	if amount := in.str("dose_value"); amount != "" {
		if dec, err := decimal.NewFromString(amount); err == nil {
			v, _ := dec.Float64()
			dosage := map[string]interface{}{
				"dose": map[string]interface{}{"value": v, "unit": in.str("dose_unit")},
			}
			if routeText := in.str("route_text"); routeText != "" {
				dosage["route"] = codeableConcept(coder.Code(routeText, terminology.IntentAnatomy).ToFHIR())
			}
			wire["dosage"] = dosage
		}
	}

	p := Payload{Kind: KindMedicationAdmin, ID: id, Wire: wire, DeclaredDependencies: deps}
	if !concept.HasCoding() {
		p.Issues = append(p.Issues, fhirCodingUnresolvableIssue(drugText))
	}
	return p, nil
}
