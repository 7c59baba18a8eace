package resourcefactory

import (
	"fmt"

	"github.com/ehr/clinicaltext/internal/corerr"
	"github.com/ehr/clinicaltext/internal/domain/terminology"
	"github.com/shopspring/decimal"
)

// medicationRequestFactory builds the MedicationRequest that carries the
// coded drug, dosage instruction and route extracted from an order, per
// spec.md's primary worked scenario.
type medicationRequestFactory struct{}

func (f *medicationRequestFactory) Kind() Kind { return KindMedicationRequest }

func (f *medicationRequestFactory) Build(in Input, alloc *RefAllocator, coder *terminology.Coder) (Payload, error) {
	drugText := in.str("medication_text")
	if drugText == "" {
		return Payload{}, fmt.Errorf("%w: medication request requires a medication mention", corerr.ErrInvalidInput)
	}
	subjectRef, ok := alloc.Lookup("subject")
	if !ok {
		return Payload{}, fmt.Errorf("%w: medication request requires a resolved subject", corerr.ErrUnresolvedReference)
	}

	id := alloc.Allocate("medication-request:" + drugText)
	wire := newWire(KindMedicationRequest, id, "medication_request")

	concept := coder.Code(drugText, terminology.IntentDrug)
	wire["medicationCodeableConcept"] = codeableConcept(concept.ToFHIR())
	wire["status"] = "active"
	wire["intent"] = "order"
	wire["subject"] = refObj("Patient/" + subjectRef)
	deps := []string{subjectRef}

	if enc, ok := alloc.Lookup("encounter"); ok {
		wire["encounter"] = refObj("Encounter/" + enc)
		deps = append(deps, enc)
	}

	dosage := map[string]interface{}{}
	if doseText := in.str("dosage_text"); doseText != "" {
		dosage["text"] = doseText
	}
	if routeText := in.str("route_text"); routeText != "" {
		dosage["route"] = codeableConcept(coder.Code(routeText, terminology.IntentAnatomy).ToFHIR())
	}
	if amount := in.str("dose_value"); amount != "" {
		if dec, err := decimal.NewFromString(amount); err == nil {
			v, _ := dec.Float64()
			unitConcept, uErr := coder.NormalizeDoseUnit(in.str("dose_unit"))
			doseQty := map[string]interface{}{"value": v}
			if uErr == nil && unitConcept.HasCoding() {
				doseQty["unit"] = in.str("dose_unit")
				doseQty["system"] = unitConcept.System
				doseQty["code"] = unitConcept.Code
			} else {
				doseQty["unit"] = in.str("dose_unit")
			}
			dosage["doseAndRate"] = []interface{}{
				map[string]interface{}{"doseQuantity": doseQty},
			}
		}
	}
	if freq := in.str("frequency_per_period"); freq != "" {
		dosage["timing"] = map[string]interface{}{
			"repeat": map[string]interface{}{
				"frequency":  in.str("frequency_count"),
				"period":     freq,
				"periodUnit": in.str("frequency_unit"),
			},
		}
	}
	if len(dosage) > 0 {
		wire["dosageInstruction"] = []interface{}{dosage}
	}

	p := Payload{Kind: KindMedicationRequest, ID: id, Wire: wire, DeclaredDependencies: deps}
	if !concept.HasCoding() {
		p.Issues = append(p.Issues, fhirCodingUnresolvableIssue(drugText))
	}
	return p, nil
}
