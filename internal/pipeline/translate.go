package pipeline

import (
	"github.com/ehr/clinicaltext/internal/domain/entity"
	"github.com/ehr/clinicaltext/internal/domain/resourcefactory"
)

// buildInputs maps one extraction Result into the ordered set of factory
// Inputs the pipeline intends to build. A request's free text describes a
// single clinical order, so the first Dosage/Frequency/Route entity found
// is attached to every Medication entity; multiple independent orders in
// one request are out of scope for this translation step.
func buildInputs(req Request, entities []entity.Entity) []kindedInput {
	var dosage, frequency, route *entity.Entity
	for i := range entities {
		switch entities[i].Kind {
		case entity.KindDosage:
			if dosage == nil {
				dosage = &entities[i]
			}
		case entity.KindFrequency:
			if frequency == nil {
				frequency = &entities[i]
			}
		case entity.KindRoute:
			if route == nil {
				route = &entities[i]
			}
		}
	}

	var inputs []kindedInput
	inputs = append(inputs, kindedInput{Kind: resourcefactory.KindPatient, Input: patientInput(req.Subject)})
	if req.Consent != nil {
		inputs = append(inputs, kindedInput{Kind: resourcefactory.KindConsent, Input: consentInput(*req.Consent)})
	}

	for _, e := range entities {
		switch e.Kind {
		case entity.KindMedication:
			in := resourcefactory.Input{"medication_text": e.Normalized}
			if dosage != nil {
				in["dosage_text"] = dosage.RawText
				in["dose_value"] = dosage.Attrs["value"]
				in["dose_unit"] = dosage.Attrs["unit"]
			}
			if frequency != nil {
				in["frequency_count"] = frequency.Attrs["frequency"]
				in["frequency_per_period"] = frequency.Attrs["period"]
				in["frequency_unit"] = frequency.Attrs["periodUnit"]
			}
			if route != nil {
				in["route_text"] = route.Normalized
			}
			// Phrasing like "during morphine infusion" describes a
			// medication already administered rather than ordered; route
			// that to a MedicationAdministration event instead of a
			// prescription.
			kind := resourcefactory.KindMedicationRequest
			if e.Attrs["event"] == "administration" {
				kind = resourcefactory.KindMedicationAdmin
			}
			inputs = append(inputs, kindedInput{Kind: kind, Input: in})
		case entity.KindCondition:
			inputs = append(inputs, kindedInput{
				Kind:  resourcefactory.KindCondition,
				Input: resourcefactory.Input{"condition_text": e.Normalized},
			})
		case entity.KindAllergySubstance:
			in := resourcefactory.Input{"allergen_text": e.Normalized}
			if sev := e.Attrs["severity"]; sev != "" {
				in["allergy_severity"] = sev
			}
			inputs = append(inputs, kindedInput{Kind: resourcefactory.KindAllergyIntolerance, Input: in})
		case entity.KindVitalSign, entity.KindLabTest, entity.KindObservation:
			var in resourcefactory.Input
			if sys, dia := e.Attrs["systolic"], e.Attrs["diastolic"]; sys != "" && dia != "" {
				// A BP reading is one composite Observation with
				// systolic/diastolic components, not two Observations.
				in = resourcefactory.Input{
					"observation_code_text": e.Normalized,
					"observation_components": []resourcefactory.ObservationComponent{
						{CodeText: "systolic blood pressure", Value: sys, Unit: e.Attrs["unit"]},
						{CodeText: "diastolic blood pressure", Value: dia, Unit: e.Attrs["unit"]},
					},
				}
			} else {
				in = resourcefactory.Input{
					"observation_code_text": e.Normalized,
					"observation_value":     e.Attrs["value"],
					"observation_unit":      e.Attrs["unit"],
				}
			}
			if e.Kind == entity.KindLabTest {
				in["observation_category"] = "laboratory"
			}
			inputs = append(inputs, kindedInput{Kind: resourcefactory.KindObservation, Input: in})
		}
	}

	return inputs
}

// kindedInput pairs a factory Input with the resource kind that should
// build it.
type kindedInput struct {
	Kind  resourcefactory.Kind
	Input resourcefactory.Input
}

func patientInput(s Subject) resourcefactory.Input {
	in := resourcefactory.Input{
		"subject_family_name": s.FamilyName,
		"subject_gender":       s.Gender,
		"subject_birth_date":   s.BirthDate,
	}
	if len(s.GivenNames) > 0 {
		in["subject_given_names"] = s.GivenNames
	}
	if s.IdentifierValue != "" {
		in["subject_identifier_system"] = s.IdentifierSystem
		in["subject_identifier_value"] = s.IdentifierValue
	}
	return in
}

func consentInput(c ConsentCapture) resourcefactory.Input {
	in := resourcefactory.Input{}
	if c.DateTime != "" {
		in["consent_date_time"] = c.DateTime
	}
	if c.PolicyRule != "" {
		in["consent_policy_rule"] = c.PolicyRule
	}
	if c.Category != "" {
		in["consent_category"] = c.Category
	}
	return in
}
