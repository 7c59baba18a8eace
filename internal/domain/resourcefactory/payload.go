// Package resourcefactory implements the Resource Factory Registry: one
// factory per resource kind, each producing an R4 wire-format payload from
// extracted entities and coded concepts by explicit keyed-field
// population, never by struct-tag-derived marshaling.
package resourcefactory

import (
	"time"

	"github.com/ehr/clinicaltext/internal/platform/fhir"
)

// Kind is the resource-kind discriminator a factory is registered under.
// These are the FHIR R4 resourceType names the factories build.
type Kind string

const (
	KindPatient                Kind = "Patient"
	KindPractitioner           Kind = "Practitioner"
	KindLocation               Kind = "Location"
	KindEncounter              Kind = "Encounter"
	KindMedication             Kind = "Medication"
	KindMedicationRequest      Kind = "MedicationRequest"
	KindMedicationAdmin        Kind = "MedicationAdministration"
	KindMedicationDispense     Kind = "MedicationDispense"
	KindMedicationStatement    Kind = "MedicationStatement"
	KindObservation            Kind = "Observation"
	KindDiagnosticReport       Kind = "DiagnosticReport"
	KindCondition              Kind = "Condition"
	KindProcedure              Kind = "Procedure"
	KindDevice                 Kind = "Device"
	KindDeviceUseStatement     Kind = "DeviceUseStatement"
	KindAllergyIntolerance     Kind = "AllergyIntolerance"
	KindImmunization           Kind = "Immunization"
	KindCarePlan               Kind = "CarePlan"
	KindCoverage               Kind = "Coverage"
	KindSpecimen               Kind = "Specimen"
	KindCommunication          Kind = "Communication"
	KindRelatedPerson          Kind = "RelatedPerson"
	KindRiskAssessment         Kind = "RiskAssessment"
	KindGoal                   Kind = "Goal"
	KindImagingStudy           Kind = "ImagingStudy"
	KindComposition            Kind = "Composition"
	KindDocumentReference      Kind = "DocumentReference"
	KindAuditEvent             Kind = "AuditEvent"
	KindConsent                Kind = "Consent"
	KindNutritionOrder         Kind = "NutritionOrder"
	KindFamilyMemberHistory    Kind = "FamilyMemberHistory"
	KindOperationOutcome       Kind = "OperationOutcome"
	KindBasic                  Kind = "Basic"
)

// Payload is the output of a factory build: a resource-kind discriminator,
// its internal identifier, and the explicit keyed wire structure including
// resourceType and id at the top level. DeclaredDependencies names the
// other payloads this one references, by internal identifier, for the
// Bundle Assembler's reference-resolution and ordering pass.
type Payload struct {
	Kind                 Kind
	ID                   string
	Wire                 map[string]interface{}
	DeclaredDependencies []string
	ExternalRefs         []string
	Issues               []fhir.ValidationIssue
}

// newWire seeds the mandatory resourceType/id/meta fields every factory
// populates identically, per the factory template's final metadata step.
func newWire(kind Kind, id string, factoryName string) map[string]interface{} {
	return map[string]interface{}{
		"resourceType": string(kind),
		"id":           id,
		"meta": &fhir.Meta{
			LastUpdated: time.Now().UTC(),
			Profile:     []string{"urn:clinicaltext:factory:" + factoryName},
		},
	}
}

func refObj(ref string) map[string]interface{} {
	if ref == "" {
		return nil
	}
	return map[string]interface{}{"reference": ref}
}

func codeableConcept(cc *fhir.CodeableConcept) map[string]interface{} {
	if cc == nil {
		return nil
	}
	out := map[string]interface{}{}
	if cc.Text != "" {
		out["text"] = cc.Text
	}
	if len(cc.Coding) > 0 {
		codings := make([]map[string]interface{}, 0, len(cc.Coding))
		for _, c := range cc.Coding {
			entry := map[string]interface{}{}
			if c.System != "" {
				entry["system"] = c.System
			}
			if c.Code != "" {
				entry["code"] = c.Code
			}
			if c.Display != "" {
				entry["display"] = c.Display
			}
			codings = append(codings, entry)
		}
		out["coding"] = codings
	}
	return out
}
