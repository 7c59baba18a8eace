package validation

import (
	"testing"

	"github.com/ehr/clinicaltext/internal/platform/fhir"
)

func TestStructuralValidator_MissingRequiredField(t *testing.T) {
	v := NewStructuralValidator(DefaultRequiredFields())
	bundle := &fhir.Bundle{
		ResourceType: "Bundle",
		Type:         fhir.BundleTypeTransaction,
		Entry: []fhir.BundleEntry{
			{
				FullURL: "urn:uuid:pat1",
				Resource: map[string]interface{}{
					"resourceType": "Patient",
					"id":           "pat1",
				},
			},
			{
				FullURL: "urn:uuid:mr1",
				Resource: map[string]interface{}{
					"resourceType": "MedicationRequest",
					"id":           "mr1",
					"subject":      map[string]interface{}{"reference": "urn:uuid:pat1"},
				},
			},
		},
	}
	issues := v.Validate(bundle)
	if len(issues) == 0 {
		t.Fatal("expected issues for missing status/intent on MedicationRequest")
	}
}

func TestStructuralValidator_DanglingReference(t *testing.T) {
	v := NewStructuralValidator(DefaultRequiredFields())
	bundle := &fhir.Bundle{
		Entry: []fhir.BundleEntry{
			{
				FullURL: "urn:uuid:mr1",
				Resource: map[string]interface{}{
					"resourceType": "MedicationRequest",
					"id":           "mr1",
					"status":       "active",
					"intent":       "order",
					"subject":      map[string]interface{}{"reference": "urn:uuid:missing-patient"},
				},
			},
		},
	}
	issues := v.Validate(bundle)
	found := false
	for _, issue := range issues {
		if issue.Code == fhir.VIssueTypeValue {
			found = true
		}
	}
	if !found {
		t.Error("expected a dangling-reference issue")
	}
}

func TestStructuralValidator_WellFormedBundleHasNoIssues(t *testing.T) {
	v := NewStructuralValidator(DefaultRequiredFields())
	bundle := &fhir.Bundle{
		Entry: []fhir.BundleEntry{
			{
				FullURL:  "urn:uuid:pat1",
				Resource: map[string]interface{}{"resourceType": "Patient", "id": "pat1"},
			},
			{
				FullURL: "urn:uuid:mr1",
				Resource: map[string]interface{}{
					"resourceType": "MedicationRequest",
					"id":           "mr1",
					"status":       "active",
					"intent":       "order",
					"subject":      map[string]interface{}{"reference": "urn:uuid:pat1"},
				},
			},
		},
	}
	issues := v.Validate(bundle)
	if len(issues) != 0 {
		t.Errorf("expected no issues, got %+v", issues)
	}
}
