package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ehr/clinicaltext/internal/platform/fhir"
)

// StructuralValidator is the local fallback used when the remote FHIR
// validator is unreachable. It checks only what can be verified without a
// full schema: resource-kind discriminator present, non-empty id,
// urn:uuid: references in top-level reference fields resolving to an entry
// within the bundle, and the presence of each kind's minimally required
// fields. A bundle it reports no issues for can still be rejected by the
// remote validator on schema grounds it does not check; it is a degraded
// mode, not a replacement.
type StructuralValidator struct {
	requiredFields map[string][]string
}

// NewStructuralValidator builds a fallback validator with the given
// per-kind required-field table, keyed by FHIR resourceType.
func NewStructuralValidator(requiredFields map[string][]string) *StructuralValidator {
	return &StructuralValidator{requiredFields: requiredFields}
}

// DefaultRequiredFields is the minimal required-field table covering the
// bundle's core resource kinds.
func DefaultRequiredFields() map[string][]string {
	return map[string][]string{
		"Patient":                  {},
		"MedicationRequest":        {"status", "intent", "subject"},
		"MedicationAdministration": {"status", "subject"},
		"Condition":                {"subject"},
		"Observation":              {"status", "code", "subject"},
		"AllergyIntolerance":       {"patient"},
		"Consent":                  {"status", "scope", "patient"},
	}
}

// Validate runs every structural check over the bundle's entries and
// returns the combined, order-stable list of issues.
func (v *StructuralValidator) Validate(bundle *fhir.Bundle) []fhir.ValidationIssue {
	var issues []fhir.ValidationIssue
	seen := map[string]bool{}

	ids := map[string]bool{}
	for _, e := range bundle.Entry {
		if e.FullURL != "" {
			ids[strings.TrimPrefix(e.FullURL, "urn:uuid:")] = true
		}
	}

	for _, e := range bundle.Entry {
		wire, ok := e.Resource.(map[string]interface{})
		if !ok {
			continue
		}
		kind, _ := wire["resourceType"].(string)
		id, _ := wire["id"].(string)

		if kind == "" {
			issues = append(issues, dedupedAppend(seen, fhir.ValidationIssue{
				Severity:    fhir.SeverityFatal,
				Code:        fhir.VIssueTypeStructure,
				Diagnostics: "entry missing resourceType discriminator",
			})...)
			continue
		}
		if id == "" {
			issues = append(issues, dedupedAppend(seen, fhir.ValidationIssue{
				Severity:    fhir.SeverityError,
				Code:        fhir.VIssueTypeRequired,
				Diagnostics: fmt.Sprintf("%s is missing an id", kind),
				Location:    kind + ".id",
			})...)
		}

		for _, field := range v.requiredFields[kind] {
			if _, present := wire[field]; !present {
				issues = append(issues, dedupedAppend(seen, fhir.ValidationIssue{
					Severity:    fhir.SeverityError,
					Code:        fhir.VIssueTypeRequired,
					Diagnostics: fmt.Sprintf("%s.%s is required", kind, field),
					Location:    fmt.Sprintf("%s.%s", kind, field),
				})...)
			}
		}

		issues = append(issues, v.checkReferences(kind, wire, ids, seen)...)
	}

	return issues
}

func (v *StructuralValidator) checkReferences(kind string, wire map[string]interface{}, ids map[string]bool, seen map[string]bool) []fhir.ValidationIssue {
	var issues []fhir.ValidationIssue
	fields := make([]string, 0, len(wire))
	for field := range wire {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		refObj, ok := wire[field].(map[string]interface{})
		if !ok {
			continue
		}
		ref, ok := refObj["reference"].(string)
		if !ok || ref == "" {
			continue
		}
		target := strings.TrimPrefix(ref, "urn:uuid:")
		if strings.HasPrefix(ref, "urn:uuid:") && !ids[target] {
			issues = append(issues, dedupedAppend(seen, fhir.ValidationIssue{
				Severity:    fhir.SeverityError,
				Code:        fhir.VIssueTypeValue,
				Diagnostics: fmt.Sprintf("%s.%s references %s, which is not present in this bundle", kind, field, ref),
				Location:    fmt.Sprintf("%s.%s", kind, field),
			})...)
		}
	}
	return issues
}

// dedupedAppend coalesces issues that share the same (code, location)
// pair, per spec.md §4.5's "same field-path and same kind coalesced"
// outcome-combination rule.
func dedupedAppend(seen map[string]bool, issue fhir.ValidationIssue) []fhir.ValidationIssue {
	key := string(issue.Code) + "|" + issue.Location
	if seen[key] {
		return nil
	}
	seen[key] = true
	return []fhir.ValidationIssue{issue}
}
