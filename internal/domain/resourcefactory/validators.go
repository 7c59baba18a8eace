package resourcefactory

import (
	"fmt"
	"regexp"

	"github.com/ehr/clinicaltext/internal/platform/fhir"
)

// FieldValidator is one check in the factory template's step 5
// (required-field presence, identifier format, reference format, coding
// format, date format). Validators run after the payload is constructed so
// they see the final wire shape, not the raw Input.
type FieldValidator func(p *Payload) []fhir.ValidationIssue

var referencePattern = regexp.MustCompile(`^[A-Z][a-zA-Z]+/[A-Za-z0-9\-.]+$`)

// RequiredFields checks that every key in fields is present in the
// payload's wire map at its top level; the value stored under a present
// key is not inspected.
func RequiredFields(fields ...string) FieldValidator {
	return func(p *Payload) []fhir.ValidationIssue {
		var issues []fhir.ValidationIssue
		for _, f := range fields {
			if _, ok := p.Wire[f]; !ok {
				issues = append(issues, fhir.ValidationIssue{
					Severity:    fhir.SeverityError,
					Code:        fhir.VIssueTypeRequired,
					Diagnostics: fmt.Sprintf("%s.%s is required", p.Kind, f),
					Location:    fmt.Sprintf("%s.%s", p.Kind, f),
				})
			}
		}
		return issues
	}
}

// ValidIdentifier checks that the payload's id is non-empty.
func ValidIdentifier(p *Payload) []fhir.ValidationIssue {
	if p.ID == "" {
		return []fhir.ValidationIssue{{
			Severity:    fhir.SeverityFatal,
			Code:        fhir.VIssueTypeRequired,
			Diagnostics: fmt.Sprintf("%s.id is required", p.Kind),
			Location:    string(p.Kind) + ".id",
		}}
	}
	return nil
}

// fhirCodingUnresolvableIssue records that a term a factory tried to code
// fell through to a text-only concept, per spec.md §7's CodingUnresolvable
// classification. It is a warning, not a build failure: the payload still
// carries the free text.
func fhirCodingUnresolvableIssue(term string) fhir.ValidationIssue {
	return fhir.ValidationIssue{
		Severity:    fhir.SeverityWarning,
		Code:        fhir.VIssueTypeCodeInvalid,
		Diagnostics: fmt.Sprintf("no coding resolved for %q, carrying text only", term),
	}
}

// ValidReferenceFormat checks the "reference" string of the single
// {"reference": ...} object stored under the named field against the
// "<Kind>/<id>" reference shape. A field holding a list or any other shape
// is not checked.
func ValidReferenceFormat(field string) FieldValidator {
	return func(p *Payload) []fhir.ValidationIssue {
		raw, ok := p.Wire[field]
		if !ok {
			return nil
		}
		refObj, ok := raw.(map[string]interface{})
		if !ok {
			return nil
		}
		ref, _ := refObj["reference"].(string)
		if ref == "" || referencePattern.MatchString(ref) {
			return nil
		}
		return []fhir.ValidationIssue{{
			Severity:    fhir.SeverityError,
			Code:        fhir.VIssueTypeValue,
			Diagnostics: fmt.Sprintf("%s.%s has malformed reference %q", p.Kind, field, ref),
			Location:    fmt.Sprintf("%s.%s", p.Kind, field),
		}}
	}
}
