// Package safety runs the cross-resource checks spec.md §4.4.1 requires
// before a bundle is emitted: allergy-vs-medication, drug-drug
// interaction, dose-range, age and pregnancy contraindication, and
// duplicate-therapy detection.
package safety

// Severity classifies a Finding's clinical weight, matching spec.md §3's
// Safety Finding severity vocabulary. Absolute and relative findings are
// surfaced as fatal/error validation issues respectively; caution and
// informational findings are warnings.
type Severity string

const (
	SeverityAbsolute      Severity = "absolute"
	SeverityRelative      Severity = "relative"
	SeverityCaution       Severity = "caution"
	SeverityInformational Severity = "informational"
)

// Kind names which check produced a Finding, matching spec.md §3's finding
// kind vocabulary plus duplicate-therapy (spec.md §8's boundary behavior)
// and drug-class-note (informational notes such as opioid monitoring).
type Kind string

const (
	KindAllergyContraindication   Kind = "allergy-contraindication"
	KindDrugInteraction           Kind = "drug-interaction"
	KindDoseOutOfRange            Kind = "dose-out-of-range"
	KindPediatricContraindication Kind = "pediatric-contraindication"
	KindGeriatricCaution          Kind = "geriatric-caution"
	KindPregnancyContraindication Kind = "pregnancy-contraindication"
	KindDuplicateTherapy          Kind = "duplicate-therapy"
	KindDrugClassNote             Kind = "drug-class-note"
)

// Finding is one safety concern raised against a set of payloads about to
// be bundled. Participants names the internal payload IDs involved so a
// caller can annotate or reject the specific resources responsible.
type Finding struct {
	Kind         Kind
	Severity     Severity
	Description  string
	Participants []string
}

// IsBlocking reports whether the finding should surface as a fatal/error
// outcome rather than a warning, per spec.md §4.4.1's "absolute/relative
// are fatal/error, lower severities are warnings" rule.
func (f Finding) IsBlocking() bool {
	return f.Severity == SeverityAbsolute || f.Severity == SeverityRelative
}

// IssueSeverity maps a Finding's Severity onto the FHIR OperationOutcome
// issue-severity vocabulary it's attached under: absolute findings are
// fatal, relative findings are error, and caution and informational
// findings are warning.
func (s Severity) IssueSeverity() string {
	switch s {
	case SeverityAbsolute:
		return "fatal"
	case SeverityRelative:
		return "error"
	default:
		return "warning"
	}
}
