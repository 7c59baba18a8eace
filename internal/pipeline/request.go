// Package pipeline wires the Terminology Coder, Entity Extractor, Resource
// Factory Registry, Bundle Assembler, safety Checker and Validation Loop
// into the single entry point an embedding process calls per clinical-text
// order.
package pipeline

import "github.com/ehr/clinicaltext/internal/domain/safety"

// Subject is the caller-declared patient the assembled bundle is built
// against. The pipeline never infers patient identity from free text.
type Subject struct {
	FamilyName       string
	GivenNames       []string
	Gender           string
	BirthDate        string
	IdentifierSystem string
	IdentifierValue  string
	Context          safety.PatientContext
}

// Request is a single clinical-text-to-bundle invocation.
type Request struct {
	Text            string
	Subject         Subject
	BundleKind      string // fhir.BundleTypeTransaction or fhir.BundleTypeCollection
	CostCeiling     float64
	ExternalRefs    []string
	CorrelationToken string

	// KnownAllergies lets a caller pass allergies already on record so the
	// safety checker can cross-reference them against anything newly
	// extracted, even when the order text itself doesn't restate them.
	KnownAllergies []safety.AllergyRecord

	// Consent carries a consent-capture event alongside the order, when the
	// caller has one; it is not derived from the order's free text.
	Consent *ConsentCapture
}

// ConsentCapture is a caller-declared patient-consent event to attach to
// the assembled bundle.
type ConsentCapture struct {
	DateTime   string
	PolicyRule string
	Category   string
}
