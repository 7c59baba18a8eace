// Package terminology maps free-text medical terms onto coded-concept
// structures across the fixed code systems the pipeline emits: drug, lab,
// clinical, diagnosis, vaccine and unit-of-measure ontologies.
package terminology

import "github.com/ehr/clinicaltext/internal/platform/fhir"

// System URIs are fixed by the wire format; the pipeline never emits any
// other code-system URI for these intents.
const (
	SystemDrug      = "http://www.nlm.nih.gov/research/umls/rxnorm"
	SystemLab       = "http://loinc.org"
	SystemClinical  = "http://snomed.info/sct"
	SystemDiagnosis = "http://hl7.org/fhir/sid/icd-10"
	SystemVaccine   = "http://hl7.org/fhir/sid/cvx"
	SystemUnit      = "http://unitsofmeasure.org"
)

// Intent selects which ontology (or priority list of ontologies) a lookup
// searches.
type Intent string

const (
	IntentDrug         Intent = "drug"
	IntentLab          Intent = "lab"
	IntentCondition    Intent = "condition"
	IntentProcedure    Intent = "procedure"
	IntentVaccine      Intent = "vaccine"
	IntentUnit         Intent = "unit"
	IntentFacilityType Intent = "facility-type"
	IntentRelationship Intent = "relationship"
	IntentAllergen     Intent = "allergen"
	IntentAnatomy      Intent = "anatomy"
)

// MatchTier records which stage of the lookup cascade produced a match,
// for diagnostics and for the idempotence test in the coder's test suite.
type MatchTier int

const (
	MatchNone MatchTier = iota
	MatchExact
	MatchNormalized
	MatchAlias
	MatchStemPartial
)

// CodedConcept pairs a code-system identifier, code and optional display
// with an optional free-text fallback. Invariant: System/Code is non-empty
// OR Text is non-empty for every concept Code returns for a non-empty term;
// an empty term yields the zero value.
type CodedConcept struct {
	System  string
	Code    string
	Display string
	Text    string
	Matched MatchTier
}

// HasCoding reports whether the concept carries a resolvable (system, code)
// pair, as opposed to a text-only fallback.
func (c CodedConcept) HasCoding() bool {
	return c.System != "" && c.Code != ""
}

// ToFHIR renders the concept as a wire-format CodeableConcept.
func (c CodedConcept) ToFHIR() *fhir.CodeableConcept {
	cc := &fhir.CodeableConcept{Text: c.Text}
	if c.HasCoding() {
		cc.Coding = []fhir.Coding{{System: c.System, Code: c.Code, Display: c.Display}}
	}
	return cc
}

// textOnly builds a fallback concept from the caller's term when no code
// was found, per the Terminology Coder's "never fails" contract.
func textOnly(term string) CodedConcept {
	return CodedConcept{Text: term}
}
