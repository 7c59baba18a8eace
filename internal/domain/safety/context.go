package safety

import "github.com/shopspring/decimal"

// MedicationOrder is the minimal view of a MedicationRequest the safety
// checks need: its coded drug, pharmacologic class (if resolved), and the
// per-dose amount/unit/route extracted from the order.
type MedicationOrder struct {
	PayloadID string
	DrugCode  string
	DrugClass string
	DoseValue decimal.Decimal
	DoseUnit  string
	Route     string
}

// AllergyRecord is the minimal view of an AllergyIntolerance the safety
// checks need.
type AllergyRecord struct {
	PayloadID     string
	AllergenCode  string
	AllergenClass string
	Severity      string
}

// PatientContext carries the demographic facts the age/pregnancy checks
// need. AgeYears is optional: nil means "unknown", while a non-nil 0 is a
// real age. Pregnant is consulted only when PregnancyKnown is true;
// otherwise pregnancy status is unknown. Callers populate them only when
// the extracted text or declared subject actually states them.
type PatientContext struct {
	PayloadID    string
	AgeYears     *int
	Pregnant     bool
	PregnancyKnown bool
}
