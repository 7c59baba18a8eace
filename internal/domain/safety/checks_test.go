package safety

import (
	"testing"

	"github.com/ehr/clinicaltext/internal/domain/terminology"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func newTestChecker(t *testing.T) *Checker {
	t.Helper()
	coder, err := terminology.NewCoder(terminology.DefaultReferenceData(), 64, zerolog.Nop())
	if err != nil {
		t.Fatalf("building coder: %v", err)
	}
	return NewChecker(coder)
}

func TestCheckAllergyConflicts_DirectMatch(t *testing.T) {
	c := newTestChecker(t)
	meds := []MedicationOrder{{PayloadID: "mr1", DrugCode: "723"}}
	allergies := []AllergyRecord{{PayloadID: "ai1", AllergenCode: "723"}}
	findings := c.Run(meds, allergies, PatientContext{})
	if len(findings) != 1 || findings[0].Kind != KindAllergyContraindication {
		t.Fatalf("expected one allergy conflict finding, got %+v", findings)
	}
	if findings[0].Severity != SeverityAbsolute {
		t.Errorf("expected a direct allergy match to be absolute severity, got %s", findings[0].Severity)
	}
	if !findings[0].IsBlocking() {
		t.Error("expected a direct allergy match to be blocking")
	}
}

func TestCheckAllergyConflicts_CrossClass(t *testing.T) {
	c := newTestChecker(t)
	// 723 = amoxicillin, 7980 = penicillin, both penicillin-class.
	meds := []MedicationOrder{{PayloadID: "mr1", DrugCode: "723"}}
	allergies := []AllergyRecord{{PayloadID: "ai1", AllergenCode: "7980"}}
	findings := c.Run(meds, allergies, PatientContext{})
	if len(findings) != 1 || findings[0].Kind != KindAllergyContraindication {
		t.Fatalf("expected a cross-class allergy conflict, got %+v", findings)
	}
	if findings[0].Severity != SeverityRelative {
		t.Errorf("expected cross-class match to be relative severity, not the same as a direct match, got %s", findings[0].Severity)
	}
	if !findings[0].IsBlocking() {
		t.Error("expected a relative-severity finding to still be blocking (fatal/error bucket)")
	}
}

func TestCheckDrugInteractions(t *testing.T) {
	c := newTestChecker(t)
	meds := []MedicationOrder{
		{PayloadID: "mr1", DrugCode: "11289"}, // warfarin
		{PayloadID: "mr2", DrugCode: "1191"},  // aspirin
	}
	findings := c.Run(meds, nil, PatientContext{})
	if len(findings) != 1 || findings[0].Kind != KindDrugInteraction {
		t.Fatalf("expected one drug interaction finding, got %+v", findings)
	}
	if findings[0].Severity != SeverityRelative {
		t.Errorf("expected relative severity, got %s", findings[0].Severity)
	}
}

func TestCheckDoseRanges_Underdose(t *testing.T) {
	c := newTestChecker(t)
	// lisinopril's range is 2-40mg; 1mg is below the minimum.
	meds := []MedicationOrder{{PayloadID: "mr1", DrugCode: "29046", DoseValue: decimal.NewFromInt(1), DoseUnit: "mg"}}
	findings := c.Run(meds, nil, PatientContext{})
	if len(findings) != 1 || findings[0].Kind != KindDoseOutOfRange {
		t.Fatalf("expected a dose-range finding, got %+v", findings)
	}
	if findings[0].Severity != SeverityCaution {
		t.Errorf("expected underdose to be caution severity, got %s", findings[0].Severity)
	}
}

func TestCheckDoseRanges_ModerateOverdose(t *testing.T) {
	c := newTestChecker(t)
	// 50mg is 1.25x lisinopril's 40mg maximum: under the 2x "high" threshold.
	meds := []MedicationOrder{{PayloadID: "mr1", DrugCode: "29046", DoseValue: decimal.NewFromInt(50), DoseUnit: "mg"}}
	findings := c.Run(meds, nil, PatientContext{})
	if len(findings) != 1 || findings[0].Kind != KindDoseOutOfRange {
		t.Fatalf("expected a dose-range finding, got %+v", findings)
	}
	if findings[0].Severity != SeverityCaution {
		t.Errorf("expected moderate overdose to be caution severity, got %s", findings[0].Severity)
	}
}

func TestCheckDoseRanges_HighOverdose(t *testing.T) {
	c := newTestChecker(t)
	// 90mg is 2.25x lisinopril's 40mg maximum: at/above the 2x "high" band.
	meds := []MedicationOrder{{PayloadID: "mr1", DrugCode: "29046", DoseValue: decimal.NewFromInt(90), DoseUnit: "mg"}}
	findings := c.Run(meds, nil, PatientContext{})
	if len(findings) != 1 || findings[0].Kind != KindDoseOutOfRange {
		t.Fatalf("expected a dose-range finding, got %+v", findings)
	}
	if findings[0].Severity != SeverityRelative {
		t.Errorf("expected high overdose to be relative severity, got %s", findings[0].Severity)
	}
	if !findings[0].IsBlocking() {
		t.Error("expected a high overdose to be blocking")
	}
}

func TestCheckDoseRanges_CriticalOverdose(t *testing.T) {
	c := newTestChecker(t)
	// 500mg is 12.5x lisinopril's 40mg maximum: well past the 3x "critical" band.
	meds := []MedicationOrder{{PayloadID: "mr1", DrugCode: "29046", DoseValue: decimal.NewFromInt(500), DoseUnit: "mg"}}
	findings := c.Run(meds, nil, PatientContext{})
	if len(findings) != 1 || findings[0].Kind != KindDoseOutOfRange {
		t.Fatalf("expected a dose-range finding, got %+v", findings)
	}
	if findings[0].Severity != SeverityAbsolute {
		t.Errorf("expected critical overdose to be absolute severity, got %s", findings[0].Severity)
	}
	if !findings[0].IsBlocking() {
		t.Error("expected a critical overdose to be blocking")
	}
}

func TestCheckDoseRanges_ConvertsUnitsBeforeComparing(t *testing.T) {
	c := newTestChecker(t)
	// 0.01 g == 10 mg, within lisinopril's 2-40mg range.
	meds := []MedicationOrder{{PayloadID: "mr1", DrugCode: "29046", DoseValue: decimal.NewFromFloat(0.01), DoseUnit: "g"}}
	findings := c.Run(meds, nil, PatientContext{})
	if len(findings) != 0 {
		t.Fatalf("expected no dose-range finding after unit conversion, got %+v", findings)
	}
}

func TestCheckAgeContraindications_Pediatric(t *testing.T) {
	c := newTestChecker(t)
	age := 8
	meds := []MedicationOrder{{PayloadID: "mr1", DrugCode: "1191"}} // aspirin
	findings := c.Run(meds, nil, PatientContext{PayloadID: "pat1", AgeYears: &age})
	if len(findings) != 1 || findings[0].Kind != KindPediatricContraindication {
		t.Fatalf("expected a pediatric-contraindication finding, got %+v", findings)
	}
	if findings[0].Severity != SeverityAbsolute {
		t.Errorf("expected absolute severity, got %s", findings[0].Severity)
	}
}

func TestCheckAgeContraindications_Geriatric(t *testing.T) {
	c := newTestChecker(t)
	age := 72
	meds := []MedicationOrder{{PayloadID: "mr1", DrugCode: "7052"}} // morphine
	findings := c.Run(meds, nil, PatientContext{PayloadID: "pat1", AgeYears: &age})
	var found bool
	for _, f := range findings {
		if f.Kind == KindGeriatricCaution {
			found = true
			if f.Severity != SeverityCaution {
				t.Errorf("expected caution severity, got %s", f.Severity)
			}
			if f.IsBlocking() {
				t.Error("a geriatric caution should not be blocking")
			}
		}
	}
	if !found {
		t.Fatalf("expected a geriatric-caution finding, got %+v", findings)
	}
}

func TestCheckPregnancyContraindications(t *testing.T) {
	c := newTestChecker(t)
	meds := []MedicationOrder{{PayloadID: "mr1", DrugCode: "11289"}} // warfarin
	findings := c.Run(meds, nil, PatientContext{PayloadID: "pat1", Pregnant: true, PregnancyKnown: true})
	if len(findings) != 1 || findings[0].Kind != KindPregnancyContraindication {
		t.Fatalf("expected a pregnancy-contraindication finding, got %+v", findings)
	}
}

func TestCheckDuplicateTherapy(t *testing.T) {
	c := newTestChecker(t)
	meds := []MedicationOrder{
		{PayloadID: "mr1", DrugCode: "29046"},
		{PayloadID: "mr2", DrugCode: "29046"},
	}
	findings := c.Run(meds, nil, PatientContext{})
	if len(findings) != 1 || findings[0].Kind != KindDuplicateTherapy {
		t.Fatalf("expected a duplicate-therapy finding, got %+v", findings)
	}
	if findings[0].IsBlocking() {
		t.Error("duplicate therapy should not be blocking by default")
	}
}

func TestCheckDrugClassNotes_Opioid(t *testing.T) {
	c := newTestChecker(t)
	meds := []MedicationOrder{{PayloadID: "mr1", DrugCode: "7052"}} // morphine
	findings := c.Run(meds, nil, PatientContext{})
	var found bool
	for _, f := range findings {
		if f.Kind == KindDrugClassNote {
			found = true
			if f.Severity != SeverityInformational {
				t.Errorf("expected informational severity, got %s", f.Severity)
			}
			if f.IsBlocking() {
				t.Error("an informational note should never be blocking")
			}
		}
	}
	if !found {
		t.Fatalf("expected a drug-class-note finding for an opioid order, got %+v", findings)
	}
}
