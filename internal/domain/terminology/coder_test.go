package terminology

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func newTestCoder(t *testing.T) *Coder {
	t.Helper()
	c, err := NewCoder(DefaultReferenceData(), 128, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewCoder: %v", err)
	}
	return c
}

func TestCode_ExactMatch(t *testing.T) {
	c := newTestCoder(t)
	concept := c.Code("lisinopril", IntentDrug)
	if !concept.HasCoding() {
		t.Fatal("expected a coding for lisinopril")
	}
	if concept.System != SystemDrug {
		t.Errorf("expected drug system, got %s", concept.System)
	}
}

func TestCode_CaseInsensitiveAndPunctuation(t *testing.T) {
	c := newTestCoder(t)
	concept := c.Code("Lisinopril.", IntentDrug)
	if !concept.HasCoding() {
		t.Fatal("expected normalized match to resolve a coding")
	}
}

func TestCode_AliasResolution(t *testing.T) {
	c := newTestCoder(t)
	concept := c.Code("Zestril", IntentDrug)
	if !concept.HasCoding() {
		t.Fatal("expected alias match for brand name Zestril")
	}
	if concept.Display != "Lisinopril" {
		t.Errorf("expected alias to resolve to Lisinopril, got %s", concept.Display)
	}
}

func TestCode_NoMatchFallsBackToText(t *testing.T) {
	c := newTestCoder(t)
	concept := c.Code("some never seen compound", IntentDrug)
	if concept.HasCoding() {
		t.Fatal("expected no coding for an unrecognized term")
	}
	if concept.Text != "some never seen compound" {
		t.Errorf("expected text fallback to preserve original term, got %s", concept.Text)
	}
}

func TestCode_Idempotent(t *testing.T) {
	c := newTestCoder(t)
	first := c.Code("amoxicillin", IntentDrug)
	second := c.Code(first.Display, IntentDrug)
	if first.Code != second.Code {
		t.Errorf("expected re-coding the display text to yield the same code: %s vs %s", first.Code, second.Code)
	}
}

func TestCode_CachesRepeatedLookups(t *testing.T) {
	c := newTestCoder(t)
	first := c.Code("amoxicillin", IntentDrug)
	second := c.Code("amoxicillin", IntentDrug)
	if first != second {
		t.Errorf("expected cached lookup to return identical concept")
	}
}

func TestCode_ConditionIntentPrefersClinicalOverDiagnosis(t *testing.T) {
	c := newTestCoder(t)
	concept := c.Code("hypertension", IntentCondition)
	if concept.System != SystemClinical {
		t.Errorf("expected clinical ontology to win priority over diagnosis, got %s", concept.System)
	}
}

func TestDrugClass_CrossClassLookup(t *testing.T) {
	c := newTestCoder(t)
	amox := c.Code("amoxicillin", IntentDrug)
	class, ok := c.DrugClass(amox.Code)
	if !ok || class != "penicillin-class" {
		t.Errorf("expected amoxicillin to map to penicillin-class, got %q ok=%v", class, ok)
	}
}

func TestConvertUnit_MgToG(t *testing.T) {
	got, ok := ConvertUnit(decimal.NewFromInt(1000), UnitMg, UnitG)
	if !ok {
		t.Fatal("expected mg->g conversion to be supported")
	}
	if !got.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected 1g, got %s", got)
	}
}

func TestConvertUnit_UnsupportedPair(t *testing.T) {
	_, ok := ConvertUnit(decimal.NewFromInt(1), UnitMg, "unknown")
	if ok {
		t.Fatal("expected unsupported pair to report ok=false")
	}
}

func TestNormalizeDoseUnit(t *testing.T) {
	c := newTestCoder(t)
	concept, err := c.NormalizeDoseUnit("MG")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if concept.Code != "mg" {
		t.Errorf("expected normalized unit code mg, got %s", concept.Code)
	}
}
