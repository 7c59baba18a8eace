package extraction

import (
	"context"
	"errors"
	"testing"

	"github.com/ehr/clinicaltext/internal/corerr"
	"github.com/ehr/clinicaltext/internal/domain/entity"
	"github.com/rs/zerolog"
)

var testThresholds = [4]float64{0.85, 0.75, 0.70, 0}

func testDict() RuleDictionary {
	return RuleDictionary{
		MedicationNames: []string{"Lisinopril", "amoxicillin", "morphine"},
		ConditionNames:  []string{"hypertension", "infection"},
	}
}

func TestExtract_PrescriptionWithFrequency(t *testing.T) {
	e := NewExtractor(testDict(), testThresholds, 10000, zerolog.Nop())
	res, err := e.Extract(context.Background(), "Prescribe 10mg Lisinopril daily for hypertension", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hasKind(res.Entities, entity.KindMedication) {
		t.Error("expected a medication entity")
	}
	if !hasKind(res.Entities, entity.KindDosage) {
		t.Error("expected a dosage entity")
	}
	if !hasKind(res.Entities, entity.KindFrequency) {
		t.Error("expected a frequency entity")
	}
	if !hasKind(res.Entities, entity.KindCondition) {
		t.Error("expected a condition entity")
	}
	if res.FinalTier != entity.Tier1Deterministic {
		t.Errorf("expected a well-formed order to stop at tier 1, got tier %d", res.FinalTier)
	}
}

func TestExtract_VitalSigns(t *testing.T) {
	e := NewExtractor(testDict(), testThresholds, 10000, zerolog.Nop())
	res, err := e.Extract(context.Background(), "BP 110/70, HR 68, SpO2 97% during morphine infusion", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	count := 0
	for _, ent := range res.Entities {
		if ent.Kind == entity.KindVitalSign {
			count++
		}
	}
	if count != 3 {
		t.Errorf("expected 3 vital sign entities, got %d", count)
	}
	if !hasKind(res.Entities, entity.KindMedication) {
		t.Error("expected morphine to be recognized as a medication")
	}
}

func TestExtract_EmptyTextYieldsNoEntitiesNotError(t *testing.T) {
	e := NewExtractor(testDict(), testThresholds, 10000, zerolog.Nop())
	res, err := e.Extract(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("expected empty text to succeed with no entities, got error: %v", err)
	}
	if len(res.Entities) != 0 {
		t.Errorf("expected no entities, got %d", len(res.Entities))
	}
}

func TestExtract_InputTooLarge(t *testing.T) {
	e := NewExtractor(testDict(), testThresholds, 10, zerolog.Nop())
	_, err := e.Extract(context.Background(), "this text is definitely longer than ten runes", 0)
	if err == nil {
		t.Fatal("expected InputTooLarge error")
	}
	if !errors.Is(err, corerr.ErrInputTooLarge) {
		t.Errorf("expected ErrInputTooLarge, got %v", err)
	}
}

func TestAdvance_ZeroCostCeilingHaltsBeforeTier4(t *testing.T) {
	next, d := advance(StateTier3, 0.5, testThresholds, true, 0, 5)
	if next != StateDone {
		t.Fatalf("expected state machine to halt rather than enter tier 4, got state %d", next)
	}
	if !d.budgetHalted {
		t.Error("expected budget-halted to be recorded when tier 4 is enabled but unaffordable")
	}
}

func TestAdvance_Tier4DisabledHaltsWithoutBudgetFlag(t *testing.T) {
	next, d := advance(StateTier3, 0.5, testThresholds, false, 100, 5)
	if next != StateDone {
		t.Fatalf("expected state machine to halt when tier 4 is disabled, got state %d", next)
	}
	if d.budgetHalted {
		t.Error("tier 4 disabled by configuration is not a budget halt")
	}
}

func TestAdvance_SufficientBudgetEntersTier4(t *testing.T) {
	next, _ := advance(StateTier3, 0.5, testThresholds, true, 10, 5)
	if next != StateTier4 {
		t.Fatalf("expected escalation into tier 4, got state %d", next)
	}
}

func TestExtract_ZeroCostCeilingNeverInvokesTier4(t *testing.T) {
	fake := &fakeInferencer{cost: 5, calls: new(int)}
	e := &Extractor{
		tier1:        NewPatternMatcher(RuleDictionary{}),
		tier3:        NewRegexFallback(),
		tier4:        fake,
		tier4Enabled: true,
		thresholds:   [4]float64{2, 2, 2, 0}, // force escalation through every tier
		maxInputLen:  10000,
		log:          zerolog.Nop(),
	}
	res, err := e.Extract(context.Background(), "no recognizable entities here", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *fake.calls != 0 {
		t.Errorf("expected tier 4 never invoked with zero cost ceiling, got %d calls", *fake.calls)
	}
	if !res.BudgetHalted {
		t.Error("expected budget-halted to be recorded")
	}
}

func TestExtract_TierThresholdStopsEscalation(t *testing.T) {
	tagCalled := false
	tagger := &callbackTagger{fn: func() { tagCalled = true }}
	e := NewExtractor(testDict(), testThresholds, 10000, zerolog.Nop(), WithTier2(tagger))
	_, err := e.Extract(context.Background(), "Prescribe 10mg Lisinopril daily for hypertension", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tagCalled {
		t.Error("expected tier 2 not to run when tier 1 already meets its threshold")
	}
}

func hasKind(entities []entity.Entity, k entity.Kind) bool {
	for _, e := range entities {
		if e.Kind == k {
			return true
		}
	}
	return false
}

type fakeInferencer struct {
	cost  float64
	calls *int
}

func (f *fakeInferencer) EstimateCost(text string) float64 { return f.cost }
func (f *fakeInferencer) Infer(ctx context.Context, text string, kinds []entity.Kind) ([]entity.Entity, error) {
	*f.calls++
	return nil, nil
}

type callbackTagger struct{ fn func() }

func (c *callbackTagger) Tag(ctx context.Context, text string, committed []entity.Entity) ([]entity.Entity, error) {
	c.fn()
	return nil, nil
}
