package extraction

import "github.com/ehr/clinicaltext/internal/domain/entity"

// TierState is the tiered extractor's explicit state, advanced by a single
// predicate-driven function rather than chained continuations, per spec.md
// §9's "plain state enum with an advance function is easier to audit."
type TierState int

const (
	StateTier1 TierState = iota
	StateTier2
	StateTier3
	StateTier4
	StateDone
)

// decision records why the state machine advanced or stopped, becoming
// part of the escalation-decisions log carried in Result.
type decision struct {
	fromTier         TierState
	confidence       float64
	threshold        float64
	escalated        bool
	budgetHalted     bool
}

// advance decides whether extraction should escalate past the current
// tier, given the confidence observed so far and the remaining budget. It
// returns the next state and a decision record.
func advance(state TierState, confidence float64, thresholds [4]float64, tier4Enabled bool, costRemaining, tier4EstimatedCost float64) (TierState, decision) {
	idx := int(state)
	threshold := thresholds[idx]

	d := decision{fromTier: state, confidence: confidence, threshold: threshold}

	if confidence >= threshold {
		d.escalated = false
		return StateDone, d
	}

	switch state {
	case StateTier1:
		d.escalated = true
		return StateTier2, d
	case StateTier2:
		d.escalated = true
		return StateTier3, d
	case StateTier3:
		if !tier4Enabled || costRemaining < tier4EstimatedCost {
			d.budgetHalted = tier4Enabled // only a "halt" if tier 4 was otherwise eligible
			return StateDone, d
		}
		d.escalated = true
		return StateTier4, d
	default: // StateTier4 is terminal regardless of confidence
		return StateDone, d
	}
}

// requiredKindsFor returns the required entity kinds tier 4 should be
// asked to focus on, derived from whichever required kinds are still
// missing or low-confidence after tiers 1-3.
func requiredKindsFor(entities []entity.Entity) []entity.Kind {
	seen := map[entity.Kind]float64{}
	for _, e := range entities {
		if cur, ok := seen[e.Kind]; !ok || e.Confidence > cur {
			seen[e.Kind] = e.Confidence
		}
	}
	var missing []entity.Kind
	for kind := range entity.RequiredKindWeights {
		if conf, ok := seen[kind]; !ok || conf < 0.7 {
			missing = append(missing, kind)
		}
	}
	return missing
}
