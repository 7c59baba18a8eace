// Package extraction implements the four-tier entity extractor: a
// deterministic pattern matcher, a generic NER tagger, a regex fallback,
// and a budget-gated external-model call, escalating only when confidence
// falls under the current tier's threshold.
package extraction

import (
	"context"
	"fmt"

	"github.com/ehr/clinicaltext/internal/corerr"
	"github.com/ehr/clinicaltext/internal/domain/entity"
	"github.com/rs/zerolog"
)

// Result is what a completed extraction run produces.
type Result struct {
	Entities     []entity.Entity
	FinalTier    entity.Tier
	BudgetHalted bool
	Cost         float64
	Decisions    []string // human-readable escalation log, categorical only
}

// Extractor runs the tiered extraction state machine for one request. It
// holds no per-request mutable state itself; callers construct a fresh
// invocation per request by calling Extract, which is safe to call
// concurrently across requests since its collaborators (tier1 rule
// dictionary, tier2 vocabulary, tier4 client) are immutable after
// construction.
type Extractor struct {
	tier1        *PatternMatcher
	tier2        Tagger
	tier3        *RegexFallback
	tier4        Inferencer
	tier4Enabled bool
	thresholds   [4]float64
	maxInputLen  int
	log          zerolog.Logger
}

// Option configures an Extractor at construction time.
type Option func(*Extractor)

func WithTier2(t Tagger) Option { return func(e *Extractor) { e.tier2 = t } }
func WithTier4(t Inferencer, enabled bool) Option {
	return func(e *Extractor) { e.tier4 = t; e.tier4Enabled = enabled }
}

func NewExtractor(dict RuleDictionary, thresholds [4]float64, maxInputLen int, log zerolog.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		tier1:       NewPatternMatcher(dict),
		tier3:       NewRegexFallback(),
		thresholds:  thresholds,
		maxInputLen: maxInputLen,
		log:         log.With().Str("component", "entity_extractor").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs the tiered state machine over text under the given cost
// ceiling. It never fails merely because no entities were found
// (NoEntitiesFound is not an error); it fails only with InputTooLarge,
// ExtractionFailed, or ctx's error when ctx is done before a tier runs.
func (e *Extractor) Extract(ctx context.Context, text string, costCeiling float64) (Result, error) {
	if len([]rune(text)) > e.maxInputLen {
		return Result{}, fmt.Errorf("extraction: %w (%d runes, max %d)", corerr.ErrInputTooLarge, len([]rune(text)), e.maxInputLen)
	}

	var (
		committed    []entity.Entity
		cost         float64
		allTiersErr  = true
		state        = StateTier1
		decisions    []string
		budgetHalted bool
	)

	for state != StateDone {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("extraction: %w", err)
		}

		var (
			produced []entity.Entity
			err      error
		)

		switch state {
		case StateTier1:
			produced, err = e.tier1.Run(ctx, text, committed)
		case StateTier2:
			if e.tier2 != nil {
				produced, err = e.tier2.Tag(ctx, text, committed)
			}
		case StateTier3:
			produced, err = e.tier3.Run(ctx, text, committed)
		case StateTier4:
			if e.tier4 != nil {
				estimated := e.tier4.EstimateCost(text)
				produced, err = e.tier4.Infer(ctx, text, requiredKindsFor(committed))
				if err == nil {
					cost += estimated
				}
			}
		}

		if err == nil {
			allTiersErr = false
			committed = append(committed, produced...)
		} else {
			e.log.Warn().Int("tier", int(state)+1).Msg("extraction tier failed")
		}

		confidence := entity.WeightedMinConfidence(committed)
		remaining := costCeiling - cost
		var estimatedTier4Cost float64
		if e.tier4 != nil {
			estimatedTier4Cost = e.tier4.EstimateCost(text)
		}

		next, d := advance(state, confidence, e.thresholds, e.tier4Enabled && e.tier4 != nil, remaining, estimatedTier4Cost)
		decisions = append(decisions, fmt.Sprintf("tier=%d confidence=%.2f threshold=%.2f escalated=%v", int(d.fromTier)+1, d.confidence, d.threshold, d.escalated))
		if d.budgetHalted {
			budgetHalted = true
		}
		state = next
	}

	if allTiersErr {
		return Result{}, fmt.Errorf("extraction: %w", corerr.ErrExtractionFailed)
	}

	return Result{
		Entities:     committed,
		FinalTier:    entity.Tier(lastCommittingTier(committed)),
		BudgetHalted: budgetHalted,
		Cost:         cost,
		Decisions:    decisions,
	}, nil
}

func lastCommittingTier(entities []entity.Entity) entity.Tier {
	var max entity.Tier
	for _, e := range entities {
		if e.Provenance > max {
			max = e.Provenance
		}
	}
	if max == 0 {
		return entity.Tier1Deterministic
	}
	return max
}
