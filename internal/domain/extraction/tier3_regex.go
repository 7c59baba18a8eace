package extraction

import (
	"context"
	"regexp"

	"github.com/ehr/clinicaltext/internal/domain/entity"
)

// RegexFallback is tier 3: narrower regex-family patterns for numeric
// dosages, time intervals, and route codes that tier 1's fixed rule
// dictionary did not capture (e.g. a dose written without a recognized
// medication name adjacent to it, or a written-out time interval). Tiers 1
// and 3 must both be deterministic per spec.md §4.2.
type RegexFallback struct{}

func NewRegexFallback() *RegexFallback { return &RegexFallback{} }

var bareDosePattern = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(milligrams?|micrograms?|grams?|units?)\b`)
var everyNHoursPattern = regexp.MustCompile(`(?i)\bevery\s+(\d+)\s+hours?\b`)

var unitWordToCode = map[string]string{
	"milligram": "mg", "milligrams": "mg",
	"microgram": "mcg", "micrograms": "mcg",
	"gram": "g", "grams": "g",
	"unit": "u", "units": "u",
}

func (r *RegexFallback) Run(ctx context.Context, text string, committed []entity.Entity) ([]entity.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []entity.Entity
	if haveDosage(committed) == false {
		for _, m := range bareDosePattern.FindAllStringSubmatch(text, -1) {
			unit := unitWordToCode[m[2]]
			out = append(out, entity.Entity{
				Kind:       entity.KindDosage,
				RawText:    m[0],
				Normalized: m[0],
				Confidence: 0.72,
				Provenance: entity.Tier3RegexFallback,
				Attrs:      map[string]string{"value": m[1], "unit": unit},
			})
		}
	}
	if m := everyNHoursPattern.FindStringSubmatch(text); m != nil && !haveFrequency(committed) {
		out = append(out, entity.Entity{
			Kind:       entity.KindFrequency,
			RawText:    m[0],
			Normalized: m[0],
			Confidence: 0.72,
			Provenance: entity.Tier3RegexFallback,
			Attrs:      map[string]string{"frequency": "1", "period": m[1], "periodUnit": "h"},
		})
	}
	return out, nil
}

func haveDosage(committed []entity.Entity) bool {
	for _, e := range committed {
		if e.Kind == entity.KindDosage {
			return true
		}
	}
	return false
}

func haveFrequency(committed []entity.Entity) bool {
	for _, e := range committed {
		if e.Kind == entity.KindFrequency {
			return true
		}
	}
	return false
}
