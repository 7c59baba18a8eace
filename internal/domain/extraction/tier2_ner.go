package extraction

import (
	"context"
	"strings"

	"github.com/ehr/clinicaltext/internal/domain/entity"
)

// Tagger is tier 2's capability: a generic sequence tagger over a medical
// NER vocabulary. Unlike tier 1, an implementation is permitted to be
// non-deterministic (a statistical model); this package's default
// implementation is a deterministic vocabulary-driven stand-in so the
// pipeline is exercisable without a real model dependency, per spec.md
// §9's guidance to isolate model calls behind a narrow capability trait.
type Tagger interface {
	Tag(ctx context.Context, text string, committed []entity.Entity) ([]entity.Entity, error)
}

// VocabTagger recognizes entity kinds missed by tier 1 using a broader,
// lower-precision vocabulary (e.g. generic drug-class terms, symptom
// descriptions) at a lower reported confidence than tier 1's exact rule
// matches.
type VocabTagger struct {
	Vocabulary map[string]entity.Kind
}

func NewVocabTagger(vocab map[string]entity.Kind) *VocabTagger {
	return &VocabTagger{Vocabulary: vocab}
}

func (v *VocabTagger) Tag(ctx context.Context, text string, committed []entity.Entity) ([]entity.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lower := strings.ToLower(text)
	var out []entity.Entity
	for term, kind := range v.Vocabulary {
		idx := strings.Index(lower, term)
		if idx < 0 {
			continue
		}
		out = append(out, entity.Entity{
			Kind:       kind,
			RawText:    text[idx : idx+len(term)],
			Normalized: term,
			Confidence: 0.8,
			Provenance: entity.Tier2NERTagger,
			Attrs:      map[string]string{"name": term},
		})
	}
	return out, nil
}
