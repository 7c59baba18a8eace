package terminology

import (
	"sort"
	"strings"
)

// entry is one reference-data row: a normalized term mapped to a code and
// display string within a single ontology.
type entry struct {
	Normalized string
	Code       string
	Display    string
}

// ontology is one fixed code system's reference data: a normalized-term
// index, a brand/alias-to-canonical-term table, and the stem index derived
// from both at construction time. Instances are built once and are
// read-only afterward, safe for concurrent lookups.
type ontology struct {
	system  string
	byTerm  map[string]entry
	aliases map[string]string // alias (normalized) -> canonical term (normalized)
	stems   map[string][]entry
}

func newOntology(system string, rows []entry, aliases map[string]string) *ontology {
	o := &ontology{
		system:  system,
		byTerm:  make(map[string]entry, len(rows)),
		aliases: make(map[string]string, len(aliases)),
		stems:   make(map[string][]entry),
	}
	for _, r := range rows {
		r.Normalized = normalize(r.Normalized)
		o.byTerm[r.Normalized] = r
		o.stems[stemOf(r.Normalized)] = append(o.stems[stemOf(r.Normalized)], r)
	}
	for alias, canonical := range aliases {
		o.aliases[normalize(alias)] = normalize(canonical)
	}
	for stem := range o.stems {
		sort.Slice(o.stems[stem], func(i, j int) bool {
			return o.stems[stem][i].Code < o.stems[stem][j].Code
		})
	}
	return o
}

// lookup runs the match cascade specified in §4.1: case-insensitive exact,
// then normalized, then brand-to-generic alias, then stem-based partial.
// The first non-empty match wins; ties within a tier break lexicographic
// on code.
func (o *ontology) lookup(term string) (entry, MatchTier, bool) {
	exact := strings.ToLower(term)
	if e, ok := o.byTerm[exact]; ok {
		return e, MatchExact, true
	}
	norm := normalize(term)
	if e, ok := o.byTerm[norm]; ok {
		return e, MatchNormalized, true
	}
	if canonical, ok := o.aliases[norm]; ok {
		if e, ok := o.byTerm[canonical]; ok {
			return e, MatchAlias, true
		}
	}
	candidates := o.stems[stemOf(norm)]
	if len(candidates) > 0 {
		return candidates[0], MatchStemPartial, true
	}
	return entry{}, MatchNone, false
}

// normalize collapses whitespace and strips punctuation, lower-casing the
// result, per §4.1's "normalised (whitespace collapsed, punctuation
// stripped)" pass.
func normalize(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	prevSpace := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevSpace = false
		case r == ' ' || r == '\t' || r == '\n':
			if !prevSpace && b.Len() > 0 {
				b.WriteRune(' ')
				prevSpace = true
			}
		default:
			// punctuation is stripped, not replaced with a space
		}
	}
	return strings.TrimSpace(b.String())
}

// stemOf derives a coarse matching key for tier-4 partial matching: the
// first 4 runes of the first token, long enough to group inflections
// ("amoxicillin", "amoxicillins") without collapsing unrelated terms.
func stemOf(normalized string) string {
	first := normalized
	if i := strings.IndexByte(normalized, ' '); i >= 0 {
		first = normalized[:i]
	}
	if len(first) > 4 {
		return first[:4]
	}
	return first
}
