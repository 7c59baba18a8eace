package terminology

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

// cacheKey is the (intent, normalised term) pair the LRU is keyed by.
type cacheKey struct {
	intent Intent
	term   string
}

// Coder is the Terminology Coder component: never fails, always returns a
// CodedConcept (falling back to text-only when nothing matches). Its
// internal ontology tables are read-only after construction and safe for
// concurrent reads. Its LRU cache is one hashicorp/golang-lru cache,
// synchronized by that library's single internal lock; the coder takes no
// mutex of its own, and the cache is not sharded.
type Coder struct {
	byIntent    map[Intent][]*ontology
	drugClasses map[string]string
	cache       *lru.Cache[cacheKey, CodedConcept]
	log         zerolog.Logger
}

// NewCoder builds a Coder from reference data with the given LRU capacity.
// Ontology tables and alias tables are constructed once here and never
// mutated afterward.
func NewCoder(rd ReferenceData, cacheCapacity int, log zerolog.Logger) (*Coder, error) {
	drug := newOntology(SystemDrug, toRows(rd.Drug), rd.DrugAliases)
	lab := newOntology(SystemLab, toRows(rd.Lab), nil)
	clinical := newOntology(SystemClinical, toRows(rd.Clinical), rd.ClinicalAliases)
	diagnosis := newOntology(SystemDiagnosis, toRows(rd.Diagnosis), nil)
	vaccine := newOntology(SystemVaccine, toRows(rd.Vaccine), nil)
	unit := newOntology(SystemUnit, toRows(rd.Unit), nil)

	cache, err := lru.New[cacheKey, CodedConcept](cacheCapacity)
	if err != nil {
		return nil, fmt.Errorf("terminology: building LRU cache: %w", err)
	}

	return &Coder{
		byIntent: map[Intent][]*ontology{
			IntentDrug:         {drug},
			IntentLab:          {lab},
			IntentCondition:    {clinical, diagnosis},
			IntentProcedure:    {clinical},
			IntentVaccine:      {vaccine},
			IntentUnit:         {unit},
			IntentFacilityType: {clinical},
			IntentRelationship: {clinical},
			IntentAllergen:     {drug},
			IntentAnatomy:      {clinical},
		},
		drugClasses: rd.DrugClasses,
		cache:       cache,
		log:         log.With().Str("component", "terminology_coder").Logger(),
	}, nil
}

// Code maps a free-text term to a coded concept for the given intent. It
// never returns an error; a term with no match in any consulted ontology
// yields a text-only concept built from the original term.
func (c *Coder) Code(term string, intent Intent) CodedConcept {
	if term == "" {
		return CodedConcept{}
	}
	key := cacheKey{intent: intent, term: normalize(term)}
	if hit, ok := c.cache.Get(key); ok {
		return hit
	}

	concept := textOnly(term)
	for _, ont := range c.byIntent[intent] {
		if e, tier, ok := ont.lookup(term); ok {
			concept = CodedConcept{System: ont.system, Code: e.Code, Display: e.Display, Matched: tier}
			break
		}
	}

	c.cache.Add(key, concept)
	if concept.Matched == MatchNone {
		c.log.Debug().Str("intent", string(intent)).Msg("no coding resolved, falling back to text")
	}
	return concept
}

// DrugClass returns the pharmacologic class for a resolved drug code, used
// by the safety layer's cross-class allergy check. ok is false when the
// code has no recorded class.
func (c *Coder) DrugClass(code string) (string, bool) {
	class, ok := c.drugClasses[code]
	return class, ok
}

func toRows(data []RowData) []entry {
	rows := make([]entry, 0, len(data))
	for _, d := range data {
		rows = append(rows, entry{Normalized: d.Term, Code: d.Code, Display: d.Display})
	}
	return rows
}
