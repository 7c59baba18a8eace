// Package entity holds the clinical entity type produced by the extractor
// and consumed by the resource factories. Entities are immutable once
// created: a tier never rewrites an entity committed by an earlier tier.
package entity

// Kind discriminates the clinical concept an entity represents.
type Kind string

const (
	KindMedication       Kind = "Medication"
	KindDosage           Kind = "Dosage"
	KindFrequency        Kind = "Frequency"
	KindRoute            Kind = "Route"
	KindCondition        Kind = "Condition"
	KindLabTest          Kind = "LabTest"
	KindProcedure        Kind = "Procedure"
	KindObservation      Kind = "Observation"
	KindVitalSign        Kind = "VitalSign"
	KindDevice           Kind = "Device"
	KindAllergySubstance Kind = "AllergySubstance"
	KindPerson           Kind = "Person"
	KindVaccine          Kind = "Vaccine"
)

// Tier identifies which extraction stage produced an entity.
type Tier int

const (
	Tier1Deterministic Tier = 1
	Tier2NERTagger     Tier = 2
	Tier3RegexFallback Tier = 3
	Tier4ExternalModel Tier = 4
)

// Entity is a single clinical concept pulled out of free text.
type Entity struct {
	Kind        Kind
	RawText     string
	Normalized  string
	Confidence  float64
	Provenance  Tier
	// Attrs carries kind-specific structured detail extracted alongside
	// the surface form, e.g. {"value": "10", "unit": "mg"} for a Dosage
	// entity or {"frequency": "2", "period": "1", "periodUnit": "d"} for
	// a Frequency entity. Factories read these by convention per kind.
	Attrs map[string]string
}

// RequiredKindWeights are the weights used to compute the weighted-minimum
// extraction confidence across required entity kinds for a detected intent.
// Kinds absent from an extraction run are excluded from the weighted
// minimum rather than treated as zero confidence.
var RequiredKindWeights = map[Kind]float64{
	KindMedication: 1.0,
	KindDosage:     0.9,
	KindFrequency:  0.7,
	KindRoute:      0.5,
	KindCondition:  0.6,
}

// WeightedMinConfidence computes the weighted-minimum confidence across the
// required kinds actually present in entities. A kind with multiple
// entities contributes its highest-confidence instance. Per-kind confidence
// is weighted by damping its deficit from 1.0: weighted = 1-weight*(1-conf),
// so a low-weight kind (e.g. route, weight 0.5) pulls the overall minimum
// down less than a high-weight miss on medication (weight 1.0) would.
//
// A required kind that was never found at all does not enter the
// computation: its absence is a property of the input text, not of
// extraction confidence in what tier 1 did find. Returns 1.0 (vacuously
// confident) when none of the required kinds are present, so a run over
// text with no order-like content doesn't force escalation looking for
// entities that were never going to be there.
func WeightedMinConfidence(entities []Entity) float64 {
	best := map[Kind]float64{}
	for _, e := range entities {
		if _, required := RequiredKindWeights[e.Kind]; !required {
			continue
		}
		if cur, seen := best[e.Kind]; !seen || e.Confidence > cur {
			best[e.Kind] = e.Confidence
		}
	}
	if len(best) == 0 {
		return 1.0
	}
	min := 1.0
	for kind, conf := range best {
		weighted := 1 - RequiredKindWeights[kind]*(1-conf)
		if weighted < min {
			min = weighted
		}
	}
	return min
}
