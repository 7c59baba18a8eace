package extraction

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/ehr/clinicaltext/internal/domain/entity"
)

// RuleDictionary is the configurable vocabulary a PatternMatcher consults.
// It is loaded once by the embedding process (e.g. from the same reference
// data file the Terminology Coder loads) and treated as read-only.
type RuleDictionary struct {
	// MedicationNames lists recognized medication surface forms
	// (generic and brand), matched case-insensitively.
	MedicationNames []string
	// ConditionNames lists recognized condition surface forms.
	ConditionNames []string
}

var doseUnitPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(mg|mcg|g|ml|u)\b`)

var frequencyPatterns = []struct {
	re     *regexp.Regexp
	freq   int
	period float64
	unit   string
}{
	{regexp.MustCompile(`(?i)\bonce daily\b|\bqd\b|\bdaily\b`), 1, 1, "d"},
	{regexp.MustCompile(`(?i)\btwice daily\b|\bbid\b`), 2, 1, "d"},
	{regexp.MustCompile(`(?i)\bthree times daily\b|\btid\b`), 3, 1, "d"},
	{regexp.MustCompile(`(?i)\bfour times daily\b|\bqid\b`), 4, 1, "d"},
	{regexp.MustCompile(`(?i)\bprn\b`), 0, 0, "prn"},
}

var qnhPattern = regexp.MustCompile(`(?i)\bq(\d+)h\b`)

var routePatterns = map[string]*regexp.Regexp{
	"oral route":          regexp.MustCompile(`(?i)\bby mouth\b|\boral(ly)?\b|\bpo\b`),
	"intravenous route":   regexp.MustCompile(`(?i)\bintravenous(ly)?\b|\biv\b`),
	"intramuscular route": regexp.MustCompile(`(?i)\bintramuscular(ly)?\b|\bim\b`),
}

var bpPattern = regexp.MustCompile(`(?i)\bBP\s*(\d{2,3})\s*/\s*(\d{2,3})\b`)
var hrPattern = regexp.MustCompile(`(?i)\bHR\s*(\d{2,3})\b`)
var spo2Pattern = regexp.MustCompile(`(?i)\bSpO2\s*(\d{2,3})\s*%`)

// administrationPattern recognizes phrasing that describes a medication
// already being given rather than being ordered, e.g. "during morphine
// infusion". A request covers a single clinical order, so one match
// against the whole text is enough to classify every medication mention
// in it.
var administrationPattern = regexp.MustCompile(`(?i)\binfusion\b|\badminister(ed|ing)?\b|\bgiven\b|\bgiving\b`)

// PatternMatcher is tier 1: a deterministic clinical pattern matcher over a
// configurable rule dictionary. It never returns an error for textual input
// it simply fails to match; Run only errors if ctx is already done.
type PatternMatcher struct {
	dict RuleDictionary
}

func NewPatternMatcher(dict RuleDictionary) *PatternMatcher {
	return &PatternMatcher{dict: dict}
}

func (p *PatternMatcher) Run(ctx context.Context, text string, committed []entity.Entity) ([]entity.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []entity.Entity
	out = append(out, p.matchMedications(text)...)
	out = append(out, p.matchDoses(text)...)
	out = append(out, p.matchFrequencies(text)...)
	out = append(out, p.matchRoutes(text)...)
	out = append(out, p.matchConditions(text)...)
	out = append(out, p.matchVitalSigns(text)...)
	return out, nil
}

func (p *PatternMatcher) matchMedications(text string) []entity.Entity {
	var out []entity.Entity
	lower := strings.ToLower(text)
	administered := administrationPattern.MatchString(text)
	for _, name := range p.dict.MedicationNames {
		idx := strings.Index(lower, strings.ToLower(name))
		if idx < 0 {
			continue
		}
		attrs := map[string]string{"name": name}
		if administered {
			attrs["event"] = "administration"
		}
		out = append(out, entity.Entity{
			Kind:       entity.KindMedication,
			RawText:    text[idx : idx+len(name)],
			Normalized: name,
			Confidence: 0.97,
			Provenance: entity.Tier1Deterministic,
			Attrs:      attrs,
		})
	}
	return out
}

func (p *PatternMatcher) matchDoses(text string) []entity.Entity {
	var out []entity.Entity
	for _, m := range doseUnitPattern.FindAllStringSubmatch(text, -1) {
		out = append(out, entity.Entity{
			Kind:       entity.KindDosage,
			RawText:    m[0],
			Normalized: m[0],
			Confidence: 0.95,
			Provenance: entity.Tier1Deterministic,
			Attrs:      map[string]string{"value": m[1], "unit": strings.ToLower(m[2])},
		})
	}
	return out
}

func (p *PatternMatcher) matchFrequencies(text string) []entity.Entity {
	var out []entity.Entity
	for _, fp := range frequencyPatterns {
		if fp.re.MatchString(text) {
			out = append(out, entity.Entity{
				Kind:       entity.KindFrequency,
				RawText:    fp.re.FindString(text),
				Normalized: fp.re.FindString(text),
				Confidence: 0.95,
				Provenance: entity.Tier1Deterministic,
				Attrs: map[string]string{
					"frequency":  strconv.Itoa(fp.freq),
					"period":     strconv.FormatFloat(fp.period, 'f', -1, 64),
					"periodUnit": fp.unit,
				},
			})
			return out // first match wins; frequency patterns are mutually exclusive
		}
	}
	if m := qnhPattern.FindStringSubmatch(text); m != nil {
		out = append(out, entity.Entity{
			Kind:       entity.KindFrequency,
			RawText:    m[0],
			Normalized: m[0],
			Confidence: 0.9,
			Provenance: entity.Tier1Deterministic,
			Attrs:      map[string]string{"frequency": "1", "period": m[1], "periodUnit": "h"},
		})
	}
	return out
}

func (p *PatternMatcher) matchRoutes(text string) []entity.Entity {
	var out []entity.Entity
	for route, re := range routePatterns {
		if re.MatchString(text) {
			out = append(out, entity.Entity{
				Kind:       entity.KindRoute,
				RawText:    re.FindString(text),
				Normalized: route,
				Confidence: 0.9,
				Provenance: entity.Tier1Deterministic,
				Attrs:      map[string]string{"route": route},
			})
		}
	}
	return out
}

func (p *PatternMatcher) matchConditions(text string) []entity.Entity {
	var out []entity.Entity
	lower := strings.ToLower(text)
	for _, name := range p.dict.ConditionNames {
		idx := strings.Index(lower, strings.ToLower(name))
		if idx < 0 {
			continue
		}
		out = append(out, entity.Entity{
			Kind:       entity.KindCondition,
			RawText:    text[idx : idx+len(name)],
			Normalized: name,
			Confidence: 0.9,
			Provenance: entity.Tier1Deterministic,
			Attrs:      map[string]string{"name": name},
		})
	}
	return out
}

func (p *PatternMatcher) matchVitalSigns(text string) []entity.Entity {
	var out []entity.Entity
	if m := bpPattern.FindStringSubmatch(text); m != nil {
		// A BP reading is one vital-sign entity with both components
		// carried in Attrs; translate.go assembles it into a single
		// composite Observation rather than two separate ones.
		out = append(out, entity.Entity{
			Kind: entity.KindVitalSign, RawText: m[0], Normalized: "blood pressure",
			Confidence: 0.97, Provenance: entity.Tier1Deterministic,
			Attrs: map[string]string{"name": "blood pressure", "systolic": m[1], "diastolic": m[2], "unit": "mmHg"},
		})
	}
	if m := hrPattern.FindStringSubmatch(text); m != nil {
		out = append(out, entity.Entity{
			Kind: entity.KindVitalSign, RawText: m[0], Normalized: "heart rate",
			Confidence: 0.97, Provenance: entity.Tier1Deterministic,
			Attrs: map[string]string{"name": "heart rate", "value": m[1], "unit": "/min"},
		})
	}
	if m := spo2Pattern.FindStringSubmatch(text); m != nil {
		out = append(out, entity.Entity{
			Kind: entity.KindVitalSign, RawText: m[0], Normalized: "oxygen saturation",
			Confidence: 0.97, Provenance: entity.Tier1Deterministic,
			Attrs: map[string]string{"name": "oxygen saturation", "value": m[1], "unit": "%"},
		})
	}
	return out
}
