package safety

import (
	"fmt"

	"github.com/ehr/clinicaltext/internal/domain/terminology"
	"github.com/shopspring/decimal"
)

// Overdose bands the dose-range check reports, as multiples of the range
// maximum: moderate below 2x, high below 3x, critical at or above 3x.
var (
	doseOverdoseHighMultiple     = decimal.NewFromInt(2)
	doseOverdoseCriticalMultiple = decimal.NewFromInt(3)
)

// Checker runs every cross-resource safety check over a candidate set of
// medication orders, known allergies and patient context, grounded on the
// terminology coder's drug-class table for cross-class allergy matching.
type Checker struct {
	coder *terminology.Coder
}

func NewChecker(coder *terminology.Coder) *Checker {
	return &Checker{coder: coder}
}

// Run evaluates every check and returns the union of findings. Order is
// allergy conflicts, then interactions, then dose range, then age,
// pregnancy, duplicate therapy, then drug-class notes, but callers should
// not depend on ordering beyond grouping by Kind.
func (c *Checker) Run(meds []MedicationOrder, allergies []AllergyRecord, patient PatientContext) []Finding {
	var findings []Finding
	findings = append(findings, c.checkAllergyConflicts(meds, allergies)...)
	findings = append(findings, c.checkDrugInteractions(meds)...)
	findings = append(findings, c.checkDoseRanges(meds)...)
	findings = append(findings, c.checkAgeContraindications(meds, patient)...)
	findings = append(findings, c.checkPregnancyContraindications(meds, patient)...)
	findings = append(findings, c.checkDuplicateTherapy(meds)...)
	findings = append(findings, c.checkDrugClassNotes(meds)...)
	return findings
}

// resolveClasses fills in DrugClass/AllergenClass from the terminology
// coder when the caller didn't already resolve them.
func (c *Checker) resolveClasses(m *MedicationOrder, a *AllergyRecord) {
	if m != nil && m.DrugClass == "" && m.DrugCode != "" {
		if class, ok := c.coder.DrugClass(m.DrugCode); ok {
			m.DrugClass = class
		}
	}
	if a != nil && a.AllergenClass == "" && a.AllergenCode != "" {
		if class, ok := c.coder.DrugClass(a.AllergenCode); ok {
			a.AllergenClass = class
		}
	}
}

// checkAllergyConflicts flags a medication whose drug code matches a
// recorded allergen directly (absolute: the exact agent is documented as
// an allergen), or whose pharmacologic class matches the allergen's class
// (relative: cross-reactivity risk, e.g. an amoxicillin order against a
// recorded penicillin allergy, not a certainty).
func (c *Checker) checkAllergyConflicts(meds []MedicationOrder, allergies []AllergyRecord) []Finding {
	var findings []Finding
	for _, m := range meds {
		c.resolveClasses(&m, nil)
		for _, a := range allergies {
			c.resolveClasses(nil, &a)
			switch {
			case m.DrugCode != "" && m.DrugCode == a.AllergenCode:
				findings = append(findings, Finding{
					Kind:         KindAllergyContraindication,
					Severity:     SeverityAbsolute,
					Description:  fmt.Sprintf("ordered drug %s matches a recorded allergy", m.DrugCode),
					Participants: []string{m.PayloadID, a.PayloadID},
				})
			case m.DrugClass != "" && a.AllergenClass != "" && m.DrugClass == a.AllergenClass:
				findings = append(findings, Finding{
					Kind:         KindAllergyContraindication,
					Severity:     SeverityRelative,
					Description:  fmt.Sprintf("ordered drug class %s matches allergen class %s", m.DrugClass, a.AllergenClass),
					Participants: []string{m.PayloadID, a.PayloadID},
				})
			}
		}
	}
	return findings
}

func (c *Checker) checkDrugInteractions(meds []MedicationOrder) []Finding {
	var findings []Finding
	for i := 0; i < len(meds); i++ {
		for j := i + 1; j < len(meds); j++ {
			key := newInteractionKey(meds[i].DrugCode, meds[j].DrugCode)
			entry, ok := DefaultInteractions[key]
			if !ok {
				continue
			}
			findings = append(findings, Finding{
				Kind:         KindDrugInteraction,
				Severity:     entry.Severity,
				Description:  entry.Description,
				Participants: []string{meds[i].PayloadID, meds[j].PayloadID},
			})
		}
	}
	return findings
}

// checkDoseRanges flags underdose and overdose against the dosage-reference
// table, banding overdose severity by how many multiples of the range
// maximum the dose reaches rather than treating every violation the same
// (a 10x overdose is not clinically equivalent to a 10% overdose).
func (c *Checker) checkDoseRanges(meds []MedicationOrder) []Finding {
	var findings []Finding
	for _, m := range meds {
		rng, ok := DefaultDoseRanges[m.DrugCode]
		if !ok || m.DoseValue.IsZero() {
			continue
		}
		dose := m.DoseValue
		if m.DoseUnit != "" && m.DoseUnit != rng.Unit {
			converted, ok := terminology.ConvertUnit(m.DoseValue, m.DoseUnit, rng.Unit)
			if !ok {
				continue
			}
			dose = converted
		}
		switch {
		case dose.LessThan(rng.Min):
			findings = append(findings, Finding{
				Kind:         KindDoseOutOfRange,
				Severity:     SeverityCaution,
				Description:  fmt.Sprintf("dose %s%s is below the expected minimum %s %s", dose.String(), m.DoseUnit, rng.Min.String(), rng.Unit),
				Participants: []string{m.PayloadID},
			})
		case dose.GreaterThan(rng.Max):
			sev, band := overdoseSeverityAndBand(dose, rng.Max)
			findings = append(findings, Finding{
				Kind:         KindDoseOutOfRange,
				Severity:     sev,
				Description:  fmt.Sprintf("dose %s%s exceeds the expected maximum %s %s (%s overdose)", dose.String(), m.DoseUnit, rng.Max.String(), rng.Unit, band),
				Participants: []string{m.PayloadID},
			})
		}
	}
	return findings
}

// overdoseSeverityAndBand maps an overdose onto its band/severity by how
// many multiples of the range maximum the dose reaches.
func overdoseSeverityAndBand(dose, max decimal.Decimal) (Severity, string) {
	if max.IsZero() {
		return SeverityRelative, "moderate"
	}
	switch multiple := dose.Div(max); {
	case multiple.GreaterThanOrEqual(doseOverdoseCriticalMultiple):
		return SeverityAbsolute, "critical"
	case multiple.GreaterThanOrEqual(doseOverdoseHighMultiple):
		return SeverityRelative, "high"
	default:
		return SeverityCaution, "moderate"
	}
}

// checkAgeContraindications applies both the pediatric and geriatric
// thresholds from the contraindication tables: pediatric restrictions are
// outright contraindications (absolute), geriatric thresholds are cautions
// since the drug remains appropriate with closer monitoring.
func (c *Checker) checkAgeContraindications(meds []MedicationOrder, patient PatientContext) []Finding {
	if patient.AgeYears == nil {
		return nil
	}
	var findings []Finding
	for _, m := range meds {
		if maxAge, restricted := pediatricRestricted[m.DrugCode]; restricted && *patient.AgeYears < maxAge {
			findings = append(findings, Finding{
				Kind:         KindPediatricContraindication,
				Severity:     SeverityAbsolute,
				Description:  fmt.Sprintf("drug %s is contraindicated below age %d", m.DrugCode, maxAge),
				Participants: []string{m.PayloadID, patient.PayloadID},
			})
		}
		if minAge, cautioned := geriatricCaution[m.DrugCode]; cautioned && *patient.AgeYears >= minAge {
			findings = append(findings, Finding{
				Kind:         KindGeriatricCaution,
				Severity:     SeverityCaution,
				Description:  fmt.Sprintf("drug %s warrants closer monitoring at age %d and above", m.DrugCode, minAge),
				Participants: []string{m.PayloadID, patient.PayloadID},
			})
		}
	}
	return findings
}

func (c *Checker) checkPregnancyContraindications(meds []MedicationOrder, patient PatientContext) []Finding {
	if !patient.PregnancyKnown || !patient.Pregnant {
		return nil
	}
	var findings []Finding
	for _, m := range meds {
		if pregnancyContraindicated[m.DrugCode] {
			findings = append(findings, Finding{
				Kind:         KindPregnancyContraindication,
				Severity:     SeverityAbsolute,
				Description:  fmt.Sprintf("drug %s is contraindicated during pregnancy", m.DrugCode),
				Participants: []string{m.PayloadID, patient.PayloadID},
			})
		}
	}
	return findings
}

// checkDuplicateTherapy flags two orders for the same drug code, which is
// not an interaction but is still clinically meaningful: a prescriber
// re-ordering a medication already in the same bundle.
func (c *Checker) checkDuplicateTherapy(meds []MedicationOrder) []Finding {
	var findings []Finding
	seen := map[string]string{}
	for _, m := range meds {
		if m.DrugCode == "" {
			continue
		}
		if firstID, ok := seen[m.DrugCode]; ok {
			findings = append(findings, Finding{
				Kind:         KindDuplicateTherapy,
				Severity:     SeverityCaution,
				Description:  fmt.Sprintf("drug %s ordered more than once in this bundle", m.DrugCode),
				Participants: []string{firstID, m.PayloadID},
			})
			continue
		}
		seen[m.DrugCode] = m.PayloadID
	}
	return findings
}

// checkDrugClassNotes attaches an informational note to every order whose
// pharmacologic class is in the notes table, independent of any
// interaction or range finding (e.g. an opioid administration monitoring
// note attached alongside vital-sign observations).
func (c *Checker) checkDrugClassNotes(meds []MedicationOrder) []Finding {
	var findings []Finding
	for _, m := range meds {
		c.resolveClasses(&m, nil)
		note, ok := drugClassNotes[m.DrugClass]
		if !ok {
			continue
		}
		findings = append(findings, Finding{
			Kind:         KindDrugClassNote,
			Severity:     SeverityInformational,
			Description:  note,
			Participants: []string{m.PayloadID},
		})
	}
	return findings
}
