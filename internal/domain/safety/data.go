package safety

import "github.com/shopspring/decimal"

// interactionKey is an unordered pair of drug codes; lookups normalize
// order so the table only needs one entry per pair.
type interactionKey struct{ a, b string }

func newInteractionKey(x, y string) interactionKey {
	if x > y {
		x, y = y, x
	}
	return interactionKey{a: x, b: y}
}

type interactionEntry struct {
	Severity    Severity
	Description string
}

// DefaultInteractions is a small built-in drug-drug interaction table
// covering the pipeline's documented scenarios. A production deployment
// loads a much larger data-driven table; nothing here depends on how the
// table is populated beyond drug codes matching the terminology coder's
// rxnorm codes.
var DefaultInteractions = map[interactionKey]interactionEntry{
	newInteractionKey("11289", "1191"): { // warfarin + aspirin
		Severity:    SeverityRelative,
		Description: "concurrent warfarin and aspirin increases bleeding risk",
	},
	newInteractionKey("11289", "5640"): { // warfarin + ibuprofen
		Severity:    SeverityRelative,
		Description: "concurrent warfarin and ibuprofen (NSAID) increases bleeding risk",
	},
	newInteractionKey("6918", "6809"): { // metoprolol + metformin
		Severity:    SeverityCaution,
		Description: "beta-blockers can mask hypoglycemic symptoms of metformin",
	},
}

// doseRangeEntry bounds a single-dose amount in a fixed unit;
// checkDoseRanges converts the order's dose into this unit before comparing.
type doseRangeEntry struct {
	Unit string
	Min  decimal.Decimal
	Max  decimal.Decimal
}

// DefaultDoseRanges is a small built-in per-dose range table keyed by drug
// code, expressed in the unit the range was authored in.
var DefaultDoseRanges = map[string]doseRangeEntry{
	"29046": {Unit: "mg", Min: decimal.NewFromInt(2), Max: decimal.NewFromInt(40)},    // lisinopril
	"723":   {Unit: "mg", Min: decimal.NewFromInt(250), Max: decimal.NewFromInt(1000)}, // amoxicillin
	"7052":  {Unit: "mg", Min: decimal.NewFromFloat(2.5), Max: decimal.NewFromInt(30)}, // morphine
	"6918":  {Unit: "mg", Min: decimal.NewFromInt(25), Max: decimal.NewFromInt(200)},  // metoprolol
}

// pediatricRestricted lists drug codes contraindicated below a minimum age,
// in years.
var pediatricRestricted = map[string]int{
	"1191": 12, // aspirin: Reye syndrome risk below 12
}

// geriatricCaution lists drug codes that warrant a caution-level finding
// at or above a threshold age, in years, rather than an outright contraindication.
var geriatricCaution = map[string]int{
	"7052": 65, // morphine: increased sedation/fall risk in older adults
}

// pregnancyContraindicated lists drug codes contraindicated during
// pregnancy outright (FDA category X equivalents for this built-in table).
var pregnancyContraindicated = map[string]bool{
	"11289": true, // warfarin
}

// drugClassNotes attaches an informational note to every order in a
// pharmacologic class worth flagging even absent any interaction or
// range violation (e.g. opioid administration monitoring).
var drugClassNotes = map[string]string{
	"opioid": "opioid class medication: monitor respiratory status during administration",
}
