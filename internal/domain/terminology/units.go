package terminology

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Normalized unit codes, matching the unit ontology's Code column.
const (
	UnitMg = "mg"
	UnitG  = "g"
	UnitMcg = "ug"
	UnitKg = "kg"
	UnitLb = "[lb_av]"
)

// conversion factors expressed as "how many of `to` make one `from`" are
// avoided in favor of "multiply by this to go from -> to", computed once as
// exact decimals rather than floats, since dose comparisons must not carry
// binary floating-point rounding error.
var conversionFactors = map[[2]string]string{
	{UnitG, UnitMg}:  "1000",
	{UnitMg, UnitG}:  "0.001",
	{UnitMcg, UnitMg}: "0.001",
	{UnitMg, UnitMcg}: "1000",
	{UnitKg, UnitLb}: "2.2046226218",
	{UnitLb, UnitKg}: "0.45359237",
}

// ConvertUnit converts a decimal quantity between two normalized units.
// Conversion is only supported for the pairs named in spec.md §4.1
// (mg<->g, mcg<->mg, kg<->lb); ok is false for any other pair, including
// same-unit pairs (callers should short-circuit those themselves).
func ConvertUnit(value decimal.Decimal, from, to string) (decimal.Decimal, bool) {
	factor, ok := conversionFactors[[2]string{from, to}]
	if !ok {
		return decimal.Zero, false
	}
	f, err := decimal.NewFromString(factor)
	if err != nil {
		// unreachable: factor table above is a fixed set of valid literals
		return decimal.Zero, false
	}
	return value.Mul(f), true
}

// NormalizeDoseUnit maps a raw dose-unit surface form ("mg", "MG", "milligrams")
// to its normalized unit-ontology code via the unit ontology lookup cascade.
func (c *Coder) NormalizeDoseUnit(raw string) (CodedConcept, error) {
	concept := c.Code(raw, IntentUnit)
	if !concept.HasCoding() {
		return concept, fmt.Errorf("terminology: could not normalize dose unit %q", raw)
	}
	return concept, nil
}
