package result

import (
	"strconv"
	"strings"
)

// Placeholder is shown wherever a value is missing.
const Placeholder = "N/A"

// FormatFixed renders v with a fixed number of decimals, or fallback when v
// is missing or not finite.
func FormatFixed(v *float64, decimals int, fallback string) string {
	if v == nil || !finite(*v) {
		return fallback
	}
	s := strconv.FormatFloat(*v, 'f', decimals, 64)
	if strings.HasPrefix(s, "-") && strings.Trim(s, "-0.") == "" {
		s = s[1:]
	}
	return s
}

// FormatPercent renders a [0,1] fraction as a percentage with one decimal.
func FormatPercent(v *float64) string {
	if v == nil || !finite(*v) {
		return Placeholder
	}
	pct := *v * 100
	return FormatFixed(&pct, 1, Placeholder) + "%"
}

// FormatTrait renders numbers with four decimals and text verbatim.
func FormatTrait(t TraitValue) string {
	switch {
	case !t.Present:
		return Placeholder
	case t.Number != nil:
		return FormatFixed(t.Number, 4, Placeholder)
	default:
		return t.Text
	}
}

// DisplayName is the cultivar name or the placeholder.
func (r CanonicalResult) DisplayName() string {
	if r.CultivarName == "" {
		return Placeholder
	}
	return r.CultivarName
}

// EconomicsCards holds the three report-tab figures already formatted.
type EconomicsCards struct {
	Production string
	Urea       string
	Cost       string
}

// FormatEconomics applies the card rules: production two decimals falling
// back to N/A; urea and cost whole numbers falling back to 0.
func FormatEconomics(e Economics) EconomicsCards {
	return EconomicsCards{
		Production: FormatFixed(e.TotalProductionQuintals, 2, Placeholder),
		Urea:       FormatFixed(e.UreaRequiredKg, 0, "0"),
		Cost:       FormatFixed(e.FertilizerCostINR, 0, "0"),
	}
}
