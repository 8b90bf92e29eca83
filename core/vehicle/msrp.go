package vehicle

import (
	"strings"

	"github.com/shopspring/decimal"
)

// The MSRP model below is a heuristic approximation, not a price list. It
// combines a per-brand base price, a body-style multiplier inferred from the
// model name, and a per-year drift relative to the current year.

var (
	// MinMSRP and MaxMSRP bound every estimate.
	MinMSRP = decimal.NewFromInt(15000)
	MaxMSRP = decimal.NewFromInt(300000)

	// DefaultBasePrice is used for brands missing from the table.
	DefaultBasePrice = decimal.NewFromInt(30000)

	futureYearStep = decimal.RequireFromString("0.03")
	pastYearStep   = decimal.RequireFromString("0.05")
)

// brandBasePrices is keyed by lower-cased make (2024/2025 baseline).
var brandBasePrices = map[string]int64{
	// Luxury
	"bmw": 55000, "mercedes": 58000, "audi": 52000, "lexus": 48000,
	"acura": 42000, "infiniti": 45000, "cadillac": 50000, "lincoln": 46000,
	"jaguar": 65000, "porsche": 85000, "maserati": 120000, "bentley": 250000,

	// Electric / premium
	"tesla": 50000, "volvo": 45000, "genesis": 48000, "alfa romeo": 52000,
	"rivian": 75000, "lucid": 95000, "polestar": 55000,

	// Mainstream
	"toyota": 32000, "honda": 30000, "nissan": 28000, "hyundai": 27000,
	"kia": 26000, "mazda": 29000, "subaru": 31000, "mitsubishi": 25000,

	// American
	"ford": 33000, "chevrolet": 31000, "dodge": 35000, "chrysler": 34000,
	"jeep": 36000, "ram": 42000, "buick": 35000, "gmc": 38000,

	// Specialty
	"mini": 35000, "fiat": 22000, "volkswagen": 32000, "saab": 30000,
}

// Segment is a body style inferred from the model name.
type Segment string

const (
	SegmentSUV     Segment = "suv"
	SegmentTruck   Segment = "truck"
	SegmentSport   Segment = "sport"
	SegmentSedan   Segment = "sedan"
	SegmentCompact Segment = "compact"
	SegmentWagon   Segment = "wagon"
	SegmentOther   Segment = "other"
)

type segmentRule struct {
	segment    Segment
	multiplier decimal.Decimal
	keywords   []string
}

// segmentRules are checked in order; the first rule with a matching keyword wins.
var segmentRules = []segmentRule{
	{SegmentSUV, decimal.RequireFromString("1.25"), []string{"suv", "crossover", "cx", "rx"}},
	{SegmentTruck, decimal.RequireFromString("1.40"), []string{"truck", "f-150", "silverado", "ram", "tundra", "titan"}},
	{SegmentSport, decimal.RequireFromString("1.30"), []string{"coupe", "convertible", "roadster", "gt"}},
	{SegmentSedan, decimal.RequireFromString("1.00"), []string{"sedan", "class", "series", "accord", "camry", "altima"}},
	{SegmentCompact, decimal.RequireFromString("0.80"), []string{"hatchback", "compact", "civic", "corolla", "forte", "elantra"}},
	{SegmentWagon, decimal.RequireFromString("1.15"), []string{"wagon", "van", "minivan", "carnival", "odyssey", "sienna"}},
}

// BasePrice returns the brand base price; lookup ignores case.
func BasePrice(brand string) decimal.Decimal {
	if p, ok := brandBasePrices[strings.ToLower(strings.TrimSpace(brand))]; ok {
		return decimal.NewFromInt(p)
	}
	return DefaultBasePrice
}

// ClassifySegment infers the body style of a model and its price multiplier.
func ClassifySegment(model string) (Segment, decimal.Decimal) {
	lower := strings.ToLower(model)
	for _, rule := range segmentRules {
		if rule.segment == SegmentSUV && hasXBadge(lower) {
			return rule.segment, rule.multiplier
		}
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.segment, rule.multiplier
			}
		}
	}
	return SegmentOther, decimal.NewFromInt(1)
}

// hasXBadge matches SUV badges such as X5, XC90 or "Model X": a word that
// is a bare "x" or an "x" followed by more characters that include a digit.
func hasXBadge(lowerModel string) bool {
	for _, word := range strings.Fields(lowerModel) {
		if word == "x" {
			return true
		}
		if strings.HasPrefix(word, "x") && strings.ContainsAny(word, "0123456789") {
			return true
		}
	}
	return false
}

// YearMultiplier returns the price drift for a model year: +3% per future
// year, -5% per past year. The result never drops below zero.
func YearMultiplier(year, currentYear int) decimal.Decimal {
	delta := int64(year - currentYear)
	one := decimal.NewFromInt(1)

	var m decimal.Decimal
	switch {
	case delta > 0:
		m = one.Add(futureYearStep.Mul(decimal.NewFromInt(delta)))
	case delta < 0:
		m = one.Add(pastYearStep.Mul(decimal.NewFromInt(delta)))
	default:
		m = one
	}

	if m.IsNegative() {
		return decimal.Zero
	}
	return m
}

// EstimateMSRP prices a vehicle from its make, model and year. The result
// is rounded to whole dollars and clamped to [MinMSRP, MaxMSRP].
func EstimateMSRP(brand, model string, year, currentYear int) decimal.Decimal {
	_, multiplier := ClassifySegment(model)
	estimate := BasePrice(brand).
		Mul(multiplier).
		Mul(YearMultiplier(year, currentYear)).
		Round(0)
	return clamp(estimate, MinMSRP, MaxMSRP)
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
