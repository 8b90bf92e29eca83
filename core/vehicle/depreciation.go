package vehicle

import "github.com/shopspring/decimal"

var (
	newVehicleFactor = decimal.RequireFromString("0.95")
	maxDepreciation  = decimal.RequireFromString("0.70")
	lateStep         = decimal.RequireFromString("0.05")

	// depreciationByAge is the fixed step schedule for ages 1 through 5.
	depreciationByAge = map[int]decimal.Decimal{
		1: decimal.RequireFromString("0.20"),
		2: decimal.RequireFromString("0.35"),
		3: decimal.RequireFromString("0.45"),
		4: decimal.RequireFromString("0.55"),
		5: decimal.RequireFromString("0.55"),
	}
)

// DepreciationRate returns the fraction of MSRP lost at the given age.
// Ages of zero or less return zero; MarketValue handles new vehicles with
// its own 5% discount instead.
func DepreciationRate(age int) decimal.Decimal {
	if age <= 0 {
		return decimal.Zero
	}
	if rate, ok := depreciationByAge[age]; ok {
		return rate
	}
	rate := depreciationByAge[5].Add(lateStep.Mul(decimal.NewFromInt(int64(age - 5))))
	return decimal.Min(rate, maxDepreciation)
}

// MarketValue applies the depreciation schedule to an MSRP. Current and
// future model years are valued at 95% of MSRP.
func MarketValue(msrp decimal.Decimal, year, currentYear int) decimal.Decimal {
	age := currentYear - year
	if age <= 0 {
		return msrp.Mul(newVehicleFactor).Round(0)
	}
	return msrp.Mul(decimal.NewFromInt(1).Sub(DepreciationRate(age))).Round(0)
}
