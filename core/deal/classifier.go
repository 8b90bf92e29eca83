// Package deal grades a lease by comparing its total cost to the market
// value of the vehicle.
package deal

import (
	"github.com/shopspring/decimal"

	"lease-analyzer/core/types"
)

var hundred = decimal.NewFromInt(100)

// tier is one band of the grading scale. A percentage belongs to the first
// tier whose floor it meets or exceeds.
type tier struct {
	floor          decimal.Decimal
	quality        types.DealQuality
	recommendation string
}

var tiers = []tier{
	{
		floor:          decimal.NewFromInt(15),
		quality:        types.DealExcellent,
		recommendation: "This is an excellent lease deal! You're getting significant value compared to the market price. Consider proceeding with this lease agreement.",
	},
	{
		floor:          decimal.NewFromInt(5),
		quality:        types.DealGood,
		recommendation: "This is a good lease deal. You're saving money compared to market value, making it a reasonable choice.",
	},
	{
		floor:          decimal.NewFromInt(-5),
		quality:        types.DealFair,
		recommendation: "This lease deal is roughly in line with market value. Consider if the convenience and terms meet your needs.",
	},
	{
		floor:          decimal.NewFromInt(-15),
		quality:        types.DealPoor,
		recommendation: "This lease deal is above market value. You might want to negotiate better terms or look for alternative offers.",
	},
}

var veryPoor = tier{
	quality:        types.DealVeryPoor,
	recommendation: "This lease deal is significantly overpriced compared to market value. We recommend looking for better alternatives.",
}

// Grade maps a savings percentage to a quality tier and its recommendation.
//
//	>= 15   Excellent
//	>= 5    Good
//	>= -5   Fair
//	>= -15  Poor
//	else    Very Poor
func Grade(savingsPercentage decimal.Decimal) (types.DealQuality, string) {
	for _, t := range tiers {
		if savingsPercentage.GreaterThanOrEqual(t.floor) {
			return t.quality, t.recommendation
		}
	}
	return veryPoor.quality, veryPoor.recommendation
}

// Recommendation returns the fixed advice sentence for a tier.
func Recommendation(q types.DealQuality) string {
	for _, t := range tiers {
		if t.quality == q {
			return t.recommendation
		}
	}
	return veryPoor.recommendation
}

// Classify compares total lease cost with market value.
//
// The tier is chosen from the unrounded percentage; the returned
// SavingsPercentage is rounded to one decimal place for display. A zero
// market value yields 0% and sets Indeterminate.
func Classify(totalCost, marketValue decimal.Decimal) types.DealVerdict {
	savings := marketValue.Sub(totalCost)

	pct := decimal.Zero
	indeterminate := marketValue.IsZero()
	if !indeterminate {
		pct = savings.Mul(hundred).Div(marketValue)
	}

	quality, recommendation := Grade(pct)
	return types.DealVerdict{
		Savings:           savings,
		SavingsPercentage: pct.Round(1),
		Quality:           quality,
		Recommendation:    recommendation,
		IsGoodDeal:        savings.IsPositive(),
		Indeterminate:     indeterminate,
	}
}
