package tax

import (
	"github.com/shopspring/decimal"

	"lease-analyzer/core/types"
)

// Rates is the part of a state tax row the aggregator needs.
type Rates struct {
	Rate    decimal.Decimal
	FlatFee decimal.Decimal
}

// RatesFor converts a lookup result into Rates. A missing state has no tax
// and no fees.
func RatesFor(info types.StateTaxInfo, found bool) Rates {
	if !found {
		return Rates{Rate: decimal.Zero, FlatFee: decimal.Zero}
	}
	return Rates{Rate: info.LeaseTaxRate, FlatFee: info.AdditionalFees}
}

// Compute returns the lease tax owed. Amounts are exact; rounding is left
// to presentation.
//
//	monthlyTax      = monthlyPayment x rate
//	totalTax        = monthlyTax x months
//	totalTaxAndFees = totalTax + flatFee
func Compute(monthlyPayment decimal.Decimal, months int, rates Rates) types.StateTaxResult {
	monthlyTax := monthlyPayment.Mul(rates.Rate)
	totalTax := monthlyTax.Mul(decimal.NewFromInt(int64(months)))
	return types.StateTaxResult{
		MonthlyTax:      monthlyTax,
		TotalTax:        totalTax,
		AdditionalFees:  rates.FlatFee,
		TotalTaxAndFees: totalTax.Add(rates.FlatFee),
	}
}

// Calculate looks up a state in the table and computes its lease tax.
func (t *Table) Calculate(monthlyPayment decimal.Decimal, months int, stateCode string) types.StateTaxResult {
	info, ok := t.Lookup(stateCode)
	return Compute(monthlyPayment, months, RatesFor(info, ok))
}
