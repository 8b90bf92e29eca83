package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// LeaseTerms are the user-supplied structure of a lease offer.
type LeaseTerms struct {
	CarModel            string          `json:"carModel"`
	State               string          `json:"state"`
	UpfrontPayment      decimal.Decimal `json:"upfrontPayment"`
	MonthlyPayment      decimal.Decimal `json:"monthlyPayment"`
	LeaseDurationMonths int             `json:"leaseDuration"`
	BuyoutPrice         decimal.Decimal `json:"buyoutPrice"`
}

// StateTaxInfo is one row of the state lease tax table.
type StateTaxInfo struct {
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	SalesTaxRate   decimal.Decimal `json:"salesTaxRate"`
	LeaseTaxRate   decimal.Decimal `json:"leaseTaxRate"`
	LeaseTaxType   string          `json:"leaseTaxType"`
	AdditionalFees decimal.Decimal `json:"additionalFees"`
	Description    string          `json:"description"`
}

// StateTaxResult is the tax owed over the life of a lease.
type StateTaxResult struct {
	MonthlyTax      decimal.Decimal `json:"monthlyTax"`
	TotalTax        decimal.Decimal `json:"totalTax"`
	AdditionalFees  decimal.Decimal `json:"additionalFees"`
	TotalTaxAndFees decimal.Decimal `json:"totalTaxAndFees"`
}

// DealVerdict is the classifier output.
type DealVerdict struct {
	Savings           decimal.Decimal `json:"savings"`
	SavingsPercentage decimal.Decimal `json:"savingsPercentage"`
	Quality           DealQuality     `json:"dealQuality"`
	Recommendation    string          `json:"recommendation"`
	IsGoodDeal        bool            `json:"isGoodDeal"`

	// Indeterminate is set when the market value was zero and no
	// percentage could be computed
	Indeterminate bool `json:"indeterminate,omitempty"`
}

// TaxBreakdown is the tax section of an analysis.
type TaxBreakdown struct {
	StateTaxResult
	TaxRate   decimal.Decimal `json:"taxRate"`
	StateName string          `json:"stateName"`
}

// LeaseAnalysis is a finished analysis. ID is zero until the store assigns one.
type LeaseAnalysis struct {
	ID        int64     `json:"id"`
	RequestID string    `json:"requestId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`

	LeaseTerms

	TotalMonthlyPayments decimal.Decimal `json:"totalMonthlyPayments"`
	TotalCost            decimal.Decimal `json:"totalCost"`
	MarketValue          decimal.Decimal `json:"marketValue"`

	DealVerdict

	TaxBreakdown     TaxBreakdown     `json:"taxInfo"`
	VehicleValuation VehicleValuation `json:"vehicleInfo"`
}
