// Package api - request and response types for the lease analysis API.
// Money is rendered as a JSON number with at most two decimal places.
package api

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"lease-analyzer/core/types"
	"lease-analyzer/core/valuation"
)

// LeaseAnalysisRequest is the input to POST /api/lease-analysis.
// Money fields accept numbers or numeric strings.
type LeaseAnalysisRequest struct {
	CarModel       string          `json:"carModel"`
	State          string          `json:"state"`
	UpfrontPayment decimal.Decimal `json:"upfrontPayment"`
	MonthlyPayment decimal.Decimal `json:"monthlyPayment"`
	LeaseDuration  int             `json:"leaseDuration"`
	BuyoutPrice    decimal.Decimal `json:"buyoutPrice"`
}

// Terms converts the request into engine input.
func (r LeaseAnalysisRequest) Terms() types.LeaseTerms {
	return types.LeaseTerms{
		CarModel:            r.CarModel,
		State:               r.State,
		UpfrontPayment:      r.UpfrontPayment,
		MonthlyPayment:      r.MonthlyPayment,
		LeaseDurationMonths: r.LeaseDuration,
		BuyoutPrice:         r.BuyoutPrice,
	}
}

// LeaseAnalysisResponse is the output of the lease analysis endpoints.
type LeaseAnalysisResponse struct {
	ID        int64  `json:"id"`
	RequestID string `json:"requestId,omitempty"`

	CarModel             string      `json:"carModel"`
	State                string      `json:"state"`
	UpfrontPayment       json.Number `json:"upfrontPayment"`
	MonthlyPayment       json.Number `json:"monthlyPayment"`
	TotalMonthlyPayments json.Number `json:"totalMonthlyPayments"`
	LeaseDuration        int         `json:"leaseDuration"`
	BuyoutPrice          json.Number `json:"buyoutPrice"`

	TotalCost         json.Number `json:"totalCost"`
	MarketValue       json.Number `json:"marketValue"`
	Savings           json.Number `json:"savings"`
	SavingsPercentage json.Number `json:"savingsPercentage"`
	DealQuality       string      `json:"dealQuality"`
	Recommendation    string      `json:"recommendation"`
	IsGoodDeal        bool        `json:"isGoodDeal"`
	Indeterminate     bool        `json:"indeterminate,omitempty"`

	TaxInfo     TaxInfo     `json:"taxInfo"`
	VehicleInfo VehicleInfo `json:"vehicleInfo"`

	CreatedAt time.Time `json:"createdAt"`
}

// TaxInfo is the tax section of an analysis response.
type TaxInfo struct {
	MonthlyTax json.Number `json:"monthlyTax"`
	TotalTax   json.Number `json:"totalTax"`
	StateFees  json.Number `json:"stateFees"`
	TaxRate    json.Number `json:"taxRate"`
	StateName  string      `json:"stateName"`
}

// VehicleInfo is the vehicle section of an analysis response. Source is
// the human-readable label; SourceCode is the stable identifier.
type VehicleInfo struct {
	Year       int         `json:"year"`
	Make       string      `json:"make"`
	Model      string      `json:"model"`
	Trim       string      `json:"trim,omitempty"`
	Source     string      `json:"source"`
	SourceCode string      `json:"sourceCode"`
	Provider   string      `json:"provider,omitempty"`
	MSRP       json.Number `json:"msrp"`
}

// VehicleValueResponse is the output of GET /api/vehicle-value/{vehicle}.
type VehicleValueResponse struct {
	Year        int         `json:"year"`
	Make        string      `json:"make"`
	Model       string      `json:"model"`
	Trim        string      `json:"trim,omitempty"`
	MSRP        json.Number `json:"msrp"`
	MarketValue json.Number `json:"marketValue"`
	Source      string      `json:"source"`
	SourceCode  string      `json:"sourceCode"`
	Provider    string      `json:"provider,omitempty"`
	Display     string      `json:"display"`
	LastUpdated time.Time   `json:"lastUpdated"`
}

// VehicleValuesRequest is the input to POST /api/vehicle-values.
type VehicleValuesRequest struct {
	Vehicles []string `json:"vehicles"`
}

// VehicleValuesResponse lists batch results in request order. Value is
// null for inputs that could not be parsed.
type VehicleValuesResponse struct {
	Results []VehicleValueResult `json:"results"`
}

// VehicleValueResult is one batch entry.
type VehicleValueResult struct {
	Input string                `json:"input"`
	Value *VehicleValueResponse `json:"value"`
}

// StateTaxResponse is one row of the state tax table.
type StateTaxResponse struct {
	Code           string      `json:"code"`
	Name           string      `json:"name"`
	SalesTaxRate   json.Number `json:"salesTaxRate"`
	LeaseTaxRate   json.Number `json:"leaseTaxRate"`
	LeaseTaxType   string      `json:"leaseTaxType"`
	AdditionalFees json.Number `json:"additionalFees"`
	Description    string      `json:"description"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Errors  []FieldErrorEntry `json:"errors,omitempty"`
}

// FieldErrorEntry is one rejected request field.
type FieldErrorEntry struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.Round(2).String())
}

func rate(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// NewLeaseAnalysisResponse renders an analysis for the wire.
func NewLeaseAnalysisResponse(a *types.LeaseAnalysis) LeaseAnalysisResponse {
	v := a.VehicleValuation
	return LeaseAnalysisResponse{
		ID:                   a.ID,
		RequestID:            a.RequestID,
		CarModel:             a.CarModel,
		State:                a.State,
		UpfrontPayment:       money(a.UpfrontPayment),
		MonthlyPayment:       money(a.MonthlyPayment),
		TotalMonthlyPayments: money(a.TotalMonthlyPayments),
		LeaseDuration:        a.LeaseDurationMonths,
		BuyoutPrice:          money(a.BuyoutPrice),
		TotalCost:            money(a.TotalCost),
		MarketValue:          money(a.MarketValue),
		Savings:              money(a.Savings),
		SavingsPercentage:    rate(a.SavingsPercentage),
		DealQuality:          a.Quality.String(),
		Recommendation:       a.Recommendation,
		IsGoodDeal:           a.IsGoodDeal,
		Indeterminate:        a.Indeterminate,
		TaxInfo: TaxInfo{
			MonthlyTax: money(a.TaxBreakdown.MonthlyTax),
			TotalTax:   money(a.TaxBreakdown.TotalTax),
			StateFees:  money(a.TaxBreakdown.AdditionalFees),
			TaxRate:    rate(a.TaxBreakdown.TaxRate),
			StateName:  a.TaxBreakdown.StateName,
		},
		VehicleInfo: VehicleInfo{
			Year:       v.Year,
			Make:       v.Make,
			Model:      v.Model,
			Trim:       v.Trim,
			Source:     v.Source.Label(),
			SourceCode: v.Source.String(),
			Provider:   v.Provider,
			MSRP:       money(v.MSRP),
		},
		CreatedAt: a.CreatedAt,
	}
}

func newVehicleValueResponse(v types.VehicleValuation) *VehicleValueResponse {
	return &VehicleValueResponse{
		Year:        v.Year,
		Make:        v.Make,
		Model:       v.Model,
		Trim:        v.Trim,
		MSRP:        money(v.MSRP),
		MarketValue: money(v.MarketValue),
		Source:      v.Source.Label(),
		SourceCode:  v.Source.String(),
		Provider:    v.Provider,
		Display:     types.FormatVehicle(v),
		LastUpdated: v.LastUpdated,
	}
}

// NewVehicleValuesResponse renders batch valuation results in input order.
func NewVehicleValuesResponse(results []valuation.Result) VehicleValuesResponse {
	out := VehicleValuesResponse{Results: make([]VehicleValueResult, len(results))}
	for i, r := range results {
		out.Results[i].Input = r.Input
		if r.Valuation != nil {
			out.Results[i].Value = newVehicleValueResponse(*r.Valuation)
		}
	}
	return out
}

// NewStateTaxResponse renders one state tax row.
func NewStateTaxResponse(info types.StateTaxInfo) StateTaxResponse {
	return StateTaxResponse{
		Code:           info.Code,
		Name:           info.Name,
		SalesTaxRate:   rate(info.SalesTaxRate),
		LeaseTaxRate:   rate(info.LeaseTaxRate),
		LeaseTaxType:   info.LeaseTaxType,
		AdditionalFees: money(info.AdditionalFees),
		Description:    info.Description,
	}
}
