package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// VehicleDescriptor is the structured form of a free-text vehicle string.
// Empty Make or Model means the text could not be parsed.
type VehicleDescriptor struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
	Trim  string `json:"trim,omitempty"`
}

// Parsed reports whether both make and model were recovered.
func (d VehicleDescriptor) Parsed() bool {
	return d.Make != "" && d.Model != ""
}

// VehicleValuation is the outcome of valuing one vehicle. It is built once
// per request and never modified afterwards.
type VehicleValuation struct {
	Make        string          `json:"make"`
	Model       string          `json:"model"`
	Year        int             `json:"year"`
	Trim        string          `json:"trim,omitempty"`
	MSRP        decimal.Decimal `json:"msrp"`
	MarketValue decimal.Decimal `json:"marketValue"`
	Source      ValuationSource `json:"source"`

	// Provider names the external provider when Source is SourceExternalAPI
	Provider    string    `json:"provider,omitempty"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// FormatVehicle renders a valuation as "2023 Bmw X5 xDrive40i".
func FormatVehicle(v VehicleValuation) string {
	s := fmt.Sprintf("%d %s %s", v.Year, v.Make, v.Model)
	if v.Trim != "" {
		s += " " + v.Trim
	}
	return s
}
