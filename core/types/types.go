// Package types defines core domain types shared across all layers.
package types

// ValuationSource records where a vehicle valuation came from so the user
// can judge how much to trust it.
type ValuationSource string

const (
	// SourceExternalAPI means an external provider supplied the MSRP
	SourceExternalAPI ValuationSource = "external_api"

	// SourceEstimation means the MSRP came from the internal pricing model
	SourceEstimation ValuationSource = "estimation"

	// SourceLegacyTable means the legacy per-model valuation table was used
	SourceLegacyTable ValuationSource = "legacy_table"

	// SourceFallback means nothing could value the vehicle
	SourceFallback ValuationSource = "fallback"
)

// String returns the string representation
func (s ValuationSource) String() string {
	return string(s)
}

// Label returns the human-readable source description.
func (s ValuationSource) Label() string {
	switch s {
	case SourceExternalAPI:
		return "External Provider (Real MSRP)"
	case SourceEstimation:
		return "Enhanced MSRP Estimation"
	case SourceLegacyTable:
		return "Legacy Market Data"
	case SourceFallback:
		return "Fallback Estimate"
	default:
		return string(s)
	}
}

// DealQuality is the graded verdict on a lease.
type DealQuality string

const (
	DealExcellent DealQuality = "Excellent"
	DealGood      DealQuality = "Good"
	DealFair      DealQuality = "Fair"
	DealPoor      DealQuality = "Poor"
	DealVeryPoor  DealQuality = "Very Poor"
)

// String returns the string representation
func (q DealQuality) String() string {
	return string(q)
}
