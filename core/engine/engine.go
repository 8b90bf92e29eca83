// Package engine provides the API-primary lease analysis engine.
// The HTTP server and the CLI are thin wrappers around it.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"lease-analyzer/core/deal"
	"lease-analyzer/core/tax"
	"lease-analyzer/core/types"
	"lease-analyzer/internal/logging"
)

// DefaultFallbackMarketValue is used when nothing can value the vehicle.
var DefaultFallbackMarketValue = decimal.NewFromInt(35000)

// Engine is the primary API for lease analysis.
type Engine struct {
	// Required dependencies
	valuer VehicleValuer
	taxes  TaxTable
	store  Store

	// Optional: consulted when the vehicle text cannot be parsed
	legacy LegacyTable

	config EngineConfig
}

// EngineConfig configures the analysis engine
type EngineConfig struct {
	// FallbackMarketValue is used when neither the valuator nor the
	// legacy table can value the vehicle
	FallbackMarketValue decimal.Decimal

	// Clock defaults to time.Now
	Clock func() time.Time
}

// VehicleValuer values free-text vehicle descriptions. It reports false
// when the text could not be parsed.
type VehicleValuer interface {
	Value(ctx context.Context, text string) (types.VehicleValuation, bool)
}

// LegacyTable is the per-model valuation table keyed by raw car model.
type LegacyTable interface {
	Lookup(carModel, state string) (marketValue, msrp decimal.Decimal, ok bool)
}

// TaxTable looks up state lease tax rows.
type TaxTable interface {
	Lookup(code string) (types.StateTaxInfo, bool)
}

// Store persists analyses and assigns their ids.
type Store interface {
	Save(ctx context.Context, analysis *types.LeaseAnalysis) (*types.LeaseAnalysis, error)
}

// NewEngine creates a new analysis engine. legacy may be nil.
func NewEngine(valuer VehicleValuer, taxes TaxTable, store Store, legacy LegacyTable, config EngineConfig) *Engine {
	if config.FallbackMarketValue.IsZero() {
		config.FallbackMarketValue = DefaultFallbackMarketValue
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	return &Engine{
		valuer: valuer,
		taxes:  taxes,
		store:  store,
		legacy: legacy,
		config: config,
	}
}

// Analyze values the vehicle, totals the lease including tax, grades the
// deal and stores the result. Only invalid terms and storage failures
// return an error; every valuation problem degrades to a fallback.
func (e *Engine) Analyze(ctx context.Context, terms types.LeaseTerms) (*types.LeaseAnalysis, error) {
	if err := Validate(terms); err != nil {
		return nil, err
	}

	now := e.config.Clock()
	analysis := e.Compute(ctx, terms, now)
	analysis.RequestID = uuid.NewString()

	stored, err := e.store.Save(ctx, analysis)
	if err != nil {
		logging.Error("failed to store lease analysis",
			zap.String("request_id", analysis.RequestID),
			zap.Error(err),
		)
		return nil, err
	}

	logging.Info("lease analysis completed",
		zap.Int64("id", stored.ID),
		zap.String("request_id", stored.RequestID),
		zap.String("deal_quality", stored.Quality.String()),
		zap.String("source", stored.VehicleValuation.Source.String()),
	)
	return stored, nil
}

// Compute runs the analysis without validating or storing it. The result
// has no id or request id.
func (e *Engine) Compute(ctx context.Context, terms types.LeaseTerms, now time.Time) *types.LeaseAnalysis {
	valuation := e.value(ctx, terms, now)
	taxes := e.tax(terms)

	months := decimal.NewFromInt(int64(terms.LeaseDurationMonths))
	totalMonthly := terms.MonthlyPayment.Mul(months)
	totalCost := terms.UpfrontPayment.
		Add(totalMonthly).
		Add(terms.BuyoutPrice).
		Add(taxes.TotalTaxAndFees)

	return &types.LeaseAnalysis{
		CreatedAt:            now.UTC(),
		LeaseTerms:           terms,
		TotalMonthlyPayments: totalMonthly,
		TotalCost:            totalCost,
		MarketValue:          valuation.MarketValue,
		DealVerdict:          deal.Classify(totalCost, valuation.MarketValue),
		TaxBreakdown:         taxes,
		VehicleValuation:     valuation,
	}
}

// value tries the valuator, then the legacy table, then the flat fallback.
func (e *Engine) value(ctx context.Context, terms types.LeaseTerms, now time.Time) types.VehicleValuation {
	if v, ok := e.valuer.Value(ctx, terms.CarModel); ok {
		return v
	}

	v := types.VehicleValuation{
		Year:        now.Year(),
		MSRP:        decimal.Zero,
		MarketValue: e.config.FallbackMarketValue,
		Source:      types.SourceFallback,
		LastUpdated: now.UTC(),
	}
	if e.legacy == nil {
		return v
	}
	if mv, msrp, ok := e.legacy.Lookup(terms.CarModel, terms.State); ok {
		v.MarketValue = mv
		v.MSRP = msrp
		v.Source = types.SourceLegacyTable
	}
	return v
}

// tax computes the lease tax. An unknown state owes nothing and is named
// by its raw code.
func (e *Engine) tax(terms types.LeaseTerms) types.TaxBreakdown {
	info, found := e.taxes.Lookup(terms.State)
	rates := tax.RatesFor(info, found)

	name := info.Name
	if !found {
		name = terms.State
	}
	return types.TaxBreakdown{
		StateTaxResult: tax.Compute(terms.MonthlyPayment, terms.LeaseDurationMonths, rates),
		TaxRate:        rates.Rate,
		StateName:      name,
	}
}
