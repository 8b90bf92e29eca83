// Package valuation values a free-text vehicle description. It tries an
// external pricing source first and falls back to the internal MSRP model;
// either way the market value comes from the depreciation schedule.
package valuation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lease-analyzer/core/types"
	"lease-analyzer/core/vehicle"
	"lease-analyzer/internal/logging"
)

// DefaultBatchSize caps how many external lookups run at once in ValueMany.
const DefaultBatchSize = 3

// Quote is an MSRP reported by an external provider.
type Quote struct {
	MSRP     decimal.Decimal
	Trim     string
	Provider string
}

// PriceSource is an external, best-effort MSRP provider. A nil quote with a
// nil error means the provider had no data.
type PriceSource interface {
	Name() string
	Lookup(ctx context.Context, brand, model string, year int) (*Quote, error)
}

// Clock returns the current time; tests pin it to fix the current year.
type Clock func() time.Time

// Valuator turns vehicle text into a VehicleValuation.
type Valuator struct {
	source    PriceSource
	clock     Clock
	batchSize int
}

// Option configures a Valuator.
type Option func(*Valuator)

// WithClock overrides time.Now.
func WithClock(c Clock) Option {
	return func(v *Valuator) { v.clock = c }
}

// WithBatchSize overrides DefaultBatchSize. Values below one are ignored.
func WithBatchSize(n int) Option {
	return func(v *Valuator) {
		if n > 0 {
			v.batchSize = n
		}
	}
}

// New creates a Valuator. source may be nil, in which case every vehicle
// is priced by the internal estimator.
func New(source PriceSource, opts ...Option) *Valuator {
	v := &Valuator{
		source:    source,
		clock:     time.Now,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// CurrentYear returns the calendar year according to the valuator's clock.
func (v *Valuator) CurrentYear() int {
	return v.clock().Year()
}

// Value prices one vehicle. It returns false when the text cannot be
// parsed into a make and model; the caller decides what to fall back to.
// Provider failures never surface here.
func (v *Valuator) Value(ctx context.Context, text string) (types.VehicleValuation, bool) {
	now := v.clock()
	currentYear := now.Year()

	desc := vehicle.Parse(text, currentYear)
	if !desc.Parsed() {
		logging.Debug("vehicle text not parseable", zap.String("vehicle", text))
		return types.VehicleValuation{}, false
	}

	val := types.VehicleValuation{
		Make:        desc.Make,
		Model:       desc.Model,
		Year:        desc.Year,
		Trim:        desc.Trim,
		LastUpdated: now.UTC(),
	}

	if q, ok := v.external(ctx, desc); ok {
		val.MSRP = q.MSRP
		val.Source = types.SourceExternalAPI
		val.Provider = q.Provider
		if q.Trim != "" {
			val.Trim = q.Trim
		}
	} else {
		val.MSRP = vehicle.EstimateMSRP(desc.Make, desc.Model, desc.Year, currentYear)
		val.Source = types.SourceEstimation
	}

	val.MarketValue = vehicle.MarketValue(val.MSRP, desc.Year, currentYear)
	return val, true
}

// external asks the price source for an MSRP. Errors and empty answers
// both mean "no external data".
func (v *Valuator) external(ctx context.Context, desc types.VehicleDescriptor) (*Quote, bool) {
	if v.source == nil {
		return nil, false
	}

	q, err := v.source.Lookup(ctx, desc.Make, desc.Model, desc.Year)
	if err != nil {
		logging.Warn("external pricing unavailable, using estimation",
			zap.String("provider", v.source.Name()),
			zap.String("make", desc.Make),
			zap.String("model", desc.Model),
			zap.Int("year", desc.Year),
			zap.Error(err),
		)
		return nil, false
	}
	if q == nil || !q.MSRP.IsPositive() {
		return nil, false
	}
	if q.Provider == "" {
		q.Provider = v.source.Name()
	}
	return q, true
}

// Result pairs a batch input with its valuation. Valuation is nil when the
// input could not be parsed.
type Result struct {
	Input     string                  `json:"input"`
	Valuation *types.VehicleValuation `json:"valuation"`
}

// ValueMany values several vehicles. Inputs are processed in chunks of the
// batch size; each chunk runs concurrently and completes before the next
// starts. Results are in input order.
func (v *Valuator) ValueMany(ctx context.Context, inputs []string) []Result {
	results := make([]Result, len(inputs))

	for start := 0; start < len(inputs); start += v.batchSize {
		end := start + v.batchSize
		if end > len(inputs) {
			end = len(inputs)
		}

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				results[i].Input = inputs[i]
				if val, ok := v.Value(ctx, inputs[i]); ok {
					results[i].Valuation = &val
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	return results
}
