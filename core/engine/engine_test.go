package engine

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lease-analyzer/adapters/storage"
	"lease-analyzer/core/tax"
	"lease-analyzer/core/types"
	"lease-analyzer/core/valuation"
	apperrors "lease-analyzer/internal/errors"
	"lease-analyzer/internal/logging"
)

func TestMain(m *testing.M) {
	logging.NewNop()
	os.Exit(m.Run())
}

var pinned = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return pinned }

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type legacyStub map[string]decimal.Decimal

func (l legacyStub) Lookup(carModel, state string) (decimal.Decimal, decimal.Decimal, bool) {
	mv, ok := l[carModel]
	if !ok {
		return decimal.Zero, decimal.Zero, false
	}
	return mv, mv.Mul(dec("1.15")).Round(0), true
}

type failingStore struct{}

func (failingStore) Save(context.Context, *types.LeaseAnalysis) (*types.LeaseAnalysis, error) {
	return nil, apperrors.Storage("insert", errors.New("disk full"))
}

func newEngine(store Store, legacy LegacyTable) *Engine {
	v := valuation.New(nil, valuation.WithClock(clock))
	return NewEngine(v, tax.Default(), store, legacy, EngineConfig{Clock: clock})
}

func civicTerms() types.LeaseTerms {
	return types.LeaseTerms{
		CarModel:            "Honda Civic",
		State:               "CA",
		UpfrontPayment:      dec("4000"),
		MonthlyPayment:      dec("300"),
		LeaseDurationMonths: 36,
		BuyoutPrice:         dec("20000"),
	}
}

func TestAnalyze_EndToEnd(t *testing.T) {
	e := newEngine(storage.NewMemoryStore(), nil)

	got, err := e.Analyze(context.Background(), civicTerms())
	require.NoError(t, err)

	assert.Equal(t, int64(1), got.ID)
	assert.NotEmpty(t, got.RequestID)
	assert.Equal(t, pinned, got.CreatedAt)

	assert.Equal(t, types.SourceEstimation, got.VehicleValuation.Source)
	assert.True(t, got.VehicleValuation.MSRP.Equal(dec("24000")))
	assert.True(t, got.MarketValue.Equal(dec("22800")))

	assert.True(t, got.TaxBreakdown.TotalTaxAndFees.Equal(dec("908")))
	assert.True(t, got.TaxBreakdown.TaxRate.Equal(dec("0.0725")))
	assert.Equal(t, "California", got.TaxBreakdown.StateName)

	assert.True(t, got.TotalMonthlyPayments.Equal(dec("10800")))
	assert.True(t, got.TotalCost.Equal(dec("35708")), "total cost %s", got.TotalCost)
	assert.True(t, got.Savings.Equal(dec("-12908")))
	assert.True(t, got.SavingsPercentage.Equal(dec("-56.6")))
	assert.Equal(t, types.DealVeryPoor, got.Quality)
	assert.False(t, got.IsGoodDeal)
	assert.True(t, got.MonthlyPayment.Equal(dec("300")), "monthly payment echoes the input")
}

func TestAnalyze_Idempotent(t *testing.T) {
	e := newEngine(storage.NewMemoryStore(), nil)

	first, err := e.Analyze(context.Background(), civicTerms())
	require.NoError(t, err)
	second, err := e.Analyze(context.Background(), civicTerms())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.RequestID, second.RequestID)

	first.ID, second.ID = 0, 0
	first.RequestID, second.RequestID = "", ""
	assert.Equal(t, first, second)
}

func TestAnalyze_UnparseableUsesFallback(t *testing.T) {
	e := newEngine(storage.NewMemoryStore(), nil)

	terms := civicTerms()
	terms.CarModel = "Prius"

	got, err := e.Analyze(context.Background(), terms)
	require.NoError(t, err)

	v := got.VehicleValuation
	assert.Equal(t, types.SourceFallback, v.Source)
	assert.True(t, got.MarketValue.Equal(dec("35000")))
	assert.True(t, v.MSRP.IsZero())
	assert.Empty(t, v.Make)
	assert.Empty(t, v.Model)
	assert.Equal(t, 2026, v.Year)
}

func TestAnalyze_UnparseableUsesLegacyTable(t *testing.T) {
	e := newEngine(storage.NewMemoryStore(), legacyStub{"Prius": dec("26000")})

	terms := civicTerms()
	terms.CarModel = "Prius"

	got, err := e.Analyze(context.Background(), terms)
	require.NoError(t, err)

	assert.Equal(t, types.SourceLegacyTable, got.VehicleValuation.Source)
	assert.True(t, got.MarketValue.Equal(dec("26000")))
	assert.True(t, got.VehicleValuation.MSRP.Equal(dec("29900")))
}

func TestAnalyze_ParseableSkipsLegacyTable(t *testing.T) {
	e := newEngine(storage.NewMemoryStore(), legacyStub{"Honda Civic": dec("1")})

	got, err := e.Analyze(context.Background(), civicTerms())
	require.NoError(t, err)
	assert.Equal(t, types.SourceEstimation, got.VehicleValuation.Source)
}

func TestAnalyze_CustomFallbackValue(t *testing.T) {
	v := valuation.New(nil, valuation.WithClock(clock))
	e := NewEngine(v, tax.Default(), storage.NewMemoryStore(), nil, EngineConfig{
		Clock:               clock,
		FallbackMarketValue: dec("40000"),
	})

	terms := civicTerms()
	terms.CarModel = "?"

	got, err := e.Analyze(context.Background(), terms)
	require.NoError(t, err)
	assert.True(t, got.MarketValue.Equal(dec("40000")))
}

func TestAnalyze_UnknownStateIsTaxFree(t *testing.T) {
	e := newEngine(storage.NewMemoryStore(), nil)

	terms := civicTerms()
	terms.State = "ZZ"

	got, err := e.Analyze(context.Background(), terms)
	require.NoError(t, err)

	assert.True(t, got.TaxBreakdown.TotalTaxAndFees.IsZero())
	assert.True(t, got.TaxBreakdown.TaxRate.IsZero())
	assert.Equal(t, "ZZ", got.TaxBreakdown.StateName)
	assert.True(t, got.TotalCost.Equal(dec("34800")))
}

func TestAnalyze_BoundaryTerms(t *testing.T) {
	e := newEngine(storage.NewMemoryStore(), nil)

	terms := types.LeaseTerms{
		CarModel:            "Honda Civic",
		State:               "TX",
		UpfrontPayment:      decimal.Zero,
		MonthlyPayment:      decimal.Zero,
		LeaseDurationMonths: 60,
		BuyoutPrice:         decimal.Zero,
	}
	got, err := e.Analyze(context.Background(), terms)
	require.NoError(t, err)

	assert.True(t, got.TaxBreakdown.TotalTax.IsZero())
	assert.True(t, got.TotalCost.Equal(got.TaxBreakdown.AdditionalFees))
	assert.True(t, got.IsGoodDeal)
}

func TestAnalyze_InvalidTerms(t *testing.T) {
	store := storage.NewMemoryStore()
	e := newEngine(store, nil)

	terms := civicTerms()
	terms.LeaseDurationMonths = 6

	_, err := e.Analyze(context.Background(), terms)

	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "leaseDuration", verr.Fields[0].Field)
	assert.Zero(t, store.Len(), "invalid terms are not stored")
}

func TestAnalyze_StoreFailure(t *testing.T) {
	e := newEngine(failingStore{}, nil)

	_, err := e.Analyze(context.Background(), civicTerms())
	assert.True(t, apperrors.IsType(err, apperrors.TypeStorage))
}

func TestCompute_DoesNotStore(t *testing.T) {
	store := storage.NewMemoryStore()
	e := newEngine(store, nil)

	got := e.Compute(context.Background(), civicTerms(), pinned)
	assert.Zero(t, got.ID)
	assert.Empty(t, got.RequestID)
	assert.Zero(t, store.Len())
}

func TestValidate(t *testing.T) {
	valid := civicTerms()

	tests := []struct {
		name   string
		mutate func(*types.LeaseTerms)
		fields []string
	}{
		{"valid", func(*types.LeaseTerms) {}, nil},
		{"minimum duration", func(l *types.LeaseTerms) { l.LeaseDurationMonths = 12 }, nil},
		{"maximum duration", func(l *types.LeaseTerms) { l.LeaseDurationMonths = 60 }, nil},
		{"zero money", func(l *types.LeaseTerms) {
			l.UpfrontPayment, l.MonthlyPayment, l.BuyoutPrice = decimal.Zero, decimal.Zero, decimal.Zero
		}, nil},
		{"empty car model", func(l *types.LeaseTerms) { l.CarModel = " " }, []string{"carModel"}},
		{"short state", func(l *types.LeaseTerms) { l.State = "C" }, []string{"state"}},
		{"too short", func(l *types.LeaseTerms) { l.LeaseDurationMonths = 11 }, []string{"leaseDuration"}},
		{"too long", func(l *types.LeaseTerms) { l.LeaseDurationMonths = 61 }, []string{"leaseDuration"}},
		{"negative money", func(l *types.LeaseTerms) {
			l.UpfrontPayment = dec("-1")
			l.MonthlyPayment = dec("-1")
			l.BuyoutPrice = dec("-1")
		}, []string{"upfrontPayment", "monthlyPayment", "buyoutPrice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms := valid
			tt.mutate(&terms)

			err := Validate(terms)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}

			var verr *apperrors.ValidationError
			require.ErrorAs(t, err, &verr)
			var got []string
			for _, f := range verr.Fields {
				got = append(got, f.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}
