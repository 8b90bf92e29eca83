package valuation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lease-analyzer/core/types"
	"lease-analyzer/internal/logging"
)

func pinned(year int) Clock {
	return func() time.Time {
		return time.Date(year, time.June, 1, 12, 0, 0, 0, time.UTC)
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type stubSource struct {
	quote *Quote
	err   error

	mu    sync.Mutex
	calls []string
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Lookup(_ context.Context, brand, model string, year int) (*Quote, error) {
	s.mu.Lock()
	s.calls = append(s.calls, fmt.Sprintf("%s|%s|%d", brand, model, year))
	s.mu.Unlock()
	return s.quote, s.err
}

func TestMain(m *testing.M) {
	logging.NewNop()
	m.Run()
}

func TestValue_EstimationWithoutSource(t *testing.T) {
	v := New(nil, WithClock(pinned(2026)))

	got, ok := v.Value(context.Background(), "Honda Civic")
	require.True(t, ok)

	assert.Equal(t, "Honda", got.Make)
	assert.Equal(t, "Civic", got.Model)
	assert.Equal(t, 2026, got.Year)
	assert.Equal(t, types.SourceEstimation, got.Source)
	assert.True(t, got.MSRP.Equal(dec("24000")), "msrp %s", got.MSRP)
	assert.True(t, got.MarketValue.Equal(dec("22800")), "market value %s", got.MarketValue)
}

func TestValue_ExternalQuoteWins(t *testing.T) {
	src := &stubSource{quote: &Quote{MSRP: dec("62000"), Trim: "xDrive40i"}}
	v := New(src, WithClock(pinned(2026)))

	got, ok := v.Value(context.Background(), "2025 BMW X5")
	require.True(t, ok)

	assert.Equal(t, []string{"Bmw|X5|2025"}, src.calls)
	assert.Equal(t, types.SourceExternalAPI, got.Source)
	assert.Equal(t, "stub", got.Provider)
	assert.Equal(t, "xDrive40i", got.Trim)
	assert.True(t, got.MSRP.Equal(dec("62000")))
	assert.True(t, got.MarketValue.Equal(dec("49600")), "one year old loses 20%%, got %s", got.MarketValue)
}

func TestValue_ProviderFailureFallsBackToEstimation(t *testing.T) {
	tests := []struct {
		name string
		src  *stubSource
	}{
		{"error", &stubSource{err: errors.New("connection refused")}},
		{"no data", &stubSource{}},
		{"zero msrp", &stubSource{quote: &Quote{MSRP: decimal.Zero}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(tt.src, WithClock(pinned(2026)))
			got, ok := v.Value(context.Background(), "Tesla Model 3")
			require.True(t, ok)
			assert.Equal(t, types.SourceEstimation, got.Source)
			assert.True(t, got.MSRP.Equal(dec("50000")))
			assert.True(t, got.MarketValue.Equal(dec("47500")))
			assert.Empty(t, got.Provider)
		})
	}
}

func TestValue_UnparseableSkipsLookup(t *testing.T) {
	src := &stubSource{quote: &Quote{MSRP: dec("99999")}}
	v := New(src, WithClock(pinned(2026)))

	_, ok := v.Value(context.Background(), "X")
	assert.False(t, ok)
	assert.Empty(t, src.calls)
}

func TestValue_MarketValueNeverExceedsMSRP(t *testing.T) {
	v := New(nil, WithClock(pinned(2026)))
	for year := 1990; year <= 2030; year++ {
		got, ok := v.Value(context.Background(), fmt.Sprintf("%d Audi A4", year))
		require.True(t, ok)
		assert.False(t, got.MarketValue.GreaterThan(got.MSRP), "year %d", year)
	}
}

func TestValue_Idempotent(t *testing.T) {
	v := New(nil, WithClock(pinned(2026)))
	a, _ := v.Value(context.Background(), "2022 Lexus RX")
	b, _ := v.Value(context.Background(), "2022 Lexus RX")
	assert.Equal(t, a, b)
}

// slowSource records how many lookups overlap.
type slowSource struct {
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
}

func (s *slowSource) Name() string { return "slow" }

func (s *slowSource) Lookup(_ context.Context, _, _ string, year int) (*Quote, error) {
	n := s.inFlight.Add(1)
	for {
		old := s.maxSeen.Load()
		if n <= old || s.maxSeen.CompareAndSwap(old, n) {
			break
		}
	}
	// Later inputs finish first to shake out ordering bugs.
	time.Sleep(s.delay * time.Duration(2100-year))
	s.inFlight.Add(-1)
	return &Quote{MSRP: decimal.NewFromInt(int64(year) * 10)}, nil
}

func TestValueMany_PreservesOrderAndBoundsConcurrency(t *testing.T) {
	src := &slowSource{delay: time.Millisecond}
	v := New(src, WithClock(pinned(2026)))

	inputs := []string{
		"2020 Honda Accord",
		"2021 Honda Accord",
		"nonsense",
		"2022 Honda Accord",
		"2023 Honda Accord",
		"2024 Honda Accord",
		"2025 Honda Accord",
	}
	results := v.ValueMany(context.Background(), inputs)

	require.Len(t, results, len(inputs))
	for i, r := range results {
		assert.Equal(t, inputs[i], r.Input)
	}
	assert.Nil(t, results[2].Valuation)
	for i, year := range map[int]int{0: 2020, 1: 2021, 3: 2022, 6: 2025} {
		require.NotNil(t, results[i].Valuation)
		assert.Equal(t, year, results[i].Valuation.Year)
		assert.True(t, results[i].Valuation.MSRP.Equal(decimal.NewFromInt(int64(year)*10)))
	}
	assert.LessOrEqual(t, src.maxSeen.Load(), int32(DefaultBatchSize))
	assert.Greater(t, src.maxSeen.Load(), int32(1))
}

func TestValueMany_CustomBatchSize(t *testing.T) {
	src := &slowSource{delay: time.Millisecond}
	v := New(src, WithClock(pinned(2026)), WithBatchSize(1))

	v.ValueMany(context.Background(), []string{"2024 Kia K5", "2025 Kia K5", "2023 Kia K5"})
	assert.Equal(t, int32(1), src.maxSeen.Load())
}

func TestValueMany_Empty(t *testing.T) {
	v := New(nil)
	assert.Empty(t, v.ValueMany(context.Background(), nil))
}
