package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"lease-analyzer/core/valuation"
)

// Lookup outcomes reported by MetricsSource.
const (
	OutcomeHit     = "hit"
	OutcomeNoMatch = "no_match"
	OutcomeError   = "error"
)

// MetricsSource records lookup counts and latency for a source.
type MetricsSource struct {
	inner    valuation.PriceSource
	lookups  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetricsSource creates a metrics wrapper registered on reg.
func NewMetricsSource(inner valuation.PriceSource, reg prometheus.Registerer) *MetricsSource {
	factory := promauto.With(reg)
	return &MetricsSource{
		inner: inner,
		lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lease",
			Subsystem: "pricing",
			Name:      "lookups_total",
			Help:      "External pricing lookups by provider and outcome.",
		}, []string{"provider", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lease",
			Subsystem: "pricing",
			Name:      "lookup_duration_seconds",
			Help:      "Latency of external pricing lookups.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
	}
}

// Name implements valuation.PriceSource.
func (m *MetricsSource) Name() string {
	return m.inner.Name()
}

// Lookup implements valuation.PriceSource.
func (m *MetricsSource) Lookup(ctx context.Context, brand, model string, year int) (*valuation.Quote, error) {
	start := time.Now()
	q, err := m.inner.Lookup(ctx, brand, model, year)
	m.duration.WithLabelValues(m.inner.Name()).Observe(time.Since(start).Seconds())
	m.lookups.WithLabelValues(m.inner.Name(), outcome(q, err)).Inc()
	return q, err
}

func outcome(q *valuation.Quote, err error) string {
	switch {
	case err == nil && q != nil && q.MSRP.IsPositive():
		return OutcomeHit
	case err == nil, errors.Is(err, ErrNoMatch):
		return OutcomeNoMatch
	default:
		return OutcomeError
	}
}
