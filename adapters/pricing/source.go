// Package pricing provides external vehicle pricing providers and the
// decorators (caching, metrics, chaining) that wrap them. Every type here
// implements valuation.PriceSource.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lease-analyzer/core/valuation"
)

var (
	// ErrUnavailable means the provider could not be reached or answered
	// with a failure status.
	ErrUnavailable = errors.New("pricing provider unavailable")

	// ErrNoMatch means the provider answered but knows no such vehicle.
	ErrNoMatch = errors.New("no matching vehicle")
)

// Chain asks each source in order and returns the first quote with a
// positive MSRP. Errors from earlier sources are only returned when no
// source produced a quote.
type Chain struct {
	sources []valuation.PriceSource
}

// NewChain creates a chain; nil sources are skipped.
func NewChain(sources ...valuation.PriceSource) *Chain {
	c := &Chain{}
	for _, s := range sources {
		if s != nil {
			c.sources = append(c.sources, s)
		}
	}
	return c
}

// Name lists the chained providers.
func (c *Chain) Name() string {
	names := make([]string, 0, len(c.sources))
	for _, s := range c.sources {
		names = append(names, s.Name())
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Len returns the number of chained sources.
func (c *Chain) Len() int {
	return len(c.sources)
}

// Lookup implements valuation.PriceSource.
func (c *Chain) Lookup(ctx context.Context, brand, model string, year int) (*valuation.Quote, error) {
	var errs []error
	for _, s := range c.sources {
		q, err := s.Lookup(ctx, brand, model, year)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		if q != nil && q.MSRP.IsPositive() {
			if q.Provider == "" {
				q.Provider = s.Name()
			}
			return q, nil
		}
	}
	return nil, errors.Join(errs...)
}

// cacheKey normalizes a lookup so "BMW x5" and "Bmw X5" share an entry.
func cacheKey(brand, model string, year int) string {
	return fmt.Sprintf("%s|%s|%d",
		strings.ToLower(strings.TrimSpace(brand)),
		strings.ToLower(strings.TrimSpace(model)),
		year)
}
