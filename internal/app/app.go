// Package app wires configuration into a ready-to-use analysis engine. Both
// the HTTP server and the CLI build their collaborators here.
package app

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"lease-analyzer/adapters/legacy"
	"lease-analyzer/adapters/pricing"
	"lease-analyzer/adapters/storage"
	"lease-analyzer/core/engine"
	"lease-analyzer/core/tax"
	"lease-analyzer/core/valuation"
	"lease-analyzer/internal/config"
	apperrors "lease-analyzer/internal/errors"
	"lease-analyzer/internal/logging"
)

const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// App holds the wired collaborators.
type App struct {
	Engine   *engine.Engine
	Valuator *valuation.Valuator
	Store    storage.Store
	Taxes    *tax.Table
	Legacy   *legacy.Table

	redis *redis.Client
}

// Option customizes Build.
type Option func(*options)

type options struct {
	registry prometheus.Registerer
	clock    valuation.Clock
}

// WithRegistry registers pricing metrics with reg.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(o *options) { o.registry = reg }
}

// WithClock pins the current time.
func WithClock(c valuation.Clock) Option {
	return func(o *options) { o.clock = c }
}

// Build creates every collaborator named by cfg.
func Build(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	fallback, err := decimal.NewFromString(cfg.Valuation.FallbackMarketValue)
	if err != nil || !fallback.IsPositive() {
		return nil, apperrors.Newf(apperrors.TypeConfig,
			"valuation.fallback_market_value must be a positive number, got %q", cfg.Valuation.FallbackMarketValue)
	}

	legacyTable := legacy.Default()
	if path := cfg.Valuation.LegacyTablePath; path != "" {
		legacyTable, err = legacy.Load(path)
		if err != nil {
			return nil, apperrors.Wrapf(apperrors.TypeConfig, err, "load legacy table %s", path)
		}
	}

	a := &App{
		Taxes:  tax.Default(),
		Legacy: legacyTable,
	}

	source, err := a.priceSource(cfg, o.registry)
	if err != nil {
		return nil, err
	}

	valuatorOpts := []valuation.Option{valuation.WithBatchSize(cfg.Pricing.BatchSize)}
	if o.clock != nil {
		valuatorOpts = append(valuatorOpts, valuation.WithClock(o.clock))
	}
	a.Valuator = valuation.New(source, valuatorOpts...)

	a.Store, err = storage.Open(ctx, storage.Backend(cfg.Storage.Backend), cfg.Storage.PostgresDSN)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Engine = engine.NewEngine(a.Valuator, a.Taxes, a.Store, a.Legacy, engine.EngineConfig{
		FallbackMarketValue: fallback,
		Clock:               o.clock,
	})

	logging.Info("lease analyzer ready",
		zap.Bool("carapi", cfg.Pricing.CarAPI.Enabled),
		zap.String("cache", cfg.Cache.Backend),
		zap.String("storage", cfg.Storage.Backend),
		zap.Int("legacy_models", len(a.Legacy.Models())),
	)
	return a, nil
}

// priceSource builds cache(chain(metrics(carapi))). It returns nil when no
// external provider is enabled.
func (a *App) priceSource(cfg *config.Config, reg prometheus.Registerer) (valuation.PriceSource, error) {
	if !cfg.Pricing.CarAPI.Enabled {
		return nil, nil
	}

	var provider valuation.PriceSource = pricing.NewCarAPI(cfg.Pricing.CarAPI.BaseURL, cfg.Pricing.CarAPI.Timeout)
	if reg != nil {
		provider = pricing.NewMetricsSource(provider, reg)
	}
	chain := pricing.NewChain(provider)

	switch cfg.Cache.Backend {
	case "", CacheMemory:
		return pricing.NewMemoryCache(chain, cfg.Pricing.CacheTTL), nil
	case CacheRedis:
		a.redis = pricing.NewRedisClient(cfg.Cache.RedisAddr, cfg.Cache.RedisDB)
		return pricing.NewRedisCache(chain, a.redis, cfg.Pricing.CacheTTL, cfg.Cache.KeyPrefix), nil
	case CacheNone:
		return chain, nil
	default:
		return nil, apperrors.Newf(apperrors.TypeConfig, "unsupported cache backend: %s", cfg.Cache.Backend)
	}
}

// Close releases the store and the Redis connection.
func (a *App) Close() error {
	var errs []error
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	return errors.Join(errs...)
}
