// Package config provides configuration management.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"lease-analyzer/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. LEASE_SERVER_ADDR.
const EnvPrefix = "LEASE"

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version" mapstructure:"version"`

	// Server contains HTTP server settings
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Pricing contains external pricing provider settings
	Pricing PricingConfig `json:"pricing" mapstructure:"pricing"`

	// Cache contains valuation cache settings
	Cache CacheConfig `json:"cache" mapstructure:"cache"`

	// Storage selects where finished analyses are kept
	Storage StorageConfig `json:"storage" mapstructure:"storage"`

	// Valuation contains fallback valuation settings
	Valuation ValuationConfig `json:"valuation" mapstructure:"valuation"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging" mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Addr            string        `json:"addr" mapstructure:"addr"`
	ReadTimeout     time.Duration `json:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// PricingConfig contains pricing-related settings
type PricingConfig struct {
	// CarAPI configures the carapi.app lookup
	CarAPI CarAPIConfig `json:"carapi" mapstructure:"carapi"`

	// CacheTTL is how long a provider answer is reused
	CacheTTL time.Duration `json:"cache_ttl" mapstructure:"cache_ttl"`

	// BatchSize caps simultaneous lookups during batch valuation
	BatchSize int `json:"batch_size" mapstructure:"batch_size"`
}

// CarAPIConfig configures the carapi.app provider
type CarAPIConfig struct {
	Enabled bool          `json:"enabled" mapstructure:"enabled"`
	BaseURL string        `json:"base_url" mapstructure:"base_url"`
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// CacheConfig contains cache-related settings
type CacheConfig struct {
	// Backend is one of memory, redis, none
	Backend string `json:"backend" mapstructure:"backend"`

	RedisAddr string `json:"redis_addr" mapstructure:"redis_addr"`
	RedisDB   int    `json:"redis_db" mapstructure:"redis_db"`
	KeyPrefix string `json:"key_prefix" mapstructure:"key_prefix"`
}

// StorageConfig selects the analysis store
type StorageConfig struct {
	// Backend is one of memory, postgres
	Backend     string `json:"backend" mapstructure:"backend"`
	PostgresDSN string `json:"postgres_dsn,omitempty" mapstructure:"postgres_dsn"`
}

// ValuationConfig contains fallback valuation settings
type ValuationConfig struct {
	// FallbackMarketValue is used when nothing else can value the vehicle
	FallbackMarketValue string `json:"fallback_market_value" mapstructure:"fallback_market_value"`

	// LegacyTablePath overrides the embedded legacy valuation table
	LegacyTablePath string `json:"legacy_table_path,omitempty" mapstructure:"legacy_table_path"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Pricing: PricingConfig{
			CarAPI: CarAPIConfig{
				Enabled: true,
				BaseURL: "https://carapi.app/api",
				Timeout: 5 * time.Second,
			},
			CacheTTL:  24 * time.Hour,
			BatchSize: 3,
		},
		Cache: CacheConfig{
			Backend:   "memory",
			RedisAddr: "localhost:6379",
			KeyPrefix: "lease:valuation:",
		},
		Storage: StorageConfig{
			Backend: "memory",
		},
		Valuation: ValuationConfig{
			FallbackMarketValue: "35000",
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file, then applies LEASE_* environment
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("pricing.carapi.enabled", d.Pricing.CarAPI.Enabled)
	v.SetDefault("pricing.carapi.base_url", d.Pricing.CarAPI.BaseURL)
	v.SetDefault("pricing.carapi.timeout", d.Pricing.CarAPI.Timeout)
	v.SetDefault("pricing.cache_ttl", d.Pricing.CacheTTL)
	v.SetDefault("pricing.batch_size", d.Pricing.BatchSize)
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.redis_addr", d.Cache.RedisAddr)
	v.SetDefault("cache.redis_db", d.Cache.RedisDB)
	v.SetDefault("cache.key_prefix", d.Cache.KeyPrefix)
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)
	v.SetDefault("valuation.fallback_market_value", d.Valuation.FallbackMarketValue)
	v.SetDefault("valuation.legacy_table_path", d.Valuation.LegacyTablePath)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)
	v.SetDefault("logging.development", d.Logging.Development)
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
