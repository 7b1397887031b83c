package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the full engine configuration, loaded from a yaml file.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Provider ProviderConfig `mapstructure:"provider"`
	Market   MarketConfig   `mapstructure:"market"`
}

// DatabaseConfig selects the SQL driver and its connection string.
// Supported drivers: "postgres" (lib/pq) and "sqlite3" (mattn/go-sqlite3).
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// ProviderConfig configures the external market-data client and the fetch
// behavior of the price cache.
type ProviderConfig struct {
	BaseURL          string `mapstructure:"baseUrl"`
	TimeoutSeconds   int    `mapstructure:"timeoutSeconds"`
	MaxRetries       uint64 `mapstructure:"maxRetries"`
	FetchConcurrency int    `mapstructure:"fetchConcurrency"`
}

// Timeout returns the provider request timeout as a duration.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// MarketConfig holds the static market classification inputs: the exchange
// used for trading-day lookups, the reference time zone that defines "today"
// for crypto settlement, and the set of continuously traded tickers.
type MarketConfig struct {
	Exchange      string   `mapstructure:"exchange"`
	Timezone      string   `mapstructure:"timezone"`
	CryptoTickers []string `mapstructure:"cryptoTickers"`
}

// Location resolves the configured reference time zone.
func (m MarketConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(m.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid market timezone %q: %w", m.Timezone, err)
	}
	return loc, nil
}

// Load reads the engine configuration from <path>/engine.yaml.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.AddConfigPath(path)
	v.SetConfigName("engine")
	v.SetConfigType("yaml")

	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "portfolio.db")
	v.SetDefault("provider.baseUrl", "https://query1.finance.yahoo.com")
	v.SetDefault("provider.timeoutSeconds", 10)
	v.SetDefault("provider.maxRetries", 2)
	v.SetDefault("provider.fetchConcurrency", 4)
	v.SetDefault("market.exchange", "NYSE")
	v.SetDefault("market.timezone", "America/New_York")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
