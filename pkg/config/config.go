package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ProviderConfig is one adapter registration. TTLs are deliberately
// per-provider: index prices stay fresh for a minute or two while the
// sentiment index barely moves in five.
type ProviderConfig struct {
	BaseURL string        `yaml:"base_url"`
	TTL     time.Duration `yaml:"ttl" default:"60s"`
	Timeout time.Duration `yaml:"timeout" default:"5s"`
	Rate    struct {
		Capacity     float64 `yaml:"capacity" default:"10"`
		RefillPerSec float64 `yaml:"refill_per_sec" default:"1"`
	} `yaml:"rate"`
}

// ExchangeConfig configures one per-exchange ticker connector.
type ExchangeConfig struct {
	Name  string   `yaml:"name" validate:"required,oneof=binance kucoin"`
	Pairs []string `yaml:"pairs" validate:"min=1"`
	ProviderConfig `yaml:",inline"`
}

type Config struct {
	Environment string `yaml:"environment" default:"development"`

	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`

	Refresh struct {
		Interval            time.Duration `yaml:"interval" default:"60s"`
		VolatilityThreshold string        `yaml:"volatility_threshold" default:"5.0"`
	} `yaml:"refresh"`

	Providers struct {
		StockIndex struct {
			ProviderConfig `yaml:",inline"`
			Symbols        []string `yaml:"symbols"`
		} `yaml:"stock_index"`
		CryptoMarkets struct {
			ProviderConfig `yaml:",inline"`
			VsCurrency     string   `yaml:"vs_currency" default:"inr"`
			TopN           int      `yaml:"top_n"`
			IDs            []string `yaml:"ids"`
		} `yaml:"crypto_markets"`
		Sentiment struct {
			ProviderConfig `yaml:",inline"`
			Enabled        bool `yaml:"enabled"`
		} `yaml:"sentiment"`
		Exchanges []ExchangeConfig `yaml:"exchanges" validate:"dive"`
	} `yaml:"providers"`

	Chain struct {
		BaseURL string        `yaml:"base_url"`
		APIKey  string        `yaml:"api_key"`
		Timeout time.Duration `yaml:"timeout" default:"5s"`
	} `yaml:"chain"`

	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Addr     string        `yaml:"addr" default:"localhost:6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		Key      string        `yaml:"key" default:"coincast:last_snapshot"`
		TTL      time.Duration `yaml:"ttl" default:"24h"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file, applying struct defaults
// before unmarshal and validating the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// Exchange entries materialize during unmarshal, after the top-level
	// defaults pass, so their tag defaults need a pass of their own.
	for i := range c.Providers.Exchanges {
		if err := defaults.Set(&c.Providers.Exchanges[i]); err != nil {
			return nil, fmt.Errorf("apply defaults: %w", err)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("COINCAST_PORT"); v != "" {
		fmt.Sscanf(v, "%d", &c.Server.Port)
	}
	if v := os.Getenv("COINCAST_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("COINCAST_SYMBOLS"); v != "" {
		c.Providers.StockIndex.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("COINCAST_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("CHAIN_API_KEY"); v != "" {
		c.Chain.APIKey = v
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if len(c.Providers.StockIndex.Symbols) == 0 &&
		c.Providers.CryptoMarkets.TopN == 0 &&
		len(c.Providers.CryptoMarkets.IDs) == 0 &&
		!c.Providers.Sentiment.Enabled &&
		len(c.Providers.Exchanges) == 0 {
		return fmt.Errorf("no providers configured: need at least one of stock_index.symbols, crypto_markets, sentiment, exchanges")
	}
	if c.Providers.CryptoMarkets.TopN > 0 && len(c.Providers.CryptoMarkets.IDs) > 0 {
		return fmt.Errorf("crypto_markets: top_n and ids are mutually exclusive")
	}
	if c.Refresh.Interval < time.Second {
		return fmt.Errorf("refresh.interval must be at least 1s, got %s", c.Refresh.Interval)
	}
	return nil
}
