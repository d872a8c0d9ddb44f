// Package config loads service settings from defaults, an optional YAML file
// and BANKLEDGER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go-bank-ledger/model"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Treasury   TreasuryConfig   `mapstructure:"treasury"`
	Engine     EngineConfig     `mapstructure:"engine"`
	MarketData MarketDataConfig `mapstructure:"marketdata"`
	FX         FXConfig         `mapstructure:"fx"`
	Log        LogConfig        `mapstructure:"log"`
	ConfigPath string           `mapstructure:"-"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver         string `mapstructure:"driver"`
	URL            string `mapstructure:"url"`
	ConnectRetries uint64 `mapstructure:"connect_retries"`
}

type TreasuryConfig struct {
	AccountNumber  string `mapstructure:"account_number"`
	Currency       string `mapstructure:"currency"`
	OpeningBalance string `mapstructure:"opening_balance"`
}

type EngineConfig struct {
	MaxRetries uint64 `mapstructure:"max_retries"`
}

// MarketDataConfig points at the price endpoints. An empty URL disables that
// feed.
type MarketDataConfig struct {
	CryptoURL        string        `mapstructure:"crypto_url"`
	CryptoInterval   time.Duration `mapstructure:"crypto_interval"`
	EquitiesURL      string        `mapstructure:"equities_url"`
	EquitiesInterval time.Duration `mapstructure:"equities_interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// FXConfig holds display rates: the value of one unit of each currency in Base.
type FXConfig struct {
	Base  string            `mapstructure:"base"`
	Rates map[string]string `mapstructure:"rates"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.url", "")
	v.SetDefault("database.connect_retries", 10)
	v.SetDefault("treasury.account_number", "ES00000000000000000000")
	v.SetDefault("treasury.currency", string(model.EUR))
	v.SetDefault("treasury.opening_balance", "1000000.00")
	v.SetDefault("engine.max_retries", 5)
	v.SetDefault("marketdata.crypto_url", "")
	v.SetDefault("marketdata.crypto_interval", 30*time.Second)
	v.SetDefault("marketdata.equities_url", "")
	v.SetDefault("marketdata.equities_interval", 5*time.Minute)
	v.SetDefault("marketdata.timeout", 10*time.Second)
	v.SetDefault("fx.base", string(model.EUR))
	v.SetDefault("fx.rates", map[string]string{"EUR": "1", "GBP": "1.17", "USD": "0.92"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration. path may be empty, in which case ./bankledger.yaml
// is used if present. Env var overrides use prefix BANKLEDGER_; DATABASE_URL is
// honoured as well.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("bankledger")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("BANKLEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database.url", "BANKLEDGER_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		if path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be caught by decoding.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("database.url (or DATABASE_URL) is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	if _, err := c.TreasuryCurrency(); err != nil {
		return err
	}
	if _, err := c.OpeningBalance(); err != nil {
		return err
	}
	if _, _, err := c.Rates(); err != nil {
		return err
	}
	return nil
}

// TreasuryCurrency parses treasury.currency.
func (c *Config) TreasuryCurrency() (model.Currency, error) {
	cur, err := model.ParseCurrency(c.Treasury.Currency)
	if err != nil {
		return "", fmt.Errorf("treasury.currency: %w", err)
	}
	return cur, nil
}

// OpeningBalance parses treasury.opening_balance.
func (c *Config) OpeningBalance() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.Treasury.OpeningBalance)
	if err != nil || d.IsNegative() {
		return decimal.Zero, fmt.Errorf("treasury.opening_balance: invalid amount %q", c.Treasury.OpeningBalance)
	}
	return d, nil
}

// Rates parses the fx section into a base currency and rate map.
func (c *Config) Rates() (model.Currency, map[model.Currency]decimal.Decimal, error) {
	base, err := model.ParseCurrency(c.FX.Base)
	if err != nil {
		return "", nil, fmt.Errorf("fx.base: %w", err)
	}
	rates := make(map[model.Currency]decimal.Decimal, len(c.FX.Rates))
	// Viper lower-cases map keys.
	for code, raw := range c.FX.Rates {
		cur, err := model.ParseCurrency(strings.ToUpper(code))
		if err != nil {
			return "", nil, fmt.Errorf("fx.rates: %w", err)
		}
		r, err := decimal.NewFromString(raw)
		if err != nil || !r.IsPositive() {
			return "", nil, fmt.Errorf("fx.rates.%s: invalid rate %q", code, raw)
		}
		rates[cur] = r
	}
	return base, rates, nil
}
