// Package config handles configuration loading for FastStock.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Poller    PollerConfig    `mapstructure:"poller"    yaml:"poller"`
	Providers ProvidersConfig `mapstructure:"providers" yaml:"providers"`
	Options   OptionsConfig   `mapstructure:"options"   yaml:"options"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Storage   StorageConfig   `mapstructure:"storage"   yaml:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// PollerConfig holds background polling settings.
type PollerConfig struct {
	FetchInterval  int      `mapstructure:"fetch_interval"  yaml:"fetch_interval"`  // seconds
	DefaultSymbols []string `mapstructure:"default_symbols" yaml:"default_symbols"` // used when no subscriptions exist
	SymbolDelayMs  int      `mapstructure:"symbol_delay_ms" yaml:"symbol_delay_ms"` // pause between symbols within a pass
}

// ProvidersConfig selects the equities provider and holds credentials.
type ProvidersConfig struct {
	Equities        string   `mapstructure:"equities"          yaml:"equities"` // "yahoo", "finnhub", "alphavantage"
	FinnhubKey      string   `mapstructure:"finnhub_key"       yaml:"finnhub_key"`
	AlphaVantageKey string   `mapstructure:"alphavantage_key"  yaml:"alphavantage_key"`
	CryptoTokens    []string `mapstructure:"crypto_tokens"     yaml:"crypto_tokens"` // quote-asset substrings that mark a symbol as crypto
}

// OptionsConfig holds option-chain pipeline settings.
type OptionsConfig struct {
	NumStrikes int `mapstructure:"num_strikes" yaml:"num_strikes"` // strikes each side of ATM
	TopN       int `mapstructure:"top_n"       yaml:"top_n"`       // top OI strikes in analytics
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// StorageConfig holds on-disk persistence locations.
type StorageConfig struct {
	DataDir           string `mapstructure:"data_dir"           yaml:"data_dir"`           // option chain snapshots
	SubscriptionsFile string `mapstructure:"subscriptions_file" yaml:"subscriptions_file"` // polled symbol list
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "console" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.faststock/config.yaml (home directory)
//  3. /etc/faststock/config.yaml (system)
//
// Environment variables override config file values.
// Format: FASTSTOCK_<SECTION>_<KEY>, e.g., FASTSTOCK_API_PORT.
// The legacy flat variables (FETCH_INTERVAL, PROVIDER, FETCH_SYMBOLS,
// FINNHUB_API_KEY, ALPHAVANTAGE_API_KEY) are honored as well.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".faststock"))
	v.AddConfigPath("/etc/faststock")

	v.SetEnvPrefix("FASTSTOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("FASTSTOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Poller defaults
	v.SetDefault("poller.fetch_interval", 60)
	v.SetDefault("poller.default_symbols", []string{"RELIANCE.NS", "INFY.NS"})
	v.SetDefault("poller.symbol_delay_ms", 200)

	// Provider defaults
	v.SetDefault("providers.equities", "yahoo")
	v.SetDefault("providers.crypto_tokens", []string{"USDT", "BTC", "ETH", "BNB", "BUSD", "USDC"})

	// Options pipeline defaults
	v.SetDefault("options.num_strikes", 25)
	v.SetDefault("options.top_n", 5)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8000)
	v.SetDefault("api.cors_origins", []string{"*"})

	// Storage defaults
	v.SetDefault("storage.data_dir", "option_chain_data")
	v.SetDefault("storage.subscriptions_file", "subscriptions.json")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// overrideFromEnv reads secrets and the legacy flat environment variables
// kept for compatibility with older deployments.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("FINNHUB_API_KEY"); key != "" {
		cfg.Providers.FinnhubKey = key
	}
	if key := os.Getenv("ALPHAVANTAGE_API_KEY"); key != "" {
		cfg.Providers.AlphaVantageKey = key
	}
	if p := os.Getenv("PROVIDER"); p != "" {
		switch strings.ToUpper(p) {
		case "FINNHUB":
			cfg.Providers.Equities = "finnhub"
		case "ALPHAVANTAGE":
			cfg.Providers.Equities = "alphavantage"
		case "YFINANCE", "YAHOO":
			cfg.Providers.Equities = "yahoo"
		}
	}
	if iv := os.Getenv("FETCH_INTERVAL"); iv != "" {
		if n, err := strconv.Atoi(iv); err == nil && n > 0 {
			cfg.Poller.FetchInterval = n
		}
	}
	if syms := os.Getenv("FETCH_SYMBOLS"); syms != "" {
		var list []string
		for _, s := range strings.Split(syms, ",") {
			if s = strings.TrimSpace(s); s != "" {
				list = append(list, strings.ToUpper(s))
			}
		}
		if len(list) > 0 {
			cfg.Poller.DefaultSymbols = list
		}
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
