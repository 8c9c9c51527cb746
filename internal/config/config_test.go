package config

import (
	"os"
	"path/filepath"
	"testing"
)

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	envVars := []string{
		"FETCH_INTERVAL", "PROVIDER", "FETCH_SYMBOLS",
		"FINNHUB_API_KEY", "ALPHAVANTAGE_API_KEY",
	}
	for _, e := range envVars {
		os.Unsetenv(e)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Poller.FetchInterval != 60 {
		t.Errorf("Poller.FetchInterval: got %d, want 60", cfg.Poller.FetchInterval)
	}
	if cfg.Poller.SymbolDelayMs != 200 {
		t.Errorf("Poller.SymbolDelayMs: got %d, want 200", cfg.Poller.SymbolDelayMs)
	}
	if len(cfg.Poller.DefaultSymbols) != 2 || cfg.Poller.DefaultSymbols[0] != "RELIANCE.NS" {
		t.Errorf("Poller.DefaultSymbols: got %v", cfg.Poller.DefaultSymbols)
	}

	if cfg.Providers.Equities != "yahoo" {
		t.Errorf("Providers.Equities: got %q, want %q", cfg.Providers.Equities, "yahoo")
	}
	if len(cfg.Providers.CryptoTokens) == 0 {
		t.Error("Providers.CryptoTokens should have defaults")
	}

	if cfg.Options.NumStrikes != 25 {
		t.Errorf("Options.NumStrikes: got %d, want 25", cfg.Options.NumStrikes)
	}
	if cfg.Options.TopN != 5 {
		t.Errorf("Options.TopN: got %d, want 5", cfg.Options.TopN)
	}

	if cfg.API.Host != "0.0.0.0" {
		t.Errorf("API.Host: got %q, want %q", cfg.API.Host, "0.0.0.0")
	}
	if cfg.API.Port != 8000 {
		t.Errorf("API.Port: got %d, want 8000", cfg.API.Port)
	}

	if cfg.Storage.DataDir != "option_chain_data" {
		t.Errorf("Storage.DataDir: got %q", cfg.Storage.DataDir)
	}
	if cfg.Storage.SubscriptionsFile != "subscriptions.json" {
		t.Errorf("Storage.SubscriptionsFile: got %q", cfg.Storage.SubscriptionsFile)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
poller:
  fetch_interval: 15
  default_symbols: ["TCS.NS"]
providers:
  equities: "finnhub"
  finnhub_key: "test_key_12345678901234"
options:
  num_strikes: 10
  top_n: 3
api:
  port: 9090
logging:
  level: "debug"
  format: "json"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	os.Unsetenv("FETCH_INTERVAL")
	os.Unsetenv("PROVIDER")
	os.Unsetenv("FINNHUB_API_KEY")

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Poller.FetchInterval != 15 {
		t.Errorf("Poller.FetchInterval: got %d, want 15", cfg.Poller.FetchInterval)
	}
	if len(cfg.Poller.DefaultSymbols) != 1 || cfg.Poller.DefaultSymbols[0] != "TCS.NS" {
		t.Errorf("Poller.DefaultSymbols: got %v", cfg.Poller.DefaultSymbols)
	}
	if cfg.Providers.Equities != "finnhub" {
		t.Errorf("Providers.Equities: got %q", cfg.Providers.Equities)
	}
	if cfg.Providers.FinnhubKey != "test_key_12345678901234" {
		t.Errorf("Providers.FinnhubKey: got %q", cfg.Providers.FinnhubKey)
	}
	if cfg.Options.NumStrikes != 10 {
		t.Errorf("Options.NumStrikes: got %d, want 10", cfg.Options.NumStrikes)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port: got %d, want 9090", cfg.API.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q", cfg.Logging.Level)
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

// ── overrideFromEnv ──

func TestOverrideFromEnvLegacyVars(t *testing.T) {
	os.Setenv("FETCH_INTERVAL", "30")
	os.Setenv("PROVIDER", "ALPHAVANTAGE")
	os.Setenv("FETCH_SYMBOLS", "reliance.ns, infy.ns")
	os.Setenv("FINNHUB_API_KEY", "fh-key-1234567890")
	os.Setenv("ALPHAVANTAGE_API_KEY", "av-key-1234567890")
	defer func() {
		os.Unsetenv("FETCH_INTERVAL")
		os.Unsetenv("PROVIDER")
		os.Unsetenv("FETCH_SYMBOLS")
		os.Unsetenv("FINNHUB_API_KEY")
		os.Unsetenv("ALPHAVANTAGE_API_KEY")
	}()

	cfg := &Config{}
	overrideFromEnv(cfg)

	if cfg.Poller.FetchInterval != 30 {
		t.Errorf("FetchInterval: got %d, want 30", cfg.Poller.FetchInterval)
	}
	if cfg.Providers.Equities != "alphavantage" {
		t.Errorf("Equities: got %q, want alphavantage", cfg.Providers.Equities)
	}
	want := []string{"RELIANCE.NS", "INFY.NS"}
	if len(cfg.Poller.DefaultSymbols) != 2 || cfg.Poller.DefaultSymbols[0] != want[0] || cfg.Poller.DefaultSymbols[1] != want[1] {
		t.Errorf("DefaultSymbols: got %v, want %v", cfg.Poller.DefaultSymbols, want)
	}
	if cfg.Providers.FinnhubKey != "fh-key-1234567890" {
		t.Errorf("FinnhubKey: got %q", cfg.Providers.FinnhubKey)
	}
	if cfg.Providers.AlphaVantageKey != "av-key-1234567890" {
		t.Errorf("AlphaVantageKey: got %q", cfg.Providers.AlphaVantageKey)
	}
}

func TestOverrideFromEnvInvalidInterval(t *testing.T) {
	os.Setenv("FETCH_INTERVAL", "not-a-number")
	defer os.Unsetenv("FETCH_INTERVAL")

	cfg := &Config{Poller: PollerConfig{FetchInterval: 60}}
	overrideFromEnv(cfg)

	if cfg.Poller.FetchInterval != 60 {
		t.Errorf("FetchInterval should stay at 60 on bad input, got %d", cfg.Poller.FetchInterval)
	}
}

func TestOverrideFromEnvNoEnvSet(t *testing.T) {
	os.Unsetenv("FINNHUB_API_KEY")
	os.Unsetenv("PROVIDER")

	cfg := &Config{
		Providers: ProvidersConfig{FinnhubKey: "from-config", Equities: "yahoo"},
	}
	overrideFromEnv(cfg)

	if cfg.Providers.FinnhubKey != "from-config" {
		t.Errorf("FinnhubKey should stay as 'from-config', got %q", cfg.Providers.FinnhubKey)
	}
	if cfg.Providers.Equities != "yahoo" {
		t.Errorf("Equities should stay as 'yahoo', got %q", cfg.Providers.Equities)
	}
}

// ── maskKey ──

func TestMaskKeyShort(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "***"},
		{"a", "***"},
		{"abcd", "***"},
		{"12345678", "***"},
	}
	for _, tc := range tests {
		got := maskKey(tc.input)
		if got != tc.want {
			t.Errorf("maskKey(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestMaskKeyLong(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"123456789", "123...789"},
		{"fh-abcdef1234567890xyz", "fh-...xyz"},
	}
	for _, tc := range tests {
		got := maskKey(tc.input)
		if got != tc.want {
			t.Errorf("maskKey(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

// ── CheckAPIKeys / checkKey ──

func TestCheckAPIKeysAllEmpty(t *testing.T) {
	os.Unsetenv("FINNHUB_API_KEY")
	os.Unsetenv("ALPHAVANTAGE_API_KEY")

	cfg := &Config{}
	statuses := CheckAPIKeys(cfg)

	if len(statuses) != 2 {
		t.Fatalf("CheckAPIKeys: got %d statuses, want 2", len(statuses))
	}
	for _, s := range statuses {
		if s.IsSet {
			t.Errorf("Key %q should not be set", s.Name)
		}
		if s.Source != KeySourceNone {
			t.Errorf("Key %q source: got %q, want %q", s.Name, s.Source, KeySourceNone)
		}
	}
}

func TestCheckAPIKeysFromEnv(t *testing.T) {
	os.Setenv("FINNHUB_API_KEY", "fh-env-key-for-testing")
	defer os.Unsetenv("FINNHUB_API_KEY")

	cfg := &Config{
		Providers: ProvidersConfig{FinnhubKey: "fh-env-key-for-testing"},
	}
	statuses := CheckAPIKeys(cfg)

	for _, s := range statuses {
		if s.Name == "Finnhub API Key" && s.Source != KeySourceEnv {
			t.Errorf("Source: got %q, want %q", s.Source, KeySourceEnv)
		}
	}
}

// ── homeDir ──

func TestHomeDirReturnsNonEmpty(t *testing.T) {
	if homeDir() == "" {
		t.Error("homeDir() should not return empty string")
	}
}
