// Package config centralizes the file+env+default merge for the engine's
// exchange credentials and runtime parameters, in a flag-with-env-fallback
// idiom with a JSON-first style for on-disk state.
package config

import (
	"encoding/json"
	"os"

	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/execerr"
)

// Config is the merged set of parameters a cmd/ entrypoint needs to start
// an exchange connector, order manager, and runtime loop or backtest run.
type Config struct {
	ExchangeAPIKey    string `json:"exchange_api_key"`
	ExchangeAPISecret string `json:"exchange_api_secret"`
	ExchangeBaseURL   string `json:"exchange_base_url"`
	UseMock           bool   `json:"use_mock"`

	Symbols         []string        `json:"symbols"`
	InitialBalance  decimal.Decimal `json:"initial_balance"`
	FeeRateBps      decimal.Decimal `json:"fee_rate_bps"`
	MinOrderQty     decimal.Decimal `json:"min_order_qty"`
	MaxOrderQty     decimal.Decimal `json:"max_order_qty"`
	HTTPAddr        string          `json:"http_addr"`
	MockSeed        int64           `json:"mock_seed"`
}

// Default returns the built-in defaults used when neither a config file nor
// an environment override supplies a value.
func Default() Config {
	return Config{
		ExchangeBaseURL: "https://api.exchange.example",
		UseMock:         true,
		Symbols:         []string{"BTCUSDT"},
		InitialBalance:  decimal.NewFromInt(10000),
		FeeRateBps:      decimal.NewFromFloat(5),
		MinOrderQty:     decimal.NewFromFloat(0.0001),
		MaxOrderQty:     decimal.NewFromInt(1000),
		HTTPAddr:        ":8080",
		MockSeed:        1,
	}
}

// Load merges, in increasing priority, the built-in defaults, an optional
// JSON file at path (skipped silently if path is empty or unreadable), and
// environment variable overrides (EXCHANGE_API_KEY, EXCHANGE_API_SECRET,
// EXCHANGE_BASE_URL, USE_MOCK).
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if jerr := json.Unmarshal(data, &cfg); jerr != nil {
				return Config{}, execerr.Wrap(execerr.ConfigError, "parse config file "+path, jerr)
			}
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("EXCHANGE_API_KEY"); v != "" {
		cfg.ExchangeAPIKey = v
	}
	if v := os.Getenv("EXCHANGE_API_SECRET"); v != "" {
		cfg.ExchangeAPISecret = v
	}
	if v := os.Getenv("EXCHANGE_BASE_URL"); v != "" {
		cfg.ExchangeBaseURL = v
	}
	if v := os.Getenv("USE_MOCK"); v != "" {
		cfg.UseMock = v != "false" && v != "0"
	}
}
