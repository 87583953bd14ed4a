// Package config loads runtime settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds all runtime settings.
type Config struct {
	HTTPAddr      string
	PostgresDSN   string
	ClickHouseDSN string // empty disables price observation history
	UseMemory     bool   // in-memory stores instead of Postgres
	LogLevel      zerolog.Level

	AlchemyAPIKey      string
	CoinGeckoAPIKey    string
	CoinGeckoBaseURL   string
	DexScreenerBaseURL string
	WalletRPCURL       string // signer endpoint used when no wallet is given
	ChainsFile         string // overrides the embedded chain registry
	DefaultChains      []string

	PriceCacheTTL     time.Duration
	PriceCacheSize    int
	ProviderRPS       float64
	MaxTokensPerChain int
	DormancyProbe     bool

	DustThresholdUSD   float64
	CoreThresholdUSD   float64
	LiquidityFloorUSD  float64
	DustFloorUSD       float64
	UIDustThresholdUSD float64

	InsertBatchSize int
	ScanTimeout     time.Duration
}

// Load reads the configuration and validates it.
func Load() (*Config, error) {
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv reads .env when present, then the environment. The result is not
// validated so that command flags can still override it.
func FromEnv() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPAddr:      envOr("HTTP_ADDR", ":8080"),
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		ClickHouseDSN: os.Getenv("CLICKHOUSE_DSN"),
		UseMemory:     envBool("USE_MEMORY", false),
		LogLevel:      envLevel("LOG_LEVEL", zerolog.InfoLevel),

		AlchemyAPIKey:      os.Getenv("ALCHEMY_API_KEY"),
		CoinGeckoAPIKey:    os.Getenv("COINGECKO_API_KEY"),
		CoinGeckoBaseURL:   envOr("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
		DexScreenerBaseURL: envOr("DEXSCREENER_BASE_URL", "https://api.dexscreener.com"),
		WalletRPCURL:       os.Getenv("WALLET_RPC_URL"),
		ChainsFile:         os.Getenv("CHAINS_FILE"),
		DefaultChains:      splitTrim(envOr("DEFAULT_CHAINS", "ethereum")),

		PriceCacheTTL:     envDuration("PRICE_CACHE_TTL", 5*time.Minute),
		PriceCacheSize:    envInt("PRICE_CACHE_SIZE", 10_000),
		ProviderRPS:       envFloat("PROVIDER_RPS", 5),
		MaxTokensPerChain: envInt("MAX_TOKENS_PER_CHAIN", 50),
		DormancyProbe:     envBool("DORMANCY_PROBE", false),

		DustThresholdUSD:   envFloat("DUST_THRESHOLD_USD", 10),
		CoreThresholdUSD:   envFloat("CORE_THRESHOLD_USD", 1000),
		LiquidityFloorUSD:  envFloat("LIQUIDITY_FLOOR_USD", 1000),
		DustFloorUSD:       envFloat("DUST_FLOOR_USD", 0.01),
		UIDustThresholdUSD: envFloat("UI_DUST_THRESHOLD_USD", 20000),

		InsertBatchSize: envInt("INSERT_BATCH_SIZE", 500),
		ScanTimeout:     envDuration("SCAN_TIMEOUT", 60*time.Second),
	}
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	var errs []error
	if !c.UseMemory && c.PostgresDSN == "" {
		errs = append(errs, errors.New("POSTGRES_DSN is required unless USE_MEMORY=true"))
	}
	if c.DustThresholdUSD >= c.CoreThresholdUSD {
		errs = append(errs, errors.New("DUST_THRESHOLD_USD must be below CORE_THRESHOLD_USD"))
	}
	if c.InsertBatchSize <= 0 {
		errs = append(errs, errors.New("INSERT_BATCH_SIZE must be positive"))
	}
	if c.ProviderRPS <= 0 {
		errs = append(errs, errors.New("PROVIDER_RPS must be positive"))
	}
	return errors.Join(errs...)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

// envDuration accepts Go durations ("90s") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func envLevel(key string, fallback zerolog.Level) zerolog.Level {
	if v := os.Getenv(key); v != "" {
		if lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(v))); err == nil {
			return lvl
		}
	}
	return fallback
}

func splitTrim(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
