// Package app wires stores, providers and services from a Config.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/renaobrien/elutio/internal/balance"
	"github.com/renaobrien/elutio/internal/chains"
	"github.com/renaobrien/elutio/internal/classify"
	"github.com/renaobrien/elutio/internal/config"
	"github.com/renaobrien/elutio/internal/deposit"
	"github.com/renaobrien/elutio/internal/domain"
	"github.com/renaobrien/elutio/internal/pricing"
	"github.com/renaobrien/elutio/internal/registry"
	"github.com/renaobrien/elutio/internal/scan"
	"github.com/renaobrien/elutio/internal/storage"
	chstore "github.com/renaobrien/elutio/internal/storage/clickhouse"
	"github.com/renaobrien/elutio/internal/storage/memory"
	"github.com/renaobrien/elutio/internal/storage/migrations"
	pgstore "github.com/renaobrien/elutio/internal/storage/postgres"
	"github.com/renaobrien/elutio/internal/treasury"
)

// Stores groups the store implementations in use.
type Stores struct {
	Scans        storage.ScanStore
	Tokens       storage.TokenStore
	Assets       storage.AssetStore
	Observations storage.PriceObservationStore // nil when history is disabled
}

// App holds the wired services.
type App struct {
	Chains   *chains.Registry
	Stores   *Stores
	Scanner  *scan.Service
	Registry *registry.Service
	Deposits *deposit.Validator
	Prices   *pricing.Resolver
	Treasury *treasury.Service // nil without an Alchemy key or an ethereum chain
}

// OpenStores connects to Postgres and, when configured, ClickHouse. With
// UseMemory set everything is kept in process. migrate applies schema
// migrations first.
func OpenStores(ctx context.Context, cfg *config.Config, migrate bool, log zerolog.Logger) (*Stores, func(), error) {
	if cfg.UseMemory {
		log.Info().Msg("using in-memory storage")
		scans := memory.NewScanStore()
		return &Stores{
			Scans:        scans,
			Tokens:       memory.NewTokenStore(scans),
			Assets:       memory.NewAssetStore(),
			Observations: memory.NewPriceObservationStore(),
		}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	cleanup := []func(){pool.Close}
	closeAll := func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}

	if migrate {
		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		log.Info().Strs("applied", applied).Msg("postgres migrations done")
	}

	stores := &Stores{
		Scans:  pgstore.NewScanStore(pool),
		Tokens: pgstore.NewTokenStore(pool),
		Assets: pgstore.NewAssetStore(pool),
	}

	if cfg.ClickHouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("clickhouse: %w", err)
		}
		cleanup = append(cleanup, func() { _ = conn.Close() })
		stores.Observations = chstore.NewPriceObservationStore(conn)
		log.Info().Msg("price observation history enabled")
	}

	return stores, closeAll, nil
}

// Build wires the services over stores.
func Build(cfg *config.Config, stores *Stores, log zerolog.Logger) (*App, error) {
	reg, err := chains.Load(cfg.ChainsFile)
	if err != nil {
		return nil, err
	}

	if cfg.AlchemyAPIKey == "" {
		log.Warn().Msg("ALCHEMY_API_KEY not set, chain RPC calls will fail")
	}

	burst := max(1, int(cfg.ProviderRPS))
	coingecko := pricing.NewCoinGecko(cfg.CoinGeckoAPIKey,
		pricing.WithBaseURL(cfg.CoinGeckoBaseURL),
		pricing.WithLimiter(pricing.NewLimiter(cfg.ProviderRPS, burst, domain.PriceSourceCoinGecko)),
	)
	dexscreener := pricing.NewDexScreener(
		pricing.WithBaseURL(cfg.DexScreenerBaseURL),
		pricing.WithLimiter(pricing.NewLimiter(cfg.ProviderRPS, burst, domain.PriceSourceDexScreener)),
	)
	resolver := pricing.NewResolver(log,
		pricing.NewCached(coingecko, cfg.PriceCacheSize, cfg.PriceCacheTTL),
		pricing.NewCached(dexscreener, cfg.PriceCacheSize, cfg.PriceCacheTTL),
		pricing.NewRegistry(stores.Assets),
	)

	policy := classify.DefaultPolicy()
	policy.DustThresholdUSD = cfg.DustThresholdUSD
	policy.CoreThresholdUSD = cfg.CoreThresholdUSD
	policy.LiquidityFloorUSD = cfg.LiquidityFloorUSD
	policy.UIDustThresholdUSD = cfg.UIDustThresholdUSD

	fetcher := balance.NewDialer(cfg.AlchemyAPIKey, balance.Config{
		MaxTokens:     cfg.MaxTokensPerChain,
		DormancyProbe: cfg.DormancyProbe,
		Log:           log,
	})

	scanner := scan.New(scan.Options{
		Chains:          reg,
		Fetcher:         fetcher,
		Prices:          resolver,
		Native:          pricing.NewNativePricer(coingecko, cfg.PriceCacheTTL),
		Classifier:      classify.New(policy),
		Scans:           stores.Scans,
		Tokens:          stores.Tokens,
		Observations:    stores.Observations,
		DustFloorUSD:    cfg.DustFloorUSD,
		InsertBatchSize: cfg.InsertBatchSize,
		Timeout:         cfg.ScanTimeout,
		Log:             log,
	})

	return &App{
		Chains:   reg,
		Stores:   stores,
		Scanner:  scanner,
		Registry: registry.New(stores.Assets, reg, log),
		Deposits: deposit.NewValidator(stores.Assets, reg, log),
		Prices:   resolver,
		Treasury: buildTreasury(cfg, reg, resolver, log),
	}, nil
}

func buildTreasury(cfg *config.Config, reg *chains.Registry, prices *pricing.Resolver, log zerolog.Logger) *treasury.Service {
	if cfg.AlchemyAPIKey == "" {
		return nil
	}
	eth, err := reg.Get("ethereum")
	if err != nil {
		log.Warn().Msg("ethereum not in chain registry, treasury stats disabled")
		return nil
	}
	return treasury.New(treasury.Options{
		Chain: eth,
		Fetcher: balance.NewDialer(cfg.AlchemyAPIKey, balance.Config{
			MaxTokens: treasury.MaxTokensPerTreasury,
			Log:       log,
		}),
		Prices: prices,
		Log:    log,
	})
}

// SeedDefaultAssets loads the built-in asset list into the registry. In-memory
// stores start empty, so the registry price tier and deposits need it.
func (a *App) SeedDefaultAssets(ctx context.Context) error {
	seed, err := registry.DefaultSeed()
	if err != nil {
		return err
	}
	return a.Registry.Seed(ctx, seed)
}
