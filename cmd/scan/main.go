// Package main runs a single wallet scan and prints the result as JSON.
//
// Usage:
//
//	scan -wallet 0x... -chains ethereum,base [-threshold 0] [-use-memory]
//
// Without -wallet the address is taken from the signer at -wallet-rpc.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/renaobrien/elutio/internal/app"
	"github.com/renaobrien/elutio/internal/classify"
	"github.com/renaobrien/elutio/internal/config"
	"github.com/renaobrien/elutio/internal/domain"
	"github.com/renaobrien/elutio/internal/scan"
	"github.com/renaobrien/elutio/internal/wallet"
)

type output struct {
	ScanID       string                `json:"scanId"`
	Wallet       string                `json:"walletAddress"`
	Chains       []string              `json:"chains"`
	FailedChains []string              `json:"failedChains"`
	Metrics      domain.ScanMetrics    `json:"metrics"`
	Threshold    float64               `json:"threshold,omitempty"`
	Tokens       []*domain.PricedToken `json:"tokens"`
}

func main() {
	cfg := config.FromEnv()

	walletAddr := flag.String("wallet", "", "Wallet address to scan")
	chainList := flag.String("chains", strings.Join(cfg.DefaultChains, ","), "Comma-separated chain ids")
	threshold := flag.Float64("threshold", cfg.UIDustThresholdUSD, "Re-bucket dust below this USD value (0 keeps scan labels)")
	walletRPC := flag.String("wallet-rpc", cfg.WalletRPCURL, "JSON-RPC signer used when -wallet is empty")
	useMemory := flag.Bool("use-memory", true, "Keep the scan in memory instead of PostgreSQL")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	flag.Parse()

	cfg.UseMemory = *useMemory
	cfg.PostgresDSN = *postgresDSN
	if cfg.UseMemory {
		cfg.ClickHouseDSN = ""
	}

	zerolog.SetGlobalLevel(cfg.LogLevel)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	addr, err := resolveWallet(ctx, *walletAddr, *walletRPC)
	if err != nil {
		log.Fatal().Err(err).Msg("no wallet to scan")
	}

	stores, cleanup, err := app.OpenStores(ctx, cfg, false, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open stores")
	}
	defer cleanup()

	a, err := app.Build(cfg, stores, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build services")
	}
	if cfg.UseMemory {
		if err := a.SeedDefaultAssets(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to seed in-memory registry")
		}
	}

	res, err := a.Scanner.Scan(ctx, scan.Request{WalletAddress: addr, Chains: splitChains(*chainList)})
	if err != nil {
		log.Fatal().Err(err).Msg("scan failed")
	}

	tokens := res.Tokens
	if *threshold > 0 {
		tokens = classify.Rebucket(tokens, *threshold)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output{
		ScanID:       res.Scan.ID,
		Wallet:       res.Scan.WalletAddress,
		Chains:       res.Scan.Chains,
		FailedChains: res.FailedChains,
		Metrics:      res.Metrics,
		Threshold:    *threshold,
		Tokens:       tokens,
	}); err != nil {
		log.Fatal().Err(err).Msg("write output")
	}
}

func resolveWallet(ctx context.Context, addr, rpcURL string) (string, error) {
	var p wallet.Provider = wallet.StaticProvider{Address: addr}
	if strings.TrimSpace(addr) == "" && rpcURL != "" {
		rp, closeFn, err := wallet.DialRPCProvider(ctx, rpcURL)
		if err != nil {
			return "", err
		}
		defer closeFn()
		p = rp
	}

	account, err := wallet.PrimaryAccount(ctx, p)
	if err != nil {
		return "", err
	}
	if chainID, err := p.ChainID(ctx); err == nil {
		log.Info().Str("wallet", account).Str("chain_id", chainID).Msg("wallet resolved")
	}
	return account, nil
}

func splitChains(s string) []string {
	var out []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
