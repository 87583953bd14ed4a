// Package main runs the Elutio HTTP API: wallet scans, scan history, the
// asset registry and deposit validation.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/renaobrien/elutio/internal/app"
	"github.com/renaobrien/elutio/internal/config"
	"github.com/renaobrien/elutio/internal/httpapi"
)

func main() {
	cfg := config.FromEnv()

	addr := flag.String("addr", cfg.HTTPAddr, "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickHouseDSN, "ClickHouse connection string (optional)")
	useMemory := flag.Bool("use-memory", cfg.UseMemory, "Use in-memory storage instead of PostgreSQL")
	migrate := flag.Bool("migrate", true, "Apply database migrations on start")
	allowOrigin := flag.String("allow-origin", "*", "CORS allowed origin")
	flag.Parse()

	cfg.HTTPAddr = *addr
	cfg.PostgresDSN = *postgresDSN
	cfg.ClickHouseDSN = *clickhouseDSN
	cfg.UseMemory = *useMemory

	setupLogger(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := app.OpenStores(ctx, cfg, *migrate, log.Logger)
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

	opts := httpapi.Options{
		Scanner:     a.Scanner,
		Assets:      a.Registry,
		Deposits:    a.Deposits,
		History:     stores.Observations,
		AllowOrigin: *allowOrigin,
		Log:         log.Logger,
	}
	if a.Treasury != nil {
		opts.Treasury = a.Treasury
	}
	api := httpapi.New(opts)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()

		shutdownCtx, stop := context.WithTimeout(context.Background(), 30*time.Second)
		defer stop()
		go func() {
			select {
			case sig := <-sigCh:
				log.Warn().Str("signal", sig.String()).Msg("second signal, forcing exit")
				os.Exit(1)
			case <-done:
			}
		}()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	log.Info().
		Str("addr", cfg.HTTPAddr).
		Bool("memory", cfg.UseMemory).
		Strs("chains", a.Chains.IDs()).
		Strs("price_tiers", a.Prices.Tiers()).
		Msg("server started")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	close(done)
	log.Info().Msg("shutdown complete")
}

func setupLogger(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
}
