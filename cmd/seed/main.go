// Package main loads an asset registry seed file into PostgreSQL, or prints
// the parsed entries with -dry-run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/renaobrien/elutio/internal/chains"
	"github.com/renaobrien/elutio/internal/config"
	"github.com/renaobrien/elutio/internal/registry"
	"github.com/renaobrien/elutio/internal/storage/migrations"
	pgstore "github.com/renaobrien/elutio/internal/storage/postgres"
)

func main() {
	cfg := config.FromEnv()

	file := flag.String("file", "", "Asset seed YAML (built-in list when empty)")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	migrate := flag.Bool("migrate", true, "Apply migrations before seeding")
	dryRun := flag.Bool("dry-run", false, "Print the parsed assets without writing")
	flag.Parse()

	zerolog.SetGlobalLevel(cfg.LogLevel)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()

	assets, err := registry.LoadSeed(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load seed")
	}

	if *dryRun {
		for _, a := range assets {
			fmt.Printf("%-12s %-8s supported=%-5t %s\n", a.Chain, a.TokenSymbol, a.IsSupported, a.TokenAddress)
		}
		log.Info().Int("assets", len(assets)).Msg("dry run, nothing written")
		return
	}

	if *postgresDSN == "" {
		log.Fatal().Msg("-postgres-dsn is required (or use -dry-run)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()

	if *migrate {
		if _, err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
	}

	reg, err := chains.Load(cfg.ChainsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load chains")
	}

	svc := registry.New(pgstore.NewAssetStore(pool), reg, log.Logger)
	if err := svc.Seed(ctx, assets); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
}
