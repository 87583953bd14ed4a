package migrations

import "embed"

// PostgresFS embeds the PostgreSQL schema: wallet_scans, tokens, asset_registry.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds the ClickHouse schema for price observations.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
