package clickhouse

import "embed"

// MigrationsFS holds the embedded ClickHouse migration files.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
