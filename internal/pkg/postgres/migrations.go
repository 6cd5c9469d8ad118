package postgres

import "embed"

// MigrationsFS holds the embedded PostgreSQL migration files.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
