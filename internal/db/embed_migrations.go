package db

import "embed"

// MigrationFS holds the SQL migrations applied by cmd/migrate and the test harness.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
