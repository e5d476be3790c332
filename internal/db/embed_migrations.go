package db

import "embed"

// MigrationFS embeds the SQL migrations, one directory per dialect (migrations/postgres, migrations/sqlite).
//
//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var MigrationFS embed.FS
