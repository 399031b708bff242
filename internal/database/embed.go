package database

import "embed"

//go:embed sql/*.sql
var migrationsFS embed.FS
