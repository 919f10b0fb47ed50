// Package migrations embeds the goose SQL migrations, one directory per
// supported dialect.
package migrations

import "embed"

// Migrations holds both dialect directories: "postgres" and "sqlite".
//
//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS

const (
	PostgresDir = "postgres"
	SQLiteDir   = "sqlite"
)
