// Package db embeds the schema migrations for each supported database driver.
package db

import "embed"

// Migrations holds one directory of golang-migrate files per driver:
// migrations/postgres and migrations/sqlite.
//
//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var Migrations embed.FS
