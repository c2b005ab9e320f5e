// Package migrations embeds SQL migration files for use at runtime.
// They create the four source tables for local development and tests.
package migrations

import "embed"

// FS is the embedded migrations filesystem.
// Contains all .sql files in this directory (e.g. 001_source_tables.sql).
//
//go:embed *.sql
var FS embed.FS
