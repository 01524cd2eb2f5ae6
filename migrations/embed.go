// Package migrations carries the SQLite schema. Files are applied in
// lexical order and recorded by name in schema_migrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
