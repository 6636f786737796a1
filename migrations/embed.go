// Package migrations holds the SQL migrations applied by clinic-server migrate.
package migrations

import "embed"

// FS contains every NNN_name.sql file in this directory.
//
//go:embed *.sql
var FS embed.FS
