// Package migrations holds the embedded goose SQL migration files.
package migrations

import "embed"

// FS contains the SQL migrations, embedded so the binary can migrate
// any database it can reach without a copy of the source tree.
//
//go:embed *.sql
var FS embed.FS
