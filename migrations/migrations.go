// Package migrations embeds the SQL schema migrations so the migrate
// binary ships them inside the build instead of reading them off disk.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
