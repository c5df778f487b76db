// Package migrations embeds the SQL schema applied by cmd/migrator.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
