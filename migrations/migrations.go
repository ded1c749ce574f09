// Package migrations embeds the schema migration files so the binary does
// not depend on the working directory at startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
