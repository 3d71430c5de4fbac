// Package migrations carries the embedded goose SQL migrations. Files are
// named YYYYMMDDHHMMSS_description.sql and run in timestamp order when the
// storage layer migrates on startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
