package migrations

import "embed"

// FS holds the numbered up/down SQL migrations.
//
//go:embed *.sql
var FS embed.FS
