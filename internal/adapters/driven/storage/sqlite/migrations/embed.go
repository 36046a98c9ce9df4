package migrations

import "embed"

// FS holds the goose migrations applied by sqlite.NewStore, in file name order.
//
//go:embed *.sql
var FS embed.FS
