// Package migrations embeds the ordered schema scripts applied at
// database open, following the teacher's
// internal/adapters/driven/storage/sqlite/migrations package.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
