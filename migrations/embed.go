// Package migrations embeds the SQL schema of the Garden Core entity store.
//
// Files follow YYYYMMDD_HHMMSS_description.up.sql / .down.sql and live at
// the root of FS, so callers pass "." as the directory to db.Migrate.
package migrations

import "embed"

// FS holds every migration file in this directory.
//
//go:embed *.sql
var FS embed.FS
