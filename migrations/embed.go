// Package migrations embeds the SQL schema. Table names carry the
// environment prefix through ${TABLE_PREFIX}.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
