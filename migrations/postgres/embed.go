// Package migrations embeds the SQL schema migrations.
package migrations

import "embed"

// FS contains the PostgreSQL migrations, named {version}_{name}.sql.
//
//go:embed *.sql
var FS embed.FS
