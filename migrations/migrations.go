// Package migrations embeds the SQL schema files applied at startup.
package migrations

import "embed"

//go:embed sql/*.sql
var FS embed.FS

// Dir is the embedded directory containing the .sql files.
const Dir = "sql"
