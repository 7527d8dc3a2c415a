package pg

import (
	"embed"
)

// schemaFS embeds the SQL migrations so EnsureIndexes can run them
// without requiring the files on disk at runtime.
//
//go:embed migrations/*.sql
var schemaFS embed.FS

var schemaSQL = func() string {
	b, err := schemaFS.ReadFile("migrations/0001_init.sql")
	if err != nil {
		panic("pg: embedded migration missing: " + err.Error())
	}
	return string(b)
}()
