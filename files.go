package campus

import (
	"embed"
	"io/fs"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// DialectMigrationsFS returns the migrations for a dialect, either
// "sqlite" or "postgres".
func DialectMigrationsFS(dialectDir string) (fs.FS, error) {
	return fs.Sub(migrationsFS, "data/sql/migrations/"+dialectDir)
}
