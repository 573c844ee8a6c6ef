package migrations

import (
	"github.com/lgrosjean/baynext-ml/internal/migrations/postgres"
	"github.com/lgrosjean/baynext-ml/internal/migrations/sqlite"
	lsql "github.com/lgrosjean/baynext-ml/pkg/sql"
)

// Sets maps database engines to their migration assets.
func Sets() map[string]lsql.MigrationSet {
	sqliteSet := lsql.MigrationSet{
		AssetNames: sqlite.AssetNames,
		Asset:      sqlite.Asset,
	}
	return map[string]lsql.MigrationSet{
		"postgres": {
			AssetNames: postgres.AssetNames,
			Asset:      postgres.Asset,
		},
		"sqlite":  sqliteSet,
		"sqlite3": sqliteSet,
	}
}
