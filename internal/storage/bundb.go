package storage

import (
	"database/sql"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// NewBunDB wraps a database handle with the bun dialect matching the driver
// name. Unknown drivers fall back to sqlite, which is also the dialect the
// embedded migrations target.
func NewBunDB(sqldb *sql.DB, driver string) *bun.DB {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql", "pg":
		return bun.NewDB(sqldb, pgdialect.New())
	default:
		return bun.NewDB(sqldb, sqlitedialect.New())
	}
}
