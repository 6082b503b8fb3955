// Package dbtest wires an in-memory SQLite database into database.DB for tests.
package dbtest

import (
	"testing"

	"padaria-backend/internal/config"
	"padaria-backend/internal/database"

	"gorm.io/gorm"
)

// New opens a fresh migrated database and installs it as database.DB until the test ends.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Open(config.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	prev := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = prev
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
