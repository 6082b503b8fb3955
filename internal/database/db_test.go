package database

import (
	"testing"

	"padaria-backend/internal/config"
	"padaria-backend/internal/models"

	"github.com/shopspring/decimal"
)

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	db, err := Open(config.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := SeedDefaults(db); err != nil {
			t.Fatalf("SeedDefaults #%d: %v", i, err)
		}
	}

	var products, tables int64
	db.Model(&models.Product{}).Count(&products)
	db.Model(&models.Table{}).Count(&tables)
	if products != int64(len(defaultProducts)) {
		t.Fatalf("products = %d, want %d", products, len(defaultProducts))
	}
	if tables != int64(len(defaultTables)) {
		t.Fatalf("tables = %d, want %d", tables, len(defaultTables))
	}
}

func TestMigrateNormalizesLegacyStatuses(t *testing.T) {
	db, err := Open(config.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	table := models.Table{Number: 9, Status: models.TableOccupied}
	if err := db.Create(&table).Error; err != nil {
		t.Fatalf("create table: %v", err)
	}
	legacy := models.Comanda{TableID: table.ID, Status: "impressa", Total: decimal.Zero}
	if err := db.Create(&legacy).Error; err != nil {
		t.Fatalf("create comanda: %v", err)
	}

	if err := Migrate(db); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	var got models.Comanda
	if err := db.First(&got, legacy.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != models.ComandaPrinted {
		t.Fatalf("status = %q, want printed", got.Status)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open("oracle", "x"); err == nil {
		t.Fatal("expected error")
	}
}
