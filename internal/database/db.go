package database

import (
	"fmt"
	"log"

	"padaria-backend/internal/config"
	"padaria-backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	db, err := Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}

	if err := Migrate(db); err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	if cfg.SeedDefaults {
		if err := SeedDefaults(db); err != nil {
			log.Printf("Seeding default catalog failed: %v", err)
		}
	}

	DB = db
	log.Printf("Database ready (%s). Migration complete.", cfg.DatabaseDriver)
}

// Open connects with the chosen driver. SQLite is held to one connection: the
// single writer is what serializes concurrent requests.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	case config.DriverSQLite, "":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if driver != config.DriverPostgres {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	// Databases written by the first desktop release keep Portuguese status
	// values; translate them before the new code starts reading.
	if db.Migrator().HasTable(&models.Comanda{}) {
		normalizeLegacyStatuses(db)
	}

	return db.AutoMigrate(
		&models.User{},
		&models.AuditLog{},
		&models.Table{},
		&models.Product{},
		&models.Comanda{},
		&models.LineItem{},
		&models.Waiter{},
		&models.WaiterCall{},
		&models.Customer{},
		&models.OnlineOrder{},
		&models.OnlineOrderItem{},
		&models.Reservation{},
		&models.SyncRecord{},
	)
}

var legacyComandaStatuses = map[string]models.ComandaStatus{
	"aberta":               models.ComandaOpen,
	"impressa":             models.ComandaPrinted,
	"aguardando_pagamento": models.ComandaAwaitingPayment,
	"fechada":              models.ComandaClosed,
	"cancelado":            models.ComandaCancelled,
	"cancelada":            models.ComandaCancelled,
}

var legacyItemStatuses = map[string]models.ItemStatus{
	"pendente":   models.ItemPending,
	"preparando": models.ItemPreparing,
	"pronto":     models.ItemReady,
}

func normalizeLegacyStatuses(db *gorm.DB) {
	for old, status := range legacyComandaStatuses {
		res := db.Model(&models.Comanda{}).Where("status = ?", old).Update("status", status)
		if res.Error != nil {
			log.Printf("Legacy comanda status %q could not be migrated: %v", old, res.Error)
			continue
		}
		if res.RowsAffected > 0 {
			log.Printf("Migrated %d comandas from %q to %q", res.RowsAffected, old, status)
		}
	}

	if !db.Migrator().HasTable(&models.LineItem{}) {
		return
	}
	for old, status := range legacyItemStatuses {
		res := db.Model(&models.LineItem{}).Where("status = ?", old).Update("status", status)
		if res.Error != nil {
			log.Printf("Legacy item status %q could not be migrated: %v", old, res.Error)
			continue
		}
		if res.RowsAffected > 0 {
			log.Printf("Migrated %d line items from %q to %q", res.RowsAffected, old, status)
		}
	}
}
