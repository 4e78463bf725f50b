package infra

import (
	"fmt"

	"distriflow/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and runs
// AutoMigrate to create / update all tables.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}
	return db, nil
}

// RunMigrations creates or updates the full schema. Also used by
// integration tests against a scratch database.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Tenant{},
		&model.User{},
		&model.Product{},
		&model.BundleComponent{},
		&model.Supplier{},
		&model.InboundOrder{},
		&model.OrderItem{},
		&model.Lot{},
		&model.Sale{},
		&model.SaleItem{},
		&model.Payment{},
		&model.Wastage{},
		&model.BankTransaction{},
		&model.ActivityLog{},
	)
}
