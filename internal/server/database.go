package server

import (
	"fmt"

	"stockroom/internal/models"
	"stockroom/internal/repositories"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Supported DB_DRIVER values.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// OpenDatabase connects with the named driver and migrates the schema.
func OpenDatabase(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.Product{}, &models.Sale{}, &models.User{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return db, nil
}

// OpenRepositories returns GORM repositories for sqlite/postgres and
// in-memory ones for the memory driver.
func OpenRepositories(driver, dsn string) (Repositories, error) {
	if driver == DriverMemory {
		return Repositories{
			Products: repositories.NewMemoryProductRepository(),
			Sales:    repositories.NewMemorySaleRepository(),
			Users:    repositories.NewMemoryUserRepository(),
		}, nil
	}

	db, err := OpenDatabase(driver, dsn)
	if err != nil {
		return Repositories{}, err
	}
	return Repositories{
		Products: repositories.NewGORMProductRepository(db),
		Sales:    repositories.NewGORMSaleRepository(db),
		Users:    repositories.NewGORMUserRepository(db),
		db:       db,
	}, nil
}
