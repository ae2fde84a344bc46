// store/database.go
package store

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hide-seek-bot/config"
	"hide-seek-bot/models"
)

// Open connects to the configured database and migrates the ledger tables.
func Open(cfg config.StorageConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err = gorm.Open(postgres.Open(cfg.DSN), gormCfg)
	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
		db, err = gorm.Open(sqlite.Open(sqliteDSN(cfg.SQLitePath)), gormCfg)
		if err == nil {
			err = configureSQLite(db)
		}
	default:
		return nil, fmt.Errorf("driver %q has no database", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Item{},
		&models.Find{},
		&models.UserScore{},
		&models.HiddenEntry{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("✅ [STORE] Database ready (driver=%s)", cfg.Driver)
	return db, nil
}

// sqliteDSN sets busy_timeout on every pooled connection; a PRAGMA run through db.Exec reaches only one.
func sqliteDSN(path string) string {
	return path + "?_pragma=busy_timeout(5000)"
}

func configureSQLite(db *gorm.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return fmt.Errorf("failed to run %s: %w", pragma, err)
		}
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
