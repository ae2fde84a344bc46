package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hide-seek-bot/models"
)

// OpenTestDB opens an in-memory SQLite database with every table migrated.
// A single connection keeps the in-memory database alive and shared by all goroutines.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("test db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&models.Item{},
		&models.Find{},
		&models.UserScore{},
		&models.HiddenEntry{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	return db
}
