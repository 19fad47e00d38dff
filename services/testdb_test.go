package services

import (
	"testing"

	"backend/models"

	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/ncruces/go-sqlite3/gormlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB returns an isolated in-memory database with the full schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(gormlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.NotificationPreference{},
		&models.Meal{},
		&models.MealItem{},
		&models.DailyGoal{},
		&models.DailySummary{},
		&models.BehaviorPattern{},
		&models.Alert{},
		&models.ScheduledNotification{},
		&models.NotificationLog{},
		&models.UserDevice{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}
