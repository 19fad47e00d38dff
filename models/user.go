package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email         string `gorm:"uniqueIndex;not null"`
	FullName      string
	PhoneNumber   string `gorm:"size:32"`
	PhoneVerified bool   `gorm:"default:false"`

	// Timestamp of the most recent logged meal; drives reminder checks.
	LastMealTime *time.Time

	Preferences NotificationPreference
}

// NotificationPreference holds per-user delivery toggles and quiet hours.
// Quiet hours are hours of day in [0,24); the window may wrap midnight
// (e.g. start=22, end=7).
type NotificationPreference struct {
	gorm.Model
	UserID uint `gorm:"uniqueIndex;not null"`

	WhatsAppEnabled bool `gorm:"default:true"`
	EmailEnabled    bool `gorm:"default:true"`
	DailySummary    bool `gorm:"default:true"`
	WeeklySummary   bool `gorm:"default:true"`
	MonthlySummary  bool `gorm:"default:true"`

	QuietHoursStart int `gorm:"default:22"`
	QuietHoursEnd   int `gorm:"default:7"`
}

// DefaultNotificationPreference returns the opt-in defaults applied on a
// user's first preferences access.
func DefaultNotificationPreference(userID uint) NotificationPreference {
	return NotificationPreference{
		UserID:          userID,
		WhatsAppEnabled: true,
		EmailEnabled:    true,
		DailySummary:    true,
		WeeklySummary:   true,
		MonthlySummary:  true,
		QuietHoursStart: 22,
		QuietHoursEnd:   7,
	}
}
