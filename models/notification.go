package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification types used across scheduling and logging.
const (
	NotificationMealReminder   = "meal_reminder"
	NotificationManualReminder = "manual_reminder"
	NotificationDailySummary   = "daily_summary"
	NotificationWeeklySummary  = "weekly_summary"
	NotificationMonthlySummary = "monthly_summary"
	NotificationHydration      = "hydration"
	NotificationGoalCheck      = "goal_check"
	NotificationMealPlanning   = "meal_planning"
)

// Delivery channels.
const (
	ChannelWhatsApp = "whatsapp"
	ChannelEmail    = "email"
)

// Delivery statuses recorded in the log.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// ScheduledNotification is a future-dated, possibly recurring, pending
// message awaiting dispatch. Transitions pending -> sent exactly once;
// a recurring row spawns its next occurrence as part of that transition.
type ScheduledNotification struct {
	gorm.Model
	UserID           uint   `gorm:"index;not null"`
	NotificationType string `gorm:"size:32;index"`
	Title            string
	Message          string `gorm:"type:text"`

	ScheduledTime time.Time `gorm:"index"`
	IsSent        bool      `gorm:"default:false;index"`
	SentAt        *time.Time

	IsRecurring       bool
	RecurrencePattern datatypes.JSON `gorm:"type:jsonb"`
	Personalization   datatypes.JSON `gorm:"type:jsonb"`
}

// NotificationLog is the append-only audit record of delivery attempts,
// one row per gateway invocation.
type NotificationLog struct {
	gorm.Model
	UserID           uint   `gorm:"index;not null"`
	NotificationType string `gorm:"size:32;index"`
	Channel          string `gorm:"size:16"`
	Status           string `gorm:"size:16"`
	MessageContent   string `gorm:"type:text"`
	ErrorMessage     string `gorm:"type:text"`
	ProviderID       string `gorm:"size:64"` // gateway message id, when available
}
