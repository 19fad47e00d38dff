package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Alert types raised by the health monitor.
const (
	AlertNutritionGap   = "nutrition_gap"
	AlertCalorieExcess  = "calorie_excess"
	AlertPatternConcern = "pattern_concern"
	AlertGoalDeviation  = "goal_deviation"
	AlertHealthRisk     = "health_risk"
)

// Alert severities, lowest to highest.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Alert is a time-bounded, dismissible notice raised when a monitoring
// rule threshold is crossed. Active iff not dismissed and not expired.
type Alert struct {
	gorm.Model
	UserID    uint   `gorm:"index;not null"`
	AlertType string `gorm:"size:32;index"`
	Severity  string `gorm:"size:16"`
	Title     string
	Message   string         `gorm:"type:text"`
	Context   datatypes.JSON `gorm:"type:jsonb"`

	IsRead      bool `gorm:"default:false"`
	IsDismissed bool `gorm:"default:false"`

	TriggeredAt time.Time
	ExpiresAt   *time.Time
}

// SeverityRank orders severities for listing (higher is more severe).
func SeverityRank(severity string) int {
	switch severity {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}
