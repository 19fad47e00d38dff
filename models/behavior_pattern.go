package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Pattern types recomputed in place per user.
const (
	PatternEatingTime     = "eating_time"
	PatternFoodPreference = "food_preference"
	PatternCalorieTrend   = "calorie_trend"
	PatternMacroBalance   = "macro_balance"
)

// BehaviorPattern is a statistical summary of recent eating behavior.
// At most one row per (user_id, pattern_type); overwritten on recompute.
type BehaviorPattern struct {
	gorm.Model
	UserID      uint   `gorm:"not null;uniqueIndex:idx_behavior_patterns_user_type"`
	PatternType string `gorm:"size:32;not null;uniqueIndex:idx_behavior_patterns_user_type"`

	PatternData     datatypes.JSON `gorm:"type:jsonb"`
	ConfidenceScore float64
	LastUpdated     time.Time
}
