package models

import (
	"time"

	"gorm.io/gorm"
)

// DailySummary is the derived rollup of a user's nutrient totals for one
// calendar date. Exactly one row per (user_id, date); always recomputable
// from Meal rows, never the source of truth.
type DailySummary struct {
	gorm.Model
	UserID uint      `gorm:"not null;uniqueIndex:idx_daily_summaries_user_date"`
	Date   time.Time `gorm:"type:date;not null;uniqueIndex:idx_daily_summaries_user_date"`

	TotalCalories float64
	TotalProtein  float64
	TotalCarbs    float64
	TotalFat      float64
	TotalFiber    float64
	MealsCount    int

	GoalCaloriesAchieved bool
	GoalProteinAchieved  bool
}
