package models

import (
	"gorm.io/gorm"
)

// DailyGoal holds each user's daily nutrient-intake targets.
type DailyGoal struct {
	gorm.Model
	UserID   uint    `gorm:"uniqueIndex;not null"`
	Calories float64 // kcal
	Protein  float64 // g
	Carbs    float64 // g
	Fat      float64 // g
	Fiber    float64 // g
}

// Default targets applied when a user has not set goals.
const (
	DefaultGoalCalories = 2000
	DefaultGoalProtein  = 50
	DefaultGoalCarbs    = 250
	DefaultGoalFat      = 65
	DefaultGoalFiber    = 25
)

// DefaultDailyGoal returns the fallback targets for a user without goals.
func DefaultDailyGoal(userID uint) DailyGoal {
	return DailyGoal{
		UserID:   userID,
		Calories: DefaultGoalCalories,
		Protein:  DefaultGoalProtein,
		Carbs:    DefaultGoalCarbs,
		Fat:      DefaultGoalFat,
		Fiber:    DefaultGoalFiber,
	}
}
