package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Meal is one logged meal with its nutrition totals. Immutable once
// created, except for calendar backfill.
type Meal struct {
	gorm.Model
	UserID uint `gorm:"index;not null"`

	Items []MealItem

	TotalCalories float64
	TotalProtein  float64
	TotalCarbs    float64
	TotalFat      float64
	TotalFiber    float64

	UploadDate time.Time `gorm:"type:date;index"`
	UploadTime time.Time `gorm:"index"`
	DayOfWeek  string    `gorm:"size:16"`

	ImageKey string // S3 object key of the analyzed photo, if any
}

// MealItem stores the per-food nutrition snapshot from analysis.
type MealItem struct {
	gorm.Model
	MealID uint `gorm:"index;not null"`

	Name       string `gorm:"not null"`
	Calories   float64
	Protein    float64
	Carbs      float64
	Fat        float64
	Confidence float64

	// Free-form analyzer metadata (e.g. regional_cuisine).
	Extra datatypes.JSON `gorm:"type:jsonb"`
}
