package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"backend/config"
	"backend/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type MealService struct {
	db         *gorm.DB
	th         config.MonitorThresholds
	dashboards *DashboardService
}

func NewMealService(db *gorm.DB, th config.MonitorThresholds, dashboards *DashboardService) *MealService {
	return &MealService{db: db, th: th, dashboards: dashboards}
}

// LogMeal persists an analyzed meal, stamps the user's last meal time and
// refreshes that day's summary. A summary refresh failure is logged, not
// returned; the meal itself is already committed.
func (s *MealService) LogMeal(ctx context.Context, userID uint, foods []AnalyzedFood, imageKey string, ateAt time.Time) (*models.Meal, error) {
	if len(foods) == 0 {
		return nil, fmt.Errorf("%w: meal has no food items", ErrValidation)
	}
	if ateAt.IsZero() {
		ateAt = time.Now()
	}

	meal := &models.Meal{
		UserID:     userID,
		UploadDate: dayStart(ateAt),
		UploadTime: ateAt,
		DayOfWeek:  ateAt.Weekday().String(),
		ImageKey:   imageKey,
	}
	for _, f := range foods {
		meal.TotalCalories += f.Calories
		meal.TotalProtein += f.Protein
		meal.TotalCarbs += f.Carbs
		meal.TotalFat += f.Fat
		meal.Items = append(meal.Items, models.MealItem{
			Name:       f.Name,
			Calories:   f.Calories,
			Protein:    f.Protein,
			Carbs:      f.Carbs,
			Fat:        f.Fat,
			Confidence: f.Confidence,
			Extra:      itemExtra(imageKey),
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(meal).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("last_meal_time", ateAt).Error
	})
	if err != nil {
		return nil, fmt.Errorf("log meal: %w", err)
	}

	if _, err := s.dashboards.RecomputeDailySummary(ctx, userID, meal.UploadDate); err != nil {
		slog.Error("daily summary refresh failed", "user_id", userID, "date", meal.UploadDate.Format("2006-01-02"), "error", err)
	}

	slog.Info("meal logged",
		"user_id", userID,
		"meal_id", meal.ID,
		"items", len(meal.Items),
		"calories", round1(meal.TotalCalories))
	return meal, nil
}

func itemExtra(imageKey string) datatypes.JSON {
	source := "manual"
	if imageKey != "" {
		source = "image_analysis"
	}
	raw, _ := json.Marshal(map[string]any{"source": source})
	return raw
}

// Meals returns the user's meals newest first, optionally limited.
func (s *MealService) Meals(ctx context.Context, userID uint, limit int) ([]models.Meal, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var meals []models.Meal
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("upload_time DESC").
		Limit(limit).
		Find(&meals).Error
	return meals, err
}

// Delete removes a meal and its items, then refreshes the affected day.
func (s *MealService) Delete(ctx context.Context, userID, mealID uint) error {
	var meal models.Meal
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", mealID, userID).
		First(&meal).Error; err != nil {
		return notFound(err)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meal_id = ?", meal.ID).Delete(&models.MealItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&meal).Error
	})
	if err != nil {
		return fmt.Errorf("delete meal: %w", err)
	}

	if _, err := s.dashboards.RecomputeDailySummary(ctx, userID, meal.UploadDate); err != nil {
		slog.Error("daily summary refresh failed", "user_id", userID, "date", meal.UploadDate.Format("2006-01-02"), "error", err)
	}
	return nil
}
