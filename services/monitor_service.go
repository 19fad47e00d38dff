package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"backend/config"
	"backend/models"

	"gorm.io/gorm"
)

// MonitorService runs the full health monitoring pass for a user: rule
// evaluation into alerts plus behavior pattern / prediction refresh.
type MonitorService struct {
	db     *gorm.DB
	th     config.MonitorThresholds
	trends *TrendService
	alerts *AlertService
}

func NewMonitorService(db *gorm.DB, th config.MonitorThresholds, trends *TrendService, alerts *AlertService) *MonitorService {
	return &MonitorService{db: db, th: th, trends: trends, alerts: alerts}
}

type MonitoringResult struct {
	AlertsGenerated int          `json:"alerts_generated"`
	Alerts          []AlertDraft `json:"alerts"`
	Report          *TrendReport `json:"report"`
	MonitoredAt     time.Time    `json:"monitored_at"`
}

// Run evaluates every monitoring rule over the lookback window. No data
// means no alerts, never an error.
func (s *MonitorService) Run(ctx context.Context, userID uint) (*MonitoringResult, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, notFound(err)
	}

	cutoff := dayStart(time.Now()).AddDate(0, 0, -s.th.LookbackDays)

	var meals []models.Meal
	if err := s.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND upload_date >= ?", userID, cutoff).
		Order("upload_time DESC").
		Find(&meals).Error; err != nil {
		return nil, fmt.Errorf("load meals: %w", err)
	}

	var summaries []models.DailySummary
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND date >= ?", userID, cutoff).
		Order("date DESC").
		Find(&summaries).Error; err != nil {
		return nil, fmt.Errorf("load summaries: %w", err)
	}

	goal, err := NewDashboardService(s.db, s.th).GetGoals(ctx, userID)
	if err != nil {
		return nil, err
	}

	drafts := EvaluateRules(s.th, meals, summaries, goal)

	result := &MonitoringResult{MonitoredAt: time.Now()}
	for _, draft := range drafts {
		created, err := s.alerts.Create(ctx, userID, draft)
		if err != nil {
			slog.Error("alert creation failed", "user_id", userID, "type", draft.Type, "error", err)
			continue
		}
		if created != nil {
			result.AlertsGenerated++
			result.Alerts = append(result.Alerts, draft)
		}
	}

	report, err := s.trends.Analyze(ctx, userID, s.th.LookbackDays)
	if err != nil {
		slog.Error("trend analysis failed", "user_id", userID, "error", err)
	} else {
		result.Report = report
	}

	return result, nil
}

// EvaluateRules applies every monitoring rule to the window. All rules
// require a minimum run length of qualifying days; single-day spikes never
// trigger.
func EvaluateRules(th config.MonitorThresholds, meals []models.Meal, summaries []models.DailySummary, goal models.DailyGoal) []AlertDraft {
	var drafts []AlertDraft
	drafts = append(drafts, nutritionRules(th, meals, summaries)...)
	drafts = append(drafts, eatingPatternRules(th, meals)...)
	drafts = append(drafts, goalAdherenceRules(th, summaries, goal)...)
	drafts = append(drafts, healthRiskRules(th, summaries)...)
	return drafts
}

func nutritionRules(th config.MonitorThresholds, meals []models.Meal, summaries []models.DailySummary) []AlertDraft {
	var drafts []AlertDraft
	if len(summaries) == 0 {
		return drafts
	}

	lowProteinDays := 0
	highCalorieDays := 0
	for _, sm := range summaries {
		if sm.TotalProtein < th.LowProteinGrams {
			lowProteinDays++
		}
		if sm.TotalCalories > th.HighCalorieLimit {
			highCalorieDays++
		}
	}

	if lowProteinDays >= th.LowProteinDays {
		drafts = append(drafts, AlertDraft{
			Type:     models.AlertNutritionGap,
			Severity: models.SeverityMedium,
			Title:    "Low Protein Intake Detected",
			Message:  fmt.Sprintf("Protein intake was below %.0fg on %d days. Consider adding protein-rich foods to your meals.", th.LowProteinGrams, lowProteinDays),
			Context:  map[string]any{"low_protein_days": lowProteinDays, "threshold_grams": th.LowProteinGrams},
		})
	}

	if highCalorieDays >= th.HighCalorieDays {
		drafts = append(drafts, AlertDraft{
			Type:     models.AlertCalorieExcess,
			Severity: models.SeverityMedium,
			Title:    "High Calorie Intake Pattern",
			Message:  fmt.Sprintf("Intake exceeded %.0f kcal on %d days. Consider portion control and lighter evening meals.", th.HighCalorieLimit, highCalorieDays),
			Context:  map[string]any{"high_calorie_days": highCalorieDays, "threshold_kcal": th.HighCalorieLimit},
		})
	}

	// Macro imbalance over the window average.
	var cal, protein, carbs, fat float64
	counted := 0
	for _, sm := range summaries {
		if sm.TotalCalories > 0 {
			cal += sm.TotalCalories
			protein += sm.TotalProtein
			carbs += sm.TotalCarbs
			fat += sm.TotalFat
			counted++
		}
	}
	if counted > 0 && cal > 0 {
		carbsPct := carbs * 4 / cal * 100
		if carbsPct > th.HighCarbsPercent {
			drafts = append(drafts, AlertDraft{
				Type:     models.AlertNutritionGap,
				Severity: models.SeverityLow,
				Title:    "High Carbohydrate Share",
				Message:  fmt.Sprintf("Carbohydrates make up %.1f%% of your calories. Consider balancing with more protein and healthy fats.", carbsPct),
				Context: map[string]any{
					"carbs_percent":   round1(carbsPct),
					"protein_percent": round1(protein * 4 / cal * 100),
					"fat_percent":     round1(fat * 9 / cal * 100),
				},
			})
		}
	}

	variety := AnalyzeFoodVariety(meals)
	if len(meals) > 0 && variety.UniqueFoods < th.MinDistinctFoods {
		drafts = append(drafts, AlertDraft{
			Type:     models.AlertNutritionGap,
			Severity: models.SeverityLow,
			Title:    "Limited Food Variety",
			Message:  fmt.Sprintf("Only %d distinct foods were eaten recently. More variety improves micronutrient coverage.", variety.UniqueFoods),
			Context:  map[string]any{"unique_foods": variety.UniqueFoods, "most_common": variety.MostCommon},
		})
	}

	return drafts
}

func eatingPatternRules(th config.MonitorThresholds, meals []models.Meal) []AlertDraft {
	var drafts []AlertDraft
	if len(meals) < 5 {
		return drafts
	}

	byDate := map[string][]models.Meal{}
	for _, m := range meals {
		key := m.UploadDate.Format("2006-01-02")
		byDate[key] = append(byDate[key], m)
	}

	lateDinners := 0
	skippedBreakfasts := 0
	for _, dayMeals := range byDate {
		late := false
		breakfast := false
		for _, m := range dayMeals {
			h := m.UploadTime.Hour()
			if h >= th.LateMealHour {
				late = true
			}
			if h < th.BreakfastCutoff {
				breakfast = true
			}
		}
		if late {
			lateDinners++
		}
		if !breakfast {
			skippedBreakfasts++
		}
	}

	if lateDinners >= th.LateDinnerDays {
		drafts = append(drafts, AlertDraft{
			Type:     models.AlertPatternConcern,
			Severity: models.SeverityMedium,
			Title:    "Late Dinner Pattern Detected",
			Message:  fmt.Sprintf("Meals after %d:00 were logged on %d days. Late dinners can affect sleep and digestion.", th.LateMealHour, lateDinners),
			Context:  map[string]any{"late_dinner_days": lateDinners, "total_days": len(byDate)},
		})
	}
	if skippedBreakfasts >= th.SkippedBkfastDays {
		drafts = append(drafts, AlertDraft{
			Type:     models.AlertPatternConcern,
			Severity: models.SeverityMedium,
			Title:    "Breakfast Skipping Pattern",
			Message:  fmt.Sprintf("No meal before %d:00 on %d days. Breakfast helps kickstart metabolism.", th.BreakfastCutoff, skippedBreakfasts),
			Context:  map[string]any{"skipped_breakfasts": skippedBreakfasts, "total_days": len(byDate)},
		})
	}
	return drafts
}

func goalAdherenceRules(th config.MonitorThresholds, summaries []models.DailySummary, goal models.DailyGoal) []AlertDraft {
	var drafts []AlertDraft
	if len(summaries) == 0 {
		return drafts
	}

	calorieMisses := 0
	proteinMisses := 0
	var deviations []float64
	for _, sm := range summaries {
		dev := math.Abs(sm.TotalCalories - goal.Calories)
		deviations = append(deviations, dev)
		if dev > th.CalorieDeviation {
			calorieMisses++
		}
		if sm.TotalProtein < goal.Protein-th.ProteinShortfall {
			proteinMisses++
		}
	}

	if calorieMisses >= th.CalorieMissDays {
		drafts = append(drafts, AlertDraft{
			Type:     models.AlertGoalDeviation,
			Severity: models.SeverityMedium,
			Title:    "Calorie Goal Adherence Issue",
			Message:  fmt.Sprintf("The calorie goal was missed by more than %.0f kcal on %d days (average deviation %.0f kcal).", th.CalorieDeviation, calorieMisses, mean(deviations)),
			Context:  map[string]any{"goal_calories": goal.Calories, "missed_days": calorieMisses, "avg_deviation": round1(mean(deviations))},
		})
	}
	if proteinMisses >= th.ProteinMissDays {
		drafts = append(drafts, AlertDraft{
			Type:     models.AlertGoalDeviation,
			Severity: models.SeverityMedium,
			Title:    "Protein Goal Not Being Met",
			Message:  fmt.Sprintf("Protein fell more than %.0fg short of the %.0fg goal on %d days.", th.ProteinShortfall, goal.Protein, proteinMisses),
			Context:  map[string]any{"goal_protein": goal.Protein, "missed_days": proteinMisses},
		})
	}
	return drafts
}

func healthRiskRules(th config.MonitorThresholds, summaries []models.DailySummary) []AlertDraft {
	var drafts []AlertDraft
	if len(summaries) == 0 {
		return drafts
	}

	highCarbDays := 0
	comboDays := 0
	lowCalorieDays := 0
	for _, sm := range summaries {
		if sm.TotalCarbs > th.RiskCarbsGrams {
			highCarbDays++
		}
		if sm.TotalCalories > th.RiskCaloriesLimit && sm.TotalFat > th.RiskFatGrams {
			comboDays++
		}
		if sm.TotalCalories > 0 && sm.TotalCalories < th.LowCalorieLimit {
			lowCalorieDays++
		}
	}

	if highCarbDays >= th.RiskCarbsDays {
		drafts = append(drafts, AlertDraft{
			Type:     models.AlertHealthRisk,
			Severity: models.SeverityHigh,
			Title:    "High Carbohydrate Intake Risk",
			Message:  "Consistently high carbohydrate intake may increase diabetes risk. Consider reducing refined carbs and adding fiber.",
			Context:  map[string]any{"high_carb_days": highCarbDays, "threshold_grams": th.RiskCarbsGrams},
		})
	}
	if comboDays >= th.RiskComboDays {
		drafts = append(drafts, AlertDraft{
			Type:     models.AlertHealthRisk,
			Severity: models.SeverityHigh,
			Title:    "Cardiovascular Risk Pattern",
			Message:  "A combined high-calorie and high-fat intake pattern was detected. This may increase cardiovascular risk.",
			Context:  map[string]any{"concerning_days": comboDays},
		})
	}
	if lowCalorieDays >= th.LowCalorieDays {
		drafts = append(drafts, AlertDraft{
			Type:     models.AlertHealthRisk,
			Severity: models.SeverityHigh,
			Title:    "Potential Nutritional Deficiency Risk",
			Message:  fmt.Sprintf("Very low calorie intake (under %.0f kcal) on %d days may lead to nutritional deficiencies.", th.LowCalorieLimit, lowCalorieDays),
			Context:  map[string]any{"low_calorie_days": lowCalorieDays},
		})
	}
	return drafts
}
