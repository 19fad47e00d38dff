package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"backend/config"
	"backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TrendService derives behavior patterns and predictive insights from the
// recent meal and summary history. All analyses are pure functions of the
// lookback window; persistence is an upsert per (user, pattern_type).
type TrendService struct {
	db *gorm.DB
	th config.MonitorThresholds
}

func NewTrendService(db *gorm.DB, th config.MonitorThresholds) *TrendService {
	return &TrendService{db: db, th: th}
}

// ---------- pattern payloads ----------

type EatingTimePattern struct {
	AvgBreakfastHour float64 `json:"avg_breakfast_time,omitempty"`
	AvgLunchHour     float64 `json:"avg_lunch_time,omitempty"`
	AvgDinnerHour    float64 `json:"avg_dinner_time,omitempty"`
	EatingWindow     int     `json:"eating_window"`
	MealFrequency    int     `json:"meal_frequency"`
	LateMeals        int     `json:"late_meals"`
}

type CalorieTrendPattern struct {
	AvgCalories float64 `json:"avg_calories"`
	RecentAvg   float64 `json:"recent_avg"`
	Trend       string  `json:"trend"` // increasing | decreasing | stable
	Variability float64 `json:"variability"`
	MaxCalories float64 `json:"max_calories"`
	MinCalories float64 `json:"min_calories"`
}

type MacroBalancePattern struct {
	AvgProteinPercent  float64 `json:"avg_protein_percent"`
	AvgCarbPercent     float64 `json:"avg_carb_percent"`
	AvgFatPercent      float64 `json:"avg_fat_percent"`
	ProteinConsistency float64 `json:"protein_consistency"`
	BalanceScore       float64 `json:"balance_score"`
}

type FoodCount struct {
	Food  string `json:"food"`
	Count int    `json:"count"`
}

type FoodVariety struct {
	UniqueFoods  int         `json:"unique_foods"`
	MostCommon   []FoodCount `json:"most_common"`
	VarietyScore float64     `json:"variety_score"`
}

type FoodPreferencePattern struct {
	CuisinePreferences map[string]int `json:"cuisine_preferences"`
	CookingMethods     map[string]int `json:"cooking_methods"`
	MealsAnalyzed      int            `json:"total_meals_analyzed"`
}

// ---------- prediction payloads ----------

type WeightTrendPrediction struct {
	Prediction    string  `json:"prediction"` // weight_gain | weight_loss | stable
	Confidence    float64 `json:"confidence"`
	Description   string  `json:"description"`
	AvgCalories   float64 `json:"avg_calories"`
	SurplusDeficit float64 `json:"calorie_surplus_deficit"`
}

type GoalAdherencePrediction struct {
	Prediction       string  `json:"prediction"` // likely_to_achieve | moderate_progress | needs_improvement
	Confidence       float64 `json:"confidence"`
	Description      string  `json:"description"`
	CalorieAdherence float64 `json:"calorie_adherence"`
	ProteinAdherence float64 `json:"protein_adherence"`
	OverallAdherence float64 `json:"overall_adherence"`
}

type RiskPrediction struct {
	RiskLevel   string   `json:"risk_level"` // low | medium | high
	Confidence  float64  `json:"confidence"`
	Description string   `json:"description"`
	RiskFactors []string `json:"risk_factors"`
}

type TrendReport struct {
	EatingTime     *EatingTimePattern       `json:"eating_time,omitempty"`
	CalorieTrend   *CalorieTrendPattern     `json:"calorie_trend,omitempty"`
	MacroBalance   *MacroBalancePattern     `json:"macro_balance,omitempty"`
	FoodVariety    *FoodVariety             `json:"food_variety,omitempty"`
	FoodPreference *FoodPreferencePattern   `json:"food_preference,omitempty"`
	WeightTrend    *WeightTrendPrediction   `json:"weight_trend,omitempty"`
	GoalAdherence  *GoalAdherencePrediction `json:"goal_adherence,omitempty"`
	HealthRisk     *RiskPrediction          `json:"health_risk,omitempty"`
}

// Analyze recomputes all behavior patterns for the user over the lookback
// window and returns them together with predictive insights. An empty
// history yields an empty report, never an error.
func (s *TrendService) Analyze(ctx context.Context, userID uint, lookbackDays int) (*TrendReport, error) {
	if lookbackDays <= 0 {
		lookbackDays = s.th.LookbackDays
	}

	meals, err := s.recentMeals(ctx, userID, lookbackDays)
	if err != nil {
		return nil, err
	}
	summaries, err := s.recentSummaries(ctx, userID, lookbackDays)
	if err != nil {
		return nil, err
	}
	goal, err := NewDashboardService(s.db, s.th).GetGoals(ctx, userID)
	if err != nil {
		return nil, err
	}

	report := &TrendReport{}

	if len(meals) > 0 {
		et := AnalyzeEatingTimes(meals)
		report.EatingTime = &et
		s.savePattern(ctx, userID, models.PatternEatingTime, et, patternConfidence(len(meals), 0))

		fp := AnalyzeFoodPreferences(meals)
		report.FoodPreference = &fp
		s.savePattern(ctx, userID, models.PatternFoodPreference, fp, patternConfidence(len(meals), 0))

		fv := AnalyzeFoodVariety(meals)
		report.FoodVariety = &fv
	}

	if len(summaries) > 0 {
		ct := AnalyzeCalorieTrend(summaries, s.th.TrendDeltaCalories)
		report.CalorieTrend = &ct
		s.savePattern(ctx, userID, models.PatternCalorieTrend, ct, patternConfidence(len(summaries), ct.Variability))

		mb := AnalyzeMacroBalance(summaries)
		report.MacroBalance = &mb
		s.savePattern(ctx, userID, models.PatternMacroBalance, mb, patternConfidence(len(summaries), mb.ProteinConsistency))
	}

	if len(summaries) >= s.th.MinPredictionDays {
		wt := PredictWeightTrend(summaries, s.th)
		report.WeightTrend = &wt

		ga := PredictGoalAdherence(summaries, goal, s.th)
		report.GoalAdherence = &ga

		hr := PredictHealthRisk(summaries, s.th)
		report.HealthRisk = &hr
	}

	return report, nil
}

// Patterns returns the stored behavior patterns keyed by type.
func (s *TrendService) Patterns(ctx context.Context, userID uint) (map[string]models.BehaviorPattern, error) {
	var rows []models.BehaviorPattern
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load patterns: %w", err)
	}
	out := make(map[string]models.BehaviorPattern, len(rows))
	for _, p := range rows {
		out[p.PatternType] = p
	}
	return out, nil
}

// ---------- pure analyses ----------

// AnalyzeEatingTimes buckets meal hours into breakfast 5-11, lunch 11-16,
// dinner 16-21 and snack otherwise, and measures the eating window.
func AnalyzeEatingTimes(meals []models.Meal) EatingTimePattern {
	var out EatingTimePattern
	var hours []int
	var breakfast, lunch, dinner []float64

	for _, m := range meals {
		h := m.UploadTime.Hour()
		hours = append(hours, h)
		switch MealTypeForHour(h) {
		case "breakfast":
			breakfast = append(breakfast, float64(h))
		case "lunch":
			lunch = append(lunch, float64(h))
		case "dinner":
			dinner = append(dinner, float64(h))
		}
		if h >= 21 {
			out.LateMeals++
		}
	}

	out.MealFrequency = len(hours)
	out.AvgBreakfastHour = mean(breakfast)
	out.AvgLunchHour = mean(lunch)
	out.AvgDinnerHour = mean(dinner)
	if len(hours) > 0 {
		minH, maxH := hours[0], hours[0]
		for _, h := range hours {
			if h < minH {
				minH = h
			}
			if h > maxH {
				maxH = h
			}
		}
		out.EatingWindow = maxH - minH
	}
	return out
}

// AnalyzeCalorieTrend compares the mean of the 3 most recent days against
// the mean of the older days; a gap beyond delta kcal classifies the trend.
// Summaries must be ordered most recent first.
func AnalyzeCalorieTrend(summaries []models.DailySummary, delta float64) CalorieTrendPattern {
	var calories []float64
	for _, sm := range summaries {
		if sm.TotalCalories > 0 {
			calories = append(calories, sm.TotalCalories)
		}
	}
	if len(calories) == 0 {
		return CalorieTrendPattern{Trend: "stable"}
	}

	avg := mean(calories)
	recent := avg
	older := avg
	if len(calories) >= 3 {
		recent = mean(calories[:3])
	}
	if len(calories) > 3 {
		older = mean(calories[3:])
	}

	trend := "stable"
	if recent > older+delta {
		trend = "increasing"
	} else if recent < older-delta {
		trend = "decreasing"
	}

	return CalorieTrendPattern{
		AvgCalories: round1(avg),
		RecentAvg:   round1(recent),
		Trend:       trend,
		Variability: round1(stddev(calories)),
		MaxCalories: maxOf(calories),
		MinCalories: minOf(calories),
	}
}

// AnalyzeMacroBalance converts grams to calories (4/4/9), expresses each
// macro as a share of total calories, and scores each against its ideal
// band with linear falloff outside it.
func AnalyzeMacroBalance(summaries []models.DailySummary) MacroBalancePattern {
	var proteinPct, carbPct, fatPct []float64
	for _, sm := range summaries {
		if sm.TotalCalories <= 0 {
			continue
		}
		proteinPct = append(proteinPct, sm.TotalProtein*4/sm.TotalCalories*100)
		carbPct = append(carbPct, sm.TotalCarbs*4/sm.TotalCalories*100)
		fatPct = append(fatPct, sm.TotalFat*9/sm.TotalCalories*100)
	}
	if len(proteinPct) == 0 {
		return MacroBalancePattern{}
	}
	return MacroBalancePattern{
		AvgProteinPercent:  round1(mean(proteinPct)),
		AvgCarbPercent:     round1(mean(carbPct)),
		AvgFatPercent:      round1(mean(fatPct)),
		ProteinConsistency: round1(stddev(proteinPct)),
		BalanceScore:       BalanceScore(mean(proteinPct), mean(carbPct), mean(fatPct)),
	}
}

// BalanceScore scores macro shares against ideal bands (protein 15-25%,
// carbs 45-65%, fat 20-35%) with linear falloff, clamped to [0,1].
func BalanceScore(proteinPct, carbPct, fatPct float64) float64 {
	score := bandScore(proteinPct, 15, 25, 20) +
		bandScore(carbPct, 45, 65, 30) +
		bandScore(fatPct, 20, 35, 15)
	return round2(score / 3)
}

func bandScore(v, lo, hi, falloff float64) float64 {
	if v >= lo && v <= hi {
		return 1
	}
	mid := (lo + hi) / 2
	return math.Max(0, 1-math.Abs(v-mid)/falloff)
}

// AnalyzeFoodVariety counts distinct case-folded food names across the
// window; twenty distinct foods score 1.0.
func AnalyzeFoodVariety(meals []models.Meal) FoodVariety {
	counts := map[string]int{}
	for _, m := range meals {
		for _, it := range m.Items {
			name := strings.ToLower(strings.TrimSpace(it.Name))
			if name != "" {
				counts[name]++
			}
		}
	}

	common := make([]FoodCount, 0, len(counts))
	for food, n := range counts {
		common = append(common, FoodCount{Food: food, Count: n})
	}
	sort.Slice(common, func(i, j int) bool {
		if common[i].Count != common[j].Count {
			return common[i].Count > common[j].Count
		}
		return common[i].Food < common[j].Food
	})
	if len(common) > 5 {
		common = common[:5]
	}

	return FoodVariety{
		UniqueFoods:  len(counts),
		MostCommon:   common,
		VarietyScore: round2(math.Min(float64(len(counts))/20, 1.0)),
	}
}

// AnalyzeFoodPreferences classifies items by simple cuisine and cooking
// method keywords.
func AnalyzeFoodPreferences(meals []models.Meal) FoodPreferencePattern {
	cuisines := map[string]int{}
	methods := map[string]int{}

	cuisineWords := map[string][]string{
		"indian":  {"dal", "curry", "rice", "roti", "sabzi", "paneer"},
		"western": {"pasta", "pizza", "bread", "burger", "salad"},
		"chinese": {"noodles", "fried rice", "dumpling"},
	}
	methodWords := map[string][]string{
		"fried":   {"fried", "fry"},
		"steamed": {"steamed", "boiled"},
		"grilled": {"grilled", "roasted"},
	}

	for _, m := range meals {
		for _, it := range m.Items {
			name := strings.ToLower(it.Name)
			for cuisine, words := range cuisineWords {
				if containsAny(name, words) {
					cuisines[cuisine]++
					break
				}
			}
			for method, words := range methodWords {
				if containsAny(name, words) {
					methods[method]++
					break
				}
			}
		}
	}

	return FoodPreferencePattern{
		CuisinePreferences: cuisines,
		CookingMethods:     methods,
		MealsAnalyzed:      len(meals),
	}
}

// PredictWeightTrend compares average intake against a fixed maintenance
// baseline with a stable band around it.
func PredictWeightTrend(summaries []models.DailySummary, th config.MonitorThresholds) WeightTrendPrediction {
	var calories []float64
	for _, sm := range summaries {
		if sm.TotalCalories > 0 {
			calories = append(calories, sm.TotalCalories)
		}
	}
	if len(calories) == 0 {
		return WeightTrendPrediction{Prediction: "stable"}
	}

	avg := mean(calories)
	out := WeightTrendPrediction{
		Prediction:     "stable",
		Confidence:     0.6,
		AvgCalories:    round1(avg),
		SurplusDeficit: round1(avg - th.MaintenanceCalories),
	}
	switch {
	case avg > th.MaintenanceCalories+th.MaintenanceBand:
		out.Prediction = "weight_gain"
		out.Confidence = 0.7
		out.Description = fmt.Sprintf("Average intake of %.0f kcal suggests gradual weight gain.", avg)
	case avg < th.MaintenanceCalories-th.MaintenanceBand:
		out.Prediction = "weight_loss"
		out.Confidence = 0.7
		out.Description = fmt.Sprintf("Average intake of %.0f kcal suggests gradual weight loss.", avg)
	default:
		out.Description = fmt.Sprintf("Average intake of %.0f kcal suggests stable weight.", avg)
	}
	return out
}

// PredictGoalAdherence rates how often the user lands within the calorie
// band and reaches the protein share over the window.
func PredictGoalAdherence(summaries []models.DailySummary, goal models.DailyGoal, th config.MonitorThresholds) GoalAdherencePrediction {
	if len(summaries) == 0 {
		return GoalAdherencePrediction{Prediction: "needs_improvement"}
	}

	calorieHits, proteinHits := 0, 0
	for _, sm := range summaries {
		if math.Abs(sm.TotalCalories-goal.Calories) <= th.AdherenceCalBand {
			calorieHits++
		}
		if sm.TotalProtein >= goal.Protein*th.AdherenceProtShare {
			proteinHits++
		}
	}
	n := float64(len(summaries))
	calAdh := float64(calorieHits) / n
	protAdh := float64(proteinHits) / n
	overall := (calAdh + protAdh) / 2

	out := GoalAdherencePrediction{
		Confidence:       math.Min(0.8, overall+0.2),
		CalorieAdherence: round1(calAdh * 100),
		ProteinAdherence: round1(protAdh * 100),
		OverallAdherence: round1(overall * 100),
	}
	switch {
	case overall >= 0.8:
		out.Prediction = "likely_to_achieve"
		out.Description = fmt.Sprintf("On track with %.0f%% adherence to goals.", overall*100)
	case overall >= 0.6:
		out.Prediction = "moderate_progress"
		out.Description = fmt.Sprintf("Good progress with %.0f%% adherence; small adjustments could help.", overall*100)
	default:
		out.Prediction = "needs_improvement"
		out.Description = fmt.Sprintf("Goal adherence is %.0f%%; consider reviewing the approach.", overall*100)
	}
	return out
}

// PredictHealthRisk counts independent risk factors (calories, carbs, fat
// averages above limits) into an overall level; confidence grows with
// sample size.
func PredictHealthRisk(summaries []models.DailySummary, th config.MonitorThresholds) RiskPrediction {
	if len(summaries) == 0 {
		return RiskPrediction{RiskLevel: "low"}
	}

	var cal, carbs, fat []float64
	for _, sm := range summaries {
		if sm.TotalCalories > 0 {
			cal = append(cal, sm.TotalCalories)
		}
		if sm.TotalCarbs > 0 {
			carbs = append(carbs, sm.TotalCarbs)
		}
		if sm.TotalFat > 0 {
			fat = append(fat, sm.TotalFat)
		}
	}

	var factors []string
	if mean(cal) > th.RiskCaloriesLimit {
		factors = append(factors, "high calorie intake")
	}
	if mean(carbs) > th.RiskCarbsGrams {
		factors = append(factors, "high carbohydrate intake")
	}
	if mean(fat) > th.RiskFatGrams {
		factors = append(factors, "high fat intake")
	}

	out := RiskPrediction{
		RiskFactors: factors,
		Confidence:  round2(math.Min(1.0, 0.6+float64(len(summaries))/20)),
	}
	switch {
	case len(factors) >= 2:
		out.RiskLevel = "high"
		out.Description = "Multiple risk factors detected: " + strings.Join(factors, ", ") + "."
	case len(factors) == 1:
		out.RiskLevel = "medium"
		out.Description = "Some concern: " + factors[0] + "."
	default:
		out.RiskLevel = "low"
		out.Description = "Current eating patterns show low risk indicators."
	}
	return out
}

// patternConfidence grows with sample size and shrinks with variance.
func patternConfidence(samples int, variability float64) float64 {
	confidence := 0.5
	if samples > 10 {
		confidence += 0.2
	}
	if variability < 50 {
		confidence += 0.2
	}
	if samples > 3 {
		confidence += 0.1
	}
	return math.Min(confidence, 1.0)
}

// ---------- internals ----------

func (s *TrendService) recentMeals(ctx context.Context, userID uint, days int) ([]models.Meal, error) {
	cutoff := dayStart(time.Now()).AddDate(0, 0, -days)
	var meals []models.Meal
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND upload_date >= ?", userID, cutoff).
		Order("upload_time DESC").
		Find(&meals).Error
	if err != nil {
		return nil, fmt.Errorf("load recent meals: %w", err)
	}
	return meals, nil
}

func (s *TrendService) recentSummaries(ctx context.Context, userID uint, days int) ([]models.DailySummary, error) {
	cutoff := dayStart(time.Now()).AddDate(0, 0, -days)
	var summaries []models.DailySummary
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date >= ?", userID, cutoff).
		Order("date DESC").
		Find(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("load recent summaries: %w", err)
	}
	return summaries, nil
}

func (s *TrendService) savePattern(ctx context.Context, userID uint, patternType string, data any, confidence float64) {
	raw, err := json.Marshal(data)
	if err != nil {
		slog.Error("pattern encode failed", "user_id", userID, "pattern", patternType, "error", err)
		return
	}
	pattern := models.BehaviorPattern{
		UserID:          userID,
		PatternType:     patternType,
		PatternData:     raw,
		ConfidenceScore: confidence,
		LastUpdated:     time.Now(),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "pattern_type"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"pattern_data", "confidence_score", "last_updated", "updated_at",
		}),
	}).Create(&pattern).Error
	if err != nil {
		slog.Error("pattern upsert failed", "user_id", userID, "pattern", patternType, "error", err)
	}
}

// ---------- numeric helpers ----------

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func stddev(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	m := mean(vals)
	var sq float64
	for _, v := range vals {
		sq += (v - m) * (v - m)
	}
	return math.Sqrt(sq / float64(len(vals)-1))
}

func maxOf(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	out := vals[0]
	for _, v := range vals {
		if v > out {
			out = v
		}
	}
	return out
}

func minOf(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	out := vals[0]
	for _, v := range vals {
		if v < out {
			out = v
		}
	}
	return out
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
