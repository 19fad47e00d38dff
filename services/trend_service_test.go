package services

import (
	"testing"
	"time"

	"backend/config"
	"backend/models"
)

func summariesWithCalories(cals ...float64) []models.DailySummary {
	out := make([]models.DailySummary, len(cals))
	base := time.Date(2026, 3, 20, 0, 0, 0, 0, time.Local)
	for i, c := range cals {
		out[i] = models.DailySummary{
			UserID:        1,
			Date:          base.AddDate(0, 0, -i), // most recent first
			TotalCalories: c,
		}
	}
	return out
}

func TestAnalyzeCalorieTrendIncreasing(t *testing.T) {
	summaries := summariesWithCalories(2600, 2600, 2600, 2000, 2000, 2000, 2000)
	got := AnalyzeCalorieTrend(summaries, 200)

	if got.Trend != "increasing" {
		t.Errorf("expected increasing, got %s", got.Trend)
	}
	if got.RecentAvg != 2600 {
		t.Errorf("expected recent avg 2600, got %.1f", got.RecentAvg)
	}
	if got.MaxCalories != 2600 || got.MinCalories != 2000 {
		t.Errorf("unexpected extremes: max %.0f min %.0f", got.MaxCalories, got.MinCalories)
	}
}

func TestAnalyzeCalorieTrendDecreasing(t *testing.T) {
	summaries := summariesWithCalories(1500, 1500, 1500, 2200, 2200, 2200)
	if got := AnalyzeCalorieTrend(summaries, 200); got.Trend != "decreasing" {
		t.Errorf("expected decreasing, got %s", got.Trend)
	}
}

func TestAnalyzeCalorieTrendStableWithinDelta(t *testing.T) {
	summaries := summariesWithCalories(2150, 2100, 2050, 2000, 2000, 2000)
	if got := AnalyzeCalorieTrend(summaries, 200); got.Trend != "stable" {
		t.Errorf("a gap within delta should be stable, got %s", got.Trend)
	}
}

func TestAnalyzeCalorieTrendShortWindow(t *testing.T) {
	got := AnalyzeCalorieTrend(summariesWithCalories(2600, 1400), 200)
	if got.Trend != "stable" {
		t.Errorf("fewer than 3 days cannot establish a trend, got %s", got.Trend)
	}

	if got := AnalyzeCalorieTrend(nil, 200); got.Trend != "stable" {
		t.Errorf("empty window should be stable, got %s", got.Trend)
	}
}

func TestBalanceScoreIdealBands(t *testing.T) {
	if got := BalanceScore(20, 55, 30); got != 1.0 {
		t.Errorf("in-band macros should score 1.0, got %.2f", got)
	}
}

func TestBalanceScoreLinearFalloff(t *testing.T) {
	// protein 10%: band 15-25 mid 20 falloff 20 -> 0.5, others in band
	if got := BalanceScore(10, 55, 30); got != 0.83 {
		t.Errorf("expected 0.83, got %.2f", got)
	}
	// way off everything
	if got := BalanceScore(0, 100, 80); got > 0.1 {
		t.Errorf("extreme imbalance should score near zero, got %.2f", got)
	}
}

func mealAt(hour int, items ...string) models.Meal {
	m := models.Meal{
		UploadTime: time.Date(2026, 3, 15, hour, 0, 0, 0, time.Local),
		UploadDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.Local),
	}
	for _, name := range items {
		m.Items = append(m.Items, models.MealItem{Name: name})
	}
	return m
}

func TestAnalyzeEatingTimesBuckets(t *testing.T) {
	meals := []models.Meal{mealAt(8), mealAt(12), mealAt(19), mealAt(22)}
	got := AnalyzeEatingTimes(meals)

	if got.AvgBreakfastHour != 8 {
		t.Errorf("expected breakfast avg 8, got %.1f", got.AvgBreakfastHour)
	}
	if got.AvgLunchHour != 12 {
		t.Errorf("expected lunch avg 12, got %.1f", got.AvgLunchHour)
	}
	if got.AvgDinnerHour != 19 {
		t.Errorf("expected dinner avg 19, got %.1f", got.AvgDinnerHour)
	}
	if got.MealFrequency != 4 {
		t.Errorf("expected 4 meals, got %d", got.MealFrequency)
	}
	if got.LateMeals != 1 {
		t.Errorf("the 22:00 meal should count as late, got %d", got.LateMeals)
	}
	if got.EatingWindow != 14 {
		t.Errorf("expected eating window 14h, got %d", got.EatingWindow)
	}
}

func TestAnalyzeFoodVariety(t *testing.T) {
	meals := []models.Meal{
		mealAt(8, "Oatmeal", "banana"),
		mealAt(12, "rice", "chicken curry"),
		mealAt(19, "Rice", "dal"),
	}
	got := AnalyzeFoodVariety(meals)

	if got.UniqueFoods != 5 {
		t.Errorf("expected 5 distinct foods (case-folded), got %d", got.UniqueFoods)
	}
	if got.VarietyScore != 0.25 {
		t.Errorf("5 of 20 foods should score 0.25, got %.2f", got.VarietyScore)
	}
	if len(got.MostCommon) == 0 || got.MostCommon[0].Food != "rice" || got.MostCommon[0].Count != 2 {
		t.Errorf("rice should top the list with 2, got %+v", got.MostCommon)
	}
}

func TestAnalyzeFoodVarietyDeterministicOrder(t *testing.T) {
	meals := []models.Meal{mealAt(12, "apple", "banana", "cherry")}
	a := AnalyzeFoodVariety(meals)
	b := AnalyzeFoodVariety(meals)
	for i := range a.MostCommon {
		if a.MostCommon[i] != b.MostCommon[i] {
			t.Fatalf("tie-broken ordering must be stable: %+v vs %+v", a.MostCommon, b.MostCommon)
		}
	}
	if a.MostCommon[0].Food != "apple" {
		t.Errorf("equal counts should order alphabetically, got %+v", a.MostCommon)
	}
}

func TestPredictWeightTrend(t *testing.T) {
	th := config.DefaultThresholds()

	gain := PredictWeightTrend(summariesWithCalories(2600, 2600, 2600), th)
	if gain.Prediction != "weight_gain" || gain.Confidence != 0.7 {
		t.Errorf("2600 kcal avg should predict gain at 0.7: %+v", gain)
	}

	loss := PredictWeightTrend(summariesWithCalories(1500, 1500, 1500), th)
	if loss.Prediction != "weight_loss" {
		t.Errorf("1500 kcal avg should predict loss: %+v", loss)
	}

	stable := PredictWeightTrend(summariesWithCalories(2100, 2100, 2100), th)
	if stable.Prediction != "stable" || stable.Confidence != 0.6 {
		t.Errorf("2100 kcal avg should be stable at 0.6: %+v", stable)
	}
	if stable.SurplusDeficit != 0 {
		t.Errorf("expected zero surplus at maintenance, got %.1f", stable.SurplusDeficit)
	}
}

func TestPredictGoalAdherence(t *testing.T) {
	th := config.DefaultThresholds()
	goal := models.DailyGoal{UserID: 1, Calories: 2000, Protein: 50}

	perfect := make([]models.DailySummary, 7)
	for i := range perfect {
		perfect[i] = models.DailySummary{TotalCalories: 2000, TotalProtein: 50}
	}
	got := PredictGoalAdherence(perfect, goal, th)
	if got.Prediction != "likely_to_achieve" {
		t.Errorf("full adherence should predict achievement: %+v", got)
	}
	if got.OverallAdherence != 100 {
		t.Errorf("expected 100%% overall, got %.1f", got.OverallAdherence)
	}
	if got.Confidence != 0.8 {
		t.Errorf("confidence should cap at 0.8, got %.2f", got.Confidence)
	}

	poor := []models.DailySummary{
		{TotalCalories: 3000, TotalProtein: 10},
		{TotalCalories: 900, TotalProtein: 15},
	}
	if got := PredictGoalAdherence(poor, goal, th); got.Prediction != "needs_improvement" {
		t.Errorf("missed goals should need improvement: %+v", got)
	}

	if got := PredictGoalAdherence(nil, goal, th); got.Prediction != "needs_improvement" {
		t.Errorf("no data should need improvement: %+v", got)
	}
}

func TestPredictHealthRiskLevels(t *testing.T) {
	th := config.DefaultThresholds()

	high := []models.DailySummary{
		{TotalCalories: 2800, TotalCarbs: 350, TotalFat: 60},
		{TotalCalories: 2700, TotalCarbs: 340, TotalFat: 60},
	}
	if got := PredictHealthRisk(high, th); got.RiskLevel != "high" || len(got.RiskFactors) != 2 {
		t.Errorf("two factors should be high risk: %+v", got)
	}

	medium := []models.DailySummary{
		{TotalCalories: 2000, TotalCarbs: 350, TotalFat: 50},
	}
	if got := PredictHealthRisk(medium, th); got.RiskLevel != "medium" {
		t.Errorf("one factor should be medium risk: %+v", got)
	}

	low := []models.DailySummary{
		{TotalCalories: 2000, TotalCarbs: 200, TotalFat: 50},
	}
	if got := PredictHealthRisk(low, th); got.RiskLevel != "low" {
		t.Errorf("no factors should be low risk: %+v", got)
	}
}

func TestAnalyzeMacroBalanceEmpty(t *testing.T) {
	got := AnalyzeMacroBalance(nil)
	if got.BalanceScore != 0 || got.AvgProteinPercent != 0 {
		t.Errorf("no data should yield the zero pattern, got %+v", got)
	}
}

func TestAnalyzeMacroBalanceShares(t *testing.T) {
	// 2000 kcal: 100g protein (20%), 250g carbs (50%), 67g fat (~30%)
	summaries := []models.DailySummary{
		{TotalCalories: 2000, TotalProtein: 100, TotalCarbs: 250, TotalFat: 67},
	}
	got := AnalyzeMacroBalance(summaries)
	if got.AvgProteinPercent != 20 {
		t.Errorf("expected 20%% protein, got %.1f", got.AvgProteinPercent)
	}
	if got.AvgCarbPercent != 50 {
		t.Errorf("expected 50%% carbs, got %.1f", got.AvgCarbPercent)
	}
	if got.BalanceScore != 1.0 {
		t.Errorf("in-band macros should score 1.0, got %.2f", got.BalanceScore)
	}
}
