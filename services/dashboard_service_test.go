package services

import (
	"testing"
	"time"

	"backend/models"
)

func mealWith(cal, protein, carbs, fat float64) models.Meal {
	return models.Meal{
		TotalCalories: cal,
		TotalProtein:  protein,
		TotalCarbs:    carbs,
		TotalFat:      fat,
	}
}

func TestSummarizeMealsTotals(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)
	meals := []models.Meal{
		mealWith(500, 30, 50, 15),
		mealWith(700, 25, 80, 20),
		mealWith(300, 10, 40, 8),
	}
	goal := models.DefaultDailyGoal(1)

	sum := SummarizeMeals(1, date, meals, goal, 0.9)

	if sum.TotalCalories != 1500 {
		t.Errorf("expected 1500 calories, got %.1f", sum.TotalCalories)
	}
	if sum.TotalProtein != 65 {
		t.Errorf("expected 65g protein, got %.1f", sum.TotalProtein)
	}
	if sum.MealsCount != 3 {
		t.Errorf("expected 3 meals, got %d", sum.MealsCount)
	}
	if !sum.Date.Equal(date) {
		t.Errorf("expected date %v, got %v", date, sum.Date)
	}
}

func TestSummarizeMealsIsDeterministic(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)
	meals := []models.Meal{mealWith(800, 40, 90, 25)}
	goal := models.DefaultDailyGoal(1)

	a := SummarizeMeals(1, date, meals, goal, 0.9)
	b := SummarizeMeals(1, date, meals, goal, 0.9)

	if a != b {
		t.Errorf("expected identical summaries, got %+v and %+v", a, b)
	}
}

func TestSummarizeMealsGoalBoundary(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)
	goal := models.DailyGoal{UserID: 1, Calories: 2000, Protein: 50}

	atShare := SummarizeMeals(1, date, []models.Meal{mealWith(1800, 45, 0, 0)}, goal, 0.9)
	if !atShare.GoalCaloriesAchieved {
		t.Error("1800 of 2000 should reach the 90%% threshold")
	}
	if !atShare.GoalProteinAchieved {
		t.Error("45 of 50 should reach the 90%% threshold")
	}

	below := SummarizeMeals(1, date, []models.Meal{mealWith(1799, 44, 0, 0)}, goal, 0.9)
	if below.GoalCaloriesAchieved {
		t.Error("1799 of 2000 should miss the 90%% threshold")
	}
	if below.GoalProteinAchieved {
		t.Error("44 of 50 should miss the 90%% threshold")
	}
}

func TestSummarizeMealsZeroGoalNeverAchieves(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)
	sum := SummarizeMeals(1, date, []models.Meal{mealWith(5000, 200, 0, 0)}, models.DailyGoal{}, 0.9)

	if sum.GoalCaloriesAchieved || sum.GoalProteinAchieved {
		t.Error("unset goals must never count as achieved")
	}
}

func TestBuildWeeklyDashboardZeroFillsMissingDays(t *testing.T) {
	// Monday 2026-03-09
	start := time.Date(2026, 3, 9, 0, 0, 0, 0, time.Local)
	summaries := []models.DailySummary{
		{UserID: 1, Date: start, TotalCalories: 2000, TotalProtein: 60, MealsCount: 3, GoalCaloriesAchieved: true},
		{UserID: 1, Date: start.AddDate(0, 0, 2), TotalCalories: 1800, TotalProtein: 50, MealsCount: 2},
		{UserID: 1, Date: start.AddDate(0, 0, 5), TotalCalories: 2200, TotalProtein: 70, MealsCount: 4, GoalCaloriesAchieved: true, GoalProteinAchieved: true},
	}

	out := BuildWeeklyDashboard(start, summaries)

	if len(out.DailyData) != 7 {
		t.Fatalf("expected 7 daily entries, got %d", len(out.DailyData))
	}
	if out.GoalAchievement.TotalDays != 3 {
		t.Errorf("expected total_days 3 (tracked only), got %d", out.GoalAchievement.TotalDays)
	}
	if out.GoalAchievement.CaloriesDays != 2 || out.GoalAchievement.ProteinDays != 1 {
		t.Errorf("unexpected achievement counts: %+v", out.GoalAchievement)
	}
	if out.Totals.Calories != 6000 {
		t.Errorf("expected 6000 total calories, got %.1f", out.Totals.Calories)
	}
	if out.AvgCalories != 2000 {
		t.Errorf("expected avg 2000, got %.1f", out.AvgCalories)
	}
	if out.DailyData[0].DayName != "Monday" {
		t.Errorf("week should start Monday, got %s", out.DailyData[0].DayName)
	}
	// Tuesday had no summary
	if out.DailyData[1].Calories != 0 || out.DailyData[1].MealsCount != 0 {
		t.Errorf("missing day should be zero-filled, got %+v", out.DailyData[1])
	}
}

func TestBuildMonthlyDashboardBuckets(t *testing.T) {
	// February 2026 has 28 days: exactly four 7-day buckets.
	day := func(d int) time.Time { return time.Date(2026, 2, d, 0, 0, 0, 0, time.Local) }
	summaries := []models.DailySummary{
		{UserID: 1, Date: day(1), TotalCalories: 2000, MealsCount: 3, GoalCaloriesAchieved: true},
		{UserID: 1, Date: day(7), TotalCalories: 1800, MealsCount: 2},
		{UserID: 1, Date: day(8), TotalCalories: 2200, MealsCount: 3, GoalCaloriesAchieved: true},
		{UserID: 1, Date: day(28), TotalCalories: 1600, MealsCount: 2},
	}

	out := BuildMonthlyDashboard(2026, 2, summaries)

	if out.DaysInMonth != 28 {
		t.Errorf("expected 28 days in February 2026, got %d", out.DaysInMonth)
	}
	if len(out.WeeklyData) != 4 {
		t.Fatalf("expected 4 weekly buckets, got %d", len(out.WeeklyData))
	}
	if out.WeeklyData[0].Calories != 3800 || out.WeeklyData[0].DaysTracked != 2 {
		t.Errorf("week 1 should hold days 1-7: %+v", out.WeeklyData[0])
	}
	if out.WeeklyData[1].Calories != 2200 {
		t.Errorf("week 2 should hold day 8: %+v", out.WeeklyData[1])
	}
	if out.WeeklyData[3].Calories != 1600 {
		t.Errorf("week 4 should hold day 28: %+v", out.WeeklyData[3])
	}
	if out.DaysTracked != 4 {
		t.Errorf("expected 4 days tracked, got %d", out.DaysTracked)
	}
	if out.GoalAchievement.CaloriesPercentage != 50 {
		t.Errorf("expected 50%% calorie achievement, got %.1f", out.GoalAchievement.CaloriesPercentage)
	}
}

func TestBuildMonthlyDashboardRemainderWeek(t *testing.T) {
	// March has 31 days: four full buckets plus a 3-day remainder.
	out := BuildMonthlyDashboard(2026, 3, nil)

	if len(out.WeeklyData) != 5 {
		t.Fatalf("expected 5 buckets for a 31-day month, got %d", len(out.WeeklyData))
	}
	last := out.WeeklyData[4]
	if last.StartDate != "2026-03-29" || last.EndDate != "2026-03-31" {
		t.Errorf("unexpected remainder bucket: %+v", last)
	}
}

func TestMealTypeForHour(t *testing.T) {
	cases := []struct {
		hour int
		want string
	}{
		{4, "snack"},
		{5, "breakfast"},
		{10, "breakfast"},
		{11, "lunch"},
		{15, "lunch"},
		{16, "dinner"},
		{20, "dinner"},
		{21, "snack"},
		{23, "snack"},
		{0, "snack"},
	}
	for _, tc := range cases {
		if got := MealTypeForHour(tc.hour); got != tc.want {
			t.Errorf("hour %d: expected %s, got %s", tc.hour, tc.want, got)
		}
	}
}

func TestStartOfWeek(t *testing.T) {
	wednesday := time.Date(2026, 3, 11, 15, 30, 0, 0, time.Local)
	monday := StartOfWeek(wednesday)
	if monday.Weekday() != time.Monday {
		t.Errorf("expected Monday, got %s", monday.Weekday())
	}
	if monday.Day() != 9 {
		t.Errorf("expected March 9, got %v", monday)
	}

	sunday := time.Date(2026, 3, 15, 8, 0, 0, 0, time.Local)
	if got := StartOfWeek(sunday); got.Day() != 9 {
		t.Errorf("Sunday should map to the preceding Monday, got %v", got)
	}
}

func TestDailySummaryFullDay(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)
	at := func(hour int) time.Time {
		return time.Date(2026, 3, 10, hour, 0, 0, 0, time.Local)
	}
	meals := []models.Meal{
		{TotalCalories: 400, TotalProtein: 20, UploadTime: at(8)},
		{TotalCalories: 600, TotalProtein: 30, UploadTime: at(13)},
		{TotalCalories: 500, TotalProtein: 25, UploadTime: at(20)},
	}
	goal := models.DailyGoal{UserID: 1, Calories: 2000, Protein: 50}

	sum := SummarizeMeals(1, date, meals, goal, 0.9)

	if sum.TotalCalories != 1500 {
		t.Errorf("expected 1500 kcal, got %.1f", sum.TotalCalories)
	}
	if sum.MealsCount != 3 {
		t.Errorf("expected 3 meals, got %d", sum.MealsCount)
	}
	if sum.GoalCaloriesAchieved {
		t.Error("1500 of 2000 kcal should not reach the 90% mark")
	}
	if !sum.GoalProteinAchieved {
		t.Error("75g of 50g protein should achieve the goal")
	}

	types := []string{}
	for _, m := range meals {
		types = append(types, MealTypeForHour(m.UploadTime.Hour()))
	}
	want := []string{"breakfast", "lunch", "dinner"}
	for i, tp := range types {
		if tp != want[i] {
			t.Errorf("meal %d: expected %s, got %s", i, want[i], tp)
		}
	}
}
