package services

import (
	"strings"
	"testing"
	"time"
)

func TestInQuietHoursWrapsMidnight(t *testing.T) {
	cases := []struct {
		hour, start, end int
		want             bool
	}{
		{23, 22, 7, true},
		{0, 22, 7, true},
		{6, 22, 7, true},
		{7, 22, 7, false},
		{8, 22, 7, false},
		{21, 22, 7, false},
		{22, 22, 7, true},
		// non-wrapping window
		{12, 9, 17, true},
		{8, 9, 17, false},
		{17, 9, 17, false},
		// zero-length window never suppresses
		{9, 9, 9, false},
		{12, 9, 9, false},
	}
	for _, tc := range cases {
		if got := InQuietHours(tc.hour, tc.start, tc.end); got != tc.want {
			t.Errorf("InQuietHours(%d, %d, %d): expected %v, got %v",
				tc.hour, tc.start, tc.end, tc.want, got)
		}
	}
}

func TestShouldRemind(t *testing.T) {
	now := time.Date(2026, 3, 15, 18, 0, 0, 0, time.Local)
	after := 5 * time.Hour

	if ShouldRemind(nil, now, after) {
		t.Error("users who never logged a meal must not be reminded")
	}

	recent := now.Add(-4 * time.Hour)
	if ShouldRemind(&recent, now, after) {
		t.Error("4 hours of silence is within the threshold")
	}

	exact := now.Add(-5 * time.Hour)
	if !ShouldRemind(&exact, now, after) {
		t.Error("exactly 5 hours of silence should remind")
	}

	long := now.Add(-9 * time.Hour)
	if !ShouldRemind(&long, now, after) {
		t.Error("9 hours of silence should remind")
	}
}

func TestBuildMealReminderMessage(t *testing.T) {
	msg := BuildMealReminderMessage("Nimal Perera", 6)
	if !strings.Contains(msg, "Nimal") {
		t.Errorf("message should greet by first name: %s", msg)
	}
	if !strings.Contains(msg, "6 hours") {
		t.Errorf("message should mention elapsed hours: %s", msg)
	}

	generic := BuildMealReminderMessage("", 0)
	if !strings.Contains(generic, "there") {
		t.Errorf("missing name should fall back to a generic greeting: %s", generic)
	}
}

func TestBuildDailySummaryMessage(t *testing.T) {
	d := &DailyDashboard{
		Date:          "2026-03-15",
		TotalCalories: 1500,
		TotalProtein:  55,
		TotalCarbs:    180,
		TotalFat:      45,
		MealsCount:    3,
		Goals:         GoalsRequest{Calories: 2000, Protein: 50},
	}
	d.GoalProteinAchieved = true

	msg := BuildDailySummaryMessage("Amara", d)
	if !strings.Contains(msg, "1500 / 2000 kcal") {
		t.Errorf("expected calorie line, got: %s", msg)
	}
	if !strings.Contains(msg, "55g / 50g") {
		t.Errorf("expected protein line, got: %s", msg)
	}
	if !strings.Contains(msg, "Meals logged: 3") {
		t.Errorf("expected meal count, got: %s", msg)
	}
	if !strings.Contains(msg, "protein goal") {
		t.Errorf("protein-only achievement should be called out, got: %s", msg)
	}

	// deterministic for the same input
	if again := BuildDailySummaryMessage("Amara", d); again != msg {
		t.Error("summary message should be deterministic")
	}
}

func TestBuildWeeklySummaryMessage(t *testing.T) {
	w := &WeeklyDashboard{
		WeekStart:   "2026-03-09",
		WeekEnd:     "2026-03-15",
		AvgCalories: 1950,
		AvgProtein:  58,
		GoalAchievement: GoalAchievement{
			CaloriesDays: 5,
			ProteinDays:  4,
			TotalDays:    6,
		},
	}

	msg := BuildWeeklySummaryMessage("Amara", w)
	if !strings.Contains(msg, "5 of 6 days") {
		t.Errorf("expected calorie achievement line, got: %s", msg)
	}
	if !strings.Contains(msg, "1950 kcal/day") {
		t.Errorf("expected average calories, got: %s", msg)
	}
}

func TestWithinCooldown(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.Local)
	cooldown := 2 * time.Hour

	if !WithinCooldown(now.Add(-1*time.Hour), now, cooldown) {
		t.Error("reminder sent 1h ago should still block")
	}
	if WithinCooldown(now.Add(-3*time.Hour), now, cooldown) {
		t.Error("reminder sent 3h ago should not block")
	}
	if WithinCooldown(now.Add(-2*time.Hour), now, cooldown) {
		t.Error("a send exactly one cooldown ago should not block")
	}
}
