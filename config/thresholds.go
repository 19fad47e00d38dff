package config

import "time"

// MonitorThresholds gathers every policy constant used by trend analysis,
// alerting and reminder scheduling so tests can inject boundary values.
type MonitorThresholds struct {
	LookbackDays int // window for trend/risk analysis

	// Nutrition pattern rules.
	LowProteinGrams   float64 // below this counts as a low-protein day
	LowProteinDays    int
	HighCalorieLimit  float64
	HighCalorieDays   int
	HighCarbsPercent  float64 // carbs share of calories considered high
	MinDistinctFoods  int
	LateMealHour      int // meals at/after this hour are "late"
	LateDinnerDays    int
	BreakfastCutoff   int // no meal before this hour = skipped breakfast
	SkippedBkfastDays int

	// Goal adherence rules.
	CalorieDeviation   float64 // |actual - goal| above this misses the goal
	CalorieMissDays    int
	ProteinShortfall   float64 // grams below goal counted as a miss
	ProteinMissDays    int
	AdherenceCalBand   float64 // within +/- this of the calorie goal
	AdherenceProtShare float64 // fraction of protein goal required

	// Health risk rules.
	RiskCarbsGrams    float64
	RiskCarbsDays     int
	RiskCaloriesLimit float64
	RiskFatGrams      float64
	RiskComboDays     int
	LowCalorieLimit   float64
	LowCalorieDays    int

	// Trend and prediction constants.
	TrendDeltaCalories  float64 // recent-vs-older mean gap for a trend
	MaintenanceCalories float64
	MaintenanceBand     float64
	MinPredictionDays   int

	// Goal achievement policy: intake counts as achieved at this share
	// of the configured target.
	GoalAchievedShare float64

	// Reminder scheduling.
	ReminderAfter    time.Duration // silence since last meal before reminding
	ReminderCooldown time.Duration // dedup window against the notification log
}

// DefaultThresholds returns the production policy values.
func DefaultThresholds() MonitorThresholds {
	return MonitorThresholds{
		LookbackDays: 14,

		LowProteinGrams:   50,
		LowProteinDays:    3,
		HighCalorieLimit:  2500,
		HighCalorieDays:   3,
		HighCarbsPercent:  70,
		MinDistinctFoods:  15,
		LateMealHour:      21,
		LateDinnerDays:    3,
		BreakfastCutoff:   11,
		SkippedBkfastDays: 3,

		CalorieDeviation:   500,
		CalorieMissDays:    4,
		ProteinShortfall:   20,
		ProteinMissDays:    4,
		AdherenceCalBand:   200,
		AdherenceProtShare: 0.8,

		RiskCarbsGrams:    300,
		RiskCarbsDays:     5,
		RiskCaloriesLimit: 2500,
		RiskFatGrams:      80,
		RiskComboDays:     4,
		LowCalorieLimit:   1200,
		LowCalorieDays:    3,

		TrendDeltaCalories:  200,
		MaintenanceCalories: 2100,
		MaintenanceBand:     300,
		MinPredictionDays:   7,

		GoalAchievedShare: 0.9,

		ReminderAfter:    5 * time.Hour,
		ReminderCooldown: 2 * time.Hour,
	}
}

// ScheduleConfig holds the cron expressions for the background tasks.
type ScheduleConfig struct {
	MealReminderSweep string // reminder eligibility sweep
	DailySummaries    string
	WeeklySummaries   string
	MonthlyReports    string // handler itself checks for day 1
	DispatchPending   string // due ScheduledNotification dispatch
	Cleanup           string
	HealthCheck       string
}

// DefaultSchedule mirrors the production timetable.
func DefaultSchedule() ScheduleConfig {
	return ScheduleConfig{
		MealReminderSweep: "0 */2 * * *",
		DailySummaries:    "0 21 * * *",
		WeeklySummaries:   "0 20 * * 0",
		MonthlyReports:    "0 19 * * *",
		DispatchPending:   "*/15 * * * *",
		Cleanup:           "0 2 * * *",
		HealthCheck:       "*/30 * * * *",
	}
}
