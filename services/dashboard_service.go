package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"backend/config"
	"backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DashboardService owns daily summary recomputation and the read-side
// daily/weekly/monthly rollups.
type DashboardService struct {
	db *gorm.DB
	th config.MonitorThresholds
}

func NewDashboardService(db *gorm.DB, th config.MonitorThresholds) *DashboardService {
	return &DashboardService{db: db, th: th}
}

// ---------- Goals ----------

// GetGoals returns the user's goals, falling back to defaults if unset.
func (s *DashboardService) GetGoals(ctx context.Context, userID uint) (models.DailyGoal, error) {
	var goal models.DailyGoal
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&goal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultDailyGoal(userID), nil
	}
	if err != nil {
		return goal, fmt.Errorf("load goals: %w", err)
	}
	return goal, nil
}

type GoalsRequest struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

// SetGoals upserts the user's daily targets; zero fields take defaults.
func (s *DashboardService) SetGoals(ctx context.Context, userID uint, req GoalsRequest) (models.DailyGoal, error) {
	if req.Calories < 0 || req.Protein < 0 || req.Carbs < 0 || req.Fat < 0 || req.Fiber < 0 {
		return models.DailyGoal{}, fmt.Errorf("%w: goals must be non-negative", ErrValidation)
	}

	goal := models.DefaultDailyGoal(userID)
	if req.Calories > 0 {
		goal.Calories = req.Calories
	}
	if req.Protein > 0 {
		goal.Protein = req.Protein
	}
	if req.Carbs > 0 {
		goal.Carbs = req.Carbs
	}
	if req.Fat > 0 {
		goal.Fat = req.Fat
	}
	if req.Fiber > 0 {
		goal.Fiber = req.Fiber
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"calories", "protein", "carbs", "fat", "fiber", "updated_at",
		}),
	}).Create(&goal).Error
	if err != nil {
		return goal, fmt.Errorf("save goals: %w", err)
	}
	return goal, nil
}

// ---------- Daily summary ----------

// RecomputeDailySummary re-sums all meals of the calendar date and upserts
// the summary row. Idempotent: same meals in, same summary out.
func (s *DashboardService) RecomputeDailySummary(ctx context.Context, userID uint, date time.Time) (*models.DailySummary, error) {
	day := dayStart(date)

	var meals []models.Meal
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND upload_date = ?", userID, day).
		Find(&meals).Error; err != nil {
		return nil, fmt.Errorf("load meals: %w", err)
	}

	goal, err := s.GetGoals(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := SummarizeMeals(userID, day, meals, goal, s.th.GoalAchievedShare)

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_calories", "total_protein", "total_carbs", "total_fat",
			"total_fiber", "meals_count", "goal_calories_achieved",
			"goal_protein_achieved", "updated_at",
		}),
	}).Create(&summary).Error
	if err != nil {
		return nil, fmt.Errorf("upsert daily summary: %w", err)
	}
	return &summary, nil
}

// SummarizeMeals computes a daily summary from the date's meals. Missing
// nutrient fields contribute zero. Goal flags use the "at least share of
// target" policy (0.9 in production).
func SummarizeMeals(userID uint, date time.Time, meals []models.Meal, goal models.DailyGoal, achievedShare float64) models.DailySummary {
	sum := models.DailySummary{UserID: userID, Date: dayStart(date)}
	for _, m := range meals {
		sum.TotalCalories += m.TotalCalories
		sum.TotalProtein += m.TotalProtein
		sum.TotalCarbs += m.TotalCarbs
		sum.TotalFat += m.TotalFat
		sum.TotalFiber += m.TotalFiber
	}
	sum.MealsCount = len(meals)
	sum.GoalCaloriesAchieved = goal.Calories > 0 && sum.TotalCalories >= goal.Calories*achievedShare
	sum.GoalProteinAchieved = goal.Protein > 0 && sum.TotalProtein >= goal.Protein*achievedShare
	return sum
}

// ---------- Daily dashboard ----------

type MealTypeSlice struct {
	Count    int     `json:"count"`
	Calories float64 `json:"calories"`
}

type DailyDashboard struct {
	Date                 string                   `json:"date"`
	DayOfWeek            string                   `json:"day_of_week"`
	TotalCalories        float64                  `json:"total_calories"`
	TotalProtein         float64                  `json:"total_protein"`
	TotalCarbs           float64                  `json:"total_carbs"`
	TotalFat             float64                  `json:"total_fat"`
	TotalFiber           float64                  `json:"total_fiber"`
	MealsCount           int                      `json:"meals_count"`
	GoalCaloriesAchieved bool                     `json:"goal_calories_achieved"`
	GoalProteinAchieved  bool                     `json:"goal_protein_achieved"`
	Goals                GoalsRequest             `json:"goals"`
	MealBreakdown        map[string]MealTypeSlice `json:"meal_breakdown"`
}

// GetDaily recomputes and returns the dashboard for one calendar date.
func (s *DashboardService) GetDaily(ctx context.Context, userID uint, date time.Time) (*DailyDashboard, error) {
	summary, err := s.RecomputeDailySummary(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	goal, err := s.GetGoals(ctx, userID)
	if err != nil {
		return nil, err
	}

	var meals []models.Meal
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND upload_date = ?", userID, dayStart(date)).
		Order("upload_time ASC").
		Find(&meals).Error; err != nil {
		return nil, fmt.Errorf("load meals: %w", err)
	}

	breakdown := map[string]MealTypeSlice{
		"breakfast": {}, "lunch": {}, "dinner": {}, "snack": {},
	}
	for _, m := range meals {
		mt := MealTypeForHour(m.UploadTime.Hour())
		slice := breakdown[mt]
		slice.Count++
		slice.Calories += m.TotalCalories
		breakdown[mt] = slice
	}

	return &DailyDashboard{
		Date:                 summary.Date.Format("2006-01-02"),
		DayOfWeek:            summary.Date.Weekday().String(),
		TotalCalories:        summary.TotalCalories,
		TotalProtein:         summary.TotalProtein,
		TotalCarbs:           summary.TotalCarbs,
		TotalFat:             summary.TotalFat,
		TotalFiber:           summary.TotalFiber,
		MealsCount:           summary.MealsCount,
		GoalCaloriesAchieved: summary.GoalCaloriesAchieved,
		GoalProteinAchieved:  summary.GoalProteinAchieved,
		Goals: GoalsRequest{
			Calories: goal.Calories, Protein: goal.Protein,
			Carbs: goal.Carbs, Fat: goal.Fat, Fiber: goal.Fiber,
		},
		MealBreakdown: breakdown,
	}, nil
}

// ---------- Weekly dashboard ----------

type DayData struct {
	Date             string  `json:"date"`
	DayName          string  `json:"day_name"`
	Calories         float64 `json:"calories"`
	Protein          float64 `json:"protein"`
	MealsCount       int     `json:"meals_count"`
	CaloriesAchieved bool    `json:"calories_achieved"`
	ProteinAchieved  bool    `json:"protein_achieved"`
}

type RollupTotals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Meals    int     `json:"meals"`
}

type GoalAchievement struct {
	CaloriesDays       int     `json:"calories_days"`
	ProteinDays        int     `json:"protein_days"`
	TotalDays          int     `json:"total_days"`
	CaloriesPercentage float64 `json:"calories_percentage,omitempty"`
	ProteinPercentage  float64 `json:"protein_percentage,omitempty"`
}

type WeeklyDashboard struct {
	WeekStart       string          `json:"week_start"`
	WeekEnd         string          `json:"week_end"`
	Totals          RollupTotals    `json:"totals"`
	AvgCalories     float64         `json:"avg_calories"`
	AvgProtein      float64         `json:"avg_protein"`
	GoalAchievement GoalAchievement `json:"goal_achievement"`
	DailyData       []DayData       `json:"daily_data"`
}

// GetWeekly aggregates Mon-Sun daily summaries; days without a summary
// appear zero-filled.
func (s *DashboardService) GetWeekly(ctx context.Context, userID uint, weekStart time.Time) (*WeeklyDashboard, error) {
	start := StartOfWeek(weekStart)
	end := start.AddDate(0, 0, 6)

	summaries, err := s.summariesBetween(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	out := BuildWeeklyDashboard(start, summaries)
	return &out, nil
}

// BuildWeeklyDashboard is the pure rollup over one week of summaries.
func BuildWeeklyDashboard(weekStart time.Time, summaries []models.DailySummary) WeeklyDashboard {
	start := dayStart(weekStart)
	end := start.AddDate(0, 0, 6)

	idx := indexByDate(summaries)

	out := WeeklyDashboard{
		WeekStart: start.Format("2006-01-02"),
		WeekEnd:   end.Format("2006-01-02"),
	}
	for _, sm := range summaries {
		out.Totals.Calories += sm.TotalCalories
		out.Totals.Protein += sm.TotalProtein
		out.Totals.Carbs += sm.TotalCarbs
		out.Totals.Fat += sm.TotalFat
		out.Totals.Meals += sm.MealsCount
		if sm.GoalCaloriesAchieved {
			out.GoalAchievement.CaloriesDays++
		}
		if sm.GoalProteinAchieved {
			out.GoalAchievement.ProteinDays++
		}
	}
	out.GoalAchievement.TotalDays = len(summaries)
	if n := len(summaries); n > 0 {
		out.AvgCalories = round1(out.Totals.Calories / float64(n))
		out.AvgProtein = round1(out.Totals.Protein / float64(n))
	}

	for i := 0; i < 7; i++ {
		d := start.AddDate(0, 0, i)
		key := d.Format("2006-01-02")
		sm := idx[key] // zero value if missing
		out.DailyData = append(out.DailyData, DayData{
			Date:             key,
			DayName:          d.Weekday().String(),
			Calories:         sm.TotalCalories,
			Protein:          sm.TotalProtein,
			MealsCount:       sm.MealsCount,
			CaloriesAchieved: sm.GoalCaloriesAchieved,
			ProteinAchieved:  sm.GoalProteinAchieved,
		})
	}
	return out
}

// ---------- Monthly dashboard ----------

type WeekData struct {
	WeekNumber  int     `json:"week_number"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	Calories    float64 `json:"calories"`
	Protein     float64 `json:"protein"`
	Meals       int     `json:"meals"`
	DaysTracked int     `json:"days_tracked"`
}

type MonthlyDashboard struct {
	Year            int             `json:"year"`
	Month           int             `json:"month"`
	MonthName       string          `json:"month_name"`
	Totals          RollupTotals    `json:"totals"`
	AvgCalories     float64         `json:"avg_calories"`
	AvgProtein      float64         `json:"avg_protein"`
	GoalAchievement GoalAchievement `json:"goal_achievement"`
	WeeklyData      []WeekData      `json:"weekly_data"`
	DaysInMonth     int             `json:"days_in_month"`
	DaysTracked     int             `json:"days_tracked"`
}

// GetMonthly aggregates a calendar month of daily summaries, bucketed into
// 7-day chunks with a remainder week at the month boundary.
func (s *DashboardService) GetMonthly(ctx context.Context, userID uint, year, month int) (*MonthlyDashboard, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month must be 1-12", ErrValidation)
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	last := first.AddDate(0, 1, -1)

	summaries, err := s.summariesBetween(ctx, userID, first, last)
	if err != nil {
		return nil, err
	}
	out := BuildMonthlyDashboard(year, month, summaries)
	return &out, nil
}

// BuildMonthlyDashboard is the pure rollup over one month of summaries.
func BuildMonthlyDashboard(year, month int, summaries []models.DailySummary) MonthlyDashboard {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	last := first.AddDate(0, 1, -1)

	out := MonthlyDashboard{
		Year:        year,
		Month:       month,
		MonthName:   time.Month(month).String(),
		DaysInMonth: last.Day(),
	}
	for _, sm := range summaries {
		out.Totals.Calories += sm.TotalCalories
		out.Totals.Protein += sm.TotalProtein
		out.Totals.Carbs += sm.TotalCarbs
		out.Totals.Fat += sm.TotalFat
		out.Totals.Meals += sm.MealsCount
		if sm.GoalCaloriesAchieved {
			out.GoalAchievement.CaloriesDays++
		}
		if sm.GoalProteinAchieved {
			out.GoalAchievement.ProteinDays++
		}
	}
	n := len(summaries)
	out.DaysTracked = n
	out.GoalAchievement.TotalDays = n
	if n > 0 {
		out.AvgCalories = round1(out.Totals.Calories / float64(n))
		out.AvgProtein = round1(out.Totals.Protein / float64(n))
		out.GoalAchievement.CaloriesPercentage = round1(float64(out.GoalAchievement.CaloriesDays) / float64(n) * 100)
		out.GoalAchievement.ProteinPercentage = round1(float64(out.GoalAchievement.ProteinDays) / float64(n) * 100)
	}

	weekNum := 1
	for cur := first; !cur.After(last); weekNum++ {
		weekEnd := cur.AddDate(0, 0, 6)
		if weekEnd.After(last) {
			weekEnd = last
		}
		wd := WeekData{
			WeekNumber: weekNum,
			StartDate:  cur.Format("2006-01-02"),
			EndDate:    weekEnd.Format("2006-01-02"),
		}
		for _, sm := range summaries {
			d := dayStart(sm.Date)
			if !d.Before(cur) && !d.After(weekEnd) {
				wd.Calories += sm.TotalCalories
				wd.Protein += sm.TotalProtein
				wd.Meals += sm.MealsCount
				wd.DaysTracked++
			}
		}
		out.WeeklyData = append(out.WeeklyData, wd)
		cur = weekEnd.AddDate(0, 0, 1)
	}
	return out
}

// ---------- Meal history ----------

type MealHistoryEntry struct {
	ID         uint              `json:"id"`
	UploadDate string            `json:"upload_date"`
	UploadTime time.Time         `json:"upload_time"`
	DayOfWeek  string            `json:"day_of_week"`
	MealType   string            `json:"meal_type"`
	Calories   float64           `json:"calories"`
	Protein    float64           `json:"protein"`
	Items      []models.MealItem `json:"items"`
}

// GetMealHistory returns meals over the trailing window with calendar info.
func (s *DashboardService) GetMealHistory(ctx context.Context, userID uint, days int) ([]MealHistoryEntry, error) {
	if days <= 0 || days > 365 {
		return nil, fmt.Errorf("%w: days must be in 1-365", ErrValidation)
	}
	from := dayStart(time.Now()).AddDate(0, 0, -days)

	var meals []models.Meal
	if err := s.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND upload_date >= ?", userID, from).
		Order("upload_time DESC").
		Find(&meals).Error; err != nil {
		return nil, fmt.Errorf("load meal history: %w", err)
	}

	history := make([]MealHistoryEntry, 0, len(meals))
	for _, m := range meals {
		history = append(history, MealHistoryEntry{
			ID:         m.ID,
			UploadDate: m.UploadDate.Format("2006-01-02"),
			UploadTime: m.UploadTime,
			DayOfWeek:  m.DayOfWeek,
			MealType:   MealTypeForHour(m.UploadTime.Hour()),
			Calories:   m.TotalCalories,
			Protein:    m.TotalProtein,
			Items:      m.Items,
		})
	}
	return history, nil
}

// ---------- internals ----------

func (s *DashboardService) summariesBetween(ctx context.Context, userID uint, from, to time.Time) ([]models.DailySummary, error) {
	var summaries []models.DailySummary
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, dayStart(from), dayStart(to)).
		Order("date ASC").
		Find(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("load summaries: %w", err)
	}
	return summaries, nil
}

// MealTypeForHour buckets an hour of day into a meal type.
func MealTypeForHour(hour int) string {
	switch {
	case hour >= 5 && hour < 11:
		return "breakfast"
	case hour >= 11 && hour < 16:
		return "lunch"
	case hour >= 16 && hour < 21:
		return "dinner"
	default:
		return "snack"
	}
}

// StartOfWeek returns the Monday 00:00 of the week containing t.
func StartOfWeek(t time.Time) time.Time {
	d := dayStart(t)
	offset := (int(d.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return d.AddDate(0, 0, -offset)
}

func indexByDate(summaries []models.DailySummary) map[string]models.DailySummary {
	idx := make(map[string]models.DailySummary, len(summaries))
	for _, sm := range summaries {
		idx[sm.Date.Format("2006-01-02")] = sm
	}
	return idx
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
