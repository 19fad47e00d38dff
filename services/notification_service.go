package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"backend/config"
	"backend/models"
	"backend/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationService owns channel delivery (WhatsApp, email), the per-user
// preference record, reminder eligibility and the periodic summary sends.
type NotificationService struct {
	db         *gorm.DB
	th         config.MonitorThresholds
	hub        *RealtimeHub
	push       *PushService
	dashboards *DashboardService
}

func NewNotificationService(db *gorm.DB, th config.MonitorThresholds, hub *RealtimeHub, push *PushService, dashboards *DashboardService) *NotificationService {
	return &NotificationService{db: db, th: th, hub: hub, push: push, dashboards: dashboards}
}

// ---------- preferences ----------

// Preferences returns the user's notification preferences, creating the
// default row on first access.
func (s *NotificationService) Preferences(ctx context.Context, userID uint) (models.NotificationPreference, error) {
	var prefs models.NotificationPreference
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error
	if err == nil {
		return prefs, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return prefs, fmt.Errorf("load preferences: %w", err)
	}
	prefs = models.DefaultNotificationPreference(userID)
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&prefs).Error; err != nil {
		return prefs, fmt.Errorf("create preferences: %w", err)
	}
	return prefs, nil
}

type PreferencesRequest struct {
	WhatsAppEnabled *bool `json:"whatsapp_enabled"`
	EmailEnabled    *bool `json:"email_enabled"`
	DailySummary    *bool `json:"daily_summary"`
	WeeklySummary   *bool `json:"weekly_summary"`
	MonthlySummary  *bool `json:"monthly_summary"`
	QuietHoursStart *int  `json:"quiet_hours_start"`
	QuietHoursEnd   *int  `json:"quiet_hours_end"`
}

// UpdatePreferences applies only the fields present in the request.
func (s *NotificationService) UpdatePreferences(ctx context.Context, userID uint, req PreferencesRequest) (models.NotificationPreference, error) {
	prefs, err := s.Preferences(ctx, userID)
	if err != nil {
		return prefs, err
	}
	if req.WhatsAppEnabled != nil {
		prefs.WhatsAppEnabled = *req.WhatsAppEnabled
	}
	if req.EmailEnabled != nil {
		prefs.EmailEnabled = *req.EmailEnabled
	}
	if req.DailySummary != nil {
		prefs.DailySummary = *req.DailySummary
	}
	if req.WeeklySummary != nil {
		prefs.WeeklySummary = *req.WeeklySummary
	}
	if req.MonthlySummary != nil {
		prefs.MonthlySummary = *req.MonthlySummary
	}
	if req.QuietHoursStart != nil {
		if *req.QuietHoursStart < 0 || *req.QuietHoursStart > 23 {
			return prefs, fmt.Errorf("%w: quiet_hours_start must be 0-23", ErrValidation)
		}
		prefs.QuietHoursStart = *req.QuietHoursStart
	}
	if req.QuietHoursEnd != nil {
		if *req.QuietHoursEnd < 0 || *req.QuietHoursEnd > 23 {
			return prefs, fmt.Errorf("%w: quiet_hours_end must be 0-23", ErrValidation)
		}
		prefs.QuietHoursEnd = *req.QuietHoursEnd
	}
	if err := s.db.WithContext(ctx).Save(&prefs).Error; err != nil {
		return prefs, fmt.Errorf("save preferences: %w", err)
	}
	return prefs, nil
}

// ---------- channel delivery ----------

// Send pushes one notification through every channel the user has enabled.
// Each channel attempt is recorded in the notification log regardless of
// outcome. Returns the number of successful channel deliveries.
func (s *NotificationService) Send(ctx context.Context, user models.User, prefs models.NotificationPreference, ntype, title, message string) int {
	delivered := 0

	if prefs.WhatsAppEnabled && user.PhoneVerified && user.PhoneNumber != "" {
		sid, err := utils.SendWhatsApp(ctx, user.PhoneNumber, message)
		s.logAttempt(ctx, user.ID, ntype, models.ChannelWhatsApp, message, sid, err)
		if err == nil {
			delivered++
		}
	}

	if prefs.EmailEnabled && user.Email != "" {
		err := utils.SendEmail(ctx, user.Email, title, message)
		s.logAttempt(ctx, user.ID, ntype, models.ChannelEmail, message, "", err)
		if err == nil {
			delivered++
		}
	}

	if s.hub != nil {
		s.hub.BroadcastNotification(user.ID, map[string]any{
			"notification_type": ntype,
			"title":             title,
			"message":           message,
		})
	}
	if s.push != nil {
		s.push.PushToUser(ctx, user.ID, title, message, map[string]string{"type": ntype})
	}
	return delivered
}

func (s *NotificationService) logAttempt(ctx context.Context, userID uint, ntype, channel, content, providerID string, sendErr error) {
	entry := models.NotificationLog{
		UserID:           userID,
		NotificationType: ntype,
		Channel:          channel,
		Status:           models.StatusSent,
		MessageContent:   content,
		ProviderID:       providerID,
	}
	if sendErr != nil {
		entry.Status = models.StatusFailed
		entry.ErrorMessage = sendErr.Error()
		slog.Warn("notification delivery failed",
			"user_id", userID, "type", ntype, "channel", channel, "error", sendErr)
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		slog.Error("notification log write failed", "user_id", userID, "error", err)
	}
}

// History returns the user's recent delivery log, newest first.
func (s *NotificationService) History(ctx context.Context, userID uint, limit int) ([]models.NotificationLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var logs []models.NotificationLog
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// ---------- meal reminders ----------

// InQuietHours reports whether the hour falls inside the user's quiet
// window. Windows may wrap midnight (22 to 7 covers 22-23 and 0-6).
// A zero-length window (start == end) never suppresses.
func InQuietHours(hour, start, end int) bool {
	if start == end {
		return false
	}
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}

// ShouldRemind decides reminder eligibility from the last meal time alone.
// Users who never logged a meal are not reminded.
func ShouldRemind(lastMeal *time.Time, now time.Time, after time.Duration) bool {
	if lastMeal == nil {
		return false
	}
	return now.Sub(*lastMeal) >= after
}

// WithinCooldown reports whether a reminder sent at lastSent still blocks
// a new one at now.
func WithinCooldown(lastSent, now time.Time, cooldown time.Duration) bool {
	return now.Sub(lastSent) < cooldown
}

func (s *NotificationService) recentlySent(ctx context.Context, userID uint, ntype string, cooldown time.Duration) (bool, error) {
	var last models.NotificationLog
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND notification_type = ? AND status = ?",
			userID, ntype, models.StatusSent).
		Order("created_at DESC").
		First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return WithinCooldown(last.CreatedAt, time.Now(), cooldown), nil
}

// CheckAndSendMealReminders sweeps all verified users and reminds those who
// haven't logged a meal recently. Quiet hours and the cooldown window both
// suppress. Returns how many reminders went out.
func (s *NotificationService) CheckAndSendMealReminders(ctx context.Context) (int, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).
		Where("phone_verified = ? OR email <> ''", true).
		Find(&users).Error; err != nil {
		return 0, fmt.Errorf("load users: %w", err)
	}

	now := time.Now()
	sent := 0
	for _, user := range users {
		if !ShouldRemind(user.LastMealTime, now, s.th.ReminderAfter) {
			continue
		}
		prefs, err := s.Preferences(ctx, user.ID)
		if err != nil {
			slog.Error("reminder sweep: preferences failed", "user_id", user.ID, "error", err)
			continue
		}
		if InQuietHours(now.Hour(), prefs.QuietHoursStart, prefs.QuietHoursEnd) {
			continue
		}
		dup, err := s.recentlySent(ctx, user.ID, models.NotificationMealReminder, s.th.ReminderCooldown)
		if err != nil {
			slog.Error("reminder sweep: dedup check failed", "user_id", user.ID, "error", err)
			continue
		}
		if dup {
			continue
		}

		hours := int(now.Sub(*user.LastMealTime).Hours())
		msg := BuildMealReminderMessage(user.FullName, hours)
		if s.Send(ctx, user, prefs, models.NotificationMealReminder, "Meal Reminder", msg) > 0 {
			sent++
		}
	}
	slog.Info("meal reminder sweep finished", "candidates", len(users), "sent", sent)
	return sent, nil
}

// SendManualReminder sends an immediate reminder, bypassing quiet hours and
// the cooldown. Used by the manual trigger endpoint.
func (s *NotificationService) SendManualReminder(ctx context.Context, userID uint, message string) error {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return notFound(err)
	}
	prefs, err := s.Preferences(ctx, userID)
	if err != nil {
		return err
	}
	if message == "" {
		message = BuildMealReminderMessage(user.FullName, 0)
	}
	if s.Send(ctx, user, prefs, models.NotificationManualReminder, "Meal Reminder", message) == 0 {
		return fmt.Errorf("no delivery channel available")
	}
	return nil
}

// ---------- periodic summaries ----------

// SendDailySummary builds and delivers today's summary for one user.
// Skipped (nil error) when the user opted out or logged nothing today.
func (s *NotificationService) SendDailySummary(ctx context.Context, userID uint) error {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return notFound(err)
	}
	prefs, err := s.Preferences(ctx, userID)
	if err != nil {
		return err
	}
	if !prefs.DailySummary {
		return nil
	}

	daily, err := s.dashboards.GetDaily(ctx, userID, time.Now())
	if err != nil {
		return err
	}
	if daily.MealsCount == 0 {
		return nil
	}

	msg := BuildDailySummaryMessage(user.FullName, daily)
	s.Send(ctx, user, prefs, models.NotificationDailySummary, "Your Daily Nutrition Summary", msg)
	return nil
}

// SendWeeklySummary delivers the rollup of the week that just ended.
func (s *NotificationService) SendWeeklySummary(ctx context.Context, userID uint) error {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return notFound(err)
	}
	prefs, err := s.Preferences(ctx, userID)
	if err != nil {
		return err
	}
	if !prefs.WeeklySummary {
		return nil
	}

	weekly, err := s.dashboards.GetWeekly(ctx, userID, time.Now())
	if err != nil {
		return err
	}
	if weekly.GoalAchievement.TotalDays == 0 {
		return nil
	}

	msg := BuildWeeklySummaryMessage(user.FullName, weekly)
	s.Send(ctx, user, prefs, models.NotificationWeeklySummary, "Your Weekly Nutrition Summary", msg)
	return nil
}

// SendMonthlyReport delivers the previous month's report.
func (s *NotificationService) SendMonthlyReport(ctx context.Context, userID uint) error {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return notFound(err)
	}
	prefs, err := s.Preferences(ctx, userID)
	if err != nil {
		return err
	}
	if !prefs.MonthlySummary {
		return nil
	}

	prev := time.Now().AddDate(0, -1, 0)
	monthly, err := s.dashboards.GetMonthly(ctx, userID, prev.Year(), int(prev.Month()))
	if err != nil {
		return err
	}
	if monthly.DaysTracked == 0 {
		return nil
	}

	msg := BuildMonthlyReportMessage(user.FullName, monthly)
	s.Send(ctx, user, prefs, models.NotificationMonthlySummary, "Your Monthly Nutrition Report", msg)
	return nil
}

// ---------- message templates ----------

func firstName(fullName string) string {
	name := strings.TrimSpace(fullName)
	if name == "" {
		return "there"
	}
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i]
	}
	return name
}

func BuildMealReminderMessage(fullName string, hoursSince int) string {
	if hoursSince > 0 {
		return fmt.Sprintf("Hi %s! It's been %d hours since your last meal. Don't forget to log what you eat to keep your nutrition on track.", firstName(fullName), hoursSince)
	}
	return fmt.Sprintf("Hi %s! Time to log your next meal and keep your nutrition on track.", firstName(fullName))
}

func BuildDailySummaryMessage(fullName string, d *DailyDashboard) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s! Here's your nutrition summary for %s:\n\n", firstName(fullName), d.Date)
	fmt.Fprintf(&b, "Calories: %.0f / %.0f kcal\n", d.TotalCalories, d.Goals.Calories)
	fmt.Fprintf(&b, "Protein: %.0fg / %.0fg\n", d.TotalProtein, d.Goals.Protein)
	fmt.Fprintf(&b, "Carbs: %.0fg | Fat: %.0fg\n", d.TotalCarbs, d.TotalFat)
	fmt.Fprintf(&b, "Meals logged: %d\n\n", d.MealsCount)
	switch {
	case d.GoalCaloriesAchieved && d.GoalProteinAchieved:
		b.WriteString("Great job! You hit both your calorie and protein goals today.")
	case d.GoalCaloriesAchieved:
		b.WriteString("You hit your calorie goal. A bit more protein tomorrow would round it out.")
	case d.GoalProteinAchieved:
		b.WriteString("You hit your protein goal. Keep an eye on calories tomorrow.")
	default:
		b.WriteString("Tomorrow is a fresh start. Small consistent steps add up!")
	}
	return b.String()
}

func BuildWeeklySummaryMessage(fullName string, w *WeeklyDashboard) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s! Your week (%s to %s) at a glance:\n\n", firstName(fullName), w.WeekStart, w.WeekEnd)
	fmt.Fprintf(&b, "Days tracked: %d\n", w.GoalAchievement.TotalDays)
	fmt.Fprintf(&b, "Average calories: %.0f kcal/day\n", w.AvgCalories)
	fmt.Fprintf(&b, "Average protein: %.0fg/day\n", w.AvgProtein)
	fmt.Fprintf(&b, "Calorie goal hit on %d of %d days\n", w.GoalAchievement.CaloriesDays, w.GoalAchievement.TotalDays)
	fmt.Fprintf(&b, "Protein goal hit on %d of %d days\n", w.GoalAchievement.ProteinDays, w.GoalAchievement.TotalDays)
	return b.String()
}

func BuildMonthlyReportMessage(fullName string, m *MonthlyDashboard) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s! Your %s %d nutrition report:\n\n", firstName(fullName), m.MonthName, m.Year)
	fmt.Fprintf(&b, "Days tracked: %d of %d\n", m.DaysTracked, m.DaysInMonth)
	fmt.Fprintf(&b, "Total meals: %d\n", m.Totals.Meals)
	fmt.Fprintf(&b, "Average calories: %.0f kcal/day\n", m.AvgCalories)
	fmt.Fprintf(&b, "Average protein: %.0fg/day\n", m.AvgProtein)
	fmt.Fprintf(&b, "Calorie goal: %.0f%% of tracked days\n", m.GoalAchievement.CaloriesPercentage)
	fmt.Fprintf(&b, "Protein goal: %.0f%% of tracked days\n", m.GoalAchievement.ProteinPercentage)
	return b.String()
}
