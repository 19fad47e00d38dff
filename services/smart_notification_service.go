package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"backend/config"
	"backend/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SmartNotificationService generates personalized scheduled notifications
// from learned eating-time patterns and dispatches the ones that come due.
type SmartNotificationService struct {
	db            *gorm.DB
	th            config.MonitorThresholds
	trends        *TrendService
	notifications *NotificationService
}

func NewSmartNotificationService(db *gorm.DB, th config.MonitorThresholds, trends *TrendService, notifications *NotificationService) *SmartNotificationService {
	return &SmartNotificationService{db: db, th: th, trends: trends, notifications: notifications}
}

// mealSlot clamps a learned mean meal hour into a sane window and fixes
// the reminder lead time.
type mealSlot struct {
	ntype    string
	title    string
	message  string
	minHour  int
	maxHour  int
	leadMins int
}

var mealSlots = map[string]mealSlot{
	"breakfast": {
		ntype:    models.NotificationMealReminder,
		title:    "Breakfast Time",
		message:  "Good morning! Around this time you usually have breakfast. Don't forget to log it.",
		minHour:  6, maxHour: 11, leadMins: 30,
	},
	"lunch": {
		ntype:    models.NotificationMealReminder,
		title:    "Lunch Time",
		message:  "It's almost your usual lunch time. Log your meal to keep your streak going.",
		minHour:  11, maxHour: 16, leadMins: 30,
	},
	"dinner": {
		ntype:    models.NotificationMealReminder,
		title:    "Dinner Time",
		message:  "Dinner is coming up. Remember to log what you eat.",
		minHour:  17, maxHour: 22, leadMins: 30,
	},
	"snack": {
		ntype:    models.NotificationMealReminder,
		title:    "Snack Time",
		message:  "Fancy a snack? If you have one, log it so your totals stay accurate.",
		minHour:  0, maxHour: 23, leadMins: 15,
	},
}

// ReminderTimeFor converts a learned mean meal hour (fractional) into
// today's reminder instant: leadMins before the mean, clamped into the
// slot's window.
func ReminderTimeFor(slot string, meanHour float64, day time.Time) (time.Time, bool) {
	ms, ok := mealSlots[slot]
	if !ok || meanHour <= 0 {
		return time.Time{}, false
	}
	h := meanHour
	if h < float64(ms.minHour) {
		h = float64(ms.minHour)
	}
	if h > float64(ms.maxHour) {
		h = float64(ms.maxHour)
	}
	hour := int(h)
	minute := int(math.Round((h - float64(hour)) * 60))
	at := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
	return at.Add(-time.Duration(ms.leadMins) * time.Minute), true
}

// GenerateSmartNotifications builds tomorrow's schedule for a user from
// their eating-time pattern plus the standing wellbeing reminders. Already
// scheduled pending rows of the same type and day are not duplicated.
func (s *SmartNotificationService) GenerateSmartNotifications(ctx context.Context, userID uint) (int, error) {
	patterns, err := s.trends.Patterns(ctx, userID)
	if err != nil {
		return 0, err
	}

	tomorrow := dayStart(time.Now()).AddDate(0, 0, 1)
	var planned []models.ScheduledNotification

	if raw, ok := patterns[models.PatternEatingTime]; ok {
		var eating EatingTimePattern
		if err := json.Unmarshal(raw.PatternData, &eating); err == nil {
			for slot, mean := range map[string]float64{
				"breakfast": eating.AvgBreakfastHour,
				"lunch":     eating.AvgLunchHour,
				"dinner":    eating.AvgDinnerHour,
			} {
				at, ok := ReminderTimeFor(slot, mean, tomorrow)
				if !ok {
					continue
				}
				ms := mealSlots[slot]
				planned = append(planned, models.ScheduledNotification{
					UserID:           userID,
					NotificationType: ms.ntype,
					Title:            ms.title,
					Message:          ms.message,
					ScheduledTime:    at,
					Personalization:  personalization(slot, mean),
				})
			}
		}
	}

	planned = append(planned, standingReminders(userID, tomorrow)...)

	created := 0
	for _, n := range planned {
		dup, err := s.alreadyPlanned(ctx, n)
		if err != nil {
			return created, err
		}
		if dup {
			continue
		}
		if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
			return created, fmt.Errorf("schedule notification: %w", err)
		}
		created++
	}
	slog.Info("smart notifications generated", "user_id", userID, "created", created)
	return created, nil
}

func personalization(slot string, meanHour float64) datatypes.JSON {
	raw, _ := json.Marshal(map[string]any{"meal_slot": slot, "usual_hour": round2(meanHour)})
	return raw
}

func recurrenceDaily() datatypes.JSON {
	raw, _ := json.Marshal(map[string]any{"frequency": "daily", "interval_days": 1})
	return raw
}

// standingReminders are the fixed-time recurring wellbeing notifications.
func standingReminders(userID uint, day time.Time) []models.ScheduledNotification {
	at := func(h, m int) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location())
	}
	return []models.ScheduledNotification{
		{
			UserID:            userID,
			NotificationType:  models.NotificationHydration,
			Title:             "Hydration Check",
			Message:           "Time for a glass of water. Staying hydrated helps digestion and energy.",
			ScheduledTime:     at(9, 0),
			IsRecurring:       true,
			RecurrencePattern: recurrenceDaily(),
		},
		{
			UserID:            userID,
			NotificationType:  models.NotificationHydration,
			Title:             "Hydration Check",
			Message:           "Afternoon water break! Keep your hydration on track.",
			ScheduledTime:     at(15, 0),
			IsRecurring:       true,
			RecurrencePattern: recurrenceDaily(),
		},
		{
			UserID:            userID,
			NotificationType:  models.NotificationGoalCheck,
			Title:             "Daily Goal Check",
			Message:           "How are your nutrition goals looking today? A quick check now leaves time to adjust dinner.",
			ScheduledTime:     at(20, 0),
			IsRecurring:       true,
			RecurrencePattern: recurrenceDaily(),
		},
		{
			UserID:            userID,
			NotificationType:  models.NotificationMealPlanning,
			Title:             "Plan Tomorrow's Meals",
			Message:           "A minute of meal planning tonight makes healthy choices easier tomorrow.",
			ScheduledTime:     at(21, 30),
			IsRecurring:       true,
			RecurrencePattern: recurrenceDaily(),
		},
	}
}

func (s *SmartNotificationService) alreadyPlanned(ctx context.Context, n models.ScheduledNotification) (bool, error) {
	dayStartT := dayStart(n.ScheduledTime)
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ScheduledNotification{}).
		Where("user_id = ? AND notification_type = ? AND title = ? AND is_sent = ? AND scheduled_time >= ? AND scheduled_time < ?",
			n.UserID, n.NotificationType, n.Title, false, dayStartT, dayStartT.AddDate(0, 0, 1)).
		Count(&count).Error
	return count > 0, err
}

// PendingNotifications returns unsent rows due within the horizon.
func (s *SmartNotificationService) PendingNotifications(ctx context.Context, userID uint, horizon time.Duration) ([]models.ScheduledNotification, error) {
	var pending []models.ScheduledNotification
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_sent = ? AND scheduled_time <= ?", userID, false, time.Now().Add(horizon)).
		Order("scheduled_time ASC").
		Find(&pending).Error
	return pending, err
}

// NextOccurrence is the recurrence step applied when a recurring
// notification is marked sent.
func NextOccurrence(t time.Time) time.Time {
	return t.AddDate(0, 0, 1)
}

// MarkSent transitions a pending notification to sent exactly once. For a
// recurring row the next occurrence is created in the same transaction, so
// a double mark can never chain twice. Marking an already-sent row returns
// ErrNotFound.
func (s *SmartNotificationService) MarkSent(ctx context.Context, userID, notificationID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n models.ScheduledNotification
		if err := tx.Where("id = ? AND user_id = ?", notificationID, userID).First(&n).Error; err != nil {
			return notFound(err)
		}

		now := time.Now()
		res := tx.Model(&models.ScheduledNotification{}).
			Where("id = ? AND is_sent = ?", n.ID, false).
			Updates(map[string]any{"is_sent": true, "sent_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		if !n.IsRecurring {
			return nil
		}
		next := models.ScheduledNotification{
			UserID:            n.UserID,
			NotificationType:  n.NotificationType,
			Title:             n.Title,
			Message:           n.Message,
			ScheduledTime:     NextOccurrence(n.ScheduledTime),
			IsRecurring:       true,
			RecurrencePattern: n.RecurrencePattern,
			Personalization:   n.Personalization,
		}
		return tx.Create(&next).Error
	})
}

// DispatchDue sends every due notification across all users and marks each
// sent. One user's failure never blocks the rest.
func (s *SmartNotificationService) DispatchDue(ctx context.Context) (int, error) {
	var due []models.ScheduledNotification
	if err := s.db.WithContext(ctx).
		Where("is_sent = ? AND scheduled_time <= ?", false, time.Now()).
		Order("scheduled_time ASC").
		Limit(500).
		Find(&due).Error; err != nil {
		return 0, fmt.Errorf("load due notifications: %w", err)
	}

	sent := 0
	for _, n := range due {
		var user models.User
		if err := s.db.WithContext(ctx).First(&user, n.UserID).Error; err != nil {
			slog.Error("dispatch: user load failed", "user_id", n.UserID, "error", err)
			continue
		}
		prefs, err := s.notifications.Preferences(ctx, n.UserID)
		if err != nil {
			slog.Error("dispatch: preferences failed", "user_id", n.UserID, "error", err)
			continue
		}
		if InQuietHours(time.Now().Hour(), prefs.QuietHoursStart, prefs.QuietHoursEnd) {
			continue
		}

		s.notifications.Send(ctx, user, prefs, n.NotificationType, n.Title, n.Message)
		if err := s.MarkSent(ctx, n.UserID, n.ID); err != nil && !errors.Is(err, ErrNotFound) {
			slog.Error("dispatch: mark sent failed", "notification_id", n.ID, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}

// CleanupOld deletes sent non-recurring rows older than the retention
// window and expired dismissed alert rows.
func (s *SmartNotificationService) CleanupOld(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	res := s.db.WithContext(ctx).
		Where("is_sent = ? AND is_recurring = ? AND sent_at < ?", true, false, cutoff).
		Delete(&models.ScheduledNotification{})
	if res.Error != nil {
		return 0, fmt.Errorf("cleanup notifications: %w", res.Error)
	}
	removed := res.RowsAffected

	alerts := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", time.Now()).
		Delete(&models.Alert{})
	if alerts.Error != nil {
		return removed, fmt.Errorf("cleanup alerts: %w", alerts.Error)
	}
	return removed + alerts.RowsAffected, nil
}
