package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend/config"
	"backend/models"
)

func TestReminderTimeForLeadsMeanByThirtyMinutes(t *testing.T) {
	day := time.Date(2026, 3, 16, 0, 0, 0, 0, time.Local)

	at, ok := ReminderTimeFor("breakfast", 8.5, day)
	if !ok {
		t.Fatal("expected a reminder time")
	}
	want := time.Date(2026, 3, 16, 8, 0, 0, 0, time.Local)
	if !at.Equal(want) {
		t.Errorf("mean 8:30 should remind at 8:00, got %v", at)
	}
}

func TestReminderTimeForClampsIntoWindow(t *testing.T) {
	day := time.Date(2026, 3, 16, 0, 0, 0, 0, time.Local)

	// a 4:00 mean clamps to the 6:00 window floor, reminder 5:30
	at, ok := ReminderTimeFor("breakfast", 4, day)
	if !ok {
		t.Fatal("expected a reminder time")
	}
	if at.Hour() != 5 || at.Minute() != 30 {
		t.Errorf("early means should clamp to the breakfast window, got %v", at)
	}

	// an 18:00 lunch mean clamps to the 16:00 ceiling, reminder 15:30
	at, ok = ReminderTimeFor("lunch", 18, day)
	if !ok {
		t.Fatal("expected a reminder time")
	}
	if at.Hour() != 15 || at.Minute() != 30 {
		t.Errorf("late means should clamp to the lunch window, got %v", at)
	}
}

func TestReminderTimeForSnackLead(t *testing.T) {
	day := time.Date(2026, 3, 16, 0, 0, 0, 0, time.Local)
	at, ok := ReminderTimeFor("snack", 17, day)
	if !ok {
		t.Fatal("expected a reminder time")
	}
	if at.Hour() != 16 || at.Minute() != 45 {
		t.Errorf("snack reminders lead by 15 minutes, got %v", at)
	}
}

func TestReminderTimeForRejectsMissingPattern(t *testing.T) {
	day := time.Date(2026, 3, 16, 0, 0, 0, 0, time.Local)
	if _, ok := ReminderTimeFor("breakfast", 0, day); ok {
		t.Error("a zero mean hour means no pattern; no reminder")
	}
	if _, ok := ReminderTimeFor("brunch", 10, day); ok {
		t.Error("unknown meal slots have no reminder")
	}
}

func TestNextOccurrenceAdvancesOneDay(t *testing.T) {
	at := time.Date(2026, 3, 16, 9, 0, 0, 0, time.Local)
	next := NextOccurrence(at)

	if !next.Equal(at.AddDate(0, 0, 1)) {
		t.Errorf("expected +1 day, got %v", next)
	}
	if next.Hour() != 9 || next.Minute() != 0 {
		t.Errorf("time of day must be preserved, got %v", next)
	}
}

func TestStandingReminders(t *testing.T) {
	day := time.Date(2026, 3, 16, 0, 0, 0, 0, time.Local)
	reminders := standingReminders(1, day)

	if len(reminders) != 4 {
		t.Fatalf("expected 4 standing reminders, got %d", len(reminders))
	}
	for _, r := range reminders {
		if !r.IsRecurring {
			t.Errorf("%s should be recurring", r.Title)
		}
		if r.IsSent {
			t.Errorf("%s should start pending", r.Title)
		}
	}

	wantTimes := map[string][2]int{
		models.NotificationGoalCheck:    {20, 0},
		models.NotificationMealPlanning: {21, 30},
	}
	for _, r := range reminders {
		if hm, ok := wantTimes[r.NotificationType]; ok {
			if r.ScheduledTime.Hour() != hm[0] || r.ScheduledTime.Minute() != hm[1] {
				t.Errorf("%s: expected %02d:%02d, got %v", r.NotificationType, hm[0], hm[1], r.ScheduledTime)
			}
		}
	}
}

func TestMarkSentChainsRecurringExactlyOnce(t *testing.T) {
	db := openTestDB(t)
	svc := NewSmartNotificationService(db, config.DefaultThresholds(), nil, nil)
	ctx := context.Background()

	scheduled := time.Date(2026, 3, 16, 9, 0, 0, 0, time.Local)
	n := models.ScheduledNotification{
		UserID:            1,
		NotificationType:  models.NotificationHydration,
		Title:             "Hydration Check",
		Message:           "Time for a glass of water!",
		ScheduledTime:     scheduled,
		IsRecurring:       true,
		RecurrencePattern: recurrenceDaily(),
	}
	if err := db.Create(&n).Error; err != nil {
		t.Fatalf("seed notification: %v", err)
	}

	if err := svc.MarkSent(ctx, 1, n.ID); err != nil {
		t.Fatalf("first MarkSent: %v", err)
	}

	var original models.ScheduledNotification
	if err := db.First(&original, n.ID).Error; err != nil {
		t.Fatalf("reload original: %v", err)
	}
	if !original.IsSent || original.SentAt == nil {
		t.Error("original row should be marked sent with a timestamp")
	}

	var pending []models.ScheduledNotification
	if err := db.Where("user_id = ? AND is_sent = ?", 1, false).Find(&pending).Error; err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected exactly one chained row, got %d", len(pending))
	}
	next := pending[0]
	if !next.IsRecurring {
		t.Error("chained row should stay recurring")
	}
	want := scheduled.AddDate(0, 0, 1)
	if !next.ScheduledTime.Equal(want) {
		t.Errorf("chained row should fire at %v, got %v", want, next.ScheduledTime)
	}

	// a second mark of the same row must not chain again
	if err := svc.MarkSent(ctx, 1, n.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second MarkSent: expected ErrNotFound, got %v", err)
	}
	var count int64
	if err := db.Model(&models.ScheduledNotification{}).
		Where("user_id = ? AND is_sent = ?", 1, false).Count(&count).Error; err != nil {
		t.Fatalf("count pending: %v", err)
	}
	if count != 1 {
		t.Errorf("expected the pending count to stay 1, got %d", count)
	}
}

func TestMarkSentNonRecurringDoesNotChain(t *testing.T) {
	db := openTestDB(t)
	svc := NewSmartNotificationService(db, config.DefaultThresholds(), nil, nil)
	ctx := context.Background()

	n := models.ScheduledNotification{
		UserID:           2,
		NotificationType: models.NotificationMealReminder,
		Title:            "Lunch Reminder",
		ScheduledTime:    time.Date(2026, 3, 16, 12, 0, 0, 0, time.Local),
	}
	if err := db.Create(&n).Error; err != nil {
		t.Fatalf("seed notification: %v", err)
	}

	if err := svc.MarkSent(ctx, 2, n.ID); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	var count int64
	if err := db.Model(&models.ScheduledNotification{}).
		Where("user_id = ? AND is_sent = ?", 2, false).Count(&count).Error; err != nil {
		t.Fatalf("count pending: %v", err)
	}
	if count != 0 {
		t.Errorf("one-shot rows should not chain, got %d pending", count)
	}

	// wrong owner never transitions rows
	if err := svc.MarkSent(ctx, 99, n.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign user id should get ErrNotFound, got %v", err)
	}
}
