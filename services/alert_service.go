package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"backend/models"

	"gorm.io/gorm"
)

// AlertService persists monitoring alerts and fans them out to the
// realtime hub and the push channel. State machine per alert:
// triggered -> (read) -> dismissed | expired.
type AlertService struct {
	db   *gorm.DB
	hub  *RealtimeHub
	push *PushService
}

func NewAlertService(db *gorm.DB, hub *RealtimeHub, push *PushService) *AlertService {
	return &AlertService{db: db, hub: hub, push: push}
}

// AlertDraft is a rule evaluation result awaiting persistence.
type AlertDraft struct {
	Type     string
	Severity string
	Title    string
	Message  string
	Context  map[string]any
}

// AlertTTL returns the lifetime for an alert type: nutrition/pattern 7d,
// goal deviation 3d, health risk 14d.
func AlertTTL(alertType string) time.Duration {
	switch alertType {
	case models.AlertGoalDeviation:
		return 3 * 24 * time.Hour
	case models.AlertHealthRisk:
		return 14 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

// Create stores a new alert unless an active alert with the same
// (user, type, title) already exists; repeated monitoring runs must not
// pile up duplicates.
func (s *AlertService) Create(ctx context.Context, userID uint, draft AlertDraft) (*models.Alert, error) {
	now := time.Now()

	var existing int64
	err := s.db.WithContext(ctx).Model(&models.Alert{}).
		Where("user_id = ? AND alert_type = ? AND title = ? AND is_dismissed = ? AND (expires_at IS NULL OR expires_at > ?)",
			userID, draft.Type, draft.Title, false, now).
		Count(&existing).Error
	if err != nil {
		return nil, fmt.Errorf("check active alerts: %w", err)
	}
	if existing > 0 {
		return nil, nil // equivalent alert still active
	}

	ctxData, _ := json.Marshal(draft.Context)
	expires := now.Add(AlertTTL(draft.Type))
	alert := &models.Alert{
		UserID:      userID,
		AlertType:   draft.Type,
		Severity:    draft.Severity,
		Title:       draft.Title,
		Message:     draft.Message,
		Context:     ctxData,
		TriggeredAt: now,
		ExpiresAt:   &expires,
	}
	if err := s.db.WithContext(ctx).Create(alert).Error; err != nil {
		return nil, fmt.Errorf("create alert: %w", err)
	}

	if s.hub != nil {
		s.hub.BroadcastAlert(userID, map[string]any{
			"kind":  "alert.created",
			"alert": alert,
		})
	}
	if s.push != nil {
		s.push.PushToUser(ctx, userID, draft.Title, draft.Message, map[string]string{
			"type":    draft.Type,
			"alertId": fmt.Sprintf("%d", alert.ID),
		})
	}
	slog.Info("alert created", "user_id", userID, "type", draft.Type, "severity", draft.Severity)
	return alert, nil
}

// ActiveAlerts lists non-dismissed, non-expired alerts ordered by severity
// (critical first), then recency.
func (s *AlertService) ActiveAlerts(ctx context.Context, userID uint) ([]models.Alert, error) {
	var alerts []models.Alert
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_dismissed = ? AND (expires_at IS NULL OR expires_at > ?)",
			userID, false, time.Now()).
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("load alerts: %w", err)
	}
	SortAlerts(alerts)
	return alerts, nil
}

// SortAlerts orders alerts by severity rank descending, then by trigger
// time descending.
func SortAlerts(alerts []models.Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		ri, rj := models.SeverityRank(alerts[i].Severity), models.SeverityRank(alerts[j].Severity)
		if ri != rj {
			return ri > rj
		}
		return alerts[i].TriggeredAt.After(alerts[j].TriggeredAt)
	})
}

// Dismiss marks an alert dismissed; it no longer counts as active.
func (s *AlertService) Dismiss(ctx context.Context, userID, alertID uint) error {
	return s.setFlag(ctx, userID, alertID, "is_dismissed")
}

// MarkRead flags an alert as read without dismissing it.
func (s *AlertService) MarkRead(ctx context.Context, userID, alertID uint) error {
	return s.setFlag(ctx, userID, alertID, "is_read")
}

func (s *AlertService) setFlag(ctx context.Context, userID, alertID uint, column string) error {
	res := s.db.WithContext(ctx).Model(&models.Alert{}).
		Where("id = ? AND user_id = ?", alertID, userID).
		Update(column, true)
	if res.Error != nil {
		return fmt.Errorf("update alert: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
