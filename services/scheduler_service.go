package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"backend/config"
	"backend/models"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// Background task types.
const (
	TaskMealReminderSweep = "reminders:sweep"
	TaskDailySummaries    = "summaries:daily"
	TaskWeeklySummaries   = "summaries:weekly"
	TaskMonthlyReports    = "reports:monthly"
	TaskDispatchPending   = "notifications:dispatch"
	TaskCleanup           = "maintenance:cleanup"
	TaskHealthCheck       = "health:check"
)

const cleanupRetention = 30 * 24 * time.Hour

// asynqLoggerAdapter wraps slog.Logger to satisfy asynq.Logger.
type asynqLoggerAdapter struct {
	logger *slog.Logger
}

func (a *asynqLoggerAdapter) Debug(args ...interface{}) { a.logger.Debug(fmt.Sprint(args...)) }
func (a *asynqLoggerAdapter) Info(args ...interface{})  { a.logger.Info(fmt.Sprint(args...)) }
func (a *asynqLoggerAdapter) Warn(args ...interface{})  { a.logger.Warn(fmt.Sprint(args...)) }
func (a *asynqLoggerAdapter) Error(args ...interface{}) { a.logger.Error(fmt.Sprint(args...)) }
func (a *asynqLoggerAdapter) Fatal(args ...interface{}) {
	a.logger.Error(fmt.Sprint(args...))
	panic(fmt.Sprint(args...))
}

// SchedulerService owns the periodic task timetable and the worker that
// executes it.
type SchedulerService struct {
	cfg           *config.Config
	db            *gorm.DB
	logger        *slog.Logger
	notifications *NotificationService
	smart         *SmartNotificationService
	monitor       *MonitorService

	running atomic.Bool
}

func NewSchedulerService(cfg *config.Config, db *gorm.DB, logger *slog.Logger, notifications *NotificationService, smart *SmartNotificationService, monitor *MonitorService) *SchedulerService {
	return &SchedulerService{
		cfg:           cfg,
		db:            db,
		logger:        logger,
		notifications: notifications,
		smart:         smart,
		monitor:       monitor,
	}
}

// Start launches the cron scheduler and the worker server in non-blocking
// mode and returns a stop function for graceful shutdown.
func (s *SchedulerService) Start() (stop func(), err error) {
	redisOpt, err := asynq.ParseRedisURI(s.cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	location, err := time.LoadLocation(s.cfg.Timezone)
	if err != nil {
		s.logger.Warn("invalid timezone, using UTC", "timezone", s.cfg.Timezone, "error", err)
		location = time.UTC
	}

	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: location,
			LogLevel: asynq.InfoLevel,
			Logger:   &asynqLoggerAdapter{logger: s.logger},
		},
	)

	entries := []struct {
		cron     string
		taskType string
		timeout  time.Duration
	}{
		{s.cfg.Schedule.MealReminderSweep, TaskMealReminderSweep, 5 * time.Minute},
		{s.cfg.Schedule.DailySummaries, TaskDailySummaries, 15 * time.Minute},
		{s.cfg.Schedule.WeeklySummaries, TaskWeeklySummaries, 15 * time.Minute},
		{s.cfg.Schedule.MonthlyReports, TaskMonthlyReports, 15 * time.Minute},
		{s.cfg.Schedule.DispatchPending, TaskDispatchPending, 5 * time.Minute},
		{s.cfg.Schedule.Cleanup, TaskCleanup, 5 * time.Minute},
		{s.cfg.Schedule.HealthCheck, TaskHealthCheck, time.Minute},
	}
	for _, e := range entries {
		task := asynq.NewTask(
			e.taskType,
			nil,
			asynq.MaxRetry(2),
			asynq.Timeout(e.timeout),
			asynq.Retention(24*time.Hour),
			asynq.Unique(time.Hour),
		)
		entryID, err := scheduler.Register(e.cron, task)
		if err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", e.taskType, err)
		}
		s.logger.Info("task scheduled", "type", e.taskType, "cron", e.cron, "entry_id", entryID)
	}

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:     s.cfg.WorkerConcurrency,
			ShutdownTimeout: 30 * time.Second,
			Logger:          &asynqLoggerAdapter{logger: s.logger},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskMealReminderSweep, s.handleMealReminderSweep)
	mux.HandleFunc(TaskDailySummaries, s.handleDailySummaries)
	mux.HandleFunc(TaskWeeklySummaries, s.handleWeeklySummaries)
	mux.HandleFunc(TaskMonthlyReports, s.handleMonthlyReports)
	mux.HandleFunc(TaskDispatchPending, s.handleDispatchPending)
	mux.HandleFunc(TaskCleanup, s.handleCleanup)
	mux.HandleFunc(TaskHealthCheck, s.handleHealthCheck)

	if err := scheduler.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}
	if err := srv.Start(mux); err != nil {
		scheduler.Shutdown()
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}
	s.running.Store(true)
	s.logger.Info("scheduler started", "tasks", len(entries), "timezone", location.String())

	return func() {
		s.running.Store(false)
		scheduler.Shutdown()
		srv.Shutdown()
	}, nil
}

// ---------- task handlers ----------

func (s *SchedulerService) handleMealReminderSweep(ctx context.Context, _ *asynq.Task) error {
	_, err := s.notifications.CheckAndSendMealReminders(ctx)
	return err
}

// handleDailySummaries sends each user's summary, refreshes their health
// monitoring and plans tomorrow's smart notifications. One user failing
// never aborts the rest.
func (s *SchedulerService) handleDailySummaries(ctx context.Context, _ *asynq.Task) error {
	userIDs, err := s.userIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range userIDs {
		if err := s.notifications.SendDailySummary(ctx, id); err != nil {
			s.logger.Error("daily summary failed", "user_id", id, "error", err)
		}
		if _, err := s.monitor.Run(ctx, id); err != nil {
			s.logger.Error("health monitoring failed", "user_id", id, "error", err)
		}
		if _, err := s.smart.GenerateSmartNotifications(ctx, id); err != nil {
			s.logger.Error("smart notification generation failed", "user_id", id, "error", err)
		}
	}
	return nil
}

func (s *SchedulerService) handleWeeklySummaries(ctx context.Context, _ *asynq.Task) error {
	userIDs, err := s.userIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range userIDs {
		if err := s.notifications.SendWeeklySummary(ctx, id); err != nil {
			s.logger.Error("weekly summary failed", "user_id", id, "error", err)
		}
	}
	return nil
}

// handleMonthlyReports runs daily but only acts on the first of the month.
func (s *SchedulerService) handleMonthlyReports(ctx context.Context, _ *asynq.Task) error {
	if time.Now().Day() != 1 {
		return nil
	}
	userIDs, err := s.userIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range userIDs {
		if err := s.notifications.SendMonthlyReport(ctx, id); err != nil {
			s.logger.Error("monthly report failed", "user_id", id, "error", err)
		}
	}
	return nil
}

func (s *SchedulerService) handleDispatchPending(ctx context.Context, _ *asynq.Task) error {
	sent, err := s.smart.DispatchDue(ctx)
	if err != nil {
		return err
	}
	if sent > 0 {
		s.logger.Info("pending notifications dispatched", "sent", sent)
	}
	return nil
}

func (s *SchedulerService) handleCleanup(ctx context.Context, _ *asynq.Task) error {
	removed, err := s.smart.CleanupOld(ctx, cleanupRetention)
	if err != nil {
		return err
	}
	s.logger.Info("cleanup finished", "removed", removed)
	return nil
}

func (s *SchedulerService) handleHealthCheck(ctx context.Context, _ *asynq.Task) error {
	status, err := s.Status(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("scheduler health",
		"running", status.Running,
		"users_total", status.UsersTotal,
		"users_verified", status.UsersVerified,
		"notifications_today", status.NotificationsToday)
	return nil
}

func (s *SchedulerService) userIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	if err := s.db.WithContext(ctx).Model(&models.User{}).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	return ids, nil
}

// ---------- status and manual triggers ----------

type SchedulerStatus struct {
	Running            bool  `json:"running"`
	UsersTotal         int64 `json:"users_total"`
	UsersVerified      int64 `json:"users_verified"`
	NotificationsToday int64 `json:"notifications_today"`
}

func (s *SchedulerService) Status(ctx context.Context) (*SchedulerStatus, error) {
	status := &SchedulerStatus{Running: s.running.Load()}

	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&status.UsersTotal).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("phone_verified = ?", true).
		Count(&status.UsersVerified).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.NotificationLog{}).
		Where("created_at >= ? AND status = ?", dayStart(time.Now()), models.StatusSent).
		Count(&status.NotificationsToday).Error; err != nil {
		return nil, err
	}
	return status, nil
}

// TriggerImmediateReminder bypasses the timetable for one user.
func (s *SchedulerService) TriggerImmediateReminder(ctx context.Context, userID uint, message string) error {
	return s.notifications.SendManualReminder(ctx, userID, message)
}

// TriggerReport sends the named report for one user right now.
func (s *SchedulerService) TriggerReport(ctx context.Context, userID uint, reportType string) error {
	switch reportType {
	case "daily":
		return s.notifications.SendDailySummary(ctx, userID)
	case "weekly":
		return s.notifications.SendWeeklySummary(ctx, userID)
	case "monthly":
		return s.notifications.SendMonthlyReport(ctx, userID)
	default:
		return fmt.Errorf("%w: unknown report type %q", ErrValidation, reportType)
	}
}
