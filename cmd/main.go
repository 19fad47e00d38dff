package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backend/config"
	"backend/controllers"
	"backend/routes"
	"backend/services"
	"backend/utils"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()

	logger := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	config.InitDB()
	utils.InitAWS()
	db := config.DB

	redisOpt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("invalid Redis URL", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(redisOpt)

	hub := services.NewRealtimeHub()
	push := services.NewPushService(db, utils.SNSClient(), cfg.SNSFCMArn)

	dashboards := services.NewDashboardService(db, cfg.Thresholds)
	trends := services.NewTrendService(db, cfg.Thresholds)
	alerts := services.NewAlertService(db, hub, push)
	monitor := services.NewMonitorService(db, cfg.Thresholds, trends, alerts)
	meals := services.NewMealService(db, cfg.Thresholds, dashboards)
	sessions := services.NewSessionService(rdb)
	analyzer := services.NewRekognitionAnalyzer(utils.RekClient())
	notifications := services.NewNotificationService(db, cfg.Thresholds, hub, push, dashboards)
	smart := services.NewSmartNotificationService(db, cfg.Thresholds, trends, notifications)
	scheduler := services.NewSchedulerService(cfg, db, logger, notifications, smart, monitor)

	stopScheduler, err := scheduler.Start()
	if err != nil {
		logger.Error("scheduler start failed", "error", err)
		os.Exit(1)
	}
	defer stopScheduler()

	router := routes.SetupRouter(routes.Controllers{
		Dashboard:     controllers.NewDashboardController(dashboards),
		Meals:         controllers.NewMealController(meals, analyzer, sessions),
		Trends:        controllers.NewTrendController(trends, monitor),
		Alerts:        controllers.NewAlertController(alerts),
		Notifications: controllers.NewNotificationController(notifications, smart),
		Scheduler:     controllers.NewSchedulerController(scheduler),
		Realtime:      controllers.NewRealtimeController(hub),
		Devices:       controllers.NewDeviceController(push),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	if err := rdb.Close(); err != nil {
		logger.Error("redis close failed", "error", err)
	}
}
