package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"backend/models"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port     string
	Env      string
	RedisURL string

	JWTSecret string

	AWSRegion string
	S3Bucket  string
	SESFrom   string
	SNSFCMArn string

	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioWhatsAppFrom string

	LogLevel  string
	LogFormat string
	Timezone  string

	WorkerConcurrency int

	Thresholds MonitorThresholds
	Schedule   ScheduleConfig
}

// Load reads configuration from the environment (.env honored if present).
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment")
	}

	return &Config{
		Port:     envOr("PORT", "8080"),
		Env:      envOr("ENV", "development"),
		RedisURL: envOr("REDIS_URL", "redis://localhost:6379/0"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		AWSRegion: envOr("AWS_REGION", "ap-south-1"),
		S3Bucket:  os.Getenv("S3_BUCKET"),
		SESFrom:   os.Getenv("SES_EMAIL"),
		SNSFCMArn: os.Getenv("SNS_FCM_ARN"),

		TwilioAccountSID:   os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:    os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioWhatsAppFrom: envOr("TWILIO_WHATSAPP_FROM", "+14155238886"),

		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "text"),
		Timezone:  envOr("TIMEZONE", "Local"),

		WorkerConcurrency: envIntOr("WORKER_CONCURRENCY", 5),

		Thresholds: DefaultThresholds(),
		Schedule:   DefaultSchedule(),
	}
}

// InitDB opens the Postgres connection and migrates the schema.
func InitDB() {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		envOr("DB_HOST", "localhost"),
		envOr("DB_USER", "postgres"),
		os.Getenv("DB_PASSWORD"),
		envOr("DB_NAME", "nutrition"),
		envOr("DB_PORT", "5432"),
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.NotificationPreference{},
		&models.Meal{},
		&models.MealItem{},
		&models.DailyGoal{},
		&models.DailySummary{},
		&models.BehaviorPattern{},
		&models.Alert{},
		&models.ScheduledNotification{},
		&models.NotificationLog{},
		&models.UserDevice{},
	)
	if err != nil {
		slog.Error("auto-migrate failed", "error", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
