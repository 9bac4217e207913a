package config

import (
	"path/filepath"
	"time"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App          AppConfig
	Paths        PathsConfig
	Database     DatabaseConfig
	Telegram     TelegramConfig
	Subscription SubscriptionConfig
	WorkerPool   WorkerPoolConfig
}

type AppConfig struct {
	Version     string
	Port        string
	Debug       bool
	Environment string
}

type PathsConfig struct {
	BaseDir string
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string // File path for SQLite, DB Name for Postgres
}

type TelegramConfig struct {
	BotToken      string
	AdminID       int64
	UpdateTimeout int // Long-poll timeout in seconds
	Currency      string
}

type WorkerPoolConfig struct {
	Size      int
	QueueSize int
}

type SubscriptionConfig struct {
	Period          time.Duration // Access granted per payment
	InviteTTL       time.Duration // Lifetime of a minted invite link
	RenewalWindow   time.Duration // Lookahead for expiry offers
	ScanInterval    time.Duration // Expiry scanner tick
	DiscountPercent int           // Renewal discount, whole percent
}

// Global provides access to the loaded configuration globally.
var Global *Config

// LoadConfig loads configuration from environment variables or defaults.
func LoadConfig() (*Config, error) {
	baseDir := getEnv("APP_BASE_DIR", "storages")

	appCfg := AppConfig{
		Version:     "v1.2.0",
		Port:        getEnv("APP_PORT", "3000"),
		Debug:       getEnvBool("APP_DEBUG", false),
		Environment: getEnv("APP_ENV", "development"),
	}

	pathsCfg := PathsConfig{
		BaseDir: baseDir,
	}

	dbCfg := DatabaseConfig{
		Driver:   getEnv("DB_DRIVER", "sqlite"),
		Name:     getEnv("DB_NAME", filepath.Join(baseDir, "subgate.db")),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
	}

	tgCfg := TelegramConfig{
		BotToken:      getEnv("SUBGATE_BOT_TOKEN", ""),
		AdminID:       getEnvInt64("SUBGATE_ADMIN_ID", 0),
		UpdateTimeout: getEnvInt("SUBGATE_UPDATE_TIMEOUT", 30),
		Currency:      getEnv("SUBGATE_CURRENCY", "XTR"),
	}

	subCfg := SubscriptionConfig{
		Period:          time.Duration(getEnvInt("SUBGATE_PERIOD_DAYS", 30)) * 24 * time.Hour,
		InviteTTL:       time.Duration(getEnvInt("SUBGATE_INVITE_TTL_DAYS", 32)) * 24 * time.Hour,
		RenewalWindow:   time.Duration(getEnvInt("SUBGATE_RENEWAL_WINDOW_HOURS", 48)) * time.Hour,
		ScanInterval:    time.Duration(getEnvInt("SUBGATE_SCAN_INTERVAL_MINUTES", 60)) * time.Minute,
		DiscountPercent: getEnvInt("SUBGATE_DISCOUNT_PERCENT", 10),
	}

	poolCfg := WorkerPoolConfig{
		Size:      getEnvInt("SUBGATE_UPDATE_WORKERS", 4),
		QueueSize: getEnvInt("SUBGATE_UPDATE_QUEUE", 128),
	}

	cfg := &Config{
		App:          appCfg,
		Paths:        pathsCfg,
		Database:     dbCfg,
		Telegram:     tgCfg,
		Subscription: subCfg,
		WorkerPool:   poolCfg,
	}

	Global = cfg
	return cfg, nil
}
