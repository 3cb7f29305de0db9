package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Environment   string `mapstructure:"ENV"`
	DBDSN         string `mapstructure:"DB_DSN"`
	TelegramToken string `mapstructure:"TELEGRAM_TOKEN"`
	HTTPAddr      string `mapstructure:"HTTP_ADDR"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogFile  string `mapstructure:"LOG_FILE"`

	BackupDir  string `mapstructure:"BACKUP_DIR"`
	BackupCron string `mapstructure:"BACKUP_CRON"`
	DigestCron string `mapstructure:"DIGEST_CRON"`

	WeeklyQuota        int `mapstructure:"WEEKLY_QUOTA"`
	DefaultDurationMin int `mapstructure:"DEFAULT_DURATION_MIN"`

	AdminPassword     string `mapstructure:"ADMIN_PASSWORD"`
	NotifyQueueSize   int    `mapstructure:"NOTIFY_QUEUE_SIZE"`
	MigrationsEnabled bool   `mapstructure:"MIGRATIONS_ENABLED"`
}

var keys = []string{
	"ENV", "DB_DSN", "TELEGRAM_TOKEN", "HTTP_ADDR",
	"LOG_LEVEL", "LOG_FILE",
	"BACKUP_DIR", "BACKUP_CRON", "DIGEST_CRON",
	"WEEKLY_QUOTA", "DEFAULT_DURATION_MIN",
	"ADMIN_PASSWORD", "NOTIFY_QUEUE_SIZE", "MIGRATIONS_ENABLED",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("BACKUP_DIR", "backups")
	v.SetDefault("BACKUP_CRON", "0 3 * * *")
	v.SetDefault("DIGEST_CRON", "0 18 * * 0")
	v.SetDefault("WEEKLY_QUOTA", 3)
	v.SetDefault("DEFAULT_DURATION_MIN", 15)
	v.SetDefault("ADMIN_PASSWORD", "admin")
	v.SetDefault("NOTIFY_QUEUE_SIZE", 64)
	v.SetDefault("MIGRATIONS_ENABLED", true)
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	// Отсутствие .env не ошибка, значения берутся из окружения
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	// AutomaticEnv не видит ключи без дефолта при Unmarshal
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет обязательные поля и диапазоны
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DBDSN) == "" {
		errs = append(errs, errors.New("DB_DSN is required but not set"))
	}
	if c.WeeklyQuota <= 0 {
		errs = append(errs, fmt.Errorf("WEEKLY_QUOTA must be positive, got %d", c.WeeklyQuota))
	}
	if c.DefaultDurationMin <= 0 || c.DefaultDurationMin > 1440 {
		errs = append(errs, fmt.Errorf("DEFAULT_DURATION_MIN must be within 1..1440, got %d", c.DefaultDurationMin))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}
