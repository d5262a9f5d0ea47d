// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// SchedulerConfig provides settings for the asynq scheduler and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetNurtureRunInterval() time.Duration
}

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetDemoURL() string
}

// NurtureConfig provides settings for the nurture scheduler.
type NurtureConfig interface {
	GetNurturePageSize() int
	GetNurtureWorkerCount() int
	GetDispatchTimeout() time.Duration
	GetDispatchRatePerSecond() float64
	GetTracksConfigPath() string
	GetScoringConfigPath() string
}

// NotificationConfig provides settings for internal sales notifications.
type NotificationConfig interface {
	GetSalesAlertAddress() string
}

// MetricsConfig provides settings for the Prometheus metrics listener.
type MetricsConfig interface {
	GetMetricsAddr() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                   string
	DatabaseURL           string
	RedisURL              string
	RedisTLSInsecure      bool
	AsynqQueueName        string
	AsynqConcurrency      int
	NurtureRunInterval    time.Duration
	EmailEnabled          bool
	SMTPHost              string
	SMTPPort              int
	SMTPUsername          string
	SMTPPassword          string
	EmailFromName         string
	EmailFromAddress      string
	DemoURL               string
	SalesAlertAddress     string
	NurturePageSize       int
	NurtureWorkerCount    int
	DispatchTimeout       time.Duration
	DispatchRatePerSecond float64
	TracksConfigPath      string
	ScoringConfigPath     string
	MetricsAddr           string
}

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string                    { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool              { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string              { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int               { return c.AsynqConcurrency }
func (c *Config) GetNurtureRunInterval() time.Duration   { return c.NurtureRunInterval }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool      { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string        { return c.SMTPHost }
func (c *Config) GetSMTPPort() int           { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string    { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string    { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string   { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetDemoURL() string          { return c.DemoURL }

// NurtureConfig implementation
func (c *Config) GetNurturePageSize() int             { return c.NurturePageSize }
func (c *Config) GetNurtureWorkerCount() int          { return c.NurtureWorkerCount }
func (c *Config) GetDispatchTimeout() time.Duration   { return c.DispatchTimeout }
func (c *Config) GetDispatchRatePerSecond() float64   { return c.DispatchRatePerSecond }
func (c *Config) GetTracksConfigPath() string         { return c.TracksConfigPath }
func (c *Config) GetScoringConfigPath() string        { return c.ScoringConfigPath }

// NotificationConfig implementation
func (c *Config) GetSalesAlertAddress() string { return c.SalesAlertAddress }

// MetricsConfig implementation
func (c *Config) GetMetricsAddr() string { return c.MetricsAddr }

// Load reads configuration from the environment (and .env if present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")
	smtpHost := getEnv("SMTP_HOST", "")

	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		RedisURL:              getEnv("REDIS_URL", ""),
		RedisTLSInsecure:      strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:        getEnv("ASYNQ_QUEUE", "nurture"),
		AsynqConcurrency:      mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		NurtureRunInterval:    mustDuration(getEnv("NURTURE_RUN_INTERVAL", "24h")),
		EmailEnabled:          emailEnabled && smtpHost != "",
		SMTPHost:              smtpHost,
		SMTPPort:              mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:          getEnv("SMTP_USERNAME", ""),
		SMTPPassword:          getEnv("SMTP_PASSWORD", ""),
		EmailFromName:         getEnv("EMAIL_FROM_NAME", "FacilityIQ"),
		EmailFromAddress:      getEnv("EMAIL_FROM_ADDRESS", ""),
		DemoURL:               getEnv("DEMO_URL", "https://facilityiq.example.com/demo"),
		SalesAlertAddress:     getEnv("SALES_ALERT_ADDRESS", ""),
		NurturePageSize:       mustInt(getEnv("NURTURE_PAGE_SIZE", "200")),
		NurtureWorkerCount:    mustInt(getEnv("NURTURE_WORKER_COUNT", "4")),
		DispatchTimeout:       mustDuration(getEnv("DISPATCH_TIMEOUT", "15s")),
		DispatchRatePerSecond: mustFloat(getEnv("DISPATCH_RATE_PER_SECOND", "10")),
		TracksConfigPath:      getEnv("TRACKS_CONFIG_PATH", ""),
		ScoringConfigPath:     getEnv("SCORING_CONFIG_PATH", ""),
		MetricsAddr:           getEnv("METRICS_ADDR", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.NurturePageSize < 1 {
		return nil, fmt.Errorf("NURTURE_PAGE_SIZE must be positive")
	}
	if cfg.NurtureRunInterval <= 0 {
		return nil, fmt.Errorf("NURTURE_RUN_INTERVAL must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func mustInt(value string) int {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return parsed
}

func mustFloat(value string) float64 {
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func mustDuration(value string) time.Duration {
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return parsed
}
