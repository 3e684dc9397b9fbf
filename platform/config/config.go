// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"encoding/json"
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

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// AdminAuthConfig provides the optional operator token secret.
type AdminAuthConfig interface {
	GetAdminJWTSecret() string
}

// StoreConfig selects and configures the document store backend.
type StoreConfig interface {
	GetStoreBackend() string
	GetRedisURL() string
	GetRedisKeyPrefix() string
	GetDatabaseURL() string
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOBucket() string
	GetBadgerPath() string
}

// IntakeConfig provides the shared secrets guarding inbound webhooks.
type IntakeConfig interface {
	GetIntakeToken() string
	GetFBWebhookSecret() string
	GetCronSecret() string
}

// BookingConfig provides booking workflow settings.
type BookingConfig interface {
	GetBookingTimezone() string
	GetPriorityHoldWindow() time.Duration
	GetBookingLinkBaseURL() string
}

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetEmailProvider() string
	GetBrevoAPIKey() string
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// TelegramConfig provides Telegram bot settings.
type TelegramConfig interface {
	GetTelegramBotToken() string
	GetTelegramChatID() string
	GetTelegramAPIBaseURL() string
}

// CRMConfig provides GoHighLevel contact API settings.
type CRMConfig interface {
	GetGHLAPIKey() string
	GetGHLBaseURLs() []string
	GetGHLUserIDMap() map[string]string
	GetGHLFallbackUserID() string
}

// SchedulerConfig provides asynq settings.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// ReminderConfig provides cron specs for the periodic jobs.
type ReminderConfig interface {
	GetDayOfReminderCron() string
	GetHourBeforeReminderCron() string
	GetFollowupReminderCron() string
	GetTelegramDigestCron() string
	GetSLASweepCron() string
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig interface {
	GetMetricsEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env               string
	HTTPAddr          string
	CORSAllowAll      bool
	CORSOrigins       []string
	CORSAllowCreds    bool
	AdminJWTSecret    string
	ReferenceDataPath string

	StoreBackend   string
	RedisURL       string
	RedisKeyPrefix string
	DatabaseURL    string
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOUseSSL    bool
	MinIOBucket    string
	BadgerPath     string

	IntakeToken     string
	FBWebhookSecret string
	CronSecret      string

	BookingTimezone    string
	PriorityHoldWindow time.Duration
	BookingLinkBaseURL string

	EmailEnabled     bool
	EmailProvider    string
	BrevoAPIKey      string
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string

	TelegramBotToken   string
	TelegramChatID     string
	TelegramAPIBaseURL string

	GHLAPIKey         string
	GHLBaseURLs       []string
	GHLUserIDMap      map[string]string
	GHLFallbackUserID string

	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int

	DayOfReminderCron      string
	HourBeforeReminderCron string
	FollowupReminderCron   string
	TelegramDigestCron     string
	SLASweepCron           string

	MetricsEnabled bool
}

// =============================================================================
// Interface Implementations
// =============================================================================

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// AdminAuthConfig implementation
func (c *Config) GetAdminJWTSecret() string { return c.AdminJWTSecret }

// StoreConfig implementation
func (c *Config) GetStoreBackend() string   { return c.StoreBackend }
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisKeyPrefix() string { return c.RedisKeyPrefix }
func (c *Config) GetDatabaseURL() string    { return c.DatabaseURL }
func (c *Config) GetMinIOEndpoint() string  { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool      { return c.MinIOUseSSL }
func (c *Config) GetMinIOBucket() string    { return c.MinIOBucket }
func (c *Config) GetBadgerPath() string     { return c.BadgerPath }

// IntakeConfig implementation
func (c *Config) GetIntakeToken() string     { return c.IntakeToken }
func (c *Config) GetFBWebhookSecret() string { return c.FBWebhookSecret }
func (c *Config) GetCronSecret() string      { return c.CronSecret }

// BookingConfig implementation
func (c *Config) GetBookingTimezone() string           { return c.BookingTimezone }
func (c *Config) GetPriorityHoldWindow() time.Duration { return c.PriorityHoldWindow }
func (c *Config) GetBookingLinkBaseURL() string        { return c.BookingLinkBaseURL }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetEmailProvider() string    { return c.EmailProvider }
func (c *Config) GetBrevoAPIKey() string      { return c.BrevoAPIKey }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// TelegramConfig implementation
func (c *Config) GetTelegramBotToken() string   { return c.TelegramBotToken }
func (c *Config) GetTelegramChatID() string     { return c.TelegramChatID }
func (c *Config) GetTelegramAPIBaseURL() string { return c.TelegramAPIBaseURL }

// CRMConfig implementation
func (c *Config) GetGHLAPIKey() string               { return c.GHLAPIKey }
func (c *Config) GetGHLBaseURLs() []string           { return c.GHLBaseURLs }
func (c *Config) GetGHLUserIDMap() map[string]string { return c.GHLUserIDMap }
func (c *Config) GetGHLFallbackUserID() string       { return c.GHLFallbackUserID }

// SchedulerConfig implementation
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// ReminderConfig implementation
func (c *Config) GetDayOfReminderCron() string      { return c.DayOfReminderCron }
func (c *Config) GetHourBeforeReminderCron() string { return c.HourBeforeReminderCron }
func (c *Config) GetFollowupReminderCron() string   { return c.FollowupReminderCron }
func (c *Config) GetTelegramDigestCron() string     { return c.TelegramDigestCron }
func (c *Config) GetSLASweepCron() string           { return c.SLASweepCron }

// MetricsConfig implementation
func (c *Config) GetMetricsEnabled() bool { return c.MetricsEnabled }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	userIDMap, err := parseStringMap(getEnv("GHL_USER_ID_MAP_JSON", ""))
	if err != nil {
		return nil, fmt.Errorf("GHL_USER_ID_MAP_JSON: %w", err)
	}

	cfg := &Config{
		Env:               getEnv("APP_ENV", "development"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:      corsAllowAll,
		CORSOrigins:       corsOrigins,
		CORSAllowCreds:    strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		AdminJWTSecret:    getEnv("ADMIN_JWT_SECRET", ""),
		ReferenceDataPath: getEnv("REFERENCE_DATA_PATH", ""),

		StoreBackend:   strings.ToLower(getEnv("STORE_BACKEND", "memory")),
		RedisURL:       getEnv("REDIS_URL", ""),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "leadops:doc:"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:    strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOBucket:    getEnv("MINIO_BUCKET", "leadops-documents"),
		BadgerPath:     getEnv("BADGER_PATH", "./data/badger"),

		IntakeToken:     getEnv("CALLER_LEADS_INTAKE_TOKEN", ""),
		FBWebhookSecret: getEnv("LL_WEBHOOK_SECRET", ""),
		CronSecret:      getEnv("CRON_SECRET", ""),

		BookingTimezone:    getEnv("BOOKING_TIMEZONE", "America/New_York"),
		PriorityHoldWindow: mustDuration(getEnv("PRIORITY_HOLD_WINDOW", "24h")),
		BookingLinkBaseURL: getEnv("BOOKING_LINK_BASE_URL", "https://innercirclelink.com/sponsorship-booking"),

		EmailEnabled:     strings.EqualFold(getEnv("EMAIL_ENABLED", "false"), "true"),
		EmailProvider:    strings.ToLower(getEnv("EMAIL_PROVIDER", "brevo")),
		BrevoAPIKey:      getEnv("BREVO_API_KEY", ""),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Inner Circle"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),

		TelegramBotToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:     getEnv("TELEGRAM_CHAT_ID", ""),
		TelegramAPIBaseURL: getEnv("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),

		GHLAPIKey:         getEnv("GHL_API_KEY", ""),
		GHLBaseURLs:       splitCSV(getEnv("GHL_BASE_URLS", "https://services.leadconnectorhq.com,https://rest.gohighlevel.com/v1")),
		GHLUserIDMap:      userIDMap,
		GHLFallbackUserID: getEnv("GHL_FALLBACK_USER_ID", ""),

		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "leadops"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "2")),

		DayOfReminderCron:      getEnv("REMINDER_DAY_OF_CRON", "*/15 * * * *"),
		HourBeforeReminderCron: getEnv("REMINDER_HOUR_BEFORE_CRON", "*/10 * * * *"),
		FollowupReminderCron:   getEnv("REMINDER_FOLLOWUP_CRON", "0 * * * *"),
		TelegramDigestCron:     getEnv("REMINDER_TELEGRAM_DIGEST_CRON", "0 13 * * *"),
		SLASweepCron:           getEnv("ROUTER_SLA_CRON", "*/5 * * * *"),

		MetricsEnabled: strings.EqualFold(getEnv("METRICS_ENABLED", "true"), "true"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when STORE_BACKEND is redis")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND is postgres")
		}
	case "blob":
		if c.MinIOEndpoint == "" {
			return fmt.Errorf("MINIO_ENDPOINT is required when STORE_BACKEND is blob")
		}
	case "badger":
		if c.BadgerPath == "" {
			return fmt.Errorf("BADGER_PATH is required when STORE_BACKEND is badger")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.EmailEnabled {
		switch c.EmailProvider {
		case "brevo":
			if c.BrevoAPIKey == "" {
				return fmt.Errorf("BREVO_API_KEY is required when EMAIL_PROVIDER is brevo")
			}
		case "smtp":
			if c.SMTPHost == "" {
				return fmt.Errorf("SMTP_HOST is required when EMAIL_PROVIDER is smtp")
			}
		default:
			return fmt.Errorf("unknown EMAIL_PROVIDER %q", c.EmailProvider)
		}
		if c.EmailFromAddress == "" {
			return fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
		}
	}

	if _, err := time.LoadLocation(c.BookingTimezone); err != nil {
		return fmt.Errorf("BOOKING_TIMEZONE: %w", err)
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func parseStringMap(raw string) (map[string]string, error) {
	result := map[string]string{}
	if strings.TrimSpace(raw) == "" {
		return result, nil
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
