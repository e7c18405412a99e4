package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL       string
	DBMaxIdleConns    int
	DBMaxOpenConns    int
	DBConnMaxLifetime time.Duration
	StoreTimeout      time.Duration

	JWTSecret          string
	CORSAllowedOrigins []string

	SchedulerEnabled  bool
	SchedulerCron     string
	SchedulerTimezone string
	SchedulerToken    string
	CycleMaxAttempts  int
	CycleRetryDelay   time.Duration
	CycleLockTTL      time.Duration
	DueSoonDays       int

	RedisAddr     string
	RedisPassword string

	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string

	GeminiAPIKey string
	GeminiModel  string

	InvitationTTL time.Duration

	ReminderTemplate string
	ReviewTemplate   string
	BirthdayTemplate string
}

const (
	DefaultReminderTemplate = "Hi {{name}}! It's been a while since your {{service_type}} with {{stylist}}. You're due in {{days}} days, shall we book you in?"
	DefaultReviewTemplate   = "Hi {{name}}, thanks for visiting {{stylist}} for your {{service_type}}! We'd love a quick review."
	DefaultBirthdayTemplate = "Happy birthday {{name}}! Treat yourself to a {{service_type}} with {{stylist}} this month."
)

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL:       getEnv("DB_URL", ""),
		DBMaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 50),
		DBConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		StoreTimeout:      getEnvAsDuration("STORE_TIMEOUT", 5*time.Second),

		JWTSecret:          getEnv("JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		SchedulerEnabled:  getEnvAsBool("SCHEDULER_ENABLED", false),
		SchedulerCron:     getEnv("SCHEDULER_CRON", "0 6 * * *"),
		SchedulerTimezone: getEnv("SCHEDULER_TIMEZONE", "UTC"),
		SchedulerToken:    getEnv("SCHEDULER_TOKEN", ""),
		CycleMaxAttempts:  getEnvAsInt("CYCLE_MAX_ATTEMPTS", 3),
		CycleRetryDelay:   getEnvAsDuration("CYCLE_RETRY_DELAY", 2*time.Second),
		CycleLockTTL:      getEnvAsDuration("CYCLE_LOCK_TTL", 10*time.Minute),
		DueSoonDays:       getEnvAsInt("DUE_SOON_DAYS", 7),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		TwilioAccountSID:  getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:   getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioPhoneNumber: getEnv("TWILIO_PHONE_NUMBER", ""),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		InvitationTTL: getEnvAsDuration("INVITATION_TTL", 7*24*time.Hour),

		ReminderTemplate: getEnv("REMINDER_TEMPLATE", DefaultReminderTemplate),
		ReviewTemplate:   getEnv("REVIEW_TEMPLATE", DefaultReviewTemplate),
		BirthdayTemplate: getEnv("BIRTHDAY_TEMPLATE", DefaultBirthdayTemplate),
	}
}

// Location resolves SchedulerTimezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.SchedulerTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TwilioEnabled reports whether SMS dispatch credentials are present.
func (c *Config) TwilioEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioPhoneNumber != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
