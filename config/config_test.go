package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("DUE_SOON_DAYS", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 7, cfg.DueSoonDays)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, DefaultReminderTemplate, cfg.ReminderTemplate)
	assert.False(t, cfg.TwilioEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CYCLE_MAX_ATTEMPTS", "5")
	t.Setenv("CYCLE_RETRY_DELAY", "250ms")
	t.Setenv("SCHEDULER_ENABLED", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("DUE_SOON_DAYS", "not-a-number")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 5, cfg.CycleMaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.CycleRetryDelay)
	assert.True(t, cfg.SchedulerEnabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 7, cfg.DueSoonDays)
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{SchedulerTimezone: "Not/AZone"}
	assert.Equal(t, time.UTC, cfg.Location())
}
