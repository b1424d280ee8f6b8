package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"ENV", "ALLOWED_ORIGINS", "FRONTEND_URL", "FRONTEND_URL_2", "RATE_LIMIT_PER_MINUTE", "RATE_LIMIT_BLOCK", "GEMINI_MODEL", "MOOD_TIMEZONE", "CHAT_ENFORCE_PARTICIPANTS"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, 50, cfg.RateLimitPerMinute)
	assert.Zero(t, cfg.RateLimitBlock)
	assert.Equal(t, "gemini-2.0-flash-001", cfg.GeminiModel)
	assert.Equal(t, 30*time.Second, cfg.GeminiTimeout)
	assert.Equal(t, time.Local, cfg.MoodLocation)
	assert.False(t, cfg.ChatEnforceParticipants)
	assert.False(t, cfg.IsProduction())
	assert.Empty(t, cfg.AllowedHost)
}

func TestLoadProduction(t *testing.T) {
	t.Setenv("ENV", "Production")
	t.Setenv("HOST", "https://api.example.com:443/v1")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://www.example.com")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "120")
	t.Setenv("RATE_LIMIT_BLOCK", "15m")
	t.Setenv("MOOD_TIMEZONE", "UTC")
	t.Setenv("CHAT_ENFORCE_PARTICIPANTS", "true")

	cfg := Load()
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "api.example.com", cfg.AllowedHost)
	assert.Equal(t, []string{"https://app.example.com", "https://www.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitBlock)
	assert.Equal(t, time.UTC, cfg.MoodLocation)
	assert.True(t, cfg.ChatEnforceParticipants)
}

func TestCloudinaryEnabled(t *testing.T) {
	cfg := &Config{CloudinaryName: "demo", CloudinaryAPIKey: "key"}
	assert.False(t, cfg.CloudinaryEnabled())
	cfg.CloudinaryAPISecret = "secret"
	assert.True(t, cfg.CloudinaryEnabled())
}
