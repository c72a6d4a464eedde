package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "auto", cfg.LLMProvider)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModelID)
	assert.InDelta(t, 0.7, cfg.ChatTemperature, 0.0001)
	assert.Equal(t, 1000, cfg.ChatMaxTokens)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 30, cfg.BookingMeetingLengthMins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("CHAT_TEMPERATURE", "0.3")
	t.Setenv("CHAT_MAX_TOKENS", "512")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://synced.io, https://app.synced.io")
	t.Setenv("REDIS_TLS", "true")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.InDelta(t, 0.3, cfg.ChatTemperature, 0.0001)
	assert.Equal(t, 512, cfg.ChatMaxTokens)
	assert.Equal(t, 5*time.Second, cfg.LLMTimeout)
	assert.Equal(t, []string{"https://synced.io", "https://app.synced.io"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.RedisTLS)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("CHAT_MAX_TOKENS", "not-a-number")
	t.Setenv("CHAT_TEMPERATURE", "warm")
	t.Setenv("LLM_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 1000, cfg.ChatMaxTokens)
	assert.InDelta(t, 0.7, cfg.ChatTemperature, 0.0001)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
}
