package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, 30, cfg.SessionMaxInteractions)
	assert.Equal(t, 160, cfg.SMSMaxLength)
	assert.Equal(t, "openai", cfg.ModelProvider)
	assert.Equal(t, "sandbox", cfg.ATUsername)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("SESSION_MAX_INTERACTIONS", "10")
	t.Setenv("SMS_MAX_LENGTH", "140")
	t.Setenv("MODEL_PROVIDER", "anthropic")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 10, cfg.SessionMaxInteractions)
	assert.Equal(t, 140, cfg.SMSMaxLength)
	assert.Equal(t, "anthropic", cfg.ModelProvider)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("SESSION_TTL", "not-a-duration")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsNonPositiveLimits(t *testing.T) {
	t.Setenv("SMS_MAX_LENGTH", "0")
	_, err := Load()
	assert.Error(t, err)
}
