package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"AI_API_KEY": "secret"})
	require.NoError(t, err)

	assert.Equal(t, "codequiz", cfg.Name)
	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, 1200*time.Millisecond, cfg.Quiz.FeedbackDelay)
	assert.Equal(t, 2*time.Second, cfg.Quiz.NoticeDuration)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Contains(t, cfg.CORS.AllowedHeaders, "X-Client-ID")
}

func TestLoadRequiresAPIKey(t *testing.T) {
	_, err := LoadFrom(map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AI_API_KEY")
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"AI_API_KEY":          "secret",
		"AI_PROVIDER":         "openai",
		"QUIZ_FEEDBACK_DELAY": "300ms",
		"REDIS_ADDR":          "localhost:6379",
	})
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, 300*time.Millisecond, cfg.Quiz.FeedbackDelay)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}
