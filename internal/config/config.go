package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across commands.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"codequiz"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	LogLevel                string        `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	AI    AI
	Quiz  Quiz
	Redis Redis
	CORS  CORS
}

// AI configures the generation API.
type AI struct {
	Provider    string        `env:"AI_PROVIDER" envDefault:"gemini"`
	BaseURL     string        `env:"AI_BASE_URL" envDefault:""`
	Model       string        `env:"AI_MODEL" envDefault:""`
	APIKey      string        `env:"AI_API_KEY,notEmpty"`
	Temperature float64       `env:"AI_TEMPERATURE" envDefault:"0"`
	HTTPTimeout time.Duration `env:"AI_HTTP_TIMEOUT" envDefault:"60s"`
}

// Quiz groups session pacing and housekeeping.
type Quiz struct {
	FeedbackDelay  time.Duration `env:"QUIZ_FEEDBACK_DELAY" envDefault:"1200ms"`
	NoticeDuration time.Duration `env:"QUIZ_NOTICE_DURATION" envDefault:"2s"`
	ProgressTick   time.Duration `env:"QUIZ_PROGRESS_TICK" envDefault:"500ms"`
	FetchTimeout   time.Duration `env:"QUIZ_FETCH_TIMEOUT" envDefault:"90s"`
	SessionIdleTTL time.Duration `env:"QUIZ_SESSION_IDLE_TTL" envDefault:"30m"`
	SweepInterval  time.Duration `env:"QUIZ_SWEEP_INTERVAL" envDefault:"1m"`
}

// Redis is optional; when Addr is empty the in-flight guard stays in memory.
type Redis struct {
	Addr     string        `env:"REDIS_ADDR" envDefault:""`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	PoolSize int           `env:"REDIS_POOL_SIZE" envDefault:"20"`
	LockTTL  time.Duration `env:"REDIS_ATTEMPT_LOCK_TTL" envDefault:"2m"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,X-Client-ID"`
	MaxAge         int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load() (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// LoadFrom parses config from an explicit environment map.
func LoadFrom(environ map[string]string) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true, Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
