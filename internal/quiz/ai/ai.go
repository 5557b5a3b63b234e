// Package ai holds the clients for the external generation APIs.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds connection details for a generation provider.
type Config struct {
	Provider    string
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float64
	Timeout     time.Duration
}

// Generator sends one prompt and returns the model's raw text. Failures are
// *quiz.Error values of kind transport or envelope.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// New picks the provider named in cfg.
func New(cfg Config, logger zerolog.Logger) (Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("generator api key not configured")
	}
	switch cfg.Provider {
	case "", ProviderGemini:
		return NewGemini(cfg, logger), nil
	case ProviderOpenAI:
		return NewOpenAI(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown generator provider %q", cfg.Provider)
	}
}
