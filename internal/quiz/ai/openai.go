package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/gokatarajesh/codequiz/internal/quiz"
)

// OpenAI targets any OpenAI-compatible chat completion endpoint.
type OpenAI struct {
	client *openai.Client
	config Config
	logger zerolog.Logger
}

var _ Generator = (*OpenAI)(nil)

func NewOpenAI(cfg Config, logger zerolog.Logger) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(clientCfg),
		config: cfg,
		logger: logger.With().Str("component", "openai_generator").Logger(),
	}
}

// Generate returns the content of the first choice.
func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if o.config.Temperature > 0 {
		req.Temperature = float32(o.config.Temperature)
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", requestError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &quiz.Error{
			Kind:    quiz.KindEnvelope,
			Message: "unexpected API response structure or no content generated",
			Err:     quiz.ErrUnexpectedEnvelope,
		}
	}

	text := resp.Choices[0].Message.Content
	o.logger.Debug().Int("bytes", len(text)).Msg("openai output received")
	return text, nil
}

func requestError(err error) *quiz.Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = "Unknown API error"
		}
		return &quiz.Error{
			Kind:    quiz.KindTransport,
			Message: fmt.Sprintf("API error: %d - %s", apiErr.HTTPStatusCode, msg),
			Status:  apiErr.HTTPStatusCode,
			Err:     err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &quiz.Error{
			Kind:    quiz.KindTransport,
			Message: fmt.Sprintf("API error: %d - Unknown API error", reqErr.HTTPStatusCode),
			Status:  reqErr.HTTPStatusCode,
			Err:     err,
		}
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &quiz.Error{
			Kind:    quiz.KindTransport,
			Message: fmt.Sprintf("API request failed: %v", err),
			Err:     err,
		}
	}

	// A success status whose body does not decode as a completion.
	return &quiz.Error{
		Kind:    quiz.KindEnvelope,
		Message: "unexpected API response structure or no content generated",
		Detail:  err.Error(),
		Err:     fmt.Errorf("%w: %w", quiz.ErrUnexpectedEnvelope, err),
	}
}
