package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/codequiz/internal/quiz"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-2.0-flash"
)

// Gemini calls the generateContent endpoint with the prompt as a single user turn.
type Gemini struct {
	httpClient  *http.Client
	config      Config
	logger      zerolog.Logger
	generateURL string
}

var _ Generator = (*Gemini)(nil)

func NewGemini(cfg Config, logger zerolog.Logger) *Gemini {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = defaultGeminiBaseURL
	}
	model := strings.TrimPrefix(cfg.Model, "models/")
	if model == "" {
		model = defaultGeminiModel
	}

	return &Gemini{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		config:      cfg,
		logger:      logger.With().Str("component", "gemini_generator").Logger(),
		generateURL: fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", base, model, url.QueryEscape(cfg.APIKey)),
	}
}

// Generate returns the raw text of the first candidate part.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	payload := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
	}
	if g.config.Temperature > 0 {
		payload.GenerationConfig = &geminiGenerationConfig{Temperature: g.config.Temperature}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.generateURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", &quiz.Error{
			Kind:    quiz.KindTransport,
			Message: fmt.Sprintf("API request failed: %v", err),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", apiError(resp)
	}

	var genResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", &quiz.Error{
			Kind:    quiz.KindEnvelope,
			Message: fmt.Sprintf("unexpected API response structure: %v", err),
			Err:     quiz.ErrUnexpectedEnvelope,
		}
	}

	if len(genResp.Candidates) == 0 || genResp.Candidates[0].Content == nil ||
		len(genResp.Candidates[0].Content.Parts) == 0 || genResp.Candidates[0].Content.Parts[0].Text == "" {
		return "", &quiz.Error{
			Kind:    quiz.KindEnvelope,
			Message: "unexpected API response structure or no content generated",
			Err:     quiz.ErrUnexpectedEnvelope,
		}
	}

	text := genResp.Candidates[0].Content.Parts[0].Text
	g.logger.Debug().Int("bytes", len(text)).Msg("gemini output received")
	return text, nil
}

func apiError(resp *http.Response) *quiz.Error {
	msg := "Unknown API error"
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var errResp geminiErrorResponse
	if err := json.Unmarshal(raw, &errResp); err == nil && errResp.Error.Message != "" {
		msg = errResp.Error.Message
	}
	return &quiz.Error{
		Kind:    quiz.KindTransport,
		Message: fmt.Sprintf("API error: %d - %s", resp.StatusCode, msg),
		Status:  resp.StatusCode,
		Detail:  string(raw),
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature float64 `json:"temperature,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content *geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
