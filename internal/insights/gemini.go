// Package insights generates cashier-facing texts with the Gemini API:
// upcoming retail events and sales trend summaries. Every path fails soft;
// when the API is unreachable a static fallback is served instead of an
// error.
package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/resilience"
)

// ErrUnavailable is returned when every model candidate failed.
var ErrUnavailable = errors.New("insights: generation unavailable")

// Public model aliases tried in order. The newest stable flash build first,
// then broader aliases.
var defaultModels = []string{
	"gemini-1.5-flash-002",
	"gemini-1.5-flash",
	"gemini-1.5-pro",
}

// GenerationConfig tunes one generation request.
type GenerationConfig struct {
	Temperature     float64
	TopP            float64
	MaxOutputTokens int
}

// GeminiClient calls the generateContent endpoint, walking a list of model
// candidates until one answers.
type GeminiClient struct {
	APIKey  string
	BaseURL string
	Models  []string
	HTTP    resilience.HTTPClient
	Logger  zerolog.Logger
}

// NewGeminiClient builds a client with sane outbound defaults.
func NewGeminiClient(apiKey, baseURL string, logger zerolog.Logger) *GeminiClient {
	return &GeminiClient{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Models:  defaultModels,
		HTTP: resilience.HTTPClient{
			Client:      &http.Client{Timeout: 30 * time.Second},
			Breaker:     resilience.NewBreaker(5, 0.5, 30*time.Second),
			BaseBackoff: time.Second,
			MaxAttempts: 2,
			Jitter:      0.2,
			Target:      "gemini",
			Logger:      &logger,
		},
		Logger: logger,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature,omitempty"`
		TopP            float64 `json:"topP,omitempty"`
		MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Generate runs the prompt against the first model candidate that answers and
// returns the generated text.
func (c *GeminiClient) Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
	if c == nil || c.APIKey == "" {
		return "", ErrUnavailable
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	}
	reqBody.GenerationConfig.Temperature = cfg.Temperature
	reqBody.GenerationConfig.TopP = cfg.TopP
	reqBody.GenerationConfig.MaxOutputTokens = cfg.MaxOutputTokens
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	models := c.Models
	if len(models) == 0 {
		models = defaultModels
	}
	var lastErr error = ErrUnavailable
	for _, model := range models {
		text, err := c.generateOnce(ctx, model, body)
		if err == nil {
			return text, nil
		}
		lastErr = err
		c.Logger.Warn().Str("model", model).Err(err).Msg("gemini model failed")
	}
	return "", lastErr
}

func (c *GeminiClient) generateOnce(ctx context.Context, model string, body []byte) (string, error) {
	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s", c.BaseURL, model, url.QueryEscape(c.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("insights: gemini status %d: %s", resp.StatusCode, detail)
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("insights: decode gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("insights: empty gemini candidate")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
