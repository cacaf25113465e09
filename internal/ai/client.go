// Package ai is the HTTP client for the story AI provider: text generation,
// enrichment, speech synthesis, and translation.
package ai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"encoding/json/v2"

	apperrors "github.com/fairytaleapp/fairytale-server/internal/errors"
	"github.com/fairytaleapp/fairytale-server/internal/ratelimit"
)

const (
	defaultRPS     = 2.0
	defaultBurst   = 4
	defaultTimeout = 120 * time.Second

	defaultMaxLength   = 500
	defaultTemperature = 0.8
	defaultVoice       = "child_friendly"
	defaultSpeed       = 1.0
)

// Config holds connection settings for the AI provider.
type Config struct {
	BaseURL string
	APIKey  string
	RPS     float64
	Burst   int
	Timeout time.Duration
}

// Client is a rate-limited AI provider client. Calls either complete fully
// or return a service error; callers never see partial results.
type Client struct {
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// New creates a new AI provider client.
func New(cfg Config, logger *slog.Logger) *Client {
	rps := cfg.RPS
	if rps <= 0 {
		rps = defaultRPS
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		http: &http.Client{
			Timeout: timeout,
		},
		limiter: ratelimit.New(rps, burst),
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

// doJSON posts a JSON body and returns the raw response bytes. The rate
// limiter is keyed per endpoint so a slow TTS call does not starve the
// cheaper text endpoints.
func (c *Client) doJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, path, "application/json", bytes.NewReader(body))
}

func (c *Client) do(ctx context.Context, path, contentType string, body io.Reader) ([]byte, error) {
	if err := c.limiter.Wait(ctx, path); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	c.logger.Debug("ai request", "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(data))
	}
	return data, nil
}

// GenerateText asks the provider for a new story from a prompt.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"prompt":      prompt,
		"max_length":  defaultMaxLength,
		"temperature": defaultTemperature,
	}

	data, err := c.doJSON(ctx, "/api/generate/text", payload)
	if err != nil {
		return "", apperrors.ServiceError("story generation failed", err)
	}

	var resp struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", apperrors.ServiceError("story generation failed", fmt.Errorf("parse response: %w", err))
	}
	if resp.Text == "" {
		return "", apperrors.ServiceError("story generation failed", fmt.Errorf("empty text in response"))
	}
	return resp.Text, nil
}

// Enrich rewrites a base story with richer style and dialogue.
func (c *Client) Enrich(ctx context.Context, story string) (string, error) {
	payload := map[string]any{
		"story":        story,
		"style":        "creative",
		"add_dialogue": true,
	}

	data, err := c.doJSON(ctx, "/api/llm/enrich", payload)
	if err != nil {
		return "", apperrors.ServiceError("story enrichment failed", err)
	}

	var resp struct {
		EnrichedStory string `json:"enrichedStory"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", apperrors.ServiceError("story enrichment failed", fmt.Errorf("parse response: %w", err))
	}
	if resp.EnrichedStory == "" {
		return "", apperrors.ServiceError("story enrichment failed", fmt.Errorf("empty story in response"))
	}
	return resp.EnrichedStory, nil
}

// SynthesizeAudio converts text to speech and returns raw audio bytes.
// With speakerWAV set, the provider clones that reference voice via the
// multipart variant; otherwise the default narrator voice is used.
func (c *Client) SynthesizeAudio(ctx context.Context, text string, speakerWAV []byte) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if len(speakerWAV) > 0 {
		data, err = c.synthesizeWithVoice(ctx, text, speakerWAV)
	} else {
		data, err = c.doJSON(ctx, "/api/tts/generate", map[string]any{
			"text":  text,
			"voice": defaultVoice,
			"speed": defaultSpeed,
		})
	}
	if err != nil {
		return nil, apperrors.ServiceError("audio synthesis failed", err)
	}
	if len(data) == 0 {
		return nil, apperrors.ServiceError("audio synthesis failed", fmt.Errorf("empty audio in response"))
	}
	return data, nil
}

func (c *Client) synthesizeWithVoice(ctx context.Context, text string, speakerWAV []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("text", text); err != nil {
		return nil, fmt.Errorf("write text field: %w", err)
	}
	part, err := w.CreateFormFile("speaker_wav", "speaker.wav")
	if err != nil {
		return nil, fmt.Errorf("create speaker_wav part: %w", err)
	}
	if _, err := part.Write(speakerWAV); err != nil {
		return nil, fmt.Errorf("write speaker_wav: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	return c.do(ctx, "/api/tts/generate", w.FormDataContentType(), &buf)
}

// Translate translates text to the target language, defaulting to English.
func (c *Client) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if targetLang == "" {
		targetLang = "en"
	}
	payload := map[string]any{
		"text":        text,
		"source_lang": "ko",
		"target_lang": targetLang,
	}

	data, err := c.doJSON(ctx, "/api/translate", payload)
	if err != nil {
		return "", apperrors.ServiceError("translation failed", err)
	}

	var resp struct {
		TranslatedText string `json:"translatedText"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", apperrors.ServiceError("translation failed", fmt.Errorf("parse response: %w", err))
	}
	if resp.TranslatedText == "" {
		return "", apperrors.ServiceError("translation failed", fmt.Errorf("empty translation in response"))
	}
	return resp.TranslatedText, nil
}

// Callback posts opaque data to the provider's callback hook and returns
// the raw response body.
func (c *Client) Callback(ctx context.Context, callbackData string) (string, error) {
	payload := map[string]any{
		"callback_data": callbackData,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	}

	data, err := c.doJSON(ctx, "/api/callback", payload)
	if err != nil {
		return "", apperrors.ServiceError("callback failed", err)
	}
	return string(data), nil
}
