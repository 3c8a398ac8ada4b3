package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	playAIBaseURL  = "https://api.play.ai/v1"
	providerPlayAI = "playai"
)

// Play.ai model IDs
const (
	// ModelPlayDialog is the conversational multi-speaker model.
	ModelPlayDialog = "PlayDialog"

	// ModelPlay3Mini is the low-latency single-speaker model.
	ModelPlay3Mini = "Play3.0-mini"
)

// PlayAI implements Provider for the Play.ai synthesis API.
type PlayAI struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewPlayAI creates a new Play.ai TTS provider.
func NewPlayAI(opts ...Option) (*PlayAI, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.ValidateWithVoice(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = playAIBaseURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &PlayAI{
		config:  cfg,
		client:  client,
		logger:  cfg.Logger.With("component", "tts.playai"),
		baseURL: baseURL,
	}, nil
}

// Synthesize converts text to audio, returning the complete MP3 buffer.
func (p *PlayAI) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	start := time.Now()

	url := fmt.Sprintf("%s/tts/stream", p.baseURL)

	body, err := json.Marshal(p.buildPayload(text))
	if err != nil {
		return nil, WrapError(providerPlayAI, fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerPlayAI, fmt.Errorf("create request: %w", err))
	}

	p.setHeaders(req)

	resp, err := p.doWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	latency := time.Since(start).Milliseconds()

	if resp.StatusCode != http.StatusOK {
		return nil, p.parseError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerPlayAI, fmt.Errorf("read response: %w", err))
	}
	if len(audio) == 0 {
		return nil, WrapError(providerPlayAI, ErrEmptyAudio)
	}

	p.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
		"model", p.config.Model,
	)

	return &AudioResult{
		Audio:       audio,
		ContentType: "audio/mpeg",
		CharCount:   len(text),
		LatencyMs:   latency,
		Duration:    estimateDuration(len(audio)),
	}, nil
}

// Health checks API connectivity and credential validity.
func (p *PlayAI) Health(ctx context.Context) error {
	url := fmt.Sprintf("%s/voices", p.baseURL)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return WrapError(providerPlayAI, err)
	}

	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	req.Header.Set("X-User-Id", p.config.UserID)

	resp, err := p.client.Do(req)
	if err != nil {
		return WrapError(providerPlayAI, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return p.parseError(resp)
	}

	return nil
}

// Close releases resources held by the provider.
func (p *PlayAI) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// VoiceID returns the configured voice ID.
func (p *PlayAI) VoiceID() string {
	return p.config.VoiceID
}

// buildPayload constructs the API request payload.
func (p *PlayAI) buildPayload(text string) map[string]interface{} {
	return map[string]interface{}{
		"model":        p.config.Model,
		"text":         text,
		"voice":        p.config.VoiceID,
		"outputFormat": p.config.OutputFormat,
		"speed":        p.config.Speed,
		"language":     p.config.Language,
	}
}

// setHeaders sets required HTTP headers.
func (p *PlayAI) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	req.Header.Set("X-User-Id", p.config.UserID)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
}

// doWithRetry performs the request with retry logic on 429 and 5xx.
func (p *PlayAI) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.config.RetryDelay * time.Duration(attempt)):
			}

			// Rewind the body for retry
			if req.GetBody != nil {
				req.Body, _ = req.GetBody()
			}
		}

		resp, err := p.client.Do(req)
		if err != nil {
			lastErr = WrapError(providerPlayAI, err)
			continue
		}

		if resp.StatusCode == 429 || resp.StatusCode >= 500 {
			lastErr = p.parseError(resp)
			p.logger.Warn("retrying request",
				"attempt", attempt+1,
				"status", resp.StatusCode,
			)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

// parseError reads and parses an error response.
func (p *PlayAI) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	var errResp struct {
		ErrorMessage string `json:"errorMessage"`
		Message      string `json:"message"`
	}

	message := string(body)
	if json.Unmarshal(body, &errResp) == nil {
		if errResp.ErrorMessage != "" {
			message = errResp.ErrorMessage
		} else if errResp.Message != "" {
			message = errResp.Message
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Provider:   providerPlayAI,
	}
}

// estimateDuration estimates playback duration from MP3 byte count,
// assuming the default 128kbps encoding.
func estimateDuration(byteCount int) time.Duration {
	const bytesPerSecond = 128000 / 8
	seconds := float64(byteCount) / float64(bytesPerSecond)
	return time.Duration(seconds * float64(time.Second))
}

// Verify PlayAI implements Provider at compile time.
var _ Provider = (*PlayAI)(nil)
