// Package agent provisions conversational voice agents grounded in an
// uploaded document's text.
package agent

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
	defaultBaseURL = "https://api.play.ai/api/v1"
	defaultTimeout = 30 * time.Second

	// maxPromptLength caps the behavioral prompt sent on updates.
	maxPromptLength = 1000
)

// Fixed persona for document question answering.
const (
	personaDisplayName = "PDF Assistant"
	personaDescription = "An AI assistant that helps answer questions about your PDF document"
	personaGreeting    = "Hi! I can help answer questions about your PDF document, just press speak and ask me anything."
	personaPrompt      = "You are an AI assistant that helps users understand their PDF documents. " +
		"When they ask questions, use the provided critical knowledge (PDF content) to give accurate and helpful answers. " +
		"If the information isn't in the PDF content, let them know."
	personaVoice = "s3://voice-cloning-zero-shot/d9ff78ba-d016-47f6-b0ef-dd630f59414e/female-cs/manifest.json"
)

// Agent describes a provisioned agent.
type Agent struct {
	ID                string  `json:"id"`
	DisplayName       string  `json:"displayName"`
	Description       string  `json:"description"`
	Greeting          string  `json:"greeting"`
	Prompt            string  `json:"prompt"`
	CriticalKnowledge string  `json:"criticalKnowledge"`
	Voice             string  `json:"voice"`
	VoiceSpeed        float64 `json:"voiceSpeed"`
	Visibility        string  `json:"visibility"`
}

type createAgentRequest struct {
	Voice                           string  `json:"voice"`
	VoiceSpeed                      float64 `json:"voiceSpeed"`
	DisplayName                     string  `json:"displayName"`
	Description                     string  `json:"description"`
	Greeting                        string  `json:"greeting"`
	Prompt                          string  `json:"prompt"`
	CriticalKnowledge               string  `json:"criticalKnowledge"`
	Visibility                      string  `json:"visibility"`
	AnswerOnlyFromCriticalKnowledge bool    `json:"answerOnlyFromCriticalKnowledge"`
}

type updateAgentRequest struct {
	Prompt            string `json:"prompt,omitempty"`
	CriticalKnowledge string `json:"criticalKnowledge,omitempty"`
}

type agentResponse struct {
	ID string `json:"id"`
}

// Client calls the agent provisioning API.
type Client struct {
	apiKey     string
	userID     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates an agent API client. Credentials are validated on
// each call, not at construction.
func NewClient(apiKey, userID string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		userID:  userID,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.logger = c.logger.With("component", "agent")
	return c
}

// CreateAgent provisions an agent answering only from the given
// document text and returns its id.
func (c *Client) CreateAgent(ctx context.Context, pdfText string) (string, error) {
	if pdfText == "" {
		return "", ErrNoDocumentText
	}
	if c.apiKey == "" || c.userID == "" {
		return "", ErrMissingCredentials
	}

	reqBody := createAgentRequest{
		Voice:                           personaVoice,
		VoiceSpeed:                      1.0,
		DisplayName:                     personaDisplayName,
		Description:                     personaDescription,
		Greeting:                        personaGreeting,
		Prompt:                          personaPrompt,
		CriticalKnowledge:               pdfText,
		Visibility:                      "private",
		AnswerOnlyFromCriticalKnowledge: true,
	}

	var resp agentResponse
	if err := c.do(ctx, http.MethodPost, "/agents", reqBody, &resp); err != nil {
		return "", err
	}

	c.logger.Info("agent created",
		"agent_id", resp.ID,
		"knowledge_chars", len(pdfText),
	)

	return resp.ID, nil
}

// GetAgent fetches an agent by id.
func (c *Client) GetAgent(ctx context.Context, agentID string) (*Agent, error) {
	if agentID == "" {
		return nil, ErrNoAgentID
	}
	if c.apiKey == "" || c.userID == "" {
		return nil, ErrMissingCredentials
	}

	var agent Agent
	if err := c.do(ctx, http.MethodGet, "/agents/"+agentID, nil, &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

// UpdateAgent replaces an agent's document knowledge. The behavioral
// prompt is resent truncated to the API's prompt limit.
func (c *Client) UpdateAgent(ctx context.Context, agentID, pdfText string) error {
	if agentID == "" {
		return ErrNoAgentID
	}
	if pdfText == "" {
		return ErrNoDocumentText
	}
	if c.apiKey == "" || c.userID == "" {
		return ErrMissingCredentials
	}

	reqBody := updateAgentRequest{
		Prompt:            truncate(personaPrompt, maxPromptLength),
		CriticalKnowledge: pdfText,
	}

	if err := c.do(ctx, http.MethodPatch, "/agents/"+agentID, reqBody, nil); err != nil {
		return err
	}

	c.logger.Info("agent updated",
		"agent_id", agentID,
		"knowledge_chars", len(pdfText),
	)

	return nil
}

// DeleteAgent removes a provisioned agent.
func (c *Client) DeleteAgent(ctx context.Context, agentID string) error {
	if agentID == "" {
		return ErrNoAgentID
	}
	if c.apiKey == "" || c.userID == "" {
		return ErrMissingCredentials
	}

	if err := c.do(ctx, http.MethodDelete, "/agents/"+agentID, nil, nil); err != nil {
		return err
	}

	c.logger.Info("agent deleted", "agent_id", agentID)
	return nil
}

// do performs one JSON API request, decoding the response into out
// when it is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("agent: marshal request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("agent: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-User-Id", c.userID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("agent: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("agent: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(data),
		}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("agent: decode response: %w", err)
		}
	}
	return nil
}

// truncate clips s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	for len(string(runes)) > n {
		runes = runes[:len(runes)-1]
	}
	return string(runes)
}
