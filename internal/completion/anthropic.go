// Package completion implements the remote completion collaborator as a
// client for the Anthropic Messages API.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/npcgate/npcgate/internal/schema"
)

const (
	defaultAPIBase = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"

	defaultModel     = "claude-3-5-haiku-20241022"
	defaultMaxTokens = 1024
	defaultTimeout   = 30 * time.Second
)

// Client makes direct HTTP calls to the Anthropic Messages API.
// It implements schema.Completer.
type Client struct {
	apiKey     string
	apiBase    string
	model      string
	maxTokens  int
	httpClient *http.Client
}

// Params configures a Client. Zero values fall back to defaults; only APIKey
// has no default.
type Params struct {
	APIKey    string
	APIBase   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

func NewClient(p Params) *Client {
	if p.APIBase == "" {
		p.APIBase = defaultAPIBase
	}
	if p.Model == "" {
		p.Model = defaultModel
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = defaultMaxTokens
	}
	if p.Timeout <= 0 {
		p.Timeout = defaultTimeout
	}
	return &Client{
		apiKey:     p.APIKey,
		apiBase:    p.APIBase,
		model:      p.Model,
		maxTokens:  p.MaxTokens,
		httpClient: &http.Client{Timeout: p.Timeout},
	}
}

func (c *Client) Model() string { return c.model }

// Configured reports whether an API key is present.
func (c *Client) Configured() bool { return c.apiKey != "" }

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Messages  []wireMessage `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete sends the transcript and system prompt and returns the reply text.
// Failures are typed: ErrNoAPIKey, *TransportError, *ServiceError,
// *ProtocolError.
func (c *Client) Complete(ctx context.Context, turns []schema.Turn, systemPrompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	reqBody := messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    systemPrompt,
		Messages:  make([]wireMessage, 0, len(turns)),
	}
	for _, t := range turns {
		reqBody.Messages = append(reqBody.Messages, wireMessage{
			Role:    string(t.Role),
			Content: t.Content,
		})
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiBase+"/v1/messages", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &ServiceError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 200)}
	}

	var parsed messagesResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &ProtocolError{Reason: "invalid JSON response"}
	}
	if len(parsed.Content) == 0 || parsed.Content[0].Text == "" {
		return "", &ProtocolError{Reason: "no text content in response"}
	}
	return parsed.Content[0].Text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
