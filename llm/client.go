package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"apitui/config"
)

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64

	// No client-side timeout: streamed responses can legitimately run
	// for minutes. Cancellation happens through the request context.
	httpClient *http.Client
}

// Options configures a Client. HTTPClient is optional and exists for
// tests; when nil, http.DefaultClient semantics apply (no timeout).
type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	HTTPClient  *http.Client
}

func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		apiKey:      opts.APIKey,
		model:       opts.Model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		httpClient:  hc,
	}
}

// FromConfig builds a Client from the resolved LLM configuration.
func FromConfig(cfg config.LLMConfig) *Client {
	return NewClient(Options{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})
}

func (c *Client) Model() string {
	return c.model
}

// StatusError reports a non-200 response to the completions endpoint.
// Body carries the response payload for error classification.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("chat completions request failed: %s: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("chat completions request failed: %s", e.Status)
}

// StreamChat opens a streaming chat completion. The returned Stream
// must be closed by the caller. Tools may be nil.
func (c *Client) StreamChat(ctx context.Context, messages []ChatMessage, tools []Tool) (*Stream, error) {
	reqBody := ChatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Stream:      true,
	}
	if len(tools) > 0 {
		reqBody.Tools = tools
		reqBody.ToolChoice = "auto"
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[LLM] POST %s/chat/completions model=%s messages=%d tools=%d",
			c.baseURL, c.model, len(messages), len(tools))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat completions request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{
			Code:   resp.StatusCode,
			Status: resp.Status,
			Body:   strings.TrimSpace(string(body)),
		}
	}

	return newStream(resp.Body), nil
}
