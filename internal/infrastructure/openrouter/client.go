package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"autopilot/internal/domain"
	"autopilot/internal/ports"
)

const defaultTimeout = 120 * time.Second

// Client talks to the OpenRouter chat-completions endpoint.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.ChatClient = (*Client)(nil)

// NewClient builds the chat client for the given endpoint and key.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: defaultTimeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatPayload struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Usage          usageRequest    `json:"usage"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type usageRequest struct {
	Include bool `json:"include"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int      `json:"prompt_tokens"`
		CompletionTokens int      `json:"completion_tokens"`
		Cost             *float64 `json:"cost"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete performs one chat-completion request. There is no automatic retry;
// all failures map onto the typed stage errors.
func (c *Client) Complete(ctx context.Context, req ports.ChatRequest) (ports.ChatResult, error) {
	if c.apiKey == "" {
		return ports.ChatResult{}, domain.Stagef("chat", domain.ErrConfig, "api key is missing")
	}

	payload := chatPayload{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: req.Temperature,
		Usage:       usageRequest{Include: true},
	}
	if req.JSONResponse {
		payload.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return ports.ChatResult{}, fmt.Errorf("marshal chat payload: %w", err)
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return ports.ChatResult{}, fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ports.ChatResult{}, domain.StageFailure("chat", domain.ErrTimeout, err)
		}
		return ports.ChatResult{}, domain.StageFailure("chat", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ports.ChatResult{}, domain.StageFailure("chat", domain.ErrTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		return ports.ChatResult{}, domain.Stagef("chat", domain.ErrProvider,
			"status %d: %s", resp.StatusCode, truncate(raw, 300))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return ports.ChatResult{}, domain.StageFailure("chat", domain.ErrParse, err)
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return ports.ChatResult{}, domain.Stagef("chat", domain.ErrProvider, "%s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return ports.ChatResult{}, domain.Stagef("chat", domain.ErrParse, "response has no choices")
	}

	return ports.ChatResult{
		Text: parsed.Choices[0].Message.Content,
		Usage: domain.TokenUsage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalCost:        parsed.Usage.Cost,
		},
		Raw: raw,
	}, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
