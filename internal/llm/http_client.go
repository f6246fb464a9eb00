package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"dimconv/internal/retry"
)

// HTTPClient ходит в любой OpenAI-совместимый /chat/completions напрямую,
// без SDK. Подходит для OpenRouter, локальных Ollama/vLLM и т.п.
type HTTPClient struct {
	apiKey     string
	baseURL    string
	params     Params
	httpClient *http.Client
	policy     retry.Policy
	logger     *slog.Logger
}

func NewHTTPClient(apiKey, baseURL string, params Params, policy retry.Policy, httpClient *http.Client, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		params:     params,
		httpClient: httpClient,
		policy:     policy,
		logger:     logger,
	}
}

func (c *HTTPClient) Complete(ctx context.Context, messages []Message) (string, error) {
	if c.params.Model == "" {
		return "", ErrInvalidModel
	}
	if len(messages) == 0 {
		return "", ErrNoMessages
	}

	buf, err := json.Marshal(chatRequest{
		Model:       c.params.Model,
		Messages:    messages,
		Temperature: c.params.Temperature,
		MaxTokens:   c.params.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	resp, body, err := retry.DoHTTP(ctx, c.policy, c.logger, func(ctx context.Context) (*http.Response, []byte, error) {
		return c.do(ctx, buf)
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return parsed.Choices[0].Message.Content, nil
}

func (c *HTTPClient) do(ctx context.Context, payload []byte) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, fmt.Errorf("read response: %w", err)
	}
	return resp, body, nil
}

// StatusError неуспешный HTTP-статус от провайдера.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// StatusCode достаёт HTTP-статус провайдера из цепочки ошибок, 0 если его нет.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	var rse *retry.HTTPStatusError
	if errors.As(err, &rse) {
		return rse.StatusCode
	}
	return 0
}

// temperature сериализуется всегда: 0 значим и не должен пропадать из тела.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}
