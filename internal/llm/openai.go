package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient провайдер на go-openai SDK.
type OpenAIClient struct {
	client *openai.Client
	params Params
}

// NewOpenAIClient не требует ключа: без него провайдер ответит 401 на первом запросе.
func NewOpenAIClient(apiKey, baseURL string, params Params, httpClient *http.Client) (*OpenAIClient, error) {
	if params.Model == "" {
		return nil, ErrInvalidModel
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		params: params,
	}, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", ErrNoMessages
	}

	req := openai.ChatCompletionRequest{
		Model:       c.params.Model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
		Temperature: sdkTemperature(c.params.Temperature),
		MaxTokens:   c.params.MaxTokens,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &StatusError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return "", &StatusError{StatusCode: reqErr.HTTPStatusCode, Body: reqErr.Error()}
		}
		return "", fmt.Errorf("create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// sdkTemperature: SDK выкидывает temperature == 0 из JSON (omitempty),
// и провайдер тогда берёт свой дефолт 1.0.
func sdkTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}
