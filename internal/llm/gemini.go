package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient провайдер на Google Gemini API.
type GeminiClient struct {
	client *genai.Client
	params Params
}

// NewGeminiClient: пустой baseURL означает публичный endpoint Google.
func NewGeminiClient(ctx context.Context, apiKey, baseURL string, params Params, httpClient *http.Client) (*GeminiClient, error) {
	if params.Model == "" {
		params.Model = "gemini-1.5-flash"
	}

	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiClient{client: client, params: params}, nil
}

func (c *GeminiClient) Complete(ctx context.Context, messages []Message) (string, error) {
	system, contents := toGeminiContents(messages)
	if len(contents) == 0 {
		return "", ErrNoMessages
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(c.params.Temperature),
		MaxOutputTokens: genai.Ptr(int32(c.params.MaxTokens)),
	}
	if system != nil {
		config.SystemInstruction = system
	}

	result, err := c.client.Models.GenerateContent(ctx, c.params.Model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(result.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	content := result.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", nil
	}
	return content.Parts[0].Text, nil
}

// toGeminiContents раскладывает чат по ролям Gemini: system уходит в
// SystemInstruction, assistant становится model, всё прочее идёт как user.
func toGeminiContents(messages []Message) (*genai.Content, []*genai.Content) {
	var systemParts []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			systemParts = append(systemParts, m.Content)
		case RoleAssistant:
			contents = append(contents, &genai.Content{Role: "model", Parts: []*genai.Part{{Text: m.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: m.Content}}})
		}
	}

	if len(systemParts) == 0 {
		return nil, contents
	}
	return &genai.Content{Parts: []*genai.Part{{Text: strings.Join(systemParts, "\n\n")}}}, contents
}
