package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"dimconv/internal/config"
	"dimconv/internal/retry"
)

// New собирает клиента выбранного в конфиге провайдера.
// onRetry может быть nil.
func New(ctx context.Context, cfg config.LLMConfig, httpClient *http.Client, logger *slog.Logger, onRetry func(reason string)) (Client, error) {
	params := Params{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, params, httpClient)
	case config.ProviderHTTP:
		policy := retry.NewPolicy(cfg.MaxAttempts)
		policy.OnRetry = onRetry
		return NewHTTPClient(cfg.APIKey, cfg.BaseURL, params, policy, httpClient, logger), nil
	case config.ProviderGemini:
		params.Model = cfg.Gemini.Model
		return NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.BaseURL, params, httpClient)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
