package cli

import (
	"context"
	"fmt"
	"log/slog"

	"dimconv/internal/config"
	"dimconv/internal/convert"
	"dimconv/internal/formats"
	"dimconv/internal/llm"
	"dimconv/internal/metrics"
	"dimconv/internal/transport"
)

// newService собирает convert.Service из конфига. m может быть nil.
func newService(ctx context.Context, cfg config.Config, logger *slog.Logger, m *metrics.Metrics) (*convert.Service, error) {
	catalog, err := formats.LoadFile(cfg.FormatsFile)
	if err != nil {
		return nil, fmt.Errorf("load formats: %w", err)
	}

	var onRetry func(string)
	var recorder convert.Recorder
	if m != nil {
		onRetry = m.Retry
		recorder = m
	}

	httpClient := transport.NewHTTPClient(cfg.RequestTimeout)
	client, err := llm.New(ctx, cfg.LLM, httpClient, logger, onRetry)
	if err != nil {
		return nil, fmt.Errorf("init llm client: %w", err)
	}

	return convert.NewService(convert.ServiceDeps{
		Client:   client,
		Catalog:  catalog,
		Provider: cfg.LLM.Provider,
		Metrics:  recorder,
		Logger:   logger,
	}), nil
}
