package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dimconv/internal/formats"
	"dimconv/internal/llm"
	"dimconv/internal/metrics"
	"dimconv/internal/prompt"
)

// Recorder принимает исход каждого вызова провайдера.
type Recorder interface {
	ObserveUpstream(provider, outcome string, status int, d time.Duration)
}

type ServiceDeps struct {
	Client   llm.Client
	Catalog  *formats.Catalog
	Provider string
	Metrics  Recorder
	Logger   *slog.Logger
}

// Service пробрасывает сообщения провайдеру и собирает промпты для формы и CLI.
type Service struct {
	client   llm.Client
	catalog  *formats.Catalog
	provider string
	metrics  Recorder
	logger   *slog.Logger
}

func NewService(deps ServiceDeps) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		client:   deps.Client,
		catalog:  deps.Catalog,
		provider: deps.Provider,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
	}
}

// Catalog каталог форматов, с которым работает сервис.
func (s *Service) Catalog() *formats.Catalog {
	return s.catalog
}

// Complete отправляет сообщения как есть и возвращает текст первого варианта.
// Ответ модели не валидируется.
func (s *Service) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	start := time.Now()
	answer, err := s.client.Complete(ctx, messages)
	elapsed := time.Since(start)

	if err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, context.Canceled) {
			outcome = metrics.OutcomeCanceled
		}
		status := llm.StatusCode(err)
		s.record(outcome, status, elapsed)
		s.logger.Error("llm request failed",
			slog.String("provider", s.provider),
			slog.Int("status", status),
			slog.Duration("duration", elapsed),
			slog.String("error", err.Error()),
		)
		return "", err
	}

	s.record(metrics.OutcomeSuccess, 200, elapsed)
	s.logger.Debug("llm request done",
		slog.String("provider", s.provider),
		slog.Int("messages", len(messages)),
		slog.Duration("duration", elapsed),
	)
	return answer, nil
}

// Convert строит промпт для режима и формата и выполняет один запрос.
func (s *Service) Convert(ctx context.Context, modeID, formatID, input string) (string, error) {
	mode, err := s.catalog.LookupMode(modeID)
	if err != nil {
		return "", err
	}
	format, err := s.catalog.Format(formatID)
	if err != nil {
		return "", err
	}
	messages, err := prompt.Build(mode, format, input)
	if err != nil {
		return "", fmt.Errorf("build prompt: %w", err)
	}
	return s.Complete(ctx, messages)
}

func (s *Service) record(outcome string, status int, d time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveUpstream(s.provider, outcome, status, d)
	}
}
