package llm

import (
	"context"
	"errors"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	ErrInvalidModel  = errors.New("model is required")
	ErrEmptyResponse = errors.New("model returned no choices")
	ErrNoMessages    = errors.New("no messages to send")
)

// Message одна реплика чата. Роль передаётся провайдеру без изменений.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client минимальный интерфейс провайдера chat-completion:
// отправить сообщения и вернуть текст первого варианта ответа.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Params фиксированные параметры генерации, добавляемые к каждому запросу.
type Params struct {
	Model       string
	Temperature float32
	MaxTokens   int
}
