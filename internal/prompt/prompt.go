package prompt

import (
	"errors"
	"fmt"

	"dimconv/internal/formats"
	"dimconv/internal/llm"
)

var ErrFormatNotAllowed = errors.New("format is not available in this mode")

// Build собирает пару system + user для одного запроса на конвертацию.
// Ввод пользователя не трогаем: ни trim, ни экранирования.
func Build(mode *formats.Mode, format formats.Format, input string) ([]llm.Message, error) {
	if !mode.Allows(format.ID) {
		return nil, fmt.Errorf("%w: mode %s, format %s", ErrFormatNotAllowed, mode.ID, format.ID)
	}

	user, err := mode.RenderUser(input, format)
	if err != nil {
		return nil, err
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Content: mode.SystemPrompt},
		{Role: llm.RoleUser, Content: user},
	}, nil
}
