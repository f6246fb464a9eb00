package convert

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"dimconv/internal/formats"
	"dimconv/internal/httpserver"
	"dimconv/internal/llm"
)

// ErrorMessage единственный текст ошибки, который видит клиент.
const ErrorMessage = "An error occurred while processing your request."

const maxBodyBytes = 1 << 20

type Request struct {
	Messages []llm.Message `json:"messages"`
}

type Response struct {
	Result string `json:"result"`
}

// Handler POST /api/convert: пробрасывает messages провайдеру и отдаёт {"result": ...}.
// Любой сбой, от кривого тела до ответа провайдера, превращается в 500 с фиксированным сообщением.
func Handler(s *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			fail(w, s, "decode request", err)
			return
		}
		if len(req.Messages) == 0 {
			fail(w, s, "decode request", llm.ErrNoMessages)
			return
		}

		answer, err := s.Complete(r.Context(), req.Messages)
		if err != nil {
			httpserver.WriteJSONError(w, http.StatusInternalServerError, "upstream_error", ErrorMessage)
			return
		}

		httpserver.WriteJSON(w, http.StatusOK, Response{Result: answer})
	}
}

// fail пишет в лог причину и отдаёт клиенту обезличенный 500.
func fail(w http.ResponseWriter, s *Service, stage string, err error) {
	s.logger.Warn("convert request rejected", slog.String("stage", stage), slog.String("error", err.Error()))
	httpserver.WriteJSONError(w, http.StatusInternalServerError, "upstream_error", ErrorMessage)
}

type formatsResponse struct {
	Default string     `json:"default"`
	Modes   []modeView `json:"modes"`
}

type modeView struct {
	ID      string           `json:"id"`
	Label   string           `json:"label"`
	Formats []formats.Format `json:"formats"`
}

// FormatsHandler GET /api/formats: режимы и доступные в каждом шаблоны.
func FormatsHandler(c *formats.Catalog) http.HandlerFunc {
	resp := formatsResponse{Default: c.Mode("").ID}
	for _, m := range c.Modes {
		resp.Modes = append(resp.Modes, modeView{ID: m.ID, Label: m.Label, Formats: c.FormatsFor(m)})
	}
	return func(w http.ResponseWriter, r *http.Request) {
		httpserver.WriteJSON(w, http.StatusOK, resp)
	}
}
