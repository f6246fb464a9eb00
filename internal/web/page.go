package web

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"dimconv/internal/formats"
	"dimconv/internal/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const (
	RetryMessage      = "An error occurred while processing your request. Please try again."
	EmptyInputMessage = "Paste some dimension text to convert."

	maxFormBytes = 64 << 10
)

// Статусы панели результата.
const (
	StatusIdle    = "idle"
	StatusSuccess = "success"
	StatusError   = "error"
)

// Converter выполняет одну конвертацию, см. convert.Service.
type Converter interface {
	Convert(ctx context.Context, modeID, formatID, input string) (string, error)
}

// PageState всё, что нужно шаблону для одной отрисовки. Между запросами не хранится.
type PageState struct {
	Modes    []*formats.Mode
	Mode     *formats.Mode
	Formats  []formats.Format
	Selected string
	Input    string
	Status   string
	Result   string
	Error    string
}

type PageDeps struct {
	Converter Converter
	Catalog   *formats.Catalog
	Logger    *slog.Logger
}

type Page struct {
	converter Converter
	catalog   *formats.Catalog
	logger    *slog.Logger
	tmpl      *template.Template
}

func NewPage(deps PageDeps) (*Page, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	return &Page{
		converter: deps.Converter,
		catalog:   deps.Catalog,
		logger:    deps.Logger,
		tmpl:      tmpl,
	}, nil
}

// Index GET /?mode=...: пустая форма. Смена режима всегда сбрасывает результат.
func (p *Page) Index(w http.ResponseWriter, r *http.Request) {
	state := p.newState(r.URL.Query().Get("mode"), "")
	p.render(w, http.StatusOK, state)
}

// Submit POST /: ровно один запрос к провайдеру на непустой ввод.
func (p *Page) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		state := p.newState("", "")
		state.Status, state.Error = StatusError, RetryMessage
		p.render(w, http.StatusBadRequest, state)
		return
	}

	state := p.newState(r.PostForm.Get("mode"), r.PostForm.Get("format"))
	state.Input = r.PostForm.Get("dimensions")

	if strings.TrimSpace(state.Input) == "" {
		state.Status, state.Error = StatusError, EmptyInputMessage
		p.render(w, http.StatusOK, state)
		return
	}

	result, err := p.converter.Convert(r.Context(), state.Mode.ID, state.Selected, state.Input)
	if err != nil {
		p.logger.Warn("conversion failed",
			slog.String("mode", state.Mode.ID),
			slog.String("format", state.Selected),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("error", err.Error()),
		)
		state.Status, state.Error = StatusError, RetryMessage
		p.render(w, http.StatusOK, state)
		return
	}

	state.Status, state.Result = StatusSuccess, result
	p.render(w, http.StatusOK, state)
}

// newState выбирает режим и формат. Неизвестный режим даёт режим по умолчанию,
// формат не из режима даёт первый формат режима.
func (p *Page) newState(modeID, formatID string) PageState {
	mode := p.catalog.Mode(modeID)
	available := p.catalog.FormatsFor(mode)
	if !mode.Allows(formatID) {
		formatID = available[0].ID
	}
	return PageState{
		Modes:    p.catalog.Modes,
		Mode:     mode,
		Formats:  available,
		Selected: formatID,
		Status:   StatusIdle,
	}
}

func (p *Page) render(w http.ResponseWriter, status int, state PageState) {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, "index.html", state); err != nil {
		p.logger.Error("render page", slog.String("error", err.Error()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Static раздаёт встроенные css/js под /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
