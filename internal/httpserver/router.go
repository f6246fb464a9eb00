package httpserver

import (
	"log/slog"
	"net/http"

	"dimconv/internal/metrics"
	"dimconv/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// PageHandlers страница формы, см. web.Page.
type PageHandlers interface {
	Index(w http.ResponseWriter, r *http.Request)
	Submit(w http.ResponseWriter, r *http.Request)
}

type RouterDeps struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics // nil: без /metrics и без HTTP-метрик
	Page    PageHandlers
	Static  http.Handler
	Convert http.Handler
	Formats http.Handler
}

// NewRouter собирает chi-роутер с общими middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	var observer middleware.HTTPObserver
	if deps.Metrics != nil {
		observer = deps.Metrics
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.Recover(deps.Logger))
	r.Use(middleware.Logging(deps.Logger, observer))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Get("/", deps.Page.Index)
	r.Post("/", deps.Page.Submit)
	r.Handle("/static/*", deps.Static)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/convert", deps.Convert)
		r.Method(http.MethodGet, "/formats", deps.Formats)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteJSONError(w, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	return r
}
