package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

type observed struct {
	method, route string
	status        int
}

type recordObserver struct {
	calls []observed
}

func (o *recordObserver) ObserveHTTP(method, route string, status int, d time.Duration) {
	o.calls = append(o.calls, observed{method: method, route: route, status: status})
}

func TestRequestIDGeneratedAndPropagated(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if seen == "" {
		t.Fatalf("expected request id in context")
	}
	if got := rr.Header().Get(headerRequestID); got != seen {
		t.Fatalf("response header %q does not match context id %q", got, seen)
	}
}

func TestRequestIDKeepsClientValue(t *testing.T) {
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(headerRequestID, "abc-123")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get(headerRequestID); got != "abc-123" {
		t.Fatalf("expected client id to be kept, got %q", got)
	}
}

func TestRecoverReturns500(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	h := Recover(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("POST", "/api/convert", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"code":"internal"`) {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
	if !strings.Contains(logs.String(), "panic recovered") {
		t.Fatalf("expected panic to be logged")
	}
}

func TestLoggingUsesRoutePattern(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	obs := &recordObserver{}

	r := chi.NewRouter()
	r.Use(Logging(logger, obs))
	r.Get("/api/formats/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/formats/format1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/ping", nil))

	if len(obs.calls) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(obs.calls))
	}
	if obs.calls[0].route != "/api/formats/{id}" || obs.calls[0].status != http.StatusTeapot {
		t.Fatalf("unexpected observation: %+v", obs.calls[0])
	}
	// /ping попадает в метрики, но не в лог.
	if strings.Count(logs.String(), `"msg":"request"`) != 1 {
		t.Fatalf("expected exactly one access log line, got: %s", logs.String())
	}
}
