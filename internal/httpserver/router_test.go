package httpserver

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"dimconv/internal/metrics"
)

type stubPage struct {
	index, submit int
}

func (p *stubPage) Index(w http.ResponseWriter, r *http.Request)  { p.index++ }
func (p *stubPage) Submit(w http.ResponseWriter, r *http.Request) { p.submit++ }

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})
}

func newTestRouter(m *metrics.Metrics, page *stubPage) http.Handler {
	return NewRouter(RouterDeps{
		Logger:  slog.New(slog.NewTextHandler(os.Stdout, nil)),
		Metrics: m,
		Page:    page,
		Static:  okHandler("static"),
		Convert: okHandler("convert"),
		Formats: okHandler("formats"),
	})
}

func TestRouterRoutes(t *testing.T) {
	page := &stubPage{}
	router := newTestRouter(metrics.New(), page)

	cases := []struct {
		method, path string
		status       int
		body         string
	}{
		{"GET", "/ping", 200, "pong"},
		{"POST", "/api/convert", 200, "convert"},
		{"GET", "/api/formats", 200, "formats"},
		{"GET", "/static/app.css", 200, "static"},
		{"GET", "/api/convert", 405, "method_not_allowed"},
		{"GET", "/nope", 404, "not_found"},
		{"GET", "/metrics", 200, "dimconv_http_requests_total"},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))
		if rr.Code != tc.status {
			t.Fatalf("%s %s: expected %d, got %d", tc.method, tc.path, tc.status, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), tc.body) {
			t.Fatalf("%s %s: body %q does not contain %q", tc.method, tc.path, rr.Body.String(), tc.body)
		}
		if rr.Header().Get("X-Request-ID") == "" {
			t.Fatalf("%s %s: missing request id", tc.method, tc.path)
		}
	}

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/?mode=metric", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/", nil))
	if page.index != 1 || page.submit != 1 {
		t.Fatalf("unexpected page calls: %+v", page)
	}
}

func TestRouterWithoutMetrics(t *testing.T) {
	router := newTestRouter(nil, &stubPage{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected /metrics to be absent, got %d", rr.Code)
	}
}
