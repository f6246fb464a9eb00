package transport

import (
	"net"
	"net/http"
	"time"

	"dimconv/internal/middleware"
)

const (
	// UserAgent ставится на исходящие запросы, если SDK не поставил свой.
	UserAgent = "dimconv/1.0"

	headerRequestID = "X-Request-ID"
)

// NewHTTPClient возвращает клиент для исходящих запросов к LLM-провайдеру.
// timeout ограничивает весь запрос целиком, включая чтение ответа.
func NewHTTPClient(timeout time.Duration) *http.Client {
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &tagging{next: base},
	}
}

// tagging подписывает исходящий запрос: User-Agent и X-Request-ID входящего запроса.
type tagging struct {
	next http.RoundTripper
}

func (t *tagging) RoundTrip(req *http.Request) (*http.Response, error) {
	reqID := middleware.GetRequestID(req.Context())
	if req.Header.Get("User-Agent") != "" && (reqID == "" || req.Header.Get(headerRequestID) != "") {
		return t.next.RoundTrip(req)
	}

	// RoundTripper не должен менять исходный запрос.
	out := req.Clone(req.Context())
	if out.Header.Get("User-Agent") == "" {
		out.Header.Set("User-Agent", UserAgent)
	}
	if reqID != "" && out.Header.Get(headerRequestID) == "" {
		out.Header.Set(headerRequestID, reqID)
	}
	return t.next.RoundTrip(out)
}
