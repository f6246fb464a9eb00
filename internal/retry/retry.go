package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const (
	defaultBaseDelay      = 500 * time.Millisecond
	defaultMaxDelay       = 8 * time.Second
	defaultMultiplier     = 2.0
	defaultJitterFraction = 0.30
	defaultSnippetLimit   = 200
)

type (
	Sleeper  func(ctx context.Context, d time.Duration) error
	NowFunc  func() time.Time
	RandFunc func() float64
	// DoFunc выполняет одну попытку и возвращает ответ с уже прочитанным телом.
	DoFunc func(ctx context.Context) (*http.Response, []byte, error)
)

// Policy описывает повторы исходящего запроса.
// MaxAttempts == 1 означает ровно один запрос без повторов.
type Policy struct {
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	MaxAttempts    int
	JitterFraction float64
	SnippetLimit   int
	Sleep          Sleeper
	Now            NowFunc
	Rand           RandFunc
	// OnRetry вызывается перед каждой паузой, reason совпадает с полем в логе.
	OnRetry func(reason string)
}

// NewPolicy возвращает политику с экспоненциальной паузой и заданным числом попыток.
func NewPolicy(maxAttempts int) Policy {
	return withDefaults(Policy{MaxAttempts: maxAttempts})
}

type HTTPStatusError struct {
	StatusCode  int
	BodySnippet string
}

func (e *HTTPStatusError) Error() string {
	if e.BodySnippet == "" {
		return fmt.Sprintf("transient status %d", e.StatusCode)
	}
	return fmt.Sprintf("transient status %d: %s", e.StatusCode, e.BodySnippet)
}

type ExhaustedError struct {
	Cause    error
	Attempts int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry attempts exhausted after %d: %v", e.Attempts, e.Cause)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Cause
}

// DoHTTP выполняет do, повторяя его на 408/429/5xx и временных сетевых ошибках.
// Ответы с прочими статусами возвращаются вызывающему как есть.
func DoHTTP(ctx context.Context, policy Policy, logger *slog.Logger, do DoFunc) (*http.Response, []byte, error) {
	policy = withDefaults(policy)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		resp, body, err := do(ctx)
		if err == nil && resp == nil {
			return nil, nil, errors.New("nil response from http client")
		}

		o := classify(ctx, policy, resp, body, err)
		if !o.retryable {
			return resp, body, err
		}
		if attempt >= policy.MaxAttempts {
			return resp, body, &ExhaustedError{Cause: o.cause, Attempts: attempt}
		}

		var delay time.Duration
		if o.retryAfterSet {
			delay = min(o.retryAfter, policy.MaxDelay)
		} else {
			delay = policy.jitter(policy.backoff(attempt))
		}

		logRetry(logger, attempt+1, policy.MaxAttempts, o, delay)
		if policy.OnRetry != nil {
			policy.OnRetry(o.reason)
		}
		if err := policy.Sleep(ctx, delay); err != nil {
			return nil, nil, err
		}
	}
}

type outcome struct {
	retryable     bool
	reason        string
	status        int
	snippet       string
	cause         error
	retryAfter    time.Duration
	retryAfterSet bool
}

func classify(ctx context.Context, p Policy, resp *http.Response, body []byte, err error) outcome {
	if err != nil {
		if !isRetryableNetErr(ctx, err) {
			return outcome{}
		}
		return outcome{retryable: true, reason: reasonForNetErr(err), cause: err}
	}
	if !isRetryableStatus(resp.StatusCode) {
		return outcome{}
	}
	snippet := bodySnippet(body, p.SnippetLimit)
	o := outcome{
		retryable: true,
		reason:    reasonForStatus(resp.StatusCode),
		status:    resp.StatusCode,
		snippet:   snippet,
		cause:     &HTTPStatusError{StatusCode: resp.StatusCode, BodySnippet: snippet},
	}
	o.retryAfter, o.retryAfterSet = parseRetryAfter(resp.Header, p.Now())
	return o
}

func withDefaults(p Policy) Policy {
	if p.BaseDelay <= 0 {
		p.BaseDelay = defaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = defaultMaxDelay
	}
	if p.Multiplier <= 0 {
		p.Multiplier = defaultMultiplier
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.JitterFraction <= 0 {
		p.JitterFraction = defaultJitterFraction
	}
	if p.SnippetLimit <= 0 {
		p.SnippetLimit = defaultSnippetLimit
	}
	if p.Sleep == nil {
		p.Sleep = sleepCtx
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.Rand == nil {
		p.Rand = rand.New(rand.NewSource(time.Now().UnixNano())).Float64
	}
	return p
}

func (p Policy) backoff(attempt int) time.Duration {
	delay := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(max(attempt, 1)-1))
	return time.Duration(math.Min(delay, float64(p.MaxDelay)))
}

// jitter сдвигает паузу на ±JitterFraction.
func (p Policy) jitter(delay time.Duration) time.Duration {
	if delay <= 0 {
		return delay
	}
	factor := 1 + (p.Rand()*2-1)*p.JitterFraction
	return time.Duration(math.Max(float64(delay)*factor, 0))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(header http.Header, now time.Time) (time.Duration, bool) {
	value := strings.TrimSpace(header.Get("Retry-After"))
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(max(seconds, 0)) * time.Second, true
	}
	if at, err := http.ParseTime(value); err == nil {
		return max(at.Sub(now), 0), true
	}
	return 0, false
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func reasonForStatus(status int) string {
	switch status {
	case http.StatusTooManyRequests:
		return "rate limit"
	case http.StatusRequestTimeout:
		return "timeout"
	default:
		return "upstream 5xx"
	}
}

func isRetryableNetErr(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return false
	}
	// Дедлайн клиента при живом контексте вызывающего считаем временной ошибкой.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection reset")
}

func reasonForNetErr(err error) string {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return "eof"
	case errors.Is(err, syscall.ECONNRESET), strings.Contains(strings.ToLower(err.Error()), "connection reset"):
		return "connection reset"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	return "network error"
}

func logRetry(logger *slog.Logger, attempt, maxAttempts int, o outcome, delay time.Duration) {
	if logger == nil {
		return
	}
	args := []any{
		slog.Int("attempt", attempt),
		slog.Int("max_attempts", maxAttempts),
		slog.String("reason", o.reason),
		slog.Duration("retry_in", delay),
		slog.Bool("retry_after_used", o.retryAfterSet),
	}
	if o.status > 0 {
		args = append(args, slog.Int("status", o.status))
	}
	if o.snippet != "" {
		args = append(args, slog.String("snippet", o.snippet))
	}
	logger.Warn("retrying llm request", args...)
}

func bodySnippet(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit])
}
