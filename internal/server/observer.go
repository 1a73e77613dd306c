package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/florianilch/modelcatalog/internal/catalog"
	"github.com/florianilch/modelcatalog/internal/observability/middleware"
)

// Observer receives notifications about model listing requests.
// Calls happen synchronously on the request goroutine, so implementations
// should not block. A panicking observer is recovered and logged.
type Observer interface {
	RequestReceived(ctx context.Context, r *http.Request)
	ResponseSent(ctx context.Context, status int, header http.Header, elapsed time.Duration)
	FetchFailed(ctx context.Context, err error)
}

// Observers fans notifications out to several observers in order.
type Observers []Observer

// Compile-time check that Observers implements Observer interface
var _ Observer = Observers(nil)

func (o Observers) RequestReceived(ctx context.Context, r *http.Request) {
	for _, obs := range o {
		notify(ctx, func() { obs.RequestReceived(ctx, r) })
	}
}

func (o Observers) ResponseSent(ctx context.Context, status int, header http.Header, elapsed time.Duration) {
	for _, obs := range o {
		notify(ctx, func() { obs.ResponseSent(ctx, status, header, elapsed) })
	}
}

func (o Observers) FetchFailed(ctx context.Context, err error) {
	for _, obs := range o {
		notify(ctx, func() { obs.FetchFailed(ctx, err) })
	}
}

type nopObserver struct{}

func (nopObserver) RequestReceived(context.Context, *http.Request)                {}
func (nopObserver) ResponseSent(context.Context, int, http.Header, time.Duration) {}
func (nopObserver) FetchFailed(context.Context, error)                            {}

// notify runs fn and swallows a panic so observers can never fail a request.
func notify(ctx context.Context, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.WarnContext(ctx, "observer panicked", "panic", r)
		}
	}()
	fn()
}

// sensitiveHeaders are logged with their values replaced.
var sensitiveHeaders = []string{
	"Authorization",
	"Cookie",
	"Proxy-Authorization",
	"Set-Cookie",
	"X-Api-Key",
}

const redacted = "[REDACTED]"

// LogObserver writes listing requests to a slog.Logger.
// Requests and responses are logged at debug level, fetch failures at error level.
type LogObserver struct {
	Logger *slog.Logger
}

// Compile-time check that LogObserver implements Observer interface
var _ Observer = (*LogObserver)(nil)

// NewLogObserver creates a LogObserver. A nil logger means slog.Default().
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{Logger: logger}
}

func (o *LogObserver) RequestReceived(ctx context.Context, r *http.Request) {
	requestID, _ := middleware.RequestIDFromContext(ctx)
	o.Logger.DebugContext(ctx, "model listing requested",
		slog.String("request_id", requestID),
		slog.String("method", r.Method),
		slog.String("url", r.URL.String()),
		headerAttr("headers", r.Header),
	)
}

func (o *LogObserver) ResponseSent(ctx context.Context, status int, header http.Header, elapsed time.Duration) {
	o.Logger.DebugContext(ctx, "model listing sent",
		slog.Int("status", status),
		slog.Duration("elapsed", elapsed),
		headerAttr("headers", header),
	)
}

func (o *LogObserver) FetchFailed(ctx context.Context, err error) {
	attrs := []any{slog.String("error", err.Error())}
	var fetchErr *catalog.FetchError
	if errors.As(err, &fetchErr) {
		attrs = append(attrs, slog.String("kind", string(fetchErr.Kind)))
	}
	o.Logger.ErrorContext(ctx, "failed to fetch model catalogs", attrs...)
}

// headerAttr renders headers as a sorted group with credentials redacted.
func headerAttr(key string, h http.Header) slog.Attr {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	slices.Sort(names)

	attrs := make([]slog.Attr, 0, len(names))
	for _, name := range names {
		if slices.Contains(sensitiveHeaders, http.CanonicalHeaderKey(name)) {
			attrs = append(attrs, slog.String(name, redacted))
			continue
		}
		values := h[name]
		if len(values) == 1 {
			attrs = append(attrs, slog.String(name, values[0]))
		} else {
			attrs = append(attrs, slog.Any(name, values))
		}
	}
	return slog.Attr{Key: key, Value: slog.GroupValue(attrs...)}
}
