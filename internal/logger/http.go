package logger

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// RequestFormatter is a chi middleware.LogFormatter that writes one
// structured line per request.
type RequestFormatter struct {
	log *slog.Logger
}

// NewRequestFormatter wraps log for use with middleware.RequestLogger.
func NewRequestFormatter(log *slog.Logger) *RequestFormatter {
	return &RequestFormatter{log: log}
}

func (f *RequestFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &requestEntry{
		log: f.log.With(
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr),
		),
	}
}

type requestEntry struct {
	log *slog.Logger
}

func (e *requestEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}
	e.log.Log(context.Background(), level, "request completed",
		slog.Int("status", status),
		slog.Int("bytes", bytes),
		slog.Int64("duration_ms", elapsed.Milliseconds()),
	)
}

func (e *requestEntry) Panic(v interface{}, stack []byte) {
	e.log.Error("request panicked",
		slog.Any("panic", v),
		slog.String("stack", string(stack)),
	)
}
