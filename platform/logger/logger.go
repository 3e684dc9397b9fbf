// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// JobKey is the context key for the reminder/scheduler job name
	JobKey contextKey = "job"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter creates a logger writing to w. Tests pass io.Discard.
func NewWithWriter(env string, w io.Writer) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return NewWithWriter("production", io.Discard)
}

// WithContext returns a logger with request_id and job extracted from ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = newLogger.WithRequestID(requestID)
	}

	if job, ok := ctx.Value(JobKey).(string); ok && job != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("job", job))}
	}

	return newLogger
}

// WithRequestID returns a logger with request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("request_id", requestID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// HTTPError logs an HTTP error
func (l *Logger) HTTPError(method, path string, status int, err error, clientIP string) {
	l.Error("http_error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
		slog.String("client_ip", clientIP),
	)
}

// StoreError logs a document store failure
func (l *Logger) StoreError(operation, document string, err error) {
	l.Error("store_error",
		slog.String("operation", operation),
		slog.String("document", document),
		slog.String("error", err.Error()),
	)
}

// RoutingDecision logs a lead assignment
func (l *Logger) RoutingDecision(leadID, assignedTo, reason string) {
	l.Info("routing_decision",
		slog.String("lead_id", leadID),
		slog.String("assigned_to", assignedTo),
		slog.String("reason", reason),
	)
}

// IntegrationFailure logs a swallowed best-effort side effect
func (l *Logger) IntegrationFailure(integration string, err error, attrs ...any) {
	args := append([]any{
		slog.String("integration", integration),
		slog.String("error", err.Error()),
	}, attrs...)
	l.Warn("integration_failure", args...)
}

// ReminderBatch logs the outcome of one reminder job run
func (l *Logger) ReminderBatch(job string, scanned, sent, failed int) {
	l.Info("reminder_batch",
		slog.String("job", job),
		slog.Int("scanned", scanned),
		slog.Int("sent", sent),
		slog.Int("failed", failed),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
