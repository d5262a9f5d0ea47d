// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithTrack returns a logger scoped to a nurture track.
func (l *Logger) WithTrack(track string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("track", track)),
	}
}

// DispatchError logs a failed stage email dispatch.
func (l *Logger) DispatchError(track, stage, subscriberID string, err error) {
	l.Warn("dispatch_error",
		slog.String("track", track),
		slog.String("stage", stage),
		slog.String("subscriber_id", subscriberID),
		slog.String("error", err.Error()),
	)
}

// RunReport logs the outcome of a full nurture run.
func (l *Logger) RunReport(advanced, errorCount int, trackFailures int) {
	l.Info("nurture_run",
		slog.Int("advanced", advanced),
		slog.Int("errors", errorCount),
		slog.Int("track_failures", trackFailures),
	)
}

// EngagementEvent logs a recorded engagement event.
func (l *Logger) EngagementEvent(subscriberID, eventType string, points, accumulator, score int) {
	l.Info("engagement_event",
		slog.String("subscriber_id", subscriberID),
		slog.String("event_type", eventType),
		slog.Int("points", points),
		slog.Int("accumulator", accumulator),
		slog.Int("score", score),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}
