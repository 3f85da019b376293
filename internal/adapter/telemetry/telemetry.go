// Package telemetry provides the fire-and-forget analytics emitter.
package telemetry

import (
	"log/slog"
)

// Logger emits analytics events as structured log lines. Emission never
// blocks and never fails the caller; a dropped event is acceptable, a
// failed generation run because of telemetry is not.
type Logger struct {
	log *slog.Logger
}

// New constructs a Logger emitter. A nil logger falls back to slog.Default.
func New(log *slog.Logger) *Logger {
	if log == nil {
		log = slog.Default()
	}
	return &Logger{log: log.With(slog.String("component", "telemetry"))}
}

// Emit records one event with its properties.
func (l *Logger) Emit(name string, props map[string]any) {
	attrs := make([]any, 0, len(props)+1)
	attrs = append(attrs, slog.String("event", name))
	for k, v := range props {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.log.Info("telemetry", attrs...)
}
