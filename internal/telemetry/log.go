package telemetry

import (
	"context"
	"log/slog"

	"github.com/specialistvlad/intellisat/internal/ctxlog"
)

// LogSink writes events as structured log lines. It is the console sink of
// the flight build.
type LogSink struct {
	Level slog.Level
}

// Emit implements Sink.
func (s LogSink) Emit(ctx context.Context, ev Event) {
	logger := ctxlog.FromContext(ctx)
	attrs := []any{"kind", string(ev.Kind)}
	if ev.Task != "" {
		attrs = append(attrs, "task", ev.Task)
	}
	if ev.Tick != 0 {
		attrs = append(attrs, "tick", ev.Tick)
	}
	if ev.Reboot != 0 {
		attrs = append(attrs, "reboot", ev.Reboot)
	}
	if ev.Detail != "" {
		attrs = append(attrs, "detail", ev.Detail)
	}
	logger.Log(ctx, s.Level, "Telemetry event.", attrs...)
}
