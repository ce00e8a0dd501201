package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/specialistvlad/intellisat/internal/config"
	"github.com/specialistvlad/intellisat/internal/ctxlog"
	"github.com/specialistvlad/intellisat/internal/telemetry"
)

// newSink fans events out to the console and to every configured downlink.
// Network sinks sit behind a buffer so a slow link never stalls the kernel.
// A downlink that cannot be reached is logged and left out.
func (a *App) newSink(ctx context.Context, t config.Telemetry, extra telemetry.Sink) telemetry.Sink {
	logger := ctxlog.FromContext(ctx)
	sinks := telemetry.Multi{telemetry.LogSink{Level: slog.LevelDebug}}

	if t.SocketIOURL != "" {
		sio, err := telemetry.NewSocketIOSink(ctx, telemetry.SocketIOConfig{URL: t.SocketIOURL, Namespace: t.Namespace})
		if err != nil {
			logger.Warn("Telemetry stream unavailable, continuing without it.", "url", t.SocketIOURL, "error", err)
		} else {
			a.addSink(ctx, &sinks, sio, t.Buffer)
		}
	}
	if len(t.KafkaBrokers) > 0 {
		a.addSink(ctx, &sinks, telemetry.NewKafkaSink(t.KafkaBrokers, t.KafkaTopic), t.Buffer)
		logger.Debug("Kafka telemetry enabled.", "brokers", t.KafkaBrokers, "topic", t.KafkaTopic)
	}
	if extra != nil {
		sinks = append(sinks, extra)
	}
	return sinks
}

type closingSink interface {
	telemetry.Sink
	io.Closer
}

// addSink buffers s and registers both the buffer and s for closing, in
// that order, so queued events are flushed before the connection goes.
func (a *App) addSink(ctx context.Context, sinks *telemetry.Multi, s closingSink, size int) {
	buf := telemetry.NewBuffered(ctx, s, size)
	*sinks = append(*sinks, buf)
	a.closers = append(a.closers, buf, s)
}
