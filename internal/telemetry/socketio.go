package telemetry

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/specialistvlad/intellisat/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// SocketIOEvent is the socket.io event name telemetry is emitted under.
const SocketIOEvent = "telemetry"

// SocketIOConfig configures the ground-station stream.
type SocketIOConfig struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
}

// SocketIOSink streams events to a ground-station socket.io server.
type SocketIOSink struct {
	io *socket.Socket
}

// NewSocketIOSink connects to the configured server and waits for the
// connection to be acknowledged.
func NewSocketIOSink(ctx context.Context, cfg SocketIOConfig) (*SocketIOSink, error) {
	logger := ctxlog.FromContext(ctx).With("sink", "socketio", "url", cfg.URL)
	logger.Debug("Connecting telemetry stream.")

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 15 * time.Second
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(cfg.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("📡 Telemetry stream connected", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connectChan <- err
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return &SocketIOSink{io: io}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(cfg.ConnectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", cfg.ConnectTimeout)
	}
}

// Emit implements Sink. socket.io buffers the packet internally, so this
// returns without waiting for the server.
func (s *SocketIOSink) Emit(_ context.Context, ev Event) {
	s.io.Emit(SocketIOEvent, socketPayload(ev))
}

// Close disconnects from the server.
func (s *SocketIOSink) Close() error {
	s.io.Disconnect()
	return nil
}

func socketPayload(ev Event) map[string]any {
	payload := map[string]any{
		"kind": string(ev.Kind),
		"time": ev.Time.UTC().Format(time.RFC3339Nano),
	}
	if ev.Task != "" {
		payload["task"] = ev.Task
	}
	if ev.Tick != 0 {
		payload["tick"] = ev.Tick
	}
	if ev.Reboot != 0 {
		payload["reboot"] = ev.Reboot
	}
	if ev.Detail != "" {
		payload["detail"] = ev.Detail
	}
	return payload
}
