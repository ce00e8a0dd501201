package telemetry

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	kgo "github.com/segmentio/kafka-go"
	"github.com/specialistvlad/intellisat/internal/ctxlog"
)

// MessageWriter is the part of *kafka.Writer the sink uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kgo.Message) error
	Close() error
}

// KafkaSink publishes events as JSON records keyed by task name, so all
// records of one duty land in the same partition in order.
type KafkaSink struct {
	writer  MessageWriter
	timeout time.Duration
}

// NewKafkaSink builds an asynchronous writer for topic on brokers.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	w := &kgo.Writer{
		Addr:         kgo.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kgo.LeastBytes{},
		RequiredAcks: kgo.RequireOne,
		Async:        true,
	}
	return NewKafkaSinkWithWriter(w)
}

// NewKafkaSinkWithWriter wraps an existing writer.
func NewKafkaSinkWithWriter(w MessageWriter) *KafkaSink {
	return &KafkaSink{writer: w, timeout: 3 * time.Second}
}

// Emit implements Sink. Failures are logged and dropped.
func (k *KafkaSink) Emit(ctx context.Context, ev Event) {
	logger := ctxlog.FromContext(ctx)
	b, err := json.Marshal(ev)
	if err != nil {
		logger.Warn("Failed to encode telemetry event.", "error", err)
		return
	}

	key := ev.Task
	if key == "" {
		key = string(ev.Kind)
	}

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), k.timeout)
	defer cancel()
	if err := k.writer.WriteMessages(cctx, kgo.Message{
		Key:   []byte(key),
		Value: b,
		Time:  ev.Time,
	}); err != nil {
		logger.Warn("Failed to publish telemetry event.", "error", err, "kind", ev.Kind)
	}
}

// Close flushes and closes the writer.
func (k *KafkaSink) Close() error { return k.writer.Close() }

// SplitBrokers parses a comma-separated broker list.
func SplitBrokers(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
