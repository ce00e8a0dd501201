package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	kgo "github.com/segmentio/kafka-go"
	"github.com/specialistvlad/intellisat/internal/ctxlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulti_FansOutAndStampsTime(t *testing.T) {
	t.Parallel()
	a, b := NewRecorder(0), NewRecorder(0)
	m := Multi{a, nil, b}

	m.Emit(context.Background(), Event{Kind: KindSelected, Task: "comms"})

	require.Len(t, a.Events(), 1)
	require.Len(t, b.Events(), 1)
	assert.False(t, a.Events()[0].Time.IsZero())
	assert.Equal(t, "comms", b.Filter(KindSelected)[0].Task)
}

func TestRecorder_Limit(t *testing.T) {
	t.Parallel()
	r := NewRecorder(2)
	for i := 1; i <= 3; i++ {
		r.Emit(context.Background(), Event{Kind: KindTick, Tick: uint64(i)})
	}
	events := r.Events()
	require.Len(t, events, 2)
	assert.Equal(t, uint64(2), events[0].Tick)
	assert.Equal(t, uint64(3), events[1].Tick)
}

func TestLogSink_WritesAttributes(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	LogSink{Level: slog.LevelInfo}.Emit(ctx, Event{Kind: KindAborted, Task: "hdd", Tick: 51, Detail: "preempted"})

	out := buf.String()
	assert.Contains(t, out, "kind=aborted")
	assert.Contains(t, out, "task=hdd")
	assert.Contains(t, out, "tick=51")
	assert.Contains(t, out, "detail=preempted")
}

// blockingSink blocks every Emit until release is closed.
type blockingSink struct {
	release chan struct{}
	rec     *Recorder
}

func (s *blockingSink) Emit(ctx context.Context, ev Event) {
	<-s.release
	s.rec.Emit(ctx, ev)
}

func TestBuffered_NeverBlocksAndDrains(t *testing.T) {
	t.Parallel()
	inner := &blockingSink{release: make(chan struct{}), rec: NewRecorder(0)}
	b := NewBuffered(context.Background(), inner, 2)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			b.Emit(context.Background(), Event{Kind: KindTick, Tick: uint64(i)})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a stalled sink")
	}
	assert.Positive(t, b.Dropped())

	close(inner.release)
	require.NoError(t, b.Close())
	assert.Equal(t, uint64(10), uint64(len(inner.rec.Events()))+b.Dropped())
}

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kgo.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kgo.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaSink_PublishesJSONKeyedByTask(t *testing.T) {
	t.Parallel()
	w := &fakeWriter{}
	sink := NewKafkaSinkWithWriter(w)
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	sink.Emit(context.Background(), Event{Kind: KindCompleted, Task: "ecc", Time: now})
	sink.Emit(context.Background(), Event{Kind: KindTick, Tick: 100, Time: now})

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "ecc", string(w.msgs[0].Key))
	assert.Equal(t, "tick", string(w.msgs[1].Key), "events without a task are keyed by kind")

	var decoded Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, KindCompleted, decoded.Kind)
	assert.True(t, now.Equal(decoded.Time))
}

func TestKafkaSink_WriteErrorIsContained(t *testing.T) {
	t.Parallel()
	w := &fakeWriter{err: errors.New("broker down")}
	sink := NewKafkaSinkWithWriter(w)

	assert.NotPanics(t, func() {
		sink.Emit(context.Background(), Event{Kind: KindPreempt})
	})
	require.NoError(t, sink.Close())
}

func TestSplitBrokers(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"a:9092", "b:9092"}, SplitBrokers(" a:9092, ,b:9092 "))
	assert.Empty(t, SplitBrokers(""))
}

func TestSocketPayload(t *testing.T) {
	t.Parallel()
	p := socketPayload(Event{Kind: KindBoot, Reboot: 3, Time: time.Unix(0, 0)})
	assert.Equal(t, "boot", p["kind"])
	assert.Equal(t, 3, p["reboot"])
	_, hasTask := p["task"]
	assert.False(t, hasTask)
}
