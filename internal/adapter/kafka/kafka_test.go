package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-data-explorer/internal/catalog"
	"github.com/couchcryptid/quake-data-explorer/internal/domain"
	"github.com/couchcryptid/quake-data-explorer/internal/observability"
)

type recordingWriter struct {
	mu      sync.Mutex
	batches [][]kafkago.Message
	failOn  int // 1-based batch number that fails; 0 never fails
	closed  bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failOn > 0 && len(w.batches)+1 == w.failOn {
		return errors.New("broker unavailable")
	}
	w.batches = append(w.batches, msgs)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSnapshot(n int) *catalog.Snapshot {
	events := make([]domain.Event, n)
	for i := range events {
		events[i] = domain.Event{
			ID:        "evt-" + string(rune('a'+i)),
			Row:       i,
			Magnitude: 7.0 + float64(i)/10,
			Year:      2020,
			Month:     i%12 + 1,
		}
	}
	return &catalog.Snapshot{
		Table:      domain.NewTable(events),
		Key:        "test",
		PreparedAt: time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC),
		Generation: 4,
	}
}

func TestSerializeToMessage(t *testing.T) {
	snap := testSnapshot(1)
	event := snap.Table.Events()[0]

	msg, err := serializeToMessage(event, snap)
	require.NoError(t, err)

	assert.Equal(t, []byte("evt-a"), msg.Key)
	var decoded domain.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.ID, decoded.ID)
	assert.InDelta(t, 7.0, decoded.Magnitude, 1e-9)

	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("earthquake"), msg.Headers[0].Value)
	assert.Equal(t, "prepared_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2024-04-26T15:10:00Z"), msg.Headers[1].Value)
	assert.Equal(t, "generation", msg.Headers[2].Key)
	assert.Equal(t, []byte("4"), msg.Headers[2].Value)
}

func TestPublish_Batches(t *testing.T) {
	w := &recordingWriter{}
	metrics := observability.NewMetricsForTesting()
	p := newPublisher(w, 2, discardLogger(), metrics)

	require.NoError(t, p.Publish(context.Background(), testSnapshot(5)))

	require.Len(t, w.batches, 3)
	assert.Len(t, w.batches[0], 2)
	assert.Len(t, w.batches[1], 2)
	assert.Len(t, w.batches[2], 1)
	assert.Equal(t, []byte("evt-e"), w.batches[2][0].Key)
}

func TestPublish_EmptySnapshot(t *testing.T) {
	w := &recordingWriter{}
	p := newPublisher(w, 10, discardLogger(), observability.NewMetricsForTesting())

	require.NoError(t, p.Publish(context.Background(), testSnapshot(0)))
	assert.Empty(t, w.batches)
}

func TestPublish_StopsOnWriteError(t *testing.T) {
	w := &recordingWriter{failOn: 2}
	p := newPublisher(w, 2, discardLogger(), observability.NewMetricsForTesting())

	err := p.Publish(context.Background(), testSnapshot(5))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish events 2-3")
	assert.Len(t, w.batches, 1)
}

func TestHook_SwallowsErrors(t *testing.T) {
	w := &recordingWriter{failOn: 1}
	p := newPublisher(w, 10, discardLogger(), observability.NewMetricsForTesting())

	assert.NotPanics(t, func() {
		p.Hook()(context.Background(), testSnapshot(3))
	})
	assert.Empty(t, w.batches)
}

func TestNewPublisher_ClampsBatchSize(t *testing.T) {
	p := newPublisher(&recordingWriter{}, 0, discardLogger(), observability.NewMetricsForTesting())
	assert.Equal(t, 1, p.batchSize)
}

func TestClose(t *testing.T) {
	w := &recordingWriter{}
	p := newPublisher(w, 1, discardLogger(), observability.NewMetricsForTesting())

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
