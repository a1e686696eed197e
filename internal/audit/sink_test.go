package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSink_WritesOneJSONLinePerEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	sink, err := NewFileSink("telescope-booking", path)
	require.NoError(t, err)

	sink.Record(EventReservationCreated, map[string]any{"id": 1, "instrument_id": 2})
	sink.Record(EventReservationCancelled, map[string]any{"id": 1})
	require.NoError(t, sink.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev), "each line must be standalone JSON")
		events = append(events, ev)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, events, 2)

	assert.Equal(t, EventReservationCreated, events[0].EventType)
	assert.Equal(t, EventReservationCancelled, events[1].EventType)
	for _, ev := range events {
		assert.Equal(t, "AUDIT", ev.Level)
		assert.Equal(t, "telescope-booking", ev.Service)
		assert.NotEmpty(t, ev.EventID)
		assert.NotEmpty(t, ev.TimestampUTC)
	}
}

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *captureWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error { return nil }

func TestKafkaSink_RecordPublishesKeyedEvent(t *testing.T) {
	w := &captureWriter{}
	sink := &KafkaSink{service: "telescope-booking", writer: w, timeout: time.Second}

	sink.Record(EventReservationCreated, map[string]any{"id": 7})

	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte(EventReservationCreated), w.msgs[0].Key)

	var ev Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, EventReservationCreated, ev.EventType)
}

func TestKafkaSink_PublishFailureIsSwallowed(t *testing.T) {
	w := &captureWriter{err: assert.AnError}
	sink := &KafkaSink{service: "telescope-booking", writer: w, timeout: time.Second}

	// Must not panic or surface the broker error.
	sink.Record(EventReservationCancelled, map[string]any{"id": 7})
	assert.Empty(t, w.msgs)
}

func TestNewKafkaSink_Validation(t *testing.T) {
	_, err := NewKafkaSink("svc", nil, "topic")
	assert.Error(t, err)

	_, err = NewKafkaSink("svc", []string{"localhost:9092"}, "")
	assert.Error(t, err)
}
