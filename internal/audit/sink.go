package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the reservation engine.
const (
	EventReservationCreated   = "RESERVATION_CREATED"
	EventReservationCancelled = "RESERVATION_CANCELLED"
)

// Event is one audit record, serialized as a single JSON line.
type Event struct {
	EventID      string         `json:"event_id"`
	TimestampUTC string         `json:"timestamp_utc"`
	Level        string         `json:"level"`
	EventType    string         `json:"event_type"`
	Service      string         `json:"service"`
	Details      map[string]any `json:"details"`
}

// Sink receives audit events from the engine. Record never returns an error
// and never blocks the booking outcome: a sink that cannot write logs the
// failure and drops the event.
type Sink interface {
	Record(eventType string, details map[string]any)
	Close() error
}

func newEvent(service, eventType string, details map[string]any) Event {
	return Event{
		EventID:      uuid.NewString(),
		TimestampUTC: time.Now().UTC().Format(time.RFC3339Nano),
		Level:        "AUDIT",
		EventType:    eventType,
		Service:      service,
		Details:      details,
	}
}

// FileSink appends JSON lines to a local file. Ordering within a process is
// the order of Record calls, guarded by the mutex.
type FileSink struct {
	service string
	mu      sync.Mutex
	f       *os.File
}

// NewFileSink opens (or creates) the audit file in append mode.
func NewFileSink(service, path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit file %s: %w", path, err)
	}
	return &FileSink{service: service, f: f}, nil
}

func (s *FileSink) Record(eventType string, details map[string]any) {
	line, err := json.Marshal(newEvent(s.service, eventType, details))
	if err != nil {
		log.Printf("audit: marshal failed, dropping %s event: %v", eventType, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.f.Write(append(line, '\n')); err != nil {
		log.Printf("audit: write failed, dropping %s event: %v", eventType, err)
	}
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}

// NopSink discards everything. Used in tests and as a fallback when no sink
// could be constructed.
type NopSink struct{}

func (NopSink) Record(string, map[string]any) {}
func (NopSink) Close() error                  { return nil }
