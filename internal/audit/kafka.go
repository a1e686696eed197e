package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// kafkaWriter is the subset of kafka.Writer the sink needs; narrowed for tests.
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes audit events to a Kafka topic, keyed by event type so
// events of one kind stay ordered within a partition. Publish failures are
// logged and dropped; the booking path never waits on the broker.
type KafkaSink struct {
	service string
	writer  kafkaWriter
	timeout time.Duration
}

// NewKafkaSink builds a sink over the given brokers and topic.
func NewKafkaSink(service string, brokers []string, topic string) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Logger:       kafka.LoggerFunc(func(msg string, args ...any) {}),
		ErrorLogger:  kafka.LoggerFunc(log.Printf),
	}

	return &KafkaSink{service: service, writer: writer, timeout: 5 * time.Second}, nil
}

func (s *KafkaSink) Record(eventType string, details map[string]any) {
	value, err := json.Marshal(newEvent(s.service, eventType, details))
	if err != nil {
		log.Printf("audit: marshal failed, dropping %s event: %v", eventType, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(eventType),
		Value: value,
	}); err != nil {
		log.Printf("audit: kafka publish failed, dropping %s event: %v", eventType, err)
	}
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
