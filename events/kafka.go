package events

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
)

// MessageWriter is the part of *kafka.Writer the sink needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter builds an async, key-hashed writer so events of one booking
// stay ordered on one partition.
func NewKafkaWriter(brokers []string, topic string, logger *zerolog.Logger) (*kafka.Writer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}

	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Compression:  compress.Snappy,
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Logger:       kafka.LoggerFunc(func(string, ...any) {}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			logger.Error().Msgf(msg, args...)
		}),
	}, nil
}

// KafkaSink forwards bus events to a Kafka topic.
type KafkaSink struct {
	writer  MessageWriter
	timeout time.Duration
	logger  *zerolog.Logger
}

func NewKafkaSink(writer MessageWriter, logger *zerolog.Logger) *KafkaSink {
	return &KafkaSink{writer: writer, timeout: 5 * time.Second, logger: logger}
}

// Handle is an EventHandler.
func (s *KafkaSink) Handle(event *Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(event.Key),
		Value: event.Payload,
		Time:  event.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s to kafka: %w", event.Type, err)
	}

	s.logger.Debug().Str("event", event.Type).Str("key", event.Key).Msg("event forwarded to kafka")
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
