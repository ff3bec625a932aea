package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go"
	"github.com/segmentio/kafka-go"
)

//go:generate mockgen -source=producer.go -destination=mocks/mock_producer.go -package=mocks

type KafkaProducer interface {
	Send(ctx context.Context, topic string, key string, value []byte) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type RetryConfig struct {
	Attempts uint
	Delay    time.Duration
	MaxDelay time.Duration
}

var DefaultRetry = RetryConfig{Attempts: 3, Delay: 200 * time.Millisecond, MaxDelay: 2 * time.Second}

type Producer struct {
	writer messageWriter
	retry  RetryConfig
}

func NewProducer(brokers []string, retryConf RetryConfig) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &Producer{writer: writer, retry: retryConf}
}

// Send writes one message synchronously, retrying with backoff until attempts run out
// or ctx is done.
func (p *Producer) Send(ctx context.Context, topic string, key string, value []byte) error {
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	}
	err := retry.Do(
		func() error {
			return p.writer.WriteMessages(ctx, msg)
		},
		retry.Context(ctx),
		retry.Attempts(p.retry.Attempts),
		retry.Delay(p.retry.Delay),
		retry.MaxDelay(p.retry.MaxDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("retrying Kafka message", "topic", topic, "key", key, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		slog.Error("failed to send Kafka message", "topic", topic, "key", key, "error", err)
		return fmt.Errorf("failed to send kafka message to %s: %w", topic, err)
	}
	slog.Info("Kafka message sent", "topic", topic, "key", key)
	return nil
}

func (p *Producer) Close() error {
	if err := p.writer.Close(); err != nil {
		slog.Error("failed to close Kafka writer", "error", err)
		return err
	}
	slog.Info("Kafka writer closed")
	return nil
}
