package kafka

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"

	"github.com/honeynil/content-checkout/internal/models"
	"github.com/segmentio/kafka-go"
)

// CacheInvalidator drops cached content so the next lookup hits the catalog.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, contentID string) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer listens to catalog events and keeps the content cache honest.
type Consumer struct {
	reader messageReader
	cache  CacheInvalidator
}

func NewConsumer(brokers []string, topic, groupID string, cache CacheInvalidator) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		cache: cache,
	}
}

// Consume blocks until ctx is cancelled or the reader is closed.
func (c *Consumer) Consume(ctx context.Context) {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || stderrors.Is(err, context.Canceled) {
				slog.Info("content events consumer stopped")
				return
			}
			slog.Error("failed to read Kafka message", "error", err)
			continue
		}
		c.handleMessage(ctx, msg)
	}
}

func (c *Consumer) handleMessage(ctx context.Context, msg kafka.Message) {
	var event models.ContentEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		slog.Error("failed to unmarshal content event", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		return
	}
	if event.ContentID == "" {
		slog.Error("content event without content_id", "topic", msg.Topic, "offset", msg.Offset, "event_type", event.EventType)
		return
	}

	switch event.EventType {
	case models.ContentEventUpdated, models.ContentEventUnpublished, models.ContentEventDeleted:
		if err := c.cache.Invalidate(ctx, event.ContentID); err != nil {
			slog.Error("failed to invalidate content cache", "content_id", event.ContentID, "error", err)
			return
		}
		slog.Info("content cache invalidated", "content_id", event.ContentID, "event_type", event.EventType)
	default:
		slog.Debug("ignoring content event", "event_type", event.EventType, "content_id", event.ContentID)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
