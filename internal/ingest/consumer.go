// Package ingest reads document events from Kafka and applies them to the
// lookup store. Malformed events are logged and skipped so a poison message
// can never wedge the consume loop.
package ingest

import (
	"context"
	"log/slog"

	"github.com/lookup-labs/doclookup/internal/cache"
	"github.com/lookup-labs/doclookup/internal/index"
	"github.com/lookup-labs/doclookup/pkg/kafka"
	"github.com/lookup-labs/doclookup/pkg/metrics"
)

// Event ops accepted on the document topic.
const (
	OpRegister = "register"
	OpRemove   = "remove"
	OpClear    = "clear"
)

// DocumentEvent is the JSON payload carried on the document topic. Name and
// Content are pointers so an absent field can be told apart from an empty
// string, which is a valid document name and valid content.
type DocumentEvent struct {
	Op      string  `json:"op"`
	Name    *string `json:"name"`
	Content *string `json:"content"`
}

// Consumer wraps a Kafka consumer to drive the ingestion pipeline.
type Consumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates a Consumer backed by the given Kafka consumer.
func New(kafkaConsumer *kafka.Consumer) *Consumer {
	return &Consumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "ingest-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("ingest consumer starting")
	return c.consumer.Start(ctx)
}

// HandleEvent returns a Kafka MessageHandler that applies each document
// event to the store. If lookupCache is non-nil the cache is invalidated
// after every successful mutation; if m is non-nil ingest counters and index
// gauges are updated.
func HandleEvent(store *index.Store, lookupCache *cache.LookupCache, m *metrics.Metrics) kafka.MessageHandler {
	logger := slog.Default().With("component", "ingest-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[DocumentEvent](value)
		if err != nil {
			logger.Error("failed to decode document event",
				"error", err,
				"key", string(key),
			)
			countEvent(m, "unknown", "decode_error")
			return nil
		}

		switch event.Op {
		case OpRegister:
			if event.Name == nil || event.Content == nil {
				logger.Error("register event missing name or content", "key", string(key))
				countEvent(m, event.Op, "invalid")
				return nil
			}
			store.Register(*event.Name, *event.Content)
		case OpRemove:
			if event.Name == nil {
				logger.Error("remove event missing name", "key", string(key))
				countEvent(m, event.Op, "invalid")
				return nil
			}
			store.Remove(*event.Name)
		case OpClear:
			store.Clear()
		default:
			logger.Error("unknown event op", "op", event.Op, "key", string(key))
			countEvent(m, event.Op, "invalid")
			return nil
		}

		if lookupCache != nil {
			if err := lookupCache.Invalidate(ctx); err != nil {
				logger.Error("cache invalidation failed", "error", err)
			}
		}
		if m != nil {
			m.IndexDocuments.Set(float64(store.DocCount()))
			m.IndexTerms.Set(float64(store.TermCount()))
		}
		countEvent(m, event.Op, "applied")

		logger.Debug("document event applied", "op", event.Op)
		return nil
	}
}

func countEvent(m *metrics.Metrics, op, status string) {
	if m != nil {
		m.IngestEventsTotal.WithLabelValues(op, status).Inc()
	}
}
