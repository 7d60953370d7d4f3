package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/quake-data-explorer/internal/catalog"
	"github.com/couchcryptid/quake-data-explorer/internal/config"
	"github.com/couchcryptid/quake-data-explorer/internal/domain"
	"github.com/couchcryptid/quake-data-explorer/internal/observability"
)

const eventType = "earthquake"

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes every prepared event of a catalog snapshot to a Kafka topic.
type Publisher struct {
	writer    messageWriter
	batchSize int
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewPublisher creates a Kafka producer for the configured topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.KafkaBatchSize,
	}
	return newPublisher(w, cfg.KafkaBatchSize, logger, metrics)
}

func newPublisher(w messageWriter, batchSize int, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Publisher{writer: w, batchSize: batchSize, logger: logger, metrics: metrics}
}

// Publish writes the snapshot's events in batches. Events are keyed by ID,
// so a rebuilt catalog lands on the same partitions as the previous one.
func (p *Publisher) Publish(ctx context.Context, snap *catalog.Snapshot) error {
	events := snap.Table.Events()
	for start := 0; start < len(events); start += p.batchSize {
		end := min(start+p.batchSize, len(events))

		msgs := make([]kafkago.Message, 0, end-start)
		for i := start; i < end; i++ {
			msg, err := serializeToMessage(events[i], snap)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("publish events %d-%d: %w", start, end-1, err)
		}
		p.metrics.EventsPublished.Add(float64(len(msgs)))
	}
	return nil
}

// Hook adapts Publish to a catalog rebuild hook. Failures are logged and
// counted; the catalog keeps serving the snapshot either way.
func (p *Publisher) Hook() catalog.RebuildHook {
	return func(ctx context.Context, snap *catalog.Snapshot) {
		if err := p.Publish(ctx, snap); err != nil {
			p.metrics.PublishErrors.Inc()
			p.logger.Error("catalog publish failed", "generation", snap.Generation, "error", err)
			return
		}
		p.logger.Info("catalog published", "generation", snap.Generation, "events", snap.Table.Len())
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an Event into a Kafka message.
func serializeToMessage(event domain.Event, snap *catalog.Snapshot) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize event %s: %w", event.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(event.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "prepared_at", Value: []byte(snap.PreparedAt.Format(time.RFC3339))},
			{Key: "generation", Value: []byte(strconv.FormatUint(snap.Generation, 10))},
		},
	}, nil
}
