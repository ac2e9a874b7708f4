package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/stereovibe/sunshine-forecast/internal/config"
	"github.com/stereovibe/sunshine-forecast/internal/forecast"
)

// Publisher announces completed forecast syncs on a Kafka topic.
// It implements refresh.SyncPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured sync topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSyncTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// syncEvent is the wire form of a completed sync announcement.
type syncEvent struct {
	Location string                `json:"location"`
	Days     int                   `json:"days"`
	Rows     []forecast.StorageRow `json:"rows"`
	SyncedAt time.Time             `json:"synced_at"`
}

// PublishSync emits one message per completed sync, keyed by location so
// consumers see per-location ordering.
func (p *Publisher) PublishSync(ctx context.Context, location string, rows []forecast.StorageRow) error {
	msg, err := serializeSyncEvent(location, rows, time.Now().UTC())
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write sync event: %w", err)
	}
	p.logger.Debug("sync event published", "location", location, "rows", len(rows))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeSyncEvent marshals a completed sync into a Kafka message.
func serializeSyncEvent(location string, rows []forecast.StorageRow, syncedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(syncEvent{
		Location: location,
		Days:     len(rows),
		Rows:     rows,
		SyncedAt: syncedAt,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize sync event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(location),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "location", Value: []byte(location)},
			{Key: "synced_at", Value: []byte(syncedAt.Format(time.RFC3339))},
		},
	}, nil
}
