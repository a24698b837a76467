// Package kafka publishes ingested listing records to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/quake-catalog/internal/config"
	"github.com/couchcryptid/quake-catalog/internal/domain"
)

// Message is the JSON value of a published record.
type Message struct {
	ID         string        `json:"id"`
	SourceDate string        `json:"source_date"`
	Record     domain.Record `json:"record"`
}

// Writer produces record messages to the configured topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish sends one message per record in a single WriteMessages call.
// Messages are keyed by the record fingerprint so replays of the same
// listing land on the same partition.
func (w *Writer) Publish(ctx context.Context, date time.Time, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(date, records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d records: %w", len(msgs), err)
	}
	w.logger.Debug("records published", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func serializeToMessage(date time.Time, r domain.Record) (kafkago.Message, error) {
	id := domain.Fingerprint(r)
	sourceDate := date.Format("20060102")
	data, err := json.Marshal(Message{ID: id, SourceDate: sourceDate, Record: r})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record %s: %w", id, err)
	}
	return kafkago.Message{
		Key:   []byte(id),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "region", Value: []byte(r.Region)},
			{Key: "source_date", Value: []byte(sourceDate)},
		},
	}, nil
}
