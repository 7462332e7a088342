// Package kafka adapts the segmentio/kafka-go client to the ingest
// pipeline's extractor interface and publishes alert events for downstream
// consumers.
package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/Arkie13/agrialert/internal/config"
	"github.com/Arkie13/agrialert/internal/domain"
)

// Reader consumes raw observation messages from the ingest topic.
// It implements ingest.BatchExtractor.
type Reader struct {
	reader       *kafkago.Reader
	logger       *slog.Logger
	flushTimeout time.Duration
}

// NewReader creates a Kafka consumer for the configured ingest topic.
// Offsets are committed explicitly by the pipeline, never on fetch.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaIngestTopic,
		GroupID:     cfg.KafkaGroupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	return &Reader{reader: r, logger: logger, flushTimeout: cfg.BatchFlushTimeout}
}

// ExtractBatch fetches up to batchSize messages, returning early with a
// partial batch once the flush timeout elapses so a slow topic never stalls
// ingestion.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawObservation, error) {
	batch := make([]domain.RawObservation, 0, batchSize)
	deadline := time.Now().Add(r.flushTimeout)

	for len(batch) < batchSize {
		fetchCtx, cancel := context.WithDeadline(ctx, deadline)
		msg, err := r.reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				break
			}
			if len(batch) > 0 && ctx.Err() == nil {
				break
			}
			return nil, err
		}
		batch = append(batch, r.mapMessage(msg))
	}
	return batch, nil
}

func (r *Reader) mapMessage(msg kafkago.Message) domain.RawObservation {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawObservation{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
		Commit: func(ctx context.Context) error {
			return r.reader.CommitMessages(ctx, msg)
		},
	}
}

func (r *Reader) Close() error {
	return r.reader.Close()
}
