// Package ingest runs the station-observation consumer: batches of raw
// messages are read from the ingest topic, parsed leniently, and persisted
// as weather records backing the trailing history queries.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Arkie13/agrialert/internal/domain"
	"github.com/Arkie13/agrialert/internal/observability"
)

// BatchExtractor reads up to batchSize raw messages from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawObservation, error)
}

// Sink persists parsed observations. Returns how many were newly stored;
// replayed duplicates are counted out.
type Sink interface {
	StoreBatch(ctx context.Context, observations []domain.Observation) (int, error)
}

// Pipeline orchestrates the extract-parse-store loop.
type Pipeline struct {
	extractor BatchExtractor
	sink      Sink
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	batchSize int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, s Sink, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor: e,
		sink:      s,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// CheckReadiness returns nil if the pipeline has stored at least one batch,
// or an error describing why ingest is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("ingest has not stored any observations yet")
	}
	return nil
}

// Run executes the batch ingest loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("observation ingest started", "batch_size", p.batchSize)
	p.metrics.IngestRunning.Set(1)
	defer p.metrics.IngestRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short while avoiding tight loops during outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("observation ingest stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-parse-store cycle. Returns false if the
// pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.ObservationsConsumed.Add(float64(len(rawBatch)))
	p.metrics.IngestBatchSize.Observe(float64(len(rawBatch)))
	*backoff = 200 * time.Millisecond

	return p.parseAndStore(ctx, rawBatch, backoff, maxBackoff)
}

// parseAndStore parses each message in the batch, stores the successes, and
// commits offsets. Returns false if the pipeline should stop.
func (p *Pipeline) parseAndStore(ctx context.Context, rawBatch []domain.RawObservation, backoff *time.Duration, maxBackoff time.Duration) bool {
	parsed := make([]domain.Observation, 0, len(rawBatch))
	successfulRaws := make([]domain.RawObservation, 0, len(rawBatch))

	for _, raw := range rawBatch {
		obs, err := domain.ParseObservation(raw)
		if err != nil {
			p.logger.Warn("parse failed, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.ParseErrors.Inc()
			p.commitOffset(ctx, raw)
			continue
		}
		parsed = append(parsed, obs)
		successfulRaws = append(successfulRaws, raw)
	}

	if len(parsed) == 0 {
		return true
	}

	stored, err := p.sink.StoreBatch(ctx, parsed)
	if err != nil {
		p.logger.Error("store batch failed", "error", err, "batch_size", len(parsed))
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	p.metrics.ObservationsStored.Add(float64(stored))
	p.ready.Store(true)

	for _, raw := range successfulRaws {
		p.commitOffset(ctx, raw)
	}
	return true
}

// backoffOrStop checks for context cancellation, sleeps with the current
// backoff, and advances it. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawObservation) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
