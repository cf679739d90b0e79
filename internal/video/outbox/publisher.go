package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/romariotrain/shortfeed/internal/storage/postgres"
)

// Store is the outbox table as seen by the publisher.
type Store interface {
	GetPending(ctx context.Context, limit int) ([]postgres.OutboxRecord, error)
	MarkProcessed(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, cause error) error
}

// EventPublisher sends one event payload to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// Publisher relays status change events from the outbox table to Kafka with
// at-least-once delivery: an event that was published but not marked gets
// published again on the next tick, so consumers must be idempotent on
// event_id.
type Publisher struct {
	store     Store
	producer  EventPublisher
	interval  time.Duration
	batchSize int
	logger    zerolog.Logger
}

type PublisherConfig struct {
	Store     Store
	Producer  EventPublisher
	Interval  time.Duration
	BatchSize int
	Logger    zerolog.Logger
}

func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if cfg.Store == nil {
		return nil, errors.New("outbox store is required")
	}
	if cfg.Producer == nil {
		return nil, errors.New("event producer is required")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got: %v", cfg.Interval)
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got: %d", cfg.BatchSize)
	}

	return &Publisher{
		store:     cfg.Store,
		producer:  cfg.Producer,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		logger:    cfg.Logger.With().Str("component", "outbox_publisher").Logger(),
	}, nil
}

// Start polls the outbox every interval until ctx is cancelled. A failed batch
// is logged and retried on the next tick.
func (p *Publisher) Start(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info().
		Dur("interval", p.interval).
		Int("batch_size", p.batchSize).
		Msg("outbox publisher started")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().
				Err(ctx.Err()).
				Msg("outbox publisher stopped")
			return ctx.Err()

		case <-ticker.C:
			if _, err := p.PublishBatch(ctx); err != nil {
				p.logger.Error().
					Err(err).
					Msg("failed to publish batch")
			}
		}
	}
}

type BatchResult struct {
	Total     int
	Published int
	Failed    int
	Marked    int
}

// PublishBatch handles one batch of unprocessed events.
func (p *Publisher) PublishBatch(ctx context.Context) (BatchResult, error) {
	records, err := p.store.GetPending(ctx, p.batchSize)
	if err != nil {
		return BatchResult{}, fmt.Errorf("get pending records: %w", err)
	}

	res := BatchResult{Total: len(records)}
	if len(records) == 0 {
		p.logger.Debug().Msg("no pending events to publish")
		return res, nil
	}

	for _, record := range records {
		eventLogger := p.logger.With().
			Str("event_id", record.EventID.String()).
			Str("event_type", record.EventType).
			Str("video_id", record.VideoID.String()).
			Str("to", string(record.To)).
			Int64("outbox_id", record.ID).
			Int("attempts", record.Attempts).
			Logger()

		if err := p.producer.Publish(ctx, record.EventID.String(), record.Payload); err != nil {
			eventLogger.Error().
				Err(err).
				Msg("failed to publish event to kafka")
			res.Failed++
			if merr := p.store.MarkFailed(ctx, record.ID, err); merr != nil {
				eventLogger.Warn().Err(merr).Msg("failed to record delivery failure")
			}
			continue
		}
		res.Published++

		if err := p.store.MarkProcessed(ctx, record.ID); err != nil {
			// published but unmarked: it goes out again next tick
			eventLogger.Warn().
				Err(err).
				Msg("failed to mark event as processed")
			continue
		}
		res.Marked++
	}

	p.logger.Info().
		Int("total", res.Total).
		Int("published", res.Published).
		Int("failed", res.Failed).
		Int("marked", res.Marked).
		Msg("batch processing completed")

	return res, nil
}
