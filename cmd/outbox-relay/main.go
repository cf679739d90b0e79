package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/romariotrain/shortfeed/internal/app"
	"github.com/romariotrain/shortfeed/internal/config"
	"github.com/romariotrain/shortfeed/internal/logging"
	pg "github.com/romariotrain/shortfeed/internal/storage/postgres"
	"github.com/romariotrain/shortfeed/internal/video/kafka"
	"github.com/romariotrain/shortfeed/internal/video/outbox"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logging.New("outbox-relay", cfg.LogLevel)
	os.Exit(app.Run(log, func(ctx context.Context) error {
		return run(ctx, cfg, log)
	}))
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	db, err := pg.Connect(ctx, cfg.DatabaseURL, pg.DefaultPoolOptions())
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer db.Close()

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		Logger:  log,
	})
	if err != nil {
		return fmt.Errorf("kafka producer: %w", err)
	}
	defer func() {
		if err := producer.Close(); err != nil {
			log.Error().Err(err).Msg("close producer")
		}
		m := producer.GetMetrics()
		log.Info().
			Int64("published", m.MessagesPublished).
			Int64("failed", m.MessagesFailed).
			Msg("producer stopped")
	}()

	if err := producer.HealthCheck(ctx); err != nil {
		log.Warn().Err(err).Msg("kafka not reachable yet, relay will keep retrying")
	}

	publisher, err := outbox.NewPublisher(outbox.PublisherConfig{
		Store:     pg.NewOutboxRepo(db),
		Producer:  producer,
		Interval:  cfg.Outbox.Interval,
		BatchSize: cfg.Outbox.BatchSize,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	if err := publisher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
