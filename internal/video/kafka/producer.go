package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

type ProducerConfig struct {
	Brokers      []string
	Topic        string
	MaxRetries   int
	RetryBackoff time.Duration
	WriteTimeout time.Duration
	BatchSize    int
	Async        bool
	Logger       zerolog.Logger
}

type Message struct {
	Key   string
	Value []byte
}

type producerMetrics struct {
	MessagesPublished atomic.Int64
	MessagesFailed    atomic.Int64
	RetriesTotal      atomic.Int64
	PublishDuration   atomic.Int64
}

// Metrics is a point-in-time copy of the producer counters.
type Metrics struct {
	MessagesPublished int64
	MessagesFailed    int64
	RetriesTotal      int64
	AvgPublishTime    time.Duration
}

// Producer publishes video status events to a single topic.
type Producer struct {
	writer  *kafkago.Writer
	config  ProducerConfig
	metrics producerMetrics
	closed  atomic.Bool
	log     zerolog.Logger
}

func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	setDefaults(&cfg)

	return &Producer{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafkago.Hash{},
			BatchSize:    cfg.BatchSize,
			WriteTimeout: cfg.WriteTimeout,
			Async:        cfg.Async,
			RequiredAcks: kafkago.RequireAll,
		},
		config: cfg,
		log:    cfg.Logger.With().Str("component", "kafka_producer").Str("topic", cfg.Topic).Logger(),
	}, nil
}

func validateConfig(cfg *ProducerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.New("kafka producer: brokers list is empty")
	}
	if cfg.Topic == "" {
		return errors.New("kafka producer: topic is empty")
	}
	if cfg.MaxRetries < 0 {
		return errors.New("kafka producer: max_retries cannot be negative")
	}
	if cfg.RetryBackoff < 0 {
		return errors.New("kafka producer: retry_backoff cannot be negative")
	}
	if cfg.WriteTimeout < 0 {
		return errors.New("kafka producer: write_timeout cannot be negative")
	}
	return nil
}

func setDefaults(cfg *ProducerConfig) {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
}

func (p *Producer) Publish(ctx context.Context, key string, value []byte) error {
	return p.PublishBatch(ctx, []Message{{Key: key, Value: value}})
}

// PublishBatch writes all messages, retrying transient broker errors with a
// linear backoff.
func (p *Producer) PublishBatch(ctx context.Context, messages []Message) error {
	if p.closed.Load() {
		return errors.New("kafka publish: producer is closed")
	}
	if len(messages) == 0 {
		return nil
	}

	batch := make([]kafkago.Message, len(messages))
	for i, m := range messages {
		batch[i] = kafkago.Message{Key: []byte(m.Key), Value: m.Value}
	}

	start := time.Now()
	var err error
	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 0 {
			p.metrics.RetriesTotal.Add(1)
			select {
			case <-ctx.Done():
				p.metrics.MessagesFailed.Add(int64(len(messages)))
				return fmt.Errorf("kafka publish: %w", ctx.Err())
			case <-time.After(p.config.RetryBackoff * time.Duration(attempt)):
			}
		}

		err = p.writer.WriteMessages(ctx, batch...)
		if err == nil {
			p.metrics.MessagesPublished.Add(int64(len(messages)))
			p.metrics.PublishDuration.Add(int64(time.Since(start)))
			return nil
		}
		if !isRetriableError(err) {
			break
		}
		p.log.Warn().Err(err).Int("attempt", attempt+1).Msg("kafka write failed, retrying")
	}

	p.metrics.MessagesFailed.Add(int64(len(messages)))
	return fmt.Errorf("kafka publish: %w", err)
}

func isRetriableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var kerr kafkago.Error
	if errors.As(err, &kerr) {
		return kerr.Temporary()
	}

	msg := strings.ToLower(err.Error())
	for _, permanent := range []string{"invalid", "too large", "authorization"} {
		if strings.Contains(msg, permanent) {
			return false
		}
	}
	return true
}

func (p *Producer) GetMetrics() Metrics {
	published := p.metrics.MessagesPublished.Load()
	m := Metrics{
		MessagesPublished: published,
		MessagesFailed:    p.metrics.MessagesFailed.Load(),
		RetriesTotal:      p.metrics.RetriesTotal.Load(),
	}
	if published > 0 {
		m.AvgPublishTime = time.Duration(p.metrics.PublishDuration.Load() / published)
	}
	return m
}

// HealthCheck dials the first broker.
func (p *Producer) HealthCheck(ctx context.Context) error {
	if p.closed.Load() {
		return errors.New("kafka health: producer is closed")
	}
	conn, err := kafkago.DialContext(ctx, "tcp", p.config.Brokers[0])
	if err != nil {
		return fmt.Errorf("kafka health: %w", err)
	}
	return conn.Close()
}

func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return errors.New("kafka producer: already closed")
	}
	return p.writer.Close()
}
