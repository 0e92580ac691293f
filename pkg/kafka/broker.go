package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"VolaPulse/internal/domain/repository"
	"VolaPulse/pkg/logger"
)

// Broker is the Kafka backend. Kafka has no requeue primitive, so Retry is
// realized as an in-place re-handle with jittered backoff; the pipeline's
// redelivery cap bounds that loop.
type Broker struct {
	cfg       *Config
	reader    *kafka.Reader
	writer    *kafka.Writer
	log       *logger.Logger
	closeOnce sync.Once
}

// New creates a Kafka broker.
func New(log *logger.Logger, opts ...Option) (*Broker, error) {
	cfg := &Config{
		GroupID:    "volatility",
		MinBytes:   1,
		MaxBytes:   10e6, // 10MB
		BackoffMin: 100 * time.Millisecond,
		BackoffMax: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Balancer: &kafka.Hash{},
	}

	return &Broker{cfg: cfg, reader: reader, writer: writer, log: log}, nil
}

// Consume fetches messages one at a time and commits offsets per decision.
func (b *Broker) Consume(ctx context.Context, h repository.Handler) error {
	b.log.Info("waiting for kafka messages",
		logger.String("topic", b.cfg.Topic), logger.String("group", b.cfg.GroupID))

	for {
		msg, err := b.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			b.log.Error("fetch kafka message failed", logger.Error(err))
			continue
		}

		d := repository.Delivery{
			Body: msg.Value,
			ID:   fmt.Sprintf("%s-%d-%d", msg.Topic, msg.Partition, msg.Offset),
		}

		attempt := 0
		for {
			decision := h.Handle(ctx, d)
			if decision != repository.Retry {
				break
			}
			d.Redelivered = true
			attempt++
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoffWithJitter(b.cfg.BackoffMin, b.cfg.BackoffMax, attempt)):
			}
		}

		if err := b.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			b.log.Error("commit kafka message failed", logger.Error(err))
		}
	}
}

// Publish sends a payload to the outbound topic.
func (b *Broker) Publish(ctx context.Context, payload []byte) error {
	if b.cfg.OutboundTopic == "" {
		b.log.Warn("no outbound topic configured, skipping publish")
		return nil
	}
	err := b.writer.WriteMessages(ctx, kafka.Message{
		Topic: b.cfg.OutboundTopic,
		Value: payload,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", b.cfg.OutboundTopic, err)
	}
	return nil
}

// PublishDeadLetter sends a payload to the dead-letter topic, tagged with the
// topic it came from.
func (b *Broker) PublishDeadLetter(ctx context.Context, payload []byte) error {
	if b.cfg.DLQTopic == "" {
		b.log.Warn("no dead-letter topic configured, dropping payload")
		return nil
	}
	err := b.writer.WriteMessages(ctx, kafka.Message{
		Topic:   b.cfg.DLQTopic,
		Value:   payload,
		Time:    time.Now(),
		Headers: []kafka.Header{{Key: "source_topic", Value: []byte(b.cfg.Topic)}},
	})
	if err != nil {
		return fmt.Errorf("publish to dlq %s: %w", b.cfg.DLQTopic, err)
	}
	return nil
}

// Close closes the reader and writer. Safe to call more than once.
func (b *Broker) Close() error {
	var err error
	b.closeOnce.Do(func() {
		if cerr := b.reader.Close(); cerr != nil {
			err = cerr
		}
		if cerr := b.writer.Close(); cerr != nil && err == nil {
			err = cerr
		}
	})
	return err
}

func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	// exponential backoff base
	exp := min * time.Duration(1<<uint(attempt-1))
	if exp > max {
		exp = max
	}
	// jitter up to 50%
	jitter := time.Duration(rand.Int63n(int64(exp) / 2))
	return exp - jitter
}

var _ repository.Broker = (*Broker)(nil)
