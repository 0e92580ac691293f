package rabbitmq

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"VolaPulse/internal/domain/repository"
	"VolaPulse/pkg/logger"
)

// Dialer establishes one AMQP connection attempt.
type Dialer func() (*amqp.Connection, error)

// Broker is the topic-exchange backend. It owns the process's single AMQP
// connection: consume and publish share it.
type Broker struct {
	cfg       *Config
	dial      Dialer
	log       *logger.Logger
	conn      *amqp.Connection
	ch        *amqp.Channel
	closeOnce sync.Once
}

// New creates a RabbitMQ broker. The connection is established lazily on the
// first consume or publish.
func New(log *logger.Logger, opts ...Option) (*Broker, error) {
	cfg := &Config{
		Host:            "localhost",
		Port:            5672,
		VHost:           "/",
		User:            "guest",
		Password:        "guest",
		Exchange:        "stock_analysis",
		Queue:           "volatility_analysis_queue",
		RoutingKey:      "#",
		PublishKey:      "stock_data",
		ConnectAttempts: 5,
		ConnectDelay:    5 * time.Second,
		Prefetch:        1,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Queue == "" {
		return nil, fmt.Errorf("queue name is required")
	}

	uri := fmt.Sprintf("amqp://%s:%s@%s:%d/%s",
		url.QueryEscape(cfg.User), url.QueryEscape(cfg.Password),
		cfg.Host, cfg.Port, url.PathEscape(cfg.VHost))

	b := &Broker{
		cfg:  cfg,
		dial: func() (*amqp.Connection, error) { return amqp.Dial(uri) },
		log:  log,
	}
	return b, nil
}

// SetDialer overrides the connection dialer, for tests.
func (b *Broker) SetDialer(d Dialer) { b.dial = d }

// connectWithRetry dials up to attempts times with a fixed delay between
// tries. Exhaustion is fatal: the worker must not run without a broker.
func connectWithRetry(dial Dialer, attempts int, delay time.Duration, log *logger.Logger) (*amqp.Connection, error) {
	var lastErr error
	for i := 1; i <= attempts; i++ {
		conn, err := dial()
		if err == nil {
			return conn, nil
		}
		lastErr = err
		log.Warn("rabbitmq connection failed",
			logger.Int("attempt", i), logger.Int("max", attempts), logger.Error(err))
		if i < attempts {
			time.Sleep(delay)
		}
	}
	return nil, fmt.Errorf("connect to rabbitmq after %d attempts: %w", attempts, lastErr)
}

// ensureConnected establishes the connection and declares the topology.
// Declarations are idempotent and must succeed before consumption.
func (b *Broker) ensureConnected() error {
	if b.conn != nil && !b.conn.IsClosed() {
		return nil
	}

	conn, err := connectWithRetry(b.dial, b.cfg.ConnectAttempts, b.cfg.ConnectDelay, b.log)
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(b.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return fmt.Errorf("declare exchange %s: %w", b.cfg.Exchange, err)
	}
	if _, err := ch.QueueDeclare(b.cfg.Queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return fmt.Errorf("declare queue %s: %w", b.cfg.Queue, err)
	}
	if err := ch.QueueBind(b.cfg.Queue, b.cfg.RoutingKey, b.cfg.Exchange, false, nil); err != nil {
		conn.Close()
		return fmt.Errorf("bind queue %s: %w", b.cfg.Queue, err)
	}
	if b.cfg.DLQ != "" {
		if _, err := ch.QueueDeclare(b.cfg.DLQ, true, false, false, false, nil); err != nil {
			conn.Close()
			return fmt.Errorf("declare dlq %s: %w", b.cfg.DLQ, err)
		}
	}
	if err := ch.Qos(b.cfg.Prefetch, 0, false); err != nil {
		conn.Close()
		return fmt.Errorf("set qos: %w", err)
	}

	b.conn = conn
	b.ch = ch
	b.log.Info("connected to rabbitmq",
		logger.String("host", b.cfg.Host), logger.String("vhost", b.cfg.VHost),
		logger.String("queue", b.cfg.Queue))
	return nil
}

// Consume delivers queue messages to h one at a time until ctx is cancelled.
func (b *Broker) Consume(ctx context.Context, h repository.Handler) error {
	if err := b.ensureConnected(); err != nil {
		return err
	}

	deliveries, err := b.ch.Consume(b.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consume: %w", err)
	}
	b.log.Info("waiting for messages", logger.String("queue", b.cfg.Queue))

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			b.settle(d, h.Handle(ctx, repository.Delivery{
				Body:        d.Body,
				ID:          d.MessageId,
				Redelivered: d.Redelivered,
			}))
		}
	}
}

// settle maps the pipeline's decision to the AMQP ack primitives.
func (b *Broker) settle(d amqp.Delivery, decision repository.Decision) {
	var err error
	switch decision {
	case repository.Ack:
		err = d.Ack(false)
	case repository.Drop:
		err = d.Nack(false, false)
	case repository.Retry:
		err = d.Nack(false, true)
	}
	if err != nil {
		b.log.Error("settle delivery failed",
			logger.String("decision", decision.String()), logger.Error(err))
	}
}

// Publish sends a payload to the exchange under the outbound routing key.
func (b *Broker) Publish(ctx context.Context, payload []byte) error {
	if err := b.ensureConnected(); err != nil {
		return err
	}
	err := b.ch.PublishWithContext(ctx, b.cfg.Exchange, b.cfg.PublishKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
	if err != nil {
		return fmt.Errorf("publish to %s/%s: %w", b.cfg.Exchange, b.cfg.PublishKey, err)
	}
	return nil
}

// PublishDeadLetter sends a payload straight to the dead-letter queue via the
// default exchange.
func (b *Broker) PublishDeadLetter(ctx context.Context, payload []byte) error {
	if b.cfg.DLQ == "" {
		b.log.Warn("no dead-letter queue configured, dropping payload")
		return nil
	}
	if err := b.ensureConnected(); err != nil {
		return err
	}
	err := b.ch.PublishWithContext(ctx, "", b.cfg.DLQ, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
	if err != nil {
		return fmt.Errorf("publish to dlq %s: %w", b.cfg.DLQ, err)
	}
	return nil
}

// Close tears down the channel and connection. Safe to call more than once.
func (b *Broker) Close() error {
	var err error
	b.closeOnce.Do(func() {
		if b.ch != nil {
			b.ch.Close()
		}
		if b.conn != nil {
			err = b.conn.Close()
		}
		b.log.Info("rabbitmq connection closed")
	})
	return err
}

var _ repository.Broker = (*Broker)(nil)
