package sqs

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"

	"VolaPulse/internal/domain/repository"
	"VolaPulse/pkg/logger"
)

// API is the slice of the SQS client this broker uses.
type API interface {
	ReceiveMessage(ctx context.Context, params *awssqs.ReceiveMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *awssqs.DeleteMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.DeleteMessageOutput, error)
	SendMessage(ctx context.Context, params *awssqs.SendMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.SendMessageOutput, error)
}

// Broker is the point-to-point cloud queue backend. Consume is a long-poll
// loop; acknowledgment is an explicit per-message delete.
type Broker struct {
	cfg *Config
	api API
	log *logger.Logger
}

// New creates an SQS broker using the default AWS credential chain.
func New(ctx context.Context, log *logger.Logger, opts ...Option) (*Broker, error) {
	cfg := defaultConfig(opts)
	if cfg.QueueURL == "" {
		return nil, fmt.Errorf("queue url is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	log.Info("sqs client initialized", logger.String("region", cfg.Region))

	return &Broker{cfg: cfg, api: awssqs.NewFromConfig(awsCfg), log: log}, nil
}

// NewWithAPI creates an SQS broker over an explicit client, for tests.
func NewWithAPI(api API, log *logger.Logger, opts ...Option) *Broker {
	return &Broker{cfg: defaultConfig(opts), api: api, log: log}
}

func defaultConfig(opts []Option) *Config {
	cfg := &Config{
		Region:      "us-east-1",
		BatchSize:   10,
		WaitTime:    10 * time.Second,
		PollBackoff: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Consume polls for messages until ctx is cancelled. Poll failures back off
// and retry; polling never terminates on transient error.
func (b *Broker) Consume(ctx context.Context, h repository.Handler) error {
	b.log.Info("polling for sqs messages", logger.String("queue", b.cfg.QueueURL))

	for {
		if ctx.Err() != nil {
			return nil
		}

		out, err := b.api.ReceiveMessage(ctx, &awssqs.ReceiveMessageInput{
			QueueUrl:            aws.String(b.cfg.QueueURL),
			MaxNumberOfMessages: b.cfg.BatchSize,
			WaitTimeSeconds:     int32(b.cfg.WaitTime / time.Second),
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			b.log.Error("sqs polling failed", logger.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(b.cfg.PollBackoff):
			}
			continue
		}

		for _, m := range out.Messages {
			if ctx.Err() != nil {
				return nil
			}
			decision := h.Handle(ctx, repository.Delivery{
				Body: []byte(aws.ToString(m.Body)),
				ID:   aws.ToString(m.MessageId),
			})
			b.settle(ctx, aws.ToString(m.ReceiptHandle), aws.ToString(m.MessageId), decision)
		}
	}
}

// settle deletes the message for Ack and Drop. Retry leaves it in place so
// the visibility timeout redelivers it.
func (b *Broker) settle(ctx context.Context, receipt, id string, decision repository.Decision) {
	switch decision {
	case repository.Ack, repository.Drop:
		_, err := b.api.DeleteMessage(ctx, &awssqs.DeleteMessageInput{
			QueueUrl:      aws.String(b.cfg.QueueURL),
			ReceiptHandle: aws.String(receipt),
		})
		if err != nil {
			b.log.Error("delete sqs message failed", logger.String("id", id), logger.Error(err))
			return
		}
		b.log.Debug("deleted sqs message", logger.String("id", id))
	case repository.Retry:
		// No-op: the message reappears after its visibility timeout.
	}
}

// Publish sends a payload to the outbound queue. A missing destination is a
// logged skip, not a pipeline failure.
func (b *Broker) Publish(ctx context.Context, payload []byte) error {
	return b.send(ctx, b.cfg.OutboundURL, "outbound", payload)
}

// PublishDeadLetter sends a payload to the dead-letter queue.
func (b *Broker) PublishDeadLetter(ctx context.Context, payload []byte) error {
	return b.send(ctx, b.cfg.DLQURL, "dead-letter", payload)
}

func (b *Broker) send(ctx context.Context, url, kind string, payload []byte) error {
	if url == "" {
		b.log.Warn("no sqs destination configured, skipping send", logger.String("kind", kind))
		return nil
	}
	out, err := b.api.SendMessage(ctx, &awssqs.SendMessageInput{
		QueueUrl:    aws.String(url),
		MessageBody: aws.String(string(payload)),
	})
	if err != nil {
		return fmt.Errorf("send to %s queue: %w", kind, err)
	}
	b.log.Debug("published sqs message", logger.String("id", aws.ToString(out.MessageId)))
	return nil
}

func (b *Broker) Close() error {
	return nil
}

var _ repository.Broker = (*Broker)(nil)
