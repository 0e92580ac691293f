package sqs

import "time"

// Option configures Broker.
type Option func(*Config)

// Config holds SQS broker configuration.
type Config struct {
	QueueURL    string
	OutboundURL string
	DLQURL      string
	Region      string
	BatchSize   int32
	WaitTime    time.Duration
	PollBackoff time.Duration
}

// WithQueueURL sets the inbound queue URL.
func WithQueueURL(url string) Option {
	return func(c *Config) { c.QueueURL = url }
}

// WithOutboundURL sets the queue URL results are published to.
func WithOutboundURL(url string) Option {
	return func(c *Config) { c.OutboundURL = url }
}

// WithDLQURL sets the dead-letter queue URL.
func WithDLQURL(url string) Option {
	return func(c *Config) { c.DLQURL = url }
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(c *Config) { c.Region = region }
}

// WithBatchSize sets the receive batch bound (SQS caps it at 10).
func WithBatchSize(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.BatchSize = int32(n)
		}
	}
}

// WithWaitTime sets the long-poll wait per receive call.
func WithWaitTime(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.WaitTime = d
		}
	}
}

// WithPollBackoff sets the sleep after a failed poll.
func WithPollBackoff(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.PollBackoff = d
		}
	}
}
