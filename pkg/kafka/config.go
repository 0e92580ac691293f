package kafka

import "time"

// Option configures Broker.
type Option func(*Config)

// Config holds Kafka broker configuration.
type Config struct {
	Brokers       []string
	Topic         string
	GroupID       string
	OutboundTopic string
	DLQTopic      string
	MinBytes      int
	MaxBytes      int
	BackoffMin    time.Duration
	BackoffMax    time.Duration
}

// WithBrokers sets Kafka brokers.
func WithBrokers(brokers []string) Option {
	return func(c *Config) {
		c.Brokers = brokers
	}
}

// WithTopic sets the inbound topic.
func WithTopic(topic string) Option {
	return func(c *Config) {
		c.Topic = topic
	}
}

// WithGroupID sets the consumer group ID.
func WithGroupID(groupID string) Option {
	return func(c *Config) {
		c.GroupID = groupID
	}
}

// WithOutboundTopic sets the topic results are published to.
func WithOutboundTopic(topic string) Option {
	return func(c *Config) {
		c.OutboundTopic = topic
	}
}

// WithDLQ sets the dead-letter topic.
func WithDLQ(topic string) Option {
	return func(c *Config) {
		c.DLQTopic = topic
	}
}

// WithFetch sets fetch min/max bytes.
func WithFetch(minBytes, maxBytes int) Option {
	return func(c *Config) {
		if minBytes > 0 {
			c.MinBytes = minBytes
		}
		if maxBytes > 0 {
			c.MaxBytes = maxBytes
		}
	}
}

// WithRetryBackoff sets the backoff range between in-place retries.
func WithRetryBackoff(min, max time.Duration) Option {
	return func(c *Config) {
		if min > 0 {
			c.BackoffMin = min
		}
		if max > 0 {
			c.BackoffMax = max
		}
	}
}
