package rabbitmq

import "time"

// Option configures Broker.
type Option func(*Config)

// Config holds RabbitMQ broker configuration.
type Config struct {
	Host            string
	Port            int
	VHost           string
	User            string
	Password        string
	Exchange        string
	Queue           string
	RoutingKey      string
	PublishKey      string
	DLQ             string
	ConnectAttempts int
	ConnectDelay    time.Duration
	Prefetch        int
}

// WithAddress sets host and port.
func WithAddress(host string, port int) Option {
	return func(c *Config) {
		c.Host = host
		c.Port = port
	}
}

// WithVHost sets the virtual host.
func WithVHost(vhost string) Option {
	return func(c *Config) {
		c.VHost = vhost
	}
}

// WithCredentials sets user and password.
func WithCredentials(user, password string) Option {
	return func(c *Config) {
		c.User = user
		c.Password = password
	}
}

// WithTopology sets the exchange, queue and binding routing key declared on
// connect.
func WithTopology(exchange, queue, routingKey string) Option {
	return func(c *Config) {
		c.Exchange = exchange
		c.Queue = queue
		c.RoutingKey = routingKey
	}
}

// WithPublishKey sets the routing key outbound results are published under.
func WithPublishKey(key string) Option {
	return func(c *Config) {
		c.PublishKey = key
	}
}

// WithDLQ sets the dead-letter queue name.
func WithDLQ(queue string) Option {
	return func(c *Config) {
		c.DLQ = queue
	}
}

// WithConnectRetry sets the connect attempt bound and inter-attempt delay.
func WithConnectRetry(attempts int, delay time.Duration) Option {
	return func(c *Config) {
		if attempts > 0 {
			c.ConnectAttempts = attempts
		}
		c.ConnectDelay = delay
	}
}

// WithPrefetch sets the consumer prefetch count.
func WithPrefetch(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.Prefetch = n
		}
	}
}
