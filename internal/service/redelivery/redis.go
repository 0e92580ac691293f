package redelivery

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"VolaPulse/internal/domain/repository"
)

// RedisOption configures RedisTracker.
type RedisOption func(*RedisConfig)

// RedisConfig holds Redis tracker configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// WithAddr sets the Redis address.
func WithAddr(addr string) RedisOption {
	return func(c *RedisConfig) { c.Addr = addr }
}

// WithAuth sets password and database.
func WithAuth(password string, db int) RedisOption {
	return func(c *RedisConfig) {
		c.Password = password
		c.DB = db
	}
}

// WithTTL sets how long an attempt counter lives without activity.
func WithTTL(ttl time.Duration) RedisOption {
	return func(c *RedisConfig) {
		if ttl > 0 {
			c.TTL = ttl
		}
	}
}

// RedisTracker counts redeliveries in Redis so the cap survives restarts
// and is shared between worker replicas.
type RedisTracker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisTracker creates a Redis-backed redelivery tracker.
func NewRedisTracker(opts ...RedisOption) (*RedisTracker, error) {
	cfg := &RedisConfig{
		Addr:   "localhost:6379",
		Prefix: "volapulse:redelivery",
		TTL:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisTracker{client: client, prefix: cfg.Prefix, ttl: cfg.TTL}, nil
}

func (t *RedisTracker) key(id string) string {
	return t.prefix + ":" + id
}

// Incr increments and returns the attempt count for a message id.
func (t *RedisTracker) Incr(ctx context.Context, id string) (int, error) {
	key := t.key(id)
	n, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr: %w", err)
	}
	// Refresh the TTL on every attempt so stuck counters eventually expire.
	if err := t.client.Expire(ctx, key, t.ttl).Err(); err != nil {
		return int(n), fmt.Errorf("redis expire: %w", err)
	}
	return int(n), nil
}

// Clear forgets a message id.
func (t *RedisTracker) Clear(ctx context.Context, id string) error {
	if err := t.client.Del(ctx, t.key(id)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (t *RedisTracker) Close() error {
	return t.client.Close()
}

var _ repository.RedeliveryTracker = (*RedisTracker)(nil)
