package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/jwalitptl/intake-api/pkg/messaging"
	"github.com/jwalitptl/intake-api/pkg/metrics"
)

type Config struct {
	URL           string
	ChannelPrefix string
	MaxRetries    int
	RetryBackoff  time.Duration
	PoolSize      int
	MinIdleConns  int
	// FailureThreshold is the number of consecutive publish failures that
	// opens the breaker.
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

type RedisBroker struct {
	client  *redis.Client
	cb      *gobreaker.CircuitBreaker
	prefix  string
	logger  *zerolog.Logger
	metrics *metrics.Metrics
}

var _ messaging.Broker = (*RedisBroker)(nil)

func NewRedisBroker(config Config, logger *zerolog.Logger, m *metrics.Metrics) (*RedisBroker, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Configure connection pooling
	opts.MaxRetries = config.MaxRetries
	opts.MinRetryBackoff = config.RetryBackoff
	opts.PoolSize = config.PoolSize
	opts.MinIdleConns = config.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newBroker(client, config, logger, m), nil
}

func newBroker(client *redis.Client, config Config, logger *zerolog.Logger, m *metrics.Metrics) *RedisBroker {
	threshold := config.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	timeout := config.OpenTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-broker",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return &RedisBroker{
		client:  client,
		cb:      cb,
		prefix:  config.ChannelPrefix,
		logger:  logger,
		metrics: m,
	}
}

// Publish encodes message as JSON and publishes it on prefix+channel. Calls
// fail fast with gobreaker.ErrOpenState while the breaker is open.
func (b *RedisBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	_, err = b.cb.Execute(func() (interface{}, error) {
		return nil, b.client.Publish(ctx, b.prefix+channel, payload).Err()
	})
	if err != nil {
		if b.metrics != nil {
			b.metrics.EventsFailed.WithLabelValues(channel).Inc()
		}
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}

	if b.metrics != nil {
		b.metrics.EventsPublished.WithLabelValues(channel).Inc()
	}
	return nil
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}
