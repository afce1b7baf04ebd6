package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"FeedScanner/internal/domain"
	"FeedScanner/internal/ports"
)

// ErrEmptyAddress is returned when Redis address is not configured.
var ErrEmptyAddress = errors.New("redis address is required")

const (
	redisPingTimeout  = 5 * time.Second
	redisConnectLimit = 30 * time.Second
)

// RedisOptions holds Redis connection configuration.
type RedisOptions struct {
	Address  string
	Password string
	DB       int
}

// ConnectRedis creates a client and waits until the server answers a ping.
func ConnectRedis(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	if opts.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = redisConnectLimit

	ping := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		return client.Ping(pingCtx).Err()
	}
	if err := backoff.Retry(ping, backoff.WithContext(policy, ctx)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// Message is the JSON payload published on the Redis channel.
type Message struct {
	Event       string             `json:"event"`
	Item        domain.ContentItem `json:"item"`
	PublishedAt time.Time          `json:"publishedAt"`
}

// RedisPublisher publishes new content to a Redis pub/sub channel so other
// processes can relay it.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

var _ ports.Notifier = (*RedisPublisher)(nil)

// NewRedisPublisher creates a publisher. Events are published on channel,
// or on the event name itself when channel is empty.
func NewRedisPublisher(client *redis.Client, channel string, logger *slog.Logger) *RedisPublisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RedisPublisher{client: client, channel: channel, logger: logger}
}

// Broadcast publishes the item as a JSON Message.
func (p *RedisPublisher) Broadcast(ctx context.Context, event string, item domain.ContentItem) error {
	if p == nil || p.client == nil {
		return nil
	}

	payload, err := json.Marshal(Message{Event: event, Item: item, PublishedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	channel := p.channel
	if channel == "" {
		channel = event
	}

	receivers, err := p.client.Publish(ctx, channel, payload).Result()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}

	p.logger.Debug("published content", "channel", channel, "link", item.Link, "receivers", receivers)
	return nil
}
