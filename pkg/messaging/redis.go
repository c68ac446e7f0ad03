// Package messaging publishes JSON messages on Redis pub/sub channels.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Publisher sends a message to a channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Close() error
}

// RedisOptions configures NewRedisPublisher.
type RedisOptions struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

type redisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher connects to Redis and verifies the connection with PING.
func NewRedisPublisher(opts RedisOptions) (Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	return &redisPublisher{client: client}, nil
}

func (r *redisPublisher) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	return nil
}

func (r *redisPublisher) Close() error {
	return r.client.Close()
}
