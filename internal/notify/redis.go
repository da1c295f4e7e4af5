package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisConfig describes the Redis server used to share events between
// instances.
type RedisConfig struct {
	Addr     string
	Password string
	Channel  string
}

// RedisBridge publishes local events to a Redis channel and replays events
// from other instances into the local broker.
type RedisBridge struct {
	client  *redis.Client
	channel string
	origin  string
	broker  *Broker
	logger  *slog.Logger
}

// NewRedisBridge connects to Redis and checks the connection.
func NewRedisBridge(ctx context.Context, cfg RedisConfig, broker *Broker, logger *slog.Logger) (*RedisBridge, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}
	return newRedisBridge(client, cfg.Channel, broker, logger), nil
}

func newRedisBridge(client *redis.Client, channel string, broker *Broker, logger *slog.Logger) *RedisBridge {
	return &RedisBridge{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		broker:  broker,
		logger:  logger.With("component", "notify_redis", "channel", channel),
	}
}

// Publish delivers the event locally, then shares it with other instances. A
// Redis failure is returned after local delivery has happened.
func (r *RedisBridge) Publish(ctx context.Context, event Event) error {
	if err := r.broker.Publish(ctx, event); err != nil {
		return err
	}
	event.Origin = r.origin
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Run forwards events from other instances until ctx is done.
func (r *RedisBridge) Run(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}
	r.logger.InfoContext(ctx, "subscribed to event channel")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(ctx, msg.Payload)
		}
	}
}

func (r *RedisBridge) handle(ctx context.Context, payload string) {
	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		r.logger.WarnContext(ctx, "discarding malformed event", "error", err)
		return
	}
	if event.Origin == r.origin {
		return
	}
	_ = r.broker.Publish(ctx, event)
}

// Close releases the Redis client.
func (r *RedisBridge) Close() error {
	return r.client.Close()
}
