package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prohmpiriya/take-a-number/pkg/redis"
)

// ChannelPrefix prefixes the per-event Pub/Sub channel
const ChannelPrefix = "queue:events:"

// Channel returns the Pub/Sub channel of an event
func Channel(eventID string) string {
	return ChannelPrefix + eventID
}

// RedisPublisher publishes queue changes on Redis Pub/Sub for live streams
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a RedisPublisher
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish sends the change to the event channel
func (p *RedisPublisher) Publish(ctx context.Context, event *QueueEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode queue event: %w", err)
	}
	if _, err := p.client.PublishJSON(ctx, Channel(event.EventID), payload); err != nil {
		return fmt.Errorf("failed to publish queue event: %w", err)
	}
	return nil
}
