package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prohmpiriya/take-a-number/pkg/kafka"
)

// Producer is the subset of the Kafka producer the publisher needs
type Producer interface {
	Produce(ctx context.Context, msg *kafka.Message) error
}

// KafkaPublisher writes ticket lifecycle records to a topic
type KafkaPublisher struct {
	producer Producer
	topic    string
}

// NewKafkaPublisher creates a KafkaPublisher
func NewKafkaPublisher(producer Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// Publish produces the change keyed by event ID
func (p *KafkaPublisher) Publish(ctx context.Context, event *QueueEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode queue event: %w", err)
	}

	return p.producer.Produce(ctx, &kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.Key()),
		Value: value,
		Headers: map[string]string{
			"event_type": event.Type,
		},
	})
}
