package services

import (
	"context"
	"time"
)

// Message is a delayed job. DeliverAt in the past or zero means now.
type Message struct {
	MessageID string
	Topic     string
	Payload   []byte
	Metadata  map[string]string
	DeliverAt time.Time
}

type MessageHandler func(ctx context.Context, msg Message) error

// Queue routes a message to the first subscription whose topic matches and
// whose provider filter is empty or equal to Metadata["provider"].
type Queue interface {
	Publish(ctx context.Context, msg Message) error
	Subscribe(ctx context.Context, subscriptionID string, topic string, provider string, handler MessageHandler) error
	Unsubscribe(subscriptionID string) error
}
