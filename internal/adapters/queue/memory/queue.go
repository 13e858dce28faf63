package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/casting-intake/internal/core/services"
)

const MaxAttempts = 3

type subscription struct {
	topic    string
	provider string
	handler  services.MessageHandler
}

type pendingMessage struct {
	msg      services.Message
	attempts int
}

type InMemoryQueue struct {
	mu            sync.RWMutex
	clock         services.Clock
	logger        *zap.Logger
	subscriptions map[string]*subscription
	pending       []pendingMessage
	dropped       int
}

func NewInMemoryQueue(clock services.Clock, logger *zap.Logger) *InMemoryQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryQueue{
		clock:         clock,
		logger:        logger,
		subscriptions: make(map[string]*subscription),
	}
}

func (q *InMemoryQueue) Publish(ctx context.Context, msg services.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if msg.MessageID == "" {
		msg.MessageID = uuid.NewString()
	}
	if msg.DeliverAt.IsZero() {
		msg.DeliverAt = q.clock.Now()
	}

	q.pending = append(q.pending, pendingMessage{msg: msg})
	return nil
}

func (q *InMemoryQueue) Subscribe(ctx context.Context, subscriptionID string, topic string, provider string, handler services.MessageHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.subscriptions[subscriptionID] = &subscription{
		topic:    topic,
		provider: provider,
		handler:  handler,
	}
	return nil
}

func (q *InMemoryQueue) Unsubscribe(subscriptionID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.subscriptions, subscriptionID)
	return nil
}

func (q *InMemoryQueue) match(msg services.Message) services.MessageHandler {
	q.mu.RLock()
	defer q.mu.RUnlock()

	for _, sub := range q.subscriptions {
		if sub.topic != msg.Topic {
			continue
		}
		if sub.provider != "" && sub.provider != msg.Metadata["provider"] {
			continue
		}
		return sub.handler
	}
	return nil
}

// Tick delivers every due message once, oldest DeliverAt first.
func (q *InMemoryQueue) Tick(ctx context.Context) (delivered int, requeued int) {
	q.mu.Lock()
	now := q.clock.Now()

	var due, notDue []pendingMessage
	for _, pm := range q.pending {
		if !pm.msg.DeliverAt.After(now) {
			due = append(due, pm)
		} else {
			notDue = append(notDue, pm)
		}
	}
	q.pending = notDue
	q.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].msg.DeliverAt.Before(due[j].msg.DeliverAt)
	})

	var retry []pendingMessage
	for _, pm := range due {
		handler := q.match(pm.msg)
		if handler == nil {
			pm.attempts++
			if pm.attempts < MaxAttempts {
				retry = append(retry, pm)
			} else {
				q.drop(pm, "no subscriber")
			}
			continue
		}

		if err := handler(ctx, pm.msg); err != nil {
			pm.attempts++
			if pm.attempts < MaxAttempts {
				retry = append(retry, pm)
				requeued++
			} else {
				q.drop(pm, err.Error())
			}
			continue
		}
		delivered++
	}

	if len(retry) > 0 {
		q.mu.Lock()
		q.pending = append(q.pending, retry...)
		q.mu.Unlock()
	}

	return delivered, requeued
}

func (q *InMemoryQueue) drop(pm pendingMessage, reason string) {
	q.mu.Lock()
	q.dropped++
	q.mu.Unlock()
	q.logger.Warn("dropping message",
		zap.String("message_id", pm.msg.MessageID),
		zap.String("topic", pm.msg.Topic),
		zap.Int("attempts", pm.attempts),
		zap.String("reason", reason),
	)
}

// Process ticks until nothing due is left to deliver or retry.
func (q *InMemoryQueue) Process(ctx context.Context) (totalDelivered int) {
	for {
		delivered, requeued := q.Tick(ctx)
		totalDelivered += delivered
		if delivered == 0 && requeued == 0 {
			break
		}
	}
	return totalDelivered
}

func (q *InMemoryQueue) PendingCount() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.pending)
}

func (q *InMemoryQueue) DroppedCount() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.dropped
}
