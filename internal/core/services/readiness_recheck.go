package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/casting-intake/internal/core/domain"
)

const (
	ReadinessRecheckTopic     = "readinessrecheck"
	DefaultRecheckMaxAttempts = 5
	RecheckBaseBackoff        = 30 * time.Second
)

type ReadinessRecheckPayload struct {
	AuditionID int64  `json:"auditionID"`
	Provider   string `json:"provider"`
	VideoID    string `json:"videoID"`
	Attempt    int    `json:"attempt"`
}

type ReadinessRecheckConsumer struct {
	auditions   AuditionRepository
	poller      *ReadinessPoller
	queue       Queue
	clock       Clock
	maxAttempts int
	logger      *zap.Logger
}

func NewReadinessRecheckConsumer(auditions AuditionRepository, poller *ReadinessPoller, queue Queue, clock Clock, maxAttempts int, logger *zap.Logger) *ReadinessRecheckConsumer {
	if maxAttempts <= 0 {
		maxAttempts = DefaultRecheckMaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReadinessRecheckConsumer{
		auditions:   auditions,
		poller:      poller,
		queue:       queue,
		clock:       clock,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

func (c *ReadinessRecheckConsumer) Handle(ctx context.Context, msg Message) error {
	var payload ReadinessRecheckPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshaling payload: %w", err)
	}
	log := c.logger.With(zap.Int64("audition_id", payload.AuditionID), zap.String("video_id", payload.VideoID), zap.Int("attempt", payload.Attempt))

	audition, err := c.auditions.FindByID(ctx, payload.AuditionID)
	if err != nil {
		return err
	}
	if audition == nil || audition.VideoStatus != domain.VideoStatusPending {
		return nil
	}

	status, err := c.poller.GetStatus(ctx, payload.Provider, payload.VideoID)
	switch {
	case errors.Is(err, ErrUnknownProvider):
		log.Error("recheck for unknown provider dropped", zap.String("provider", payload.Provider))
		return nil
	case err != nil:
		log.Warn("recheck poll failed", zap.Error(err))
	case status.Terminal():
		log.Warn("video processing failed after submission", zap.String("raw_state", status.RawState))
		return c.auditions.UpdateVideoStatus(ctx, audition.ID, domain.VideoStatusFailed, c.clock.Now())
	case status.ReadyToStream || status.State == domain.StateReady:
		log.Info("video confirmed ready", zap.String("confidence", string(status.Confidence)))
		return c.auditions.UpdateVideoStatus(ctx, audition.ID, domain.VideoStatusReady, c.clock.Now())
	}

	if payload.Attempt >= c.maxAttempts {
		// TODO: surface abandoned rechecks on the admin dashboard
		log.Warn("giving up readiness recheck")
		return nil
	}

	next, err := json.Marshal(ReadinessRecheckPayload{
		AuditionID: payload.AuditionID,
		Provider:   payload.Provider,
		VideoID:    payload.VideoID,
		Attempt:    payload.Attempt + 1,
	})
	if err != nil {
		return err
	}

	backoff := RecheckBaseBackoff * time.Duration(1<<(payload.Attempt-1))
	return c.queue.Publish(ctx, Message{
		MessageID: uuid.NewString(),
		Topic:     ReadinessRecheckTopic,
		Payload:   next,
		Metadata:  msg.Metadata,
		DeliverAt: c.clock.Now().Add(backoff),
	})
}
