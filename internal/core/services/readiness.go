package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/casting-intake/internal/core/domain"
)

type WaitPolicy struct {
	FastInterval time.Duration
	FastChecks   int
	SlowInterval time.Duration
	// MaxChecks <= 0 means only MaxWait bounds the loop.
	MaxChecks int
	MaxWait   time.Duration
	// MinChecksForLowConfidence delays accepting a bare "ready" state so a
	// first-poll false positive is not trusted.
	MinChecksForLowConfidence int
	ForceOnExhaustion         bool
}

func ServerWaitPolicy(maxWait time.Duration) WaitPolicy {
	return WaitPolicy{
		FastInterval:              3 * time.Second,
		FastChecks:                5,
		SlowInterval:              5 * time.Second,
		MaxWait:                   maxWait,
		MinChecksForLowConfidence: 5,
	}
}

func ClientWaitPolicy() WaitPolicy {
	return WaitPolicy{
		FastInterval:              3 * time.Second,
		FastChecks:                5,
		SlowInterval:              5 * time.Second,
		MaxChecks:                 20,
		MaxWait:                   30 * time.Second,
		MinChecksForLowConfidence: 5,
		ForceOnExhaustion:         true,
	}
}

func (p WaitPolicy) interval(checks int) time.Duration {
	if checks <= p.FastChecks {
		return p.FastInterval
	}
	return p.SlowInterval
}

type WaitResult struct {
	Ready    bool
	TimedOut bool
	Forced   bool
	Checks   int
	Status   domain.ReadinessStatus
}

type StatusCheck func(ctx context.Context) (domain.ReadinessStatus, error)

// AwaitReadiness is the only wait loop: attempt budget and wall-clock budget
// are two exit conditions of the same loop, so no timer has to be cancelled.
// A terminal failure returns ErrProcessingFailed; poll errors count as not ready.
func AwaitReadiness(ctx context.Context, clock Clock, scheduler Scheduler, policy WaitPolicy, check StatusCheck, logger *zap.Logger) (WaitResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.MaxChecks <= 0 && policy.MaxWait <= 0 {
		return WaitResult{}, fmt.Errorf("%w: wait policy has no bound", ErrInvalidInput)
	}

	start := clock.Now()
	var result WaitResult

	for {
		result.Checks++
		status, err := check(ctx)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			logger.Warn("readiness poll failed", zap.Int("attempt", result.Checks), zap.Error(err))
		case status.Terminal():
			result.Status = status
			return result, fmt.Errorf("%w: provider state %s", ErrProcessingFailed, status.RawState)
		case status.ReadyToStream:
			result.Status = status
			result.Ready = true
			return result, nil
		case status.State == domain.StateReady && result.Checks >= policy.MinChecksForLowConfidence:
			logger.Info("accepting low confidence ready state", zap.String("video_id", status.VideoID), zap.Int("attempt", result.Checks))
			result.Status = status
			result.Ready = true
			return result, nil
		default:
			result.Status = status
		}

		elapsed := clock.Now().Sub(start)
		exhausted := policy.MaxChecks > 0 && result.Checks >= policy.MaxChecks
		expired := policy.MaxWait > 0 && elapsed >= policy.MaxWait
		if exhausted || expired {
			result.TimedOut = true
			if policy.ForceOnExhaustion {
				result.Ready = true
				result.Forced = true
				logger.Warn("forcing readiness", zap.String("video_id", result.Status.VideoID), zap.Int("attempt", result.Checks), zap.Duration("elapsed", elapsed))
			}
			return result, nil
		}

		delay := policy.interval(result.Checks)
		if policy.MaxWait > 0 {
			if remaining := policy.MaxWait - elapsed; remaining < delay {
				delay = remaining
			}
		}
		if err := scheduler.Sleep(ctx, delay); err != nil {
			return result, err
		}
	}
}

type ReadinessPoller struct {
	sources   map[string]StatusSource
	clock     Clock
	scheduler Scheduler
	logger    *zap.Logger
}

func NewReadinessPoller(clock Clock, scheduler Scheduler, logger *zap.Logger, sources ...StatusSource) *ReadinessPoller {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &ReadinessPoller{
		sources:   make(map[string]StatusSource, len(sources)),
		clock:     clock,
		scheduler: scheduler,
		logger:    logger,
	}
	for _, s := range sources {
		p.sources[s.Tag()] = s
	}
	return p
}

func (p *ReadinessPoller) Providers() []string {
	tags := make([]string, 0, len(p.sources))
	for tag := range p.sources {
		tags = append(tags, tag)
	}
	return tags
}

func (p *ReadinessPoller) GetStatus(ctx context.Context, provider, videoID string) (domain.ReadinessStatus, error) {
	source, ok := p.sources[provider]
	if !ok {
		return domain.ReadinessStatus{}, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	if videoID == "" {
		return domain.ReadinessStatus{}, fmt.Errorf("%w: video id is required", ErrInvalidInput)
	}

	raw, err := source.FetchStatus(ctx, videoID)
	if err != nil {
		return domain.ReadinessStatus{}, fmt.Errorf("fetching %s status: %w", provider, err)
	}
	status, err := source.Normalize(raw)
	if err != nil {
		return domain.ReadinessStatus{}, fmt.Errorf("normalizing %s status: %w", provider, err)
	}
	status.Provider = provider
	if status.VideoID == "" {
		status.VideoID = videoID
	}
	return status, nil
}

func (p *ReadinessPoller) WaitUntilReady(ctx context.Context, provider, videoID string, maxWait time.Duration) (WaitResult, error) {
	if _, ok := p.sources[provider]; !ok {
		return WaitResult{}, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	log := p.logger.With(zap.String("provider", provider), zap.String("video_id", videoID))

	result, err := AwaitReadiness(ctx, p.clock, p.scheduler, ServerWaitPolicy(maxWait), func(ctx context.Context) (domain.ReadinessStatus, error) {
		return p.GetStatus(ctx, provider, videoID)
	}, log)
	if err != nil && !errors.Is(err, ErrProcessingFailed) {
		log.Error("waiting for readiness", zap.Error(err))
	}
	return result, err
}
