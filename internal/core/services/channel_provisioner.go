package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/casting-intake/internal/core/domain"
)

const (
	DefaultChannelMaxAttempts    = 5
	DefaultChannelInitialBackoff = time.Second
)

type provisionState int

const (
	stateAttempting provisionState = iota
	stateBackingOff
	stateFallback
	stateSucceeded
	stateFailed
)

func (s provisionState) String() string {
	switch s {
	case stateAttempting:
		return "attempting"
	case stateBackingOff:
		return "backing_off"
	case stateFallback:
		return "fallback"
	case stateSucceeded:
		return "succeeded"
	case stateFailed:
		return "failed"
	}
	return "unknown"
}

type ChannelProvisionerConfig struct {
	DefaultChannelID string
	MaxAttempts      int
	InitialBackoff   time.Duration
}

type ChannelProvisioner struct {
	creator   ChannelCreator
	scheduler Scheduler
	cfg       ChannelProvisionerConfig
	logger    *zap.Logger
}

func NewChannelProvisioner(creator ChannelCreator, scheduler Scheduler, cfg ChannelProvisionerConfig, logger *zap.Logger) *ChannelProvisioner {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultChannelMaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultChannelInitialBackoff
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChannelProvisioner{creator: creator, scheduler: scheduler, cfg: cfg, logger: logger}
}

func ChannelName(projectName, roleName string) string {
	return strings.TrimSpace(projectName) + " - " + strings.TrimSpace(roleName)
}

// ProvisionChannel keeps all retry state local to the call, so roles can be
// provisioned concurrently.
func (p *ChannelProvisioner) ProvisionChannel(ctx context.Context, projectName, roleName string) (domain.DistributionChannel, error) {
	result := domain.DistributionChannel{ProjectName: projectName, RoleName: roleName}
	if strings.TrimSpace(roleName) == "" {
		return result, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}

	name := ChannelName(projectName, roleName)
	log := p.logger.With(zap.String("project", projectName), zap.String("role", roleName))

	schedule := &backoff.ExponentialBackOff{
		InitialInterval:     p.cfg.InitialBackoff,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         p.cfg.InitialBackoff << p.cfg.MaxAttempts,
	}
	schedule.Reset()

	var (
		state    = stateAttempting
		attempts int
		delay    time.Duration
		lastErr  error
	)

	for {
		log.Debug("channel provisioner step", zap.Stringer("state", state), zap.Int("attempt", attempts))
		switch state {
		case stateAttempting:
			attempts++
			channelID, err := p.creator.CreateChannel(ctx, name)
			switch {
			case err == nil && channelID != "":
				result.ChannelID = channelID
				state = stateSucceeded
			case err == nil:
				lastErr = errors.New("provider returned no channel id")
				state = stateFailed
			case errors.Is(err, ErrQuotaExceeded):
				lastErr = err
				log.Warn("channel quota exceeded", zap.Int("attempt", attempts), zap.Error(err))
				state = stateFallback
			case errors.Is(err, ErrRateLimited):
				lastErr = err
				if attempts >= p.cfg.MaxAttempts {
					log.Warn("channel rate limit retries exhausted", zap.Int("attempt", attempts))
					state = stateFallback
					break
				}
				delay = schedule.NextBackOff()
				state = stateBackingOff
			default:
				lastErr = err
				state = stateFailed
			}

		case stateBackingOff:
			log.Warn("channel creation rate limited, backing off", zap.Int("attempt", attempts), zap.Duration("delay", delay))
			if err := p.scheduler.Sleep(ctx, delay); err != nil {
				lastErr = err
				state = stateFailed
				break
			}
			state = stateAttempting

		case stateFallback:
			if p.cfg.DefaultChannelID == "" {
				lastErr = fmt.Errorf("no default channel configured: %w", lastErr)
				state = stateFailed
				break
			}
			result.ChannelID = p.cfg.DefaultChannelID
			result.UsedDefault = true
			log.Warn("using default channel", zap.String("channel_id", result.ChannelID), zap.Int("attempt", attempts))
			return result, nil

		case stateSucceeded:
			log.Info("channel created", zap.String("channel_id", result.ChannelID), zap.Int("attempt", attempts))
			return result, nil

		case stateFailed:
			log.Error("channel provisioning failed", zap.Int("attempt", attempts), zap.Error(lastErr))
			return result, &ChannelProvisionError{Project: projectName, Role: roleName, Attempts: attempts, Err: lastErr}
		}
	}
}
