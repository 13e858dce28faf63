package services

import (
	"fmt"

	"github.com/casting-intake/internal/core/domain"
)

// StatusNormalizer maps one provider's raw status payload onto the shared
// readiness vocabulary. Implementations must be pure.
type StatusNormalizer interface {
	Normalize(raw []byte) (domain.ReadinessStatus, error)
}

type Artifacts struct {
	Thumbnail       string
	DurationSeconds float64
	ProviderFlagged bool
}

func (a Artifacts) present() bool {
	return a.Thumbnail != "" || a.DurationSeconds > 0
}

// ScoreReadiness computes confidence and readyToStream instead of trusting a
// provider flag on its own.
func ScoreReadiness(state domain.ProcessingState, artifacts Artifacts) (domain.Confidence, bool) {
	if state != domain.StateReady {
		return domain.ConfidenceNone, false
	}
	switch {
	case artifacts.present():
		return domain.ConfidenceHigh, true
	case artifacts.ProviderFlagged:
		return domain.ConfidenceMedium, true
	default:
		return domain.ConfidenceLow, false
	}
}

// CodeTable maps numeric provider status codes. Negative codes are always
// failures and unmapped codes become unknown.
type CodeTable map[int]domain.ProcessingState

func (t CodeTable) Lookup(code int) (state domain.ProcessingState, raw string) {
	if code < 0 {
		return domain.StateFailed, fmt.Sprintf("code_%d", code)
	}
	if s, ok := t[code]; ok {
		return s, fmt.Sprintf("%d", code)
	}
	return domain.StateUnknown, fmt.Sprintf("code_%d", code)
}
