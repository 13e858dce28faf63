package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casting-intake/internal/core/domain"
	"github.com/casting-intake/internal/core/services"
)

func newPoller(sources ...services.StatusSource) (*services.ReadinessPoller, *services.FakeScheduler) {
	clock := services.NewFakeClock(baseTime)
	scheduler := services.NewFakeScheduler(clock)
	return services.NewReadinessPoller(clock, scheduler, nil, sources...), scheduler
}

func TestWaitUntilReady_TimesOutAtMaxWait(t *testing.T) {
	src := &sequenceSource{tag: "bunny", statuses: []domain.ReadinessStatus{stEncoding}}
	poller, scheduler := newPoller(src)

	res, err := poller.WaitUntilReady(context.Background(), "bunny", "vid-1", 15*time.Second)
	require.NoError(t, err)
	assert.False(t, res.Ready)
	assert.True(t, res.TimedOut)
	assert.False(t, res.Forced)
	assert.Equal(t, 6, res.Checks)

	var total time.Duration
	for _, d := range scheduler.Delays() {
		total += d
	}
	assert.Equal(t, 15*time.Second, total)
}

func TestWaitUntilReady_ReturnsOnceReady(t *testing.T) {
	src := &sequenceSource{tag: "bunny", statuses: []domain.ReadinessStatus{stEncoding, stEncoding, stReadyHigh}}
	poller, scheduler := newPoller(src)

	res, err := poller.WaitUntilReady(context.Background(), "bunny", "vid-1", 15*time.Second)
	require.NoError(t, err)
	assert.True(t, res.Ready)
	assert.False(t, res.TimedOut)
	assert.Equal(t, 3, res.Checks)
	assert.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second}, scheduler.Delays())
	assert.Equal(t, "bunny", res.Status.Provider)
	assert.Equal(t, "vid-1", res.Status.VideoID)
}

func TestWaitUntilReady_FailedStateShortCircuits(t *testing.T) {
	src := &sequenceSource{tag: "bunny", statuses: []domain.ReadinessStatus{stEncoding, stFailed}}
	poller, _ := newPoller(src)

	res, err := poller.WaitUntilReady(context.Background(), "bunny", "vid-1", 15*time.Second)
	assert.ErrorIs(t, err, services.ErrProcessingFailed)
	assert.Equal(t, 2, res.Checks)
	assert.Equal(t, 2, src.pollCount())
}

func TestWaitUntilReady_LowConfidenceAcceptedAfterFiveChecks(t *testing.T) {
	src := &sequenceSource{tag: "bunny", statuses: []domain.ReadinessStatus{stReadyLow}}
	poller, _ := newPoller(src)

	res, err := poller.WaitUntilReady(context.Background(), "bunny", "vid-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Ready)
	assert.Equal(t, 5, res.Checks)
	assert.Equal(t, domain.ConfidenceLow, res.Status.Confidence)
}

func TestWaitUntilReady_PollErrorsCountAsNotReady(t *testing.T) {
	src := &sequenceSource{
		tag:      "bunny",
		statuses: []domain.ReadinessStatus{stReadyHigh},
		errs:     []error{errors.New("502"), errors.New("timeout")},
	}
	poller, _ := newPoller(src)

	res, err := poller.WaitUntilReady(context.Background(), "bunny", "vid-1", 15*time.Second)
	require.NoError(t, err)
	assert.True(t, res.Ready)
	assert.Equal(t, 3, res.Checks)
}

func TestWaitUntilReady_UnknownProvider(t *testing.T) {
	poller, _ := newPoller()
	_, err := poller.WaitUntilReady(context.Background(), "vimeo", "vid-1", time.Second)
	assert.ErrorIs(t, err, services.ErrUnknownProvider)
}

func TestGetStatus_Validation(t *testing.T) {
	poller, _ := newPoller(&sequenceSource{tag: "bunny", statuses: []domain.ReadinessStatus{stEncoding}})

	_, err := poller.GetStatus(context.Background(), "bunny", "")
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	_, err = poller.GetStatus(context.Background(), "nope", "v")
	assert.ErrorIs(t, err, services.ErrUnknownProvider)
}

func TestAwaitReadiness_ClientPolicyForcesCompletion(t *testing.T) {
	clock := services.NewFakeClock(baseTime)
	scheduler := services.NewFakeScheduler(clock)
	check := func(ctx context.Context) (domain.ReadinessStatus, error) { return stEncoding, nil }

	res, err := services.AwaitReadiness(context.Background(), clock, scheduler, services.ClientWaitPolicy(), check, nil)
	require.NoError(t, err)
	assert.True(t, res.Ready)
	assert.True(t, res.Forced)
	assert.True(t, res.TimedOut)
	assert.Equal(t, 9, res.Checks)
	assert.Equal(t, []time.Duration{
		3 * time.Second, 3 * time.Second, 3 * time.Second, 3 * time.Second, 3 * time.Second,
		5 * time.Second, 5 * time.Second, 5 * time.Second,
	}, scheduler.Delays())
}

func TestAwaitReadiness_MaxChecksBound(t *testing.T) {
	clock := services.NewFakeClock(baseTime)
	scheduler := services.NewFakeScheduler(clock)
	policy := services.WaitPolicy{FastInterval: time.Second, FastChecks: 100, MaxChecks: 4}
	check := func(ctx context.Context) (domain.ReadinessStatus, error) { return stEncoding, nil }

	res, err := services.AwaitReadiness(context.Background(), clock, scheduler, policy, check, nil)
	require.NoError(t, err)
	assert.True(t, res.TimedOut)
	assert.False(t, res.Ready)
	assert.Equal(t, 4, res.Checks)
}

func TestAwaitReadiness_UnboundedPolicyRejected(t *testing.T) {
	clock := services.NewFakeClock(baseTime)
	_, err := services.AwaitReadiness(context.Background(), clock, services.NewFakeScheduler(clock), services.WaitPolicy{}, nil, nil)
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestAwaitReadiness_CancelledContext(t *testing.T) {
	clock := services.NewFakeClock(baseTime)
	ctx, cancel := context.WithCancel(context.Background())
	check := func(ctx context.Context) (domain.ReadinessStatus, error) {
		cancel()
		return stEncoding, nil
	}

	_, err := services.AwaitReadiness(ctx, clock, services.NewFakeScheduler(clock), services.ServerWaitPolicy(time.Minute), check, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScoreReadiness(t *testing.T) {
	c, ok := services.ScoreReadiness(domain.StateReady, services.Artifacts{Thumbnail: "t.jpg"})
	assert.Equal(t, domain.ConfidenceHigh, c)
	assert.True(t, ok)

	c, ok = services.ScoreReadiness(domain.StateReady, services.Artifacts{ProviderFlagged: true})
	assert.Equal(t, domain.ConfidenceMedium, c)
	assert.True(t, ok)

	c, ok = services.ScoreReadiness(domain.StateReady, services.Artifacts{})
	assert.Equal(t, domain.ConfidenceLow, c)
	assert.False(t, ok)

	c, ok = services.ScoreReadiness(domain.StateEncoding, services.Artifacts{Thumbnail: "t.jpg", DurationSeconds: 3})
	assert.Equal(t, domain.ConfidenceNone, c)
	assert.False(t, ok)
}
