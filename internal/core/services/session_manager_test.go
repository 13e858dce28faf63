package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casting-intake/internal/adapters/sessionstore/memory"
	"github.com/casting-intake/internal/core/services"
)

func TestCreateSession_RoutesThroughProxy(t *testing.T) {
	clock := services.NewFakeClock(baseTime)
	store := memory.NewSessionStore(clock)
	mgr := services.NewSessionManager(&fakeCreator{}, store, clock, 0, "https://casting.example.com/", nil)

	res, err := mgr.CreateSession(context.Background(), "Audition_1")
	require.NoError(t, err)

	assert.Equal(t, "vid-1", res.VideoID)
	assert.Equal(t, "Audition_1", res.Title)
	assert.Equal(t, "https://casting.example.com/api/secure-upload/vid-1", res.UploadURL)
	assert.Len(t, res.Token, 64)
	assert.Equal(t, baseTime.Add(30*time.Minute), res.ExpiresAt)

	session, err := store.Get(context.Background(), res.Token)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "vid-1", session.ProviderVideoID)
}

func TestCreateSession_DefaultTitle(t *testing.T) {
	clock := services.NewFakeClock(baseTime)
	creator := &fakeCreator{}
	mgr := services.NewSessionManager(creator, memory.NewSessionStore(clock), clock, 0, "", nil)

	res, err := mgr.CreateSession(context.Background(), "  ")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Title, "upload_"))
	assert.Equal(t, res.Title, creator.calls[0])
}

func TestCreateSession_TokensAreUnique(t *testing.T) {
	clock := services.NewFakeClock(baseTime)
	mgr := services.NewSessionManager(&fakeCreator{}, memory.NewSessionStore(clock), clock, 0, "", nil)

	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		res, err := mgr.CreateSession(context.Background(), "t")
		require.NoError(t, err)
		_, dup := seen[res.Token]
		require.False(t, dup, "duplicate token after %d sessions", i)
		seen[res.Token] = struct{}{}
	}
}

func TestCreateSession_ProviderFailureRegistersNothing(t *testing.T) {
	clock := services.NewFakeClock(baseTime)
	store := memory.NewSessionStore(clock)
	mgr := services.NewSessionManager(&fakeCreator{err: errors.New("503 from provider")}, store, clock, 0, "", nil)

	res, err := mgr.CreateSession(context.Background(), "x")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, services.ErrProviderCreateFailed)
	assert.Zero(t, store.Len())
}

func TestCreateSession_TokenExpiresAfterTTL(t *testing.T) {
	clock := services.NewFakeClock(baseTime)
	store := memory.NewSessionStore(clock)
	mgr := services.NewSessionManager(&fakeCreator{}, store, clock, 30*time.Minute, "", nil)
	ctx := context.Background()

	res, err := mgr.CreateSession(ctx, "x")
	require.NoError(t, err)

	clock.Advance(29*time.Minute + 59*time.Second)
	got, _ := store.Get(ctx, res.Token)
	assert.NotNil(t, got)

	clock.Advance(time.Second)
	got, _ = store.Get(ctx, res.Token)
	assert.Nil(t, got)

	removed, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}
