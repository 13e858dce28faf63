package youtube_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/casting-intake/internal/adapters/provider/youtube"
	"github.com/casting-intake/internal/core/domain"
	"github.com/casting-intake/internal/core/services"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *youtube.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := yt.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return youtube.NewClient(svc, 0)
}

func apiError(w http.ResponseWriter, code int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":{"code":%d,"message":"%s","errors":[{"reason":"%s","domain":"youtube.quota","message":"%s"}]}}`, code, reason, reason, reason)
}

func TestCreateChannel_InsertsUnlistedPlaylist(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/playlists"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"PL123","snippet":{"title":"Show - Lead"},"status":{"privacyStatus":"unlisted"}}`))
	})

	id, err := client.CreateChannel(context.Background(), "Show - Lead")
	require.NoError(t, err)
	assert.Equal(t, "PL123", id)
}

func TestCreateChannel_ClassifiesErrors(t *testing.T) {
	cases := []struct {
		code   int
		reason string
		want   error
	}{
		{http.StatusForbidden, "quotaExceeded", services.ErrQuotaExceeded},
		{http.StatusForbidden, "dailyLimitExceeded", services.ErrQuotaExceeded},
		{http.StatusForbidden, "rateLimitExceeded", services.ErrRateLimited},
		{http.StatusForbidden, "userRateLimitExceeded", services.ErrRateLimited},
		{http.StatusTooManyRequests, "tooMany", services.ErrRateLimited},
	}
	for _, tc := range cases {
		t.Run(tc.reason, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				apiError(w, tc.code, tc.reason)
			})
			_, err := client.CreateChannel(context.Background(), "x")
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestCreateChannel_OtherErrorsNotRetryable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		apiError(w, http.StatusForbidden, "forbidden")
	})
	_, err := client.CreateChannel(context.Background(), "x")
	require.Error(t, err)
	assert.False(t, errors.Is(err, services.ErrRateLimited))
	assert.False(t, errors.Is(err, services.ErrQuotaExceeded))

	var perr *services.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusForbidden, perr.StatusCode)
}

func TestFetchStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "vid-1", r.URL.Query().Get("id"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"id":"vid-1","status":{"uploadStatus":"processed"},"processingDetails":{"processingStatus":"succeeded"},"contentDetails":{"duration":"PT10S"}}]}`))
	})

	raw, err := client.FetchStatus(context.Background(), "vid-1")
	require.NoError(t, err)
	status, err := client.Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.StateReady, status.State)
	assert.Equal(t, domain.ConfidenceHigh, status.Confidence)
}

func TestFetchStatus_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[]}`))
	})

	_, err := client.FetchStatus(context.Background(), "gone")
	var perr *services.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusNotFound, perr.StatusCode)
}
