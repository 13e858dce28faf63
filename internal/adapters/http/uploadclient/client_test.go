package uploadclient_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casting-intake/internal/adapters/http/uploadclient"
	"github.com/casting-intake/internal/core/domain"
	"github.com/casting-intake/internal/core/services"
)

type fakeAPI struct {
	mu       sync.Mutex
	srv      *httptest.Server
	chunks   []string
	bytes    int
	polls    int
	statuses []string
	expired  bool
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/secure-upload/create", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title string `json:"title"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"guid":"vid-9","title":%q,"uploadUrl":%q,"uploadToken":"tok","tokenExpires":"2026-05-04T12:30:00Z"}`,
			req.Title, f.srv.URL+"/api/secure-upload/vid-9")
	})
	mux.HandleFunc("PUT /api/secure-upload/{videoId}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.expired {
			w.Header().Set("X-Upload-Token-Expired", "true")
			http.Error(w, `{"error":"token expired"}`, http.StatusUnauthorized)
			return
		}
		if r.Header.Get("X-Upload-Token") != "tok" {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		n, _ := io.Copy(io.Discard, r.Body)
		f.bytes += int(n)
		f.chunks = append(f.chunks, r.Header.Get("Content-Range"))
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /api/video/{videoId}/status", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		state := "encoding"
		if f.polls < len(f.statuses) {
			state = f.statuses[f.polls]
		}
		f.polls++
		if state == "gone" {
			http.Error(w, `{"error":"video processing failed"}`, http.StatusUnprocessableEntity)
			return
		}
		ready := state == "ready"
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"guid":%q,"provider":%q,"state":%q,"ready":%t,"confidence":"high"}`,
			r.PathValue("videoId"), r.URL.Query().Get("provider"), state, ready)
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func newClient(f *fakeAPI, opts ...uploadclient.Option) (*uploadclient.Client, *services.FakeScheduler) {
	clock := services.NewFakeClock(time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC))
	scheduler := services.NewFakeScheduler(clock)
	opts = append([]uploadclient.Option{uploadclient.WithClock(clock, scheduler)}, opts...)
	return uploadclient.New(f.srv.URL, f.srv.Client(), opts...), scheduler
}

func TestUpload_SendsRangedChunks(t *testing.T) {
	f := newFakeAPI(t)
	client, _ := newClient(f, uploadclient.WithChunkSize(4))
	ctx := context.Background()

	session, err := client.CreateSession(ctx, "Audition_1")
	require.NoError(t, err)
	assert.Equal(t, "vid-9", session.GUID)
	assert.Equal(t, time.Date(2026, 5, 4, 12, 30, 0, 0, time.UTC), session.TokenExpires.UTC())

	require.NoError(t, client.Upload(ctx, session, strings.NewReader("0123456789"), 10))
	assert.Equal(t, []string{"bytes 0-3/10", "bytes 4-7/10", "bytes 8-9/10"}, f.chunks)
	assert.Equal(t, 10, f.bytes)
}

func TestUpload_ShortReaderFails(t *testing.T) {
	f := newFakeAPI(t)
	client, _ := newClient(f)
	ctx := context.Background()

	session, err := client.CreateSession(ctx, "x")
	require.NoError(t, err)
	require.Error(t, client.Upload(ctx, session, strings.NewReader("abc"), 10))
	require.ErrorIs(t, client.Upload(ctx, session, strings.NewReader(""), 0), services.ErrInvalidInput)
}

func TestUpload_TokenExpired(t *testing.T) {
	f := newFakeAPI(t)
	client, _ := newClient(f)
	ctx := context.Background()

	session, err := client.CreateSession(ctx, "x")
	require.NoError(t, err)
	f.expired = true

	err = client.Upload(ctx, session, bytes.NewReader([]byte("data")), 4)
	require.ErrorIs(t, err, services.ErrTokenExpired)
}

func TestUpload_UnauthorizedIsNotExpiry(t *testing.T) {
	f := newFakeAPI(t)
	client, _ := newClient(f)
	ctx := context.Background()

	session, err := client.CreateSession(ctx, "x")
	require.NoError(t, err)
	session.UploadToken = "forged"

	err = client.Upload(ctx, session, bytes.NewReader([]byte("data")), 4)
	require.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrTokenExpired)
	assert.Contains(t, err.Error(), "unauthorized")
}

func TestPollUntilReady_ReturnsOnReady(t *testing.T) {
	f := newFakeAPI(t)
	f.statuses = []string{"queued", "encoding", "ready"}
	client, scheduler := newClient(f)

	res, err := client.PollUntilReady(context.Background(), "bunny", "vid-9")
	require.NoError(t, err)
	assert.True(t, res.Ready)
	assert.False(t, res.Forced)
	assert.Equal(t, 3, res.Checks)
	assert.Equal(t, "bunny", res.Status.Provider)
	assert.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second}, scheduler.Delays())
}

func TestPollUntilReady_ForcesAfterWallClockBudget(t *testing.T) {
	f := newFakeAPI(t)
	client, scheduler := newClient(f)

	res, err := client.PollUntilReady(context.Background(), "bunny", "vid-9")
	require.NoError(t, err)
	assert.True(t, res.Ready)
	assert.True(t, res.Forced)
	assert.True(t, res.TimedOut)
	assert.Equal(t, 9, res.Checks)
	assert.Equal(t, domain.StateEncoding, res.Status.State)

	var total time.Duration
	for _, d := range scheduler.Delays() {
		total += d
	}
	assert.Equal(t, 30*time.Second, total)
}

func TestPollUntilReady_ProcessingFailed(t *testing.T) {
	f := newFakeAPI(t)
	f.statuses = []string{"queued", "failed"}
	client, _ := newClient(f)

	_, err := client.PollUntilReady(context.Background(), "bunny", "vid-9")
	require.ErrorIs(t, err, services.ErrProcessingFailed)
}

func TestStatus_MapsUnprocessable(t *testing.T) {
	f := newFakeAPI(t)
	f.statuses = []string{"gone"}
	client, _ := newClient(f)

	_, err := client.Status(context.Background(), "", "vid-9")
	require.ErrorIs(t, err, services.ErrProcessingFailed)
}

func TestUploadAndWait(t *testing.T) {
	f := newFakeAPI(t)
	f.statuses = []string{"ready"}
	client, _ := newClient(f)

	payload := bytes.Repeat([]byte("v"), 7)
	res, err := client.UploadAndWait(context.Background(), "bunny", "Audition_1", bytes.NewReader(payload), int64(len(payload)))
	require.NoError(t, err)
	assert.Equal(t, "vid-9", res.Session.GUID)
	assert.True(t, res.Wait.Ready)
	assert.Equal(t, []string{"bytes 0-6/7"}, f.chunks)
}
