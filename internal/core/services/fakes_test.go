package services_test

import (
	"context"
	"encoding/json"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/casting-intake/internal/core/domain"
	"github.com/casting-intake/internal/core/services"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeCreator struct {
	mu    sync.Mutex
	next  int
	err   error
	calls []string
}

func (f *fakeCreator) CreateVideo(ctx context.Context, title string) (services.CreatedVideo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, title)
	if f.err != nil {
		return services.CreatedVideo{}, f.err
	}
	f.next++
	return services.CreatedVideo{VideoID: "vid-" + strconv.Itoa(f.next), Title: title}, nil
}

type fakeUploader struct {
	calls    int
	received []services.UploadRequest
	bodies   [][]byte
	status   int
	err      error
}

func (f *fakeUploader) UploadVideo(ctx context.Context, req services.UploadRequest) (*services.UploadResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	data, _ := io.ReadAll(req.Body)
	f.bodies = append(f.bodies, data)
	req.Body = nil
	f.received = append(f.received, req)
	status := f.status
	if status == 0 {
		status = 200
	}
	return &services.UploadResponse{StatusCode: status, ContentType: "application/json", Body: []byte(`{"success":true}`)}, nil
}

// scriptedChannels returns errs in order, then ids.
type scriptedChannels struct {
	mu    sync.Mutex
	errs  []error
	id    string
	names []string
}

func (s *scriptedChannels) CreateChannel(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = append(s.names, name)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return "", err
	}
	return s.id, nil
}

func (s *scriptedChannels) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.names)
}

// sequenceSource serves statuses in order and then repeats the last one.
type sequenceSource struct {
	tag      string
	mu       sync.Mutex
	statuses []domain.ReadinessStatus
	errs     []error
	polls    int
}

func (s *sequenceSource) Tag() string { return s.tag }

func (s *sequenceSource) FetchStatus(ctx context.Context, videoID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.polls
	s.polls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i >= len(s.statuses) {
		i = len(s.statuses) - 1
	}
	return json.Marshal(s.statuses[i])
}

func (s *sequenceSource) Normalize(raw []byte) (domain.ReadinessStatus, error) {
	var st domain.ReadinessStatus
	err := json.Unmarshal(raw, &st)
	return st, err
}

func (s *sequenceSource) pollCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls
}

func status(state domain.ProcessingState, confidence domain.Confidence, ready bool) domain.ReadinessStatus {
	return domain.ReadinessStatus{RawState: string(state), State: state, Confidence: confidence, ReadyToStream: ready}
}

var (
	stEncoding  = status(domain.StateEncoding, domain.ConfidenceNone, false)
	stReadyHigh = status(domain.StateReady, domain.ConfidenceHigh, true)
	stReadyLow  = status(domain.StateReady, domain.ConfidenceLow, false)
	stFailed    = status(domain.StateFailed, domain.ConfidenceNone, false)
)
