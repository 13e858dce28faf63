package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/casting-intake/internal/core/domain"
)

const (
	DefaultSessionTTL = 30 * time.Minute
	tokenBytes        = 32
	UploadPathPrefix  = "/api/secure-upload/"
)

type UploadSessionResult struct {
	VideoID   string
	Title     string
	UploadURL string
	Token     string
	ExpiresAt time.Time
}

type SessionManager struct {
	provider      VideoCreator
	store         SessionStore
	clock         Clock
	ttl           time.Duration
	publicBaseURL string
	logger        *zap.Logger
}

func NewSessionManager(provider VideoCreator, store SessionStore, clock Clock, ttl time.Duration, publicBaseURL string, logger *zap.Logger) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		provider:      provider,
		store:         store,
		clock:         clock,
		ttl:           ttl,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
	}
}

func (m *SessionManager) CreateSession(ctx context.Context, title string) (*UploadSessionResult, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = fmt.Sprintf("upload_%d", m.clock.Now().UnixMilli())
	}

	created, err := m.provider.CreateVideo(ctx, title)
	if err != nil {
		m.logger.Error("create provider video", zap.String("title", title), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrProviderCreateFailed, err)
	}
	if created.VideoID == "" {
		m.logger.Error("provider returned no video id", zap.String("title", title))
		return nil, ErrProviderCreateFailed
	}

	token, err := newUploadToken()
	if err != nil {
		return nil, fmt.Errorf("generating upload token: %w", err)
	}

	now := m.clock.Now()
	session := &domain.UploadSession{
		Token:           token,
		ProviderVideoID: created.VideoID,
		CreatedAt:       now,
		ExpiresAt:       now.Add(m.ttl),
	}
	if err := m.store.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("registering upload session: %w", err)
	}

	if created.Title != "" {
		title = created.Title
	}
	m.logger.Info("upload session created", zap.String("video_id", created.VideoID), zap.Time("expires_at", session.ExpiresAt))

	return &UploadSessionResult{
		VideoID:   created.VideoID,
		Title:     title,
		UploadURL: m.publicBaseURL + UploadPathPrefix + url.PathEscape(created.VideoID),
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func newUploadToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
