package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/casting-intake/internal/core/domain"
	"github.com/casting-intake/internal/core/services"
)

const keyPrefix = "casting:upload-session:"

type sessionRecord struct {
	VideoID   string    `json:"videoId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionStore keeps sessions in Redis so several API replicas share them.
// Keys carry the session TTL, so Redis does the sweeping.
type SessionStore struct {
	rdb   goredis.UniversalClient
	clock services.Clock
}

func NewSessionStore(rdb goredis.UniversalClient, clock services.Clock) *SessionStore {
	return &SessionStore{rdb: rdb, clock: clock}
}

// Open parses a redis:// URL and pings the server.
func Open(ctx context.Context, redisURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := goredis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

func (s *SessionStore) Put(ctx context.Context, session *domain.UploadSession) error {
	ttl := session.ExpiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(sessionRecord{
		VideoID:   session.ProviderVideoID,
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	})
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, keyPrefix+session.Token, data, ttl).Err()
}

func (s *SessionStore) Get(ctx context.Context, token string) (*domain.UploadSession, error) {
	data, err := s.rdb.Get(ctx, keyPrefix+token).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	session := &domain.UploadSession{
		Token:           token,
		ProviderVideoID: rec.VideoID,
		CreatedAt:       rec.CreatedAt,
		ExpiresAt:       rec.ExpiresAt,
	}
	if session.Expired(s.clock.Now()) {
		return nil, nil
	}
	return session, nil
}

func (s *SessionStore) Sweep(ctx context.Context) (int, error) {
	return 0, nil
}
