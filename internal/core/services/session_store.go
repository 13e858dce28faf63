package services

import (
	"context"

	"github.com/casting-intake/internal/core/domain"
)

// SessionStore returns nil, nil for a token that is absent or past its expiry.
type SessionStore interface {
	Put(ctx context.Context, session *domain.UploadSession) error
	Get(ctx context.Context, token string) (*domain.UploadSession, error)
	Sweep(ctx context.Context) (removed int, err error)
}
