package services

import (
	"context"
	"time"

	"github.com/casting-intake/internal/core/domain"
)

type AuditionRepository interface {
	Insert(ctx context.Context, audition *domain.Audition) (*domain.Audition, error)
	FindByID(ctx context.Context, id int64) (*domain.Audition, error)
	UpdateVideoStatus(ctx context.Context, id int64, status domain.VideoStatus, at time.Time) error
}
