package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/casting-intake/internal/core/domain"
)

type AuditionRepository struct {
	mu        sync.RWMutex
	nextID    int64
	auditions map[int64]*domain.Audition
}

func NewAuditionRepository() *AuditionRepository {
	return &AuditionRepository{
		auditions: make(map[int64]*domain.Audition),
	}
}

func (r *AuditionRepository) Insert(ctx context.Context, audition *domain.Audition) (*domain.Audition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	copied := cloneAudition(audition)
	copied.ID = r.nextID
	r.auditions[copied.ID] = copied
	return cloneAudition(copied), nil
}

func (r *AuditionRepository) FindByID(ctx context.Context, id int64) (*domain.Audition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	audition, exists := r.auditions[id]
	if !exists {
		return nil, nil
	}
	return cloneAudition(audition), nil
}

func (r *AuditionRepository) UpdateVideoStatus(ctx context.Context, id int64, status domain.VideoStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	audition, exists := r.auditions[id]
	if !exists {
		return fmt.Errorf("audition %d does not exist", id)
	}
	audition.VideoStatus = status
	audition.UpdatedAt = at
	return nil
}

func (r *AuditionRepository) All() []*domain.Audition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Audition, 0, len(r.auditions))
	for id := int64(1); id <= r.nextID; id++ {
		if a, ok := r.auditions[id]; ok {
			out = append(out, cloneAudition(a))
		}
	}
	return out
}

func cloneAudition(a *domain.Audition) *domain.Audition {
	copied := *a
	copied.ProfilePictures = append([]string(nil), a.ProfilePictures...)
	return &copied
}
