package services

import (
	"context"

	"github.com/casting-intake/internal/core/domain"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) (int64, error)
	FindByID(ctx context.Context, id int64) (*domain.Project, error)
	AddRole(ctx context.Context, projectID int64, role domain.Role) error
}
