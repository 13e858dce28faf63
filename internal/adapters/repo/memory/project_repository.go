package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/casting-intake/internal/core/domain"
)

type ProjectRepository struct {
	mu       sync.RWMutex
	nextID   int64
	nextRole int64
	projects map[int64]*domain.Project
}

func NewProjectRepository() *ProjectRepository {
	return &ProjectRepository{
		projects: make(map[int64]*domain.Project),
	}
}

func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	copied := cloneProject(project)
	copied.ID = r.nextID
	for i := range copied.Roles {
		r.nextRole++
		copied.Roles[i].ID = r.nextRole
		copied.Roles[i].ProjectID = copied.ID
	}
	r.projects[copied.ID] = copied
	return copied.ID, nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, id int64) (*domain.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	project, exists := r.projects[id]
	if !exists {
		return nil, nil
	}
	return cloneProject(project), nil
}

func (r *ProjectRepository) AddRole(ctx context.Context, projectID int64, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	project, exists := r.projects[projectID]
	if !exists {
		return fmt.Errorf("project %d does not exist", projectID)
	}
	r.nextRole++
	role.ID = r.nextRole
	role.ProjectID = projectID
	project.Roles = append(project.Roles, role)
	return nil
}

func cloneProject(p *domain.Project) *domain.Project {
	copied := *p
	copied.Roles = append([]domain.Role(nil), p.Roles...)
	return &copied
}
