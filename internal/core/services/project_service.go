package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/casting-intake/internal/core/domain"
)

type RoleInput struct {
	Name      string `json:"name"`
	ChannelID string `json:"channelId,omitempty"`
}

type CreateProjectInput struct {
	Name              string      `json:"name"`
	Description       string      `json:"description"`
	UploadMethod      string      `json:"uploadMethod"`
	Director          string      `json:"director"`
	ProductionCompany string      `json:"productionCompany"`
	Roles             []RoleInput `json:"roles"`
}

type ProvisionedRole struct {
	Name        string `json:"name"`
	ChannelID   string `json:"channelId"`
	UsedDefault bool   `json:"usedDefault"`
}

type CreateProjectResult struct {
	ID    int64             `json:"id"`
	Roles []ProvisionedRole `json:"roles"`
}

type ProjectService struct {
	projects    ProjectRepository
	provisioner *ChannelProvisioner
	clock       Clock
	logger      *zap.Logger
}

func NewProjectService(projects ProjectRepository, provisioner *ChannelProvisioner, clock Clock, logger *zap.Logger) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{projects: projects, provisioner: provisioner, clock: clock, logger: logger}
}

// CreateProject provisions a channel for every role that arrives without one.
// A provisioning error aborts the whole project and nothing is stored.
func (s *ProjectService) CreateProject(ctx context.Context, input CreateProjectInput) (*CreateProjectResult, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", ErrInvalidInput)
	}
	seen := make(map[string]struct{}, len(input.Roles))
	for _, r := range input.Roles {
		key := strings.ToLower(strings.TrimSpace(r.Name))
		if key == "" {
			return nil, fmt.Errorf("%w: role name is required", ErrInvalidInput)
		}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: duplicate role %q", ErrInvalidInput, r.Name)
		}
		seen[key] = struct{}{}
	}

	provisioned := make([]ProvisionedRole, len(input.Roles))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range input.Roles {
		roleName := strings.TrimSpace(r.Name)
		if r.ChannelID != "" {
			provisioned[i] = ProvisionedRole{Name: roleName, ChannelID: r.ChannelID}
			continue
		}
		g.Go(func() error {
			ch, err := s.provisioner.ProvisionChannel(gctx, name, roleName)
			if err != nil {
				return err
			}
			provisioned[i] = ProvisionedRole{Name: roleName, ChannelID: ch.ChannelID, UsedDefault: ch.UsedDefault}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	project := &domain.Project{
		Name:              name,
		Description:       input.Description,
		UploadMethod:      input.UploadMethod,
		Director:          input.Director,
		ProductionCompany: input.ProductionCompany,
		CreatedAt:         s.clock.Now(),
	}
	for _, r := range provisioned {
		project.Roles = append(project.Roles, domain.Role{Name: r.Name, ChannelID: r.ChannelID})
	}

	id, err := s.projects.Create(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("storing project: %w", err)
	}
	s.logger.Info("project created", zap.Int64("project_id", id), zap.String("project", name), zap.Int("roles", len(provisioned)))

	return &CreateProjectResult{ID: id, Roles: provisioned}, nil
}

func (s *ProjectService) AddRole(ctx context.Context, projectID int64, roleName string) (*ProvisionedRole, error) {
	roleName = strings.TrimSpace(roleName)
	if roleName == "" {
		return nil, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}

	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}
	for _, r := range project.Roles {
		if strings.EqualFold(r.Name, roleName) {
			return nil, fmt.Errorf("%w: role %q already exists", ErrInvalidInput, roleName)
		}
	}

	ch, err := s.provisioner.ProvisionChannel(ctx, project.Name, roleName)
	if err != nil {
		return nil, err
	}
	if err := s.projects.AddRole(ctx, projectID, domain.Role{ProjectID: projectID, Name: roleName, ChannelID: ch.ChannelID}); err != nil {
		return nil, fmt.Errorf("storing role: %w", err)
	}
	return &ProvisionedRole{Name: roleName, ChannelID: ch.ChannelID, UsedDefault: ch.UsedDefault}, nil
}

func (s *ProjectService) GetProject(ctx context.Context, projectID int64) (*domain.Project, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}
	return project, nil
}
