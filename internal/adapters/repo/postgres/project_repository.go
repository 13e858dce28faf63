package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/casting-intake/internal/core/domain"
)

type ProjectRepository struct {
	pool *pgxpool.Pool
}

func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) (int64, error) {
	var id int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO projects (name, description, upload_method, director, production_company, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`,
			project.Name,
			project.Description,
			project.UploadMethod,
			project.Director,
			project.ProductionCompany,
			project.CreatedAt,
		).Scan(&id)
		if err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for _, role := range project.Roles {
			batch.Queue(`INSERT INTO project_roles (project_id, role_name, channel_id) VALUES ($1, $2, $3)`, id, role.Name, role.ChannelID)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, id int64) (*domain.Project, error) {
	var project domain.Project
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, description, upload_method, director, production_company, created_at
		FROM projects
		WHERE id = $1
	`, id).Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.UploadMethod,
		&project.Director,
		&project.ProductionCompany,
		&project.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `SELECT id, project_id, role_name, channel_id FROM project_roles WHERE project_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	roles, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Role, error) {
		var role domain.Role
		err := row.Scan(&role.ID, &role.ProjectID, &role.Name, &role.ChannelID)
		return role, err
	})
	if err != nil {
		return nil, err
	}
	if len(roles) > 0 {
		project.Roles = roles
	}
	return &project, nil
}

func (r *ProjectRepository) AddRole(ctx context.Context, projectID int64, role domain.Role) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO project_roles (project_id, role_name, channel_id) VALUES ($1, $2, $3)`, projectID, role.Name, role.ChannelID)
	return err
}
