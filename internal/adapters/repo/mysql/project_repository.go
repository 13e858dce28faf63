package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/casting-intake/internal/core/domain"
)

type ProjectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create stores the project and its roles in one transaction.
func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO projects (name, description, upload_method, director, production_company, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		project.Name,
		project.Description,
		project.UploadMethod,
		project.Director,
		project.ProductionCompany,
		project.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, role := range project.Roles {
		if _, err := tx.ExecContext(ctx, `INSERT INTO project_roles (project_id, role_name, channel_id) VALUES (?, ?, ?)`, id, role.Name, role.ChannelID); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, id int64) (*domain.Project, error) {
	query := `
		SELECT id, name, description, upload_method, director, production_company, created_at
		FROM projects
		WHERE id = ?
	`

	var project domain.Project
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.UploadMethod,
		&project.Director,
		&project.ProductionCompany,
		&project.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, project_id, role_name, channel_id FROM project_roles WHERE project_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.ProjectID, &role.Name, &role.ChannelID); err != nil {
			return nil, err
		}
		project.Roles = append(project.Roles, role)
	}
	return &project, rows.Err()
}

func (r *ProjectRepository) AddRole(ctx context.Context, projectID int64, role domain.Role) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO project_roles (project_id, role_name, channel_id) VALUES (?, ?, ?)`, projectID, role.Name, role.ChannelID)
	return err
}
