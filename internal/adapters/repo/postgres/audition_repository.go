package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/casting-intake/internal/core/domain"
)

const auditionColumns = `id, project_id, role, first_name_he, last_name_he, first_name_en, last_name_en,
	phone, email, agency, age, height, profile_pictures, showreel_url,
	video_url, video_type, video_status, created_at, updated_at`

type AuditionRepository struct {
	pool *pgxpool.Pool
}

func NewAuditionRepository(pool *pgxpool.Pool) *AuditionRepository {
	return &AuditionRepository{pool: pool}
}

func (r *AuditionRepository) Insert(ctx context.Context, a *domain.Audition) (*domain.Audition, error) {
	pictures := a.ProfilePictures
	if pictures == nil {
		pictures = []string{}
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO auditions (
			project_id, role, first_name_he, last_name_he, first_name_en, last_name_en,
			phone, email, agency, age, height, profile_pictures, showreel_url,
			video_url, video_type, video_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING `+auditionColumns,
		a.ProjectID, a.Role, a.FirstNameHe, a.LastNameHe, a.FirstNameEn, a.LastNameEn,
		a.Phone, a.Email, a.Agency, a.Age, a.Height, pictures, a.ShowreelURL,
		a.VideoURL, a.VideoType, string(a.VideoStatus), a.CreatedAt, a.UpdatedAt,
	)
	stored, err := scanAudition(row)
	if err != nil {
		return nil, fmt.Errorf("inserting audition: %w", err)
	}
	return stored, nil
}

func (r *AuditionRepository) FindByID(ctx context.Context, id int64) (*domain.Audition, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+auditionColumns+` FROM auditions WHERE id = $1`, id)
	a, err := scanAudition(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (r *AuditionRepository) UpdateVideoStatus(ctx context.Context, id int64, status domain.VideoStatus, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE auditions SET video_status = $1, updated_at = $2 WHERE id = $3`, string(status), at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("audition %d does not exist", id)
	}
	return nil
}

func scanAudition(row pgx.Row) (*domain.Audition, error) {
	var (
		a      domain.Audition
		status string
	)
	err := row.Scan(
		&a.ID, &a.ProjectID, &a.Role, &a.FirstNameHe, &a.LastNameHe, &a.FirstNameEn, &a.LastNameEn,
		&a.Phone, &a.Email, &a.Agency, &a.Age, &a.Height, &a.ProfilePictures, &a.ShowreelURL,
		&a.VideoURL, &a.VideoType, &status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.VideoStatus = domain.VideoStatus(status)
	return &a, nil
}
