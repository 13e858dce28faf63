package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/casting-intake/internal/core/domain"
)

type AuditionRepository struct {
	db *sql.DB
}

func NewAuditionRepository(db *sql.DB) *AuditionRepository {
	return &AuditionRepository{db: db}
}

func (r *AuditionRepository) Insert(ctx context.Context, a *domain.Audition) (*domain.Audition, error) {
	pictures, err := json.Marshal(a.ProfilePictures)
	if err != nil {
		return nil, fmt.Errorf("encoding profile pictures: %w", err)
	}

	query := `
		INSERT INTO auditions (
			project_id, role, first_name_he, last_name_he, first_name_en, last_name_en,
			phone, email, agency, age, height, profile_pictures, showreel_url,
			video_url, video_type, video_status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, query,
		a.ProjectID, a.Role, a.FirstNameHe, a.LastNameHe, a.FirstNameEn, a.LastNameEn,
		a.Phone, a.Email, a.Agency, nullInt(a.Age), nullInt(a.Height), string(pictures), a.ShowreelURL,
		a.VideoURL, a.VideoType, string(a.VideoStatus), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	stored := *a
	stored.ID = id
	return &stored, nil
}

func (r *AuditionRepository) FindByID(ctx context.Context, id int64) (*domain.Audition, error) {
	query := `
		SELECT id, project_id, role, first_name_he, last_name_he, first_name_en, last_name_en,
			phone, email, agency, age, height, profile_pictures, showreel_url,
			video_url, video_type, video_status, created_at, updated_at
		FROM auditions
		WHERE id = ?
	`

	var (
		a        domain.Audition
		age      sql.NullInt64
		height   sql.NullInt64
		pictures sql.NullString
		status   string
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.ProjectID, &a.Role, &a.FirstNameHe, &a.LastNameHe, &a.FirstNameEn, &a.LastNameEn,
		&a.Phone, &a.Email, &a.Agency, &age, &height, &pictures, &a.ShowreelURL,
		&a.VideoURL, &a.VideoType, &status, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	a.VideoStatus = domain.VideoStatus(status)
	a.Age = intPtr(age)
	a.Height = intPtr(height)
	if pictures.Valid && pictures.String != "" {
		if err := json.Unmarshal([]byte(pictures.String), &a.ProfilePictures); err != nil {
			return nil, fmt.Errorf("decoding profile pictures: %w", err)
		}
	}
	return &a, nil
}

func (r *AuditionRepository) UpdateVideoStatus(ctx context.Context, id int64, status domain.VideoStatus, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE auditions SET video_status = ?, updated_at = ? WHERE id = ?`, string(status), at, id)
	return err
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
