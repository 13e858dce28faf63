package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		upload_method TEXT NOT NULL DEFAULT '',
		director TEXT NOT NULL DEFAULT '',
		production_company TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS project_roles (
		id BIGSERIAL PRIMARY KEY,
		project_id BIGINT NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
		role_name TEXT NOT NULL,
		channel_id TEXT NOT NULL DEFAULT '',
		UNIQUE (project_id, role_name)
	)`,
	`CREATE TABLE IF NOT EXISTS auditions (
		id BIGSERIAL PRIMARY KEY,
		project_id BIGINT NOT NULL,
		role TEXT NOT NULL,
		first_name_he TEXT NOT NULL DEFAULT '',
		last_name_he TEXT NOT NULL DEFAULT '',
		first_name_en TEXT NOT NULL DEFAULT '',
		last_name_en TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL,
		agency TEXT NOT NULL DEFAULT '',
		age INTEGER,
		height INTEGER,
		profile_pictures TEXT[] NOT NULL DEFAULT '{}',
		showreel_url TEXT NOT NULL DEFAULT '',
		video_url TEXT NOT NULL,
		video_type TEXT NOT NULL,
		video_status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_auditions_pending ON auditions (video_status) WHERE video_status = 'pending'`,
}

// Open creates a pool for databaseURL and checks it with a ping.
func Open(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	if cfg.MaxConns < 4 {
		cfg.MaxConns = 4
	}
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return pool, nil
}

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, m := range migrations {
		if _, err := pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("running migration: %w", err)
		}
	}
	return nil
}
