package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	driver "github.com/go-sql-driver/mysql"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		upload_method VARCHAR(64) NOT NULL DEFAULT '',
		director VARCHAR(255) NOT NULL DEFAULT '',
		production_company VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS project_roles (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		project_id BIGINT NOT NULL,
		role_name VARCHAR(255) NOT NULL,
		channel_id VARCHAR(255) NOT NULL DEFAULT '',
		UNIQUE KEY uk_project_role (project_id, role_name),
		CONSTRAINT fk_role_project FOREIGN KEY (project_id) REFERENCES projects (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS auditions (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		project_id BIGINT NOT NULL,
		role VARCHAR(255) NOT NULL,
		first_name_he VARCHAR(255) NOT NULL DEFAULT '',
		last_name_he VARCHAR(255) NOT NULL DEFAULT '',
		first_name_en VARCHAR(255) NOT NULL DEFAULT '',
		last_name_en VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(64) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL,
		agency VARCHAR(255) NOT NULL DEFAULT '',
		age INT NULL,
		height INT NULL,
		profile_pictures JSON NULL,
		showreel_url VARCHAR(1024) NOT NULL DEFAULT '',
		video_url VARCHAR(1024) NOT NULL,
		video_type VARCHAR(32) NOT NULL,
		video_status VARCHAR(16) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_audition_project (project_id, role),
		INDEX idx_audition_pending (video_status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

func Migrate(ctx context.Context, db *sql.DB) error {
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("running migration: %w", err)
		}
	}
	return nil
}

// Open forces parseTime so DATETIME and TIMESTAMP columns scan into time.Time.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := driver.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	if cfg.Loc == nil {
		cfg.Loc = time.UTC
	}

	connector, err := driver.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging mysql: %w", err)
	}
	return db, nil
}
