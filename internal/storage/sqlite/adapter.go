package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kurihiro0119/gitlab-commit-checker/internal/domain"
	"github.com/kurihiro0119/gitlab-commit-checker/internal/storage"
)

// sqliteStorage implements the Storage interface for SQLite
type sqliteStorage struct {
	db    *sql.DB
	limit int
}

// NewSQLiteStorage creates a new SQLite storage instance keeping at most
// limit history records (storage.DefaultHistoryLimit when limit <= 0)
func NewSQLiteStorage(dbPath string, limit int) (storage.Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = storage.DefaultHistoryLimit
	}

	s := &sqliteStorage{db: db, limit: limit}
	if err := s.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Migrate runs database migrations
func (s *sqliteStorage) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS history (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		time TEXT NOT NULL,
		gitlab_url TEXT NOT NULL,
		projects TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_history_gitlab_url ON history(gitlab_url);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveHistory saves a record and evicts the oldest ones beyond the limit
func (s *sqliteStorage) SaveHistory(ctx context.Context, record *domain.HistoryRecord) error {
	projectsJSON, err := json.Marshal(record.Projects)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO history (id, time, gitlab_url, projects, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		record.ID,
		record.Time,
		record.GitLabURL,
		string(projectsJSON),
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert history: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM history
		WHERE seq NOT IN (SELECT seq FROM history ORDER BY seq DESC LIMIT ?)
	`, s.limit)
	if err != nil {
		return fmt.Errorf("failed to evict history: %w", err)
	}

	return tx.Commit()
}

// ListHistory returns history records, newest first
func (s *sqliteStorage) ListHistory(ctx context.Context, limit int) ([]*domain.HistoryRecord, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, time, gitlab_url, projects, created_at
		FROM history
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.HistoryRecord
	for rows.Next() {
		var record domain.HistoryRecord
		var projectsJSON string
		if err := rows.Scan(&record.ID, &record.Time, &record.GitLabURL, &projectsJSON, &record.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(projectsJSON), &record.Projects); err != nil {
			return nil, fmt.Errorf("failed to decode projects of %s: %w", record.ID, err)
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}

// ClearHistory removes all history records
func (s *sqliteStorage) ClearHistory(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM history`)
	return err
}

// Close closes the database connection
func (s *sqliteStorage) Close() error {
	return s.db.Close()
}
