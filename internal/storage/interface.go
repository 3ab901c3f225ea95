package storage

import (
	"context"

	"github.com/kurihiro0119/gitlab-commit-checker/internal/domain"
)

// DefaultHistoryLimit is how many history records are kept
const DefaultHistoryLimit = 50

// Storage is the abstract interface for the persistence layer
type Storage interface {
	// SaveHistory prepends a record and evicts the oldest records beyond
	// the store's limit
	SaveHistory(ctx context.Context, record *domain.HistoryRecord) error

	// ListHistory returns up to limit records, newest first. limit <= 0
	// returns all of them.
	ListHistory(ctx context.Context, limit int) ([]*domain.HistoryRecord, error)

	// ClearHistory removes every record
	ClearHistory(ctx context.Context) error

	// Migration
	Migrate(ctx context.Context) error

	// Connection management
	Close() error
}
