package collector

import (
	"context"

	"github.com/kurihiro0119/gitlab-commit-checker/internal/domain"
)

// Collector defines the interface for fetching commit data from GitLab
type Collector interface {
	// FetchLatestCommit retrieves the most recent commit of target's branch.
	// Failures are *errors.AppError values carrying a user-facing message.
	FetchLatestCommit(ctx context.Context, baseURL string, target domain.Target, creds domain.Credentials) (*domain.CommitRecord, error)
}
