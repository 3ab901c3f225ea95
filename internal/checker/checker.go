// Package checker runs commit checks for a batch of targets.
package checker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kurihiro0119/gitlab-commit-checker/internal/collector"
	"github.com/kurihiro0119/gitlab-commit-checker/internal/domain"
	apperrors "github.com/kurihiro0119/gitlab-commit-checker/internal/errors"
	"github.com/kurihiro0119/gitlab-commit-checker/internal/parser"
)

// CredentialResolver builds the credentials shared by one batch
type CredentialResolver interface {
	Resolve(ctx context.Context, baseURL, contextID string) (domain.Credentials, error)
}

// HistoryRecorder stores submitted checks
type HistoryRecorder interface {
	SaveHistory(ctx context.Context, record *domain.HistoryRecord) error
}

// Checker fans commit lookups out over a batch of targets
type Checker struct {
	collector collector.Collector
	resolver  CredentialResolver
	history   HistoryRecorder
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Checker
type Option func(*Checker)

// WithHistory records every successful batch in h
func WithHistory(h HistoryRecorder) Option {
	return func(c *Checker) { c.history = h }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Checker) { c.logger = l }
}

// NewChecker creates a new checker
func NewChecker(coll collector.Collector, resolver CredentialResolver, opts ...Option) *Checker {
	c := &Checker{
		collector: coll,
		resolver:  resolver,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckAll fetches the latest commit of every target concurrently. The
// result slice has one entry per target, in input order; a failing target
// becomes a failure result and never affects the others.
func (c *Checker) CheckAll(ctx context.Context, baseURL string, targets []domain.Target, creds domain.Credentials) []domain.CheckResult {
	results := make([]domain.CheckResult, len(targets))

	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(index int, t domain.Target) {
			defer wg.Done()
			results[index] = c.checkOne(ctx, baseURL, t, creds)
		}(i, target)
	}
	wg.Wait()

	return results
}

func (c *Checker) checkOne(ctx context.Context, baseURL string, target domain.Target, creds domain.Credentials) (result domain.CheckResult) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic while checking target",
				slog.String("target", target.String()),
				slog.Any("recover", r),
			)
			result = domain.NewFailure(target, fmt.Sprintf("internal error: %v", r))
		}
	}()

	commit, err := c.collector.FetchLatestCommit(ctx, baseURL, target, creds)
	if err != nil {
		c.logger.Debug("target check failed",
			slog.String("target", target.String()),
			slog.Any("error", err),
		)
		return domain.NewFailure(target, apperrors.Message(err))
	}
	if commit == nil {
		return domain.NewFailure(target, apperrors.MsgNoCommits)
	}
	return domain.NewSuccess(target, commit)
}

// Run parses input, resolves credentials and checks every target. An error
// is returned only when the batch cannot start; per-target failures are part
// of the returned batch.
func (c *Checker) Run(ctx context.Context, baseURL, input, contextID string) (*domain.Batch, error) {
	return c.RunTargets(ctx, baseURL, parser.Parse(input), contextID)
}

// RunTargets is Run for an already parsed target list
func (c *Checker) RunTargets(ctx context.Context, baseURL string, targets []domain.Target, contextID string) (*domain.Batch, error) {
	if baseURL == "" {
		return nil, apperrors.NewBadRequestError("GitLab URL is required")
	}
	if len(targets) == 0 {
		return nil, apperrors.NewBadRequestError("at least one project is required")
	}

	creds, err := c.resolver.Resolve(ctx, baseURL, contextID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve credentials: %w", err)
	}

	batch := &domain.Batch{
		ID:        uuid.New().String(),
		GitLabURL: baseURL,
		StartedAt: c.now(),
	}
	batch.Results = c.CheckAll(ctx, baseURL, targets, creds)
	batch.FinishedAt = c.now()

	c.logger.Info("batch checked",
		slog.String("batch_id", batch.ID),
		slog.String("gitlab_url", baseURL),
		slog.Int("targets", len(targets)),
		slog.Int("failed", batch.Failed()),
	)

	if c.history != nil {
		record := domain.NewHistoryRecord(batch.ID, baseURL, targets, batch.FinishedAt)
		if err := c.history.SaveHistory(ctx, record); err != nil {
			c.logger.Warn("failed to save history", slog.Any("error", err))
		}
	}

	return batch, nil
}
