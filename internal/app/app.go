// Package app wires configuration into the checker and its collaborators.
package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/kurihiro0119/gitlab-commit-checker/internal/checker"
	"github.com/kurihiro0119/gitlab-commit-checker/internal/collector"
	"github.com/kurihiro0119/gitlab-commit-checker/internal/config"
	"github.com/kurihiro0119/gitlab-commit-checker/internal/credentials"
	"github.com/kurihiro0119/gitlab-commit-checker/internal/storage"
	"github.com/kurihiro0119/gitlab-commit-checker/internal/storage/postgres"
	"github.com/kurihiro0119/gitlab-commit-checker/internal/storage/sqlite"
)

// App holds the long-lived components shared by the CLI and the API server
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Storage storage.Storage
	Checker *checker.Checker
}

// New builds the application from cfg. opts are applied after the defaults,
// so WithHistory(nil) disables history recording.
func New(cfg *config.Config, opts ...checker.Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := cfg.NewLogger()

	store, err := NewStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	coll := collector.NewGitLabCollector(
		collector.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		collector.WithLogger(logger),
	)

	checkerOpts := append([]checker.Option{
		checker.WithHistory(store),
		checker.WithLogger(logger),
	}, opts...)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Storage: store,
		Checker: checker.NewChecker(coll, NewResolver(cfg, logger), checkerOpts...),
	}, nil
}

// Close releases the storage
func (a *App) Close() error {
	return a.Storage.Close()
}

// NewStorage opens the configured history store
func NewStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageType {
	case "postgres":
		return postgres.NewPostgresStorage(cfg.PostgresURL, cfg.HistoryLimit)
	default:
		return sqlite.NewSQLiteStorage(cfg.SQLitePath, cfg.HistoryLimit)
	}
}

// NewResolver builds the credential resolver. Cookies come from a cookies.txt
// export when configured, else from GITLAB_COOKIE, which only applies to the
// host of GITLAB_URL. Headers are only sent to hosts matching one of the
// configured contexts; a personal access token takes precedence over a CSRF
// token.
func NewResolver(cfg *config.Config, logger *slog.Logger) *credentials.Resolver {
	var cookies credentials.CookieStore
	switch {
	case cfg.CookieFile != "":
		cookies = credentials.NewNetscapeCookieFile(cfg.CookieFile)
	case cfg.GitLabCookie != "":
		cookies = credentials.NewStaticCookies(cfg.GitLabURL, credentials.ParseCookieHeader(cfg.GitLabCookie))
	}

	var headers credentials.ChainHeaders
	if cfg.GitLabToken != "" {
		headers = append(headers, credentials.NewStaticTokenHeaders(cfg.GitLabToken))
	}
	if cfg.CSRFToken != "" {
		headers = append(headers, credentials.StaticHeaders{"X-CSRF-Token": cfg.CSRFToken})
	}

	opts := []credentials.Option{
		credentials.WithLogger(logger),
		credentials.WithContexts(credentials.ParseMatchMode(cfg.ContextMatch), cfg.ContextURLs...),
	}
	if len(headers) > 0 {
		opts = append(opts, credentials.WithHeaders(headers))
	}
	return credentials.NewResolver(cookies, opts...)
}
