package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/gitlab-commit-checker/internal/config"
	"github.com/kurihiro0119/gitlab-commit-checker/internal/domain"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		ContextMatch:   "exact",
		RequestTimeout: 5 * time.Second,
		StorageType:    "sqlite",
		SQLitePath:     filepath.Join(t.TempDir(), "history.db"),
		HistoryLimit:   50,
	}
}

func TestOpenStorage(t *testing.T) {
	store, err := openStorage(testConfig(t))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	now := time.Date(2026, 1, 10, 10, 0, 0, 0, time.Local)
	record := domain.NewHistoryRecord("h1", "https://gitlab.example.com",
		[]domain.Target{{Path: "group/app", Branch: "main"}}, now)
	require.NoError(t, store.SaveHistory(ctx, record))

	records, err := store.ListHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"group/app/main"}, records[0].Projects)

	require.NoError(t, store.ClearHistory(ctx))
	records, err = store.ListHistory(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestOpenStorage_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageType = "mysql"

	_, err := openStorage(cfg)
	var cfgErr *config.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}
