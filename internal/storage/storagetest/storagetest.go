// Package storagetest holds behaviour tests shared by every Storage adapter.
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/gitlab-commit-checker/internal/domain"
	"github.com/kurihiro0119/gitlab-commit-checker/internal/storage"
)

func record(i int) *domain.HistoryRecord {
	now := time.Date(2026, 1, 10, 10, 0, i, 0, time.UTC)
	return domain.NewHistoryRecord(
		fmt.Sprintf("batch-%03d", i),
		"https://gitlab.example.com",
		[]domain.Target{{Path: fmt.Sprintf("group/p%d", i), Branch: "main"}},
		now,
	)
}

// Run exercises s, which must be empty and keep at most limit records
func Run(t *testing.T, s storage.Storage, limit int) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		records, err := s.ListHistory(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("newest first with eviction", func(t *testing.T) {
		total := limit + 5
		for i := 0; i < total; i++ {
			require.NoError(t, s.SaveHistory(ctx, record(i)))
		}

		records, err := s.ListHistory(ctx, 0)
		require.NoError(t, err)
		require.Len(t, records, limit)
		assert.Equal(t, fmt.Sprintf("batch-%03d", total-1), records[0].ID)
		assert.Equal(t, fmt.Sprintf("batch-%03d", 5), records[limit-1].ID)
		assert.Equal(t, []string{fmt.Sprintf("group/p%d/main", total-1)}, records[0].Projects)
		assert.Equal(t, "https://gitlab.example.com", records[0].GitLabURL)

		few, err := s.ListHistory(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, few, 2)
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, s.ClearHistory(ctx))
		records, err := s.ListHistory(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}
