package presenter

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/gitlab-commit-checker/internal/domain"
)

func TestFormatTime(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		ts    string
		want  string
		today bool
	}{
		{"just now", "2026-01-10T11:59:30Z", "just now (2026-01-10 11:59:30)", true},
		{"minutes", "2026-01-10T11:15:00Z", "45 minutes ago (2026-01-10 11:15:00)", true},
		{"one hour", "2026-01-10T10:30:00Z", "1 hour ago (2026-01-10 10:30:00)", true},
		{"yesterday", "2026-01-09T20:00:00Z", "16 hours ago (2026-01-09 20:00:00)", false},
		{"days", "2026-01-01T00:00:00Z", "9 days ago (2026-01-01 00:00:00)", false},
		{"offset and millis", "2026-01-10T13:00:00.000+02:00", "1 hour ago (2026-01-10 11:00:00)", true},
		{"future is just now", "2026-01-10T12:05:00Z", "just now (2026-01-10 12:05:00)", true},
		{"empty", "", "unknown", false},
		{"garbage", "yesterday", "unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, today := FormatTime(tt.ts, now)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.today, today)
		})
	}
}

func newTestPresenter(buf *bytes.Buffer) *Presenter {
	p := New(buf)
	p.now = func() time.Time { return time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC) }
	return p
}

func TestPresenter_Results(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPresenter(&buf)

	p.Results([]domain.CheckResult{
		domain.NewSuccess(domain.Target{Path: "group/app", Branch: "main"}, &domain.CommitRecord{
			ShortID:       "abc123",
			Message:       "fix login\n\nlong body",
			AuthorName:    "Al",
			CommittedDate: "2026-01-10T10:00:00Z",
		}),
		domain.NewFailure(domain.Target{Path: "group/gone", Branch: "dev"}, "project not found or no access"),
		domain.NewSuccess(domain.Target{Path: "bare", Branch: "main"}, &domain.CommitRecord{}),
	})

	out := buf.String()
	assert.NotContains(t, out, "\x1b[", "no colors when not a terminal")
	assert.Contains(t, out, "group/app")
	assert.Contains(t, out, "abc123")
	assert.Contains(t, out, "fix login")
	assert.NotContains(t, out, "long body")
	assert.Contains(t, out, "2 hours ago (2026-01-10 10:00:00)")
	assert.Contains(t, out, "error: project not found or no access")
	assert.Contains(t, out, "(no message)")
	assert.Contains(t, out, "unknown")

	assert.Less(t, bytes.Index(buf.Bytes(), []byte("group/app")), bytes.Index(buf.Bytes(), []byte("group/gone")))
}

func TestPresenter_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPresenter(&buf)
	p.Results(nil)
	p.History(nil)
	assert.Equal(t, "No results\nNo history\n", buf.String())
}

func TestPresenter_Summary(t *testing.T) {
	var buf bytes.Buffer
	start := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	newTestPresenter(&buf).Summary(&domain.Batch{
		Results: []domain.CheckResult{
			domain.NewSuccess(domain.Target{Path: "a", Branch: "main"}, &domain.CommitRecord{}),
			domain.NewFailure(domain.Target{Path: "b", Branch: "main"}, "x"),
		},
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
	})
	assert.Equal(t, "2 checked, 1 ok, 1 failed in 1.5s\n", buf.String())
}

func TestPresenter_History(t *testing.T) {
	var buf bytes.Buffer
	newTestPresenter(&buf).History([]*domain.HistoryRecord{
		{Time: "2026-01-10 10:00:00", GitLabURL: "https://gitlab.example.com", Projects: []string{"a/main", "b/dev"}},
	})
	out := buf.String()
	assert.Contains(t, out, "2026-01-10 10:00:00")
	assert.Contains(t, out, "a/main")
	assert.Contains(t, out, "b/dev")
}

func TestPresenter_JSON(t *testing.T) {
	var buf bytes.Buffer
	results := []domain.CheckResult{
		domain.NewSuccess(domain.Target{Path: "a", Branch: "main"}, &domain.CommitRecord{ShortID: "abc"}),
		domain.NewFailure(domain.Target{Path: "b", Branch: "main"}, "no commits found"),
	}
	require.NoError(t, newTestPresenter(&buf).JSON(results))

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "abc", decoded[0]["commit"].(map[string]interface{})["short_id"])
	assert.NotContains(t, decoded[0], "error")
	assert.Equal(t, "no commits found", decoded[1]["error"])
	assert.NotContains(t, decoded[1], "commit")
}
