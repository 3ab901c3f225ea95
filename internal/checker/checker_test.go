package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/gitlab-commit-checker/internal/collector"
	"github.com/kurihiro0119/gitlab-commit-checker/internal/credentials"
	"github.com/kurihiro0119/gitlab-commit-checker/internal/domain"
	apperrors "github.com/kurihiro0119/gitlab-commit-checker/internal/errors"
)

type fakeCollector struct {
	fetch func(target domain.Target) (*domain.CommitRecord, error)
}

func (f *fakeCollector) FetchLatestCommit(ctx context.Context, baseURL string, target domain.Target, creds domain.Credentials) (*domain.CommitRecord, error) {
	return f.fetch(target)
}

type fakeResolver struct {
	err   error
	calls int
}

func (r *fakeResolver) Resolve(ctx context.Context, baseURL, contextID string) (domain.Credentials, error) {
	r.calls++
	if r.err != nil {
		return domain.Credentials{}, r.err
	}
	return domain.Credentials{Headers: map[string]string{}}, nil
}

type memoryHistory struct {
	mu      sync.Mutex
	records []*domain.HistoryRecord
	err     error
}

func (m *memoryHistory) SaveHistory(ctx context.Context, record *domain.HistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, record)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCheckAll_PreservesInputOrder(t *testing.T) {
	targets := make([]domain.Target, 20)
	for i := range targets {
		targets[i] = domain.Target{Path: fmt.Sprintf("group/p%02d", i), Branch: "main"}
	}

	// Later targets finish first
	coll := &fakeCollector{fetch: func(target domain.Target) (*domain.CommitRecord, error) {
		var n int
		fmt.Sscanf(strings.TrimPrefix(target.Path, "group/p"), "%d", &n)
		time.Sleep(time.Duration(20-n) * time.Millisecond)
		if n%3 == 0 {
			return nil, apperrors.NewFetchError(404, "")
		}
		return &domain.CommitRecord{ShortID: target.Path}, nil
	}}

	c := NewChecker(coll, &fakeResolver{}, WithLogger(quietLogger()))
	results := c.CheckAll(context.Background(), "https://gitlab.example.com", targets, domain.Credentials{})

	require.Len(t, results, len(targets))
	for i, r := range results {
		assert.Equal(t, targets[i], r.Target)
		if i%3 == 0 {
			assert.False(t, r.Success())
			assert.Equal(t, apperrors.MsgNotFound, r.Error)
		} else {
			require.True(t, r.Success())
			assert.Equal(t, targets[i].Path, r.Commit.ShortID)
		}
	}
}

func TestCheckAll_RunsConcurrently(t *testing.T) {
	const n = 5
	var started sync.WaitGroup
	started.Add(n)
	release := make(chan struct{})

	coll := &fakeCollector{fetch: func(target domain.Target) (*domain.CommitRecord, error) {
		started.Done()
		<-release
		return &domain.CommitRecord{ShortID: "x"}, nil
	}}

	go func() {
		// Only reachable if all fetches are in flight at once
		started.Wait()
		close(release)
	}()

	targets := make([]domain.Target, n)
	for i := range targets {
		targets[i] = domain.Target{Path: "p", Branch: "main"}
	}

	done := make(chan []domain.CheckResult)
	go func() {
		done <- NewChecker(coll, &fakeResolver{}, WithLogger(quietLogger())).
			CheckAll(context.Background(), "https://gitlab.example.com", targets, domain.Credentials{})
	}()

	select {
	case results := <-done:
		assert.Len(t, results, n)
	case <-time.After(5 * time.Second):
		t.Fatal("fetches were not started concurrently")
	}
}

func TestCheckAll_IsolatesPanicsAndNilCommits(t *testing.T) {
	coll := &fakeCollector{fetch: func(target domain.Target) (*domain.CommitRecord, error) {
		switch target.Path {
		case "panic":
			panic("boom")
		case "nil":
			return nil, nil
		}
		return &domain.CommitRecord{ShortID: "ok"}, nil
	}}

	targets := []domain.Target{
		{Path: "panic", Branch: "main"},
		{Path: "ok", Branch: "main"},
		{Path: "nil", Branch: "main"},
	}
	results := NewChecker(coll, &fakeResolver{}, WithLogger(quietLogger())).
		CheckAll(context.Background(), "https://gitlab.example.com", targets, domain.Credentials{})

	require.Len(t, results, 3)
	assert.Contains(t, results[0].Error, "boom")
	assert.True(t, results[1].Success())
	assert.Equal(t, apperrors.MsgNoCommits, results[2].Error)
}

func TestCheckAll_IsRepeatable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.EscapedPath() {
		case "/api/v4/projects/group%2Fapp/repository/commits":
			if r.URL.Query().Get("ref_name") == "dev" {
				_, _ = io.WriteString(w, `[{"short_id":"dev111","committed_date":"2024-02-01T00:00:00Z"}]`)
				return
			}
			_, _ = io.WriteString(w, `[{"short_id":"abc123","message":"fix","author_name":"Al","committed_date":"2024-01-01T00:00:00Z"}]`)
		case "/api/v4/projects/group%2Fprivate/repository/commits":
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"message":"403 Forbidden"}`)
		case "/api/v4/projects/group%2Fempty/repository/commits":
			_, _ = io.WriteString(w, `[]`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"404 Project Not Found"}`)
		}
	}))
	defer server.Close()

	coll := collector.NewGitLabCollector(
		collector.WithHTTPClient(server.Client()),
		collector.WithLogger(quietLogger()),
	)
	c := NewChecker(coll, &fakeResolver{}, WithLogger(quietLogger()))

	targets := []domain.Target{
		{Path: "group/app", Branch: "main"},
		{Path: "group/private", Branch: "main"},
		{Path: "group/app", Branch: "dev"},
		{Path: "group/empty", Branch: "main"},
		{Path: "group/app", Branch: "main"},
		{Path: "group/gone", Branch: "main"},
		{Path: "group/private", Branch: "main"},
	}
	creds := domain.Credentials{Headers: map[string]string{}}

	first := c.CheckAll(context.Background(), server.URL, targets, creds)
	second := c.CheckAll(context.Background(), server.URL, targets, creds)

	require.Len(t, first, len(targets))
	assert.Equal(t, first, second)
	for i, r := range first {
		assert.Equal(t, targets[i], r.Target)
	}
	assert.Equal(t, first[0], first[4])
	assert.Equal(t, first[1], first[6])
	assert.Equal(t, "dev111", first[2].Commit.ShortID)
	assert.Equal(t, apperrors.MsgForbidden, first[1].Error)
	assert.Equal(t, apperrors.MsgNoCommits, first[3].Error)
	assert.Equal(t, apperrors.MsgNotFound, first[5].Error)
}

func TestCheckAll_EmptyTargets(t *testing.T) {
	results := NewChecker(&fakeCollector{}, &fakeResolver{}).
		CheckAll(context.Background(), "https://gitlab.example.com", nil, domain.Credentials{})
	assert.Empty(t, results)
}

func TestRun_Preconditions(t *testing.T) {
	c := NewChecker(&fakeCollector{}, &fakeResolver{}, WithLogger(quietLogger()))

	_, err := c.Run(context.Background(), "", "a/main", "")
	assert.True(t, apperrors.IsBadRequest(err))

	_, err = c.Run(context.Background(), "https://gitlab.example.com", " \n ", "")
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestRun_ResolverFailureFailsWholeBatch(t *testing.T) {
	fetched := false
	coll := &fakeCollector{fetch: func(target domain.Target) (*domain.CommitRecord, error) {
		fetched = true
		return &domain.CommitRecord{}, nil
	}}
	history := &memoryHistory{}
	c := NewChecker(coll, &fakeResolver{err: errors.New("keychain locked")},
		WithHistory(history), WithLogger(quietLogger()))

	batch, err := c.Run(context.Background(), "https://gitlab.example.com", "a/main\nb/dev", "")
	require.Error(t, err)
	assert.Nil(t, batch)
	assert.Contains(t, err.Error(), "keychain locked")
	assert.False(t, fetched)
	assert.Empty(t, history.records)
}

func TestRun_SavesHistoryAndToleratesHistoryErrors(t *testing.T) {
	coll := &fakeCollector{fetch: func(target domain.Target) (*domain.CommitRecord, error) {
		if target.Path == "broken" {
			return nil, apperrors.NewFetchError(403, "")
		}
		return &domain.CommitRecord{ShortID: "abc"}, nil
	}}
	history := &memoryHistory{}
	c := NewChecker(coll, &fakeResolver{}, WithHistory(history), WithLogger(quietLogger()))
	c.now = func() time.Time { return time.Date(2026, 1, 10, 10, 0, 0, 0, time.Local) }

	batch, err := c.Run(context.Background(), "https://gitlab.example.com", "group/app/main\nbroken", "")
	require.NoError(t, err)
	assert.NotEmpty(t, batch.ID)
	assert.Equal(t, 1, batch.Failed())
	require.Len(t, batch.Results, 2)
	assert.Equal(t, apperrors.MsgForbidden, batch.Results[1].Error)

	require.Len(t, history.records, 1)
	assert.Equal(t, batch.ID, history.records[0].ID)
	assert.Equal(t, "2026-01-10 10:00:00", history.records[0].Time)
	assert.Equal(t, []string{"group/app/main", "broken/main"}, history.records[0].Projects)

	history.err = errors.New("disk full")
	_, err = c.Run(context.Background(), "https://gitlab.example.com", "group/app/main", "")
	assert.NoError(t, err)
}

func TestRun_AgainstGitLab(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.EscapedPath() {
		case "/api/v4/projects/group%2Fapp/repository/commits":
			assert.Equal(t, "_gitlab_session=s1", r.Header.Get("Cookie"))
			_, _ = io.WriteString(w, `[{"short_id":"abc123","message":"fix","author_name":"Al","committed_date":"2024-01-01T00:00:00Z"}]`)
		case "/api/v4/projects/group%2Fempty/repository/commits":
			_, _ = io.WriteString(w, `[]`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"404 Project Not Found"}`)
		}
	}))
	defer server.Close()

	resolver := credentials.NewResolver(
		credentials.NewStaticCookies(server.URL, []*http.Cookie{{Name: "_gitlab_session", Value: "s1"}, {Name: "_ga", Value: "x"}}),
		credentials.WithLogger(quietLogger()),
	)
	coll := collector.NewGitLabCollector(
		collector.WithHTTPClient(server.Client()),
		collector.WithLogger(quietLogger()),
	)
	c := NewChecker(coll, resolver, WithLogger(quietLogger()))

	input := "group/app/main\ngroup/missing/main\ngroup/empty/dev\ngroup/app/main"
	first, err := c.Run(context.Background(), server.URL, input, "")
	require.NoError(t, err)

	require.Len(t, first.Results, 4)
	assert.Equal(t, "abc123", first.Results[0].Commit.ShortID)
	assert.Equal(t, apperrors.MsgNotFound, first.Results[1].Error)
	assert.Equal(t, apperrors.MsgNoCommits, first.Results[2].Error)
	assert.Equal(t, first.Results[0], first.Results[3])

	second, err := c.Run(context.Background(), server.URL, input, "")
	require.NoError(t, err)
	assert.Equal(t, first.Results, second.Results)
}
