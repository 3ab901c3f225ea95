package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kurihiro0119/gitlab-commit-checker/internal/domain"
	apperrors "github.com/kurihiro0119/gitlab-commit-checker/internal/errors"
)

const (
	// maxErrorTextLen caps raw error bodies shown to the user
	maxErrorTextLen = 100
	maxBodySize     = 4 << 20
)

// gitlabCollector implements Collector using the GitLab REST API v4
type gitlabCollector struct {
	client *http.Client
	logger *slog.Logger
}

// Option configures the GitLab collector
type Option func(*gitlabCollector)

// WithHTTPClient sets the HTTP client. A client with a cookie jar also sends
// the jar's cookies for the GitLab host.
func WithHTTPClient(c *http.Client) Option {
	return func(g *gitlabCollector) { g.client = c }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(g *gitlabCollector) { g.logger = l }
}

// NewGitLabCollector creates a new GitLab collector
func NewGitLabCollector(opts ...Option) Collector {
	g := &gitlabCollector{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CommitsURL returns the commit-list endpoint for a project branch, asking
// for the single most recent commit. The project path is escaped as one path
// segment since GitLab accepts "group%2Fproject" in place of a numeric id.
func CommitsURL(baseURL string, target domain.Target) string {
	return fmt.Sprintf("%s/api/v4/projects/%s/repository/commits?ref_name=%s&per_page=1",
		strings.TrimRight(baseURL, "/"),
		url.PathEscape(target.Path),
		url.QueryEscape(target.Branch),
	)
}

// FetchLatestCommit retrieves the most recent commit of target's branch
func (c *gitlabCollector) FetchLatestCommit(ctx context.Context, baseURL string, target domain.Target, creds domain.Credentials) (*domain.CommitRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, CommitsURL(baseURL, target), nil)
	if err != nil {
		return nil, apperrors.NewTransportError(err)
	}

	req.Header.Set("Accept", "application/json")
	for k, v := range creds.Headers {
		req.Header.Set(k, v)
	}
	if creds.CookieString != "" {
		req.Header.Set("Cookie", creds.CookieString)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("commit request failed",
			slog.String("target", target.String()),
			slog.Any("error", err),
		)
		return nil, apperrors.NewTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, apperrors.NewTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("commit request rejected",
			slog.String("target", target.String()),
			slog.Int("status", resp.StatusCode),
		)
		return nil, apperrors.NewFetchError(resp.StatusCode, errorMessage(resp.StatusCode, body))
	}

	return firstCommit(body)
}

// errorMessage extracts a message from an error body: the JSON "message"
// (or "error") field, else the start of the raw text, else "HTTP <status>"
func errorMessage(status int, body []byte) string {
	fallback := fmt.Sprintf("HTTP %d", status)

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		text := []rune(string(body))
		if len(text) > maxErrorTextLen {
			text = text[:maxErrorTextLen]
		}
		if len(text) == 0 {
			return fallback
		}
		return string(text)
	}

	switch v := data.(type) {
	case string:
		if v != "" {
			return v
		}
	case map[string]any:
		for _, key := range []string{"message", "error"} {
			if msg := messageText(v[key]); msg != "" {
				return msg
			}
		}
	}
	return fallback
}

// messageText renders a message field. GitLab reports validation errors as
// an object, e.g. {"message": {"ref_name": ["is invalid"]}}.
func messageText(v any) string {
	switch m := v.(type) {
	case nil:
		return ""
	case string:
		return m
	default:
		b, err := json.Marshal(m)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func firstCommit(body []byte) (*domain.CommitRecord, error) {
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		return nil, apperrors.NewBadResponseError(fmt.Errorf("response is not JSON"))
	}
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, apperrors.NewNoCommitsError()
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, apperrors.NewBadResponseError(err)
	}
	if len(items) == 0 {
		return nil, apperrors.NewNoCommitsError()
	}

	var commit domain.CommitRecord
	if err := json.Unmarshal(items[0], &commit); err != nil {
		return nil, apperrors.NewBadResponseError(err)
	}
	return &commit, nil
}
