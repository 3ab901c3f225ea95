// Package credentials builds the cookie string and headers that let batch
// requests reuse an existing GitLab browser session.
package credentials

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/kurihiro0119/gitlab-commit-checker/internal/domain"
	apperrors "github.com/kurihiro0119/gitlab-commit-checker/internal/errors"
)

// Resolver produces the credentials for one batch.
//
// Lookup failures never fail resolution: a broken cookie store yields an
// empty cookie string and an unreachable context yields no headers. Only a
// base URL without a host is rejected, since no request can be made at all.
type Resolver struct {
	cookies  CookieStore
	headers  HeaderProvider
	match    MatchMode
	contexts []string
	logger   *slog.Logger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithHeaders sets the provider asked for context headers
func WithHeaders(p HeaderProvider) Option {
	return func(r *Resolver) { r.headers = p }
}

// WithContexts sets the known browsing contexts and how a base URL is
// matched against them. Headers are only requested for these contexts.
func WithContexts(mode MatchMode, contexts ...string) Option {
	return func(r *Resolver) {
		r.match = mode
		r.contexts = contexts
	}
}

// WithLogger sets the logger used for degraded lookups
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver creates a resolver. cookies may be nil.
func NewResolver(cookies CookieStore, opts ...Option) *Resolver {
	r := &Resolver{
		cookies: cookies,
		match:   MatchExact,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve builds the credentials for requests to baseURL. contextID names
// the browsing context to read headers from; when empty, the configured
// contexts are matched against baseURL. An explicit contextID is honored
// only when it is a configured context belonging to baseURL.
func (r *Resolver) Resolve(ctx context.Context, baseURL, contextID string) (domain.Credentials, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Hostname() == "" {
		return domain.Credentials{}, apperrors.NewBadRequestError(fmt.Sprintf("invalid GitLab URL %q", baseURL))
	}
	host := u.Hostname()

	creds := domain.Credentials{
		CookieString: r.cookieString(ctx, host),
		Headers:      map[string]string{},
	}

	contextID = r.selectContext(baseURL, contextID)
	if contextID != "" && r.headers != nil {
		creds.Headers = r.contextHeaders(ctx, contextID)
	}

	r.logger.Debug("resolved credentials",
		slog.String("host", host),
		slog.String("context", contextID),
		slog.Bool("has_cookies", creds.CookieString != ""),
		slog.Int("headers", len(creds.Headers)),
	)
	return creds, nil
}

func (r *Resolver) selectContext(baseURL, contextID string) string {
	if contextID == "" {
		return r.match.Match(baseURL, r.contexts)
	}
	if !r.isKnownContext(contextID) {
		r.logger.Warn("ignoring unknown context",
			slog.String("context", contextID),
		)
		return ""
	}
	if r.match.Match(baseURL, []string{contextID}) == "" {
		r.logger.Warn("ignoring context that does not belong to the GitLab URL",
			slog.String("context", contextID),
			slog.String("gitlab_url", baseURL),
		)
		return ""
	}
	return contextID
}

func (r *Resolver) isKnownContext(contextID string) bool {
	host := hostname(contextID)
	if host == "" {
		return false
	}
	for _, c := range r.contexts {
		if hostname(c) == host {
			return true
		}
	}
	return false
}

func (r *Resolver) cookieString(ctx context.Context, host string) string {
	if r.cookies == nil {
		return ""
	}
	cookies, err := r.cookies.CookiesForHost(ctx, host)
	if err != nil {
		r.logger.Warn("failed to get cookies, continuing without them",
			slog.String("host", host),
			slog.Any("error", err),
		)
		return ""
	}
	return serializeCookies(filterAuthCookies(cookies))
}

func (r *Resolver) contextHeaders(ctx context.Context, contextID string) map[string]string {
	headers, err := r.headers.ContextHeaders(ctx, contextID)
	if err != nil {
		r.logger.Warn("failed to get context headers, continuing without them",
			slog.String("context", contextID),
			slog.Any("error", err),
		)
		return map[string]string{}
	}
	if headers == nil {
		return map[string]string{}
	}
	return headers
}
