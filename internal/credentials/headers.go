package credentials

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// HeaderProvider returns request headers held by a browsing context, such as
// a bearer token or a CSRF token scraped from a logged-in page
type HeaderProvider interface {
	ContextHeaders(ctx context.Context, contextID string) (map[string]string, error)
}

// StaticHeaders returns the same headers for every context
type StaticHeaders map[string]string

// ContextHeaders returns a copy of the static headers
func (h StaticHeaders) ContextHeaders(ctx context.Context, contextID string) (map[string]string, error) {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if v != "" {
			out[k] = v
		}
	}
	return out, nil
}

// TokenHeaders turns an OAuth2 token source into an Authorization header
type TokenHeaders struct {
	source oauth2.TokenSource
}

// NewTokenHeaders creates a provider for a token source
func NewTokenHeaders(source oauth2.TokenSource) *TokenHeaders {
	return &TokenHeaders{source: source}
}

// NewStaticTokenHeaders creates a provider for a fixed access token, e.g. a
// personal access token copied from a browser session
func NewStaticTokenHeaders(token string) *TokenHeaders {
	return NewTokenHeaders(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
}

// ContextHeaders returns the Authorization header for the current token
func (h *TokenHeaders) ContextHeaders(ctx context.Context, contextID string) (map[string]string, error) {
	tok, err := h.source.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	if !tok.Valid() {
		return nil, errors.New("token is empty or expired")
	}
	return map[string]string{
		"Authorization": tok.Type() + " " + tok.AccessToken,
	}, nil
}

// ChainHeaders merges providers in precedence order: a header set by an
// earlier provider is not overwritten by a later one. Failing providers are
// skipped; an error is returned only if all of them fail.
type ChainHeaders []HeaderProvider

// ContextHeaders merges the headers of every provider
func (c ChainHeaders) ContextHeaders(ctx context.Context, contextID string) (map[string]string, error) {
	out := map[string]string{}
	var errs []error
	for _, p := range c {
		headers, err := p.ContextHeaders(ctx, contextID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for k, v := range headers {
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}
	}
	if len(c) > 0 && len(errs) == len(c) {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
