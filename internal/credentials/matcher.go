package credentials

import (
	"net/url"
	"strings"
)

// MatchMode selects how a base URL is paired with a browsing context
type MatchMode string

const (
	// MatchExact pairs contexts whose hostname equals the base URL's
	MatchExact MatchMode = "exact"
	// MatchLoose falls back to contexts whose hostname contains the first
	// label of the base URL's hostname ("gitlab" for gitlab.example.com).
	// It can pick the wrong context on similarly named hosts.
	MatchLoose MatchMode = "loose"
)

// ParseMatchMode returns the mode for s, defaulting to MatchExact
func ParseMatchMode(s string) MatchMode {
	if MatchMode(strings.ToLower(strings.TrimSpace(s))) == MatchLoose {
		return MatchLoose
	}
	return MatchExact
}

// Match returns the first context URL that belongs to baseURL, or "" when
// none does. Exact hostname matches always win over loose ones.
func (m MatchMode) Match(baseURL string, contexts []string) string {
	host := hostname(baseURL)
	if host == "" {
		return ""
	}

	for _, c := range contexts {
		if hostname(c) == host {
			return c
		}
	}

	if m != MatchLoose {
		return ""
	}
	label, _, _ := strings.Cut(host, ".")
	for _, c := range contexts {
		if h := hostname(c); h != "" && strings.Contains(h, label) {
			return c
		}
	}
	return ""
}

func hostname(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
