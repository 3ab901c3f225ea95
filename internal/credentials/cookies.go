package credentials

import (
	"context"
	"net/http"
	"strings"
)

// authCookieMarkers identify GitLab session cookies by substring
var authCookieMarkers = []string{
	"_gitlab_session",
	"_session",
	"remember_user_token",
	"csrf_token",
}

// CookieStore returns the cookies a browser would hold for a host
type CookieStore interface {
	// CookiesForHost returns cookies set for host, its subdomains, or a
	// parent domain that shares cookies with it
	CookiesForHost(ctx context.Context, host string) ([]*http.Cookie, error)
}

// StaticCookies is a fixed cookie list for a single host, e.g. pasted from
// a browser's dev tools
type StaticCookies struct {
	host    string
	cookies []*http.Cookie
}

// NewStaticCookies scopes cookies to the hostname of rawURL. Other hosts get
// no cookies.
func NewStaticCookies(rawURL string, cookies []*http.Cookie) *StaticCookies {
	return &StaticCookies{host: hostname(rawURL), cookies: cookies}
}

// ParseCookieHeader parses a "name=value; name2=value2" string
func ParseCookieHeader(header string) []*http.Cookie {
	if strings.TrimSpace(header) == "" {
		return nil
	}
	cookies, err := http.ParseCookie(header)
	if err != nil {
		// Fall back to a lenient split; browsers export values that
		// net/http considers invalid (quotes, spaces).
		return parseCookiePairs(header)
	}
	return cookies
}

func parseCookiePairs(header string) []*http.Cookie {
	var cookies []*http.Cookie
	for _, pair := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || name == "" {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: name, Value: value})
	}
	return cookies
}

// CookiesForHost returns the cookies when host is the configured host
func (s *StaticCookies) CookiesForHost(ctx context.Context, host string) ([]*http.Cookie, error) {
	if s.host == "" || !strings.EqualFold(s.host, host) {
		return nil, nil
	}
	return s.cookies, nil
}

// filterAuthCookies keeps only authentication cookies when there are any,
// otherwise it returns the full set
func filterAuthCookies(cookies []*http.Cookie) []*http.Cookie {
	var auth []*http.Cookie
	for _, c := range cookies {
		if isAuthCookie(c.Name) {
			auth = append(auth, c)
		}
	}
	if len(auth) > 0 {
		return auth
	}
	return cookies
}

func isAuthCookie(name string) bool {
	for _, marker := range authCookieMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// serializeCookies joins cookies as name=value pairs separated by "; "
func serializeCookies(cookies []*http.Cookie) string {
	pairs := make([]string, 0, len(cookies))
	for _, c := range cookies {
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	return strings.Join(pairs, "; ")
}

// domainMatches reports whether a cookie stored for domain applies to host.
// includeSubdomains is the cookie's domain flag.
func domainMatches(domain, host string, includeSubdomains bool) bool {
	domain = strings.ToLower(strings.TrimPrefix(domain, "."))
	host = strings.ToLower(host)
	if domain == "" || host == "" {
		return false
	}
	if domain == host {
		return true
	}
	// Cookies of subdomains of the host, e.g. for a GitLab instance that
	// serves assets from a subdomain.
	if strings.HasSuffix(domain, "."+host) {
		return true
	}
	return includeSubdomains && strings.HasSuffix(host, "."+domain)
}
