package credentials

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const httpOnlyPrefix = "#HttpOnly_"

// NetscapeCookieFile reads cookies from a cookies.txt file as exported by
// browser extensions and curl. The file is read on every call so a fresh
// export is picked up without a restart.
type NetscapeCookieFile struct {
	Path string
	now  func() time.Time
}

// NewNetscapeCookieFile creates a cookie store backed by path
func NewNetscapeCookieFile(path string) *NetscapeCookieFile {
	return &NetscapeCookieFile{Path: path, now: time.Now}
}

// CookiesForHost returns the unexpired cookies in the file that apply to host
func (f *NetscapeCookieFile) CookiesForHost(ctx context.Context, host string) ([]*http.Cookie, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cookie file: %w", err)
	}

	entries, err := parseNetscapeCookies(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cookie file %s: %w", f.Path, err)
	}

	now := time.Now()
	if f.now != nil {
		now = f.now()
	}

	var cookies []*http.Cookie
	for _, e := range entries {
		if !domainMatches(e.domain, host, e.includeSubdomains) {
			continue
		}
		// Expiry 0 marks a session cookie
		if !e.expires.IsZero() && e.expires.Before(now) {
			continue
		}
		cookies = append(cookies, e.cookie)
	}
	return cookies, nil
}

type netscapeEntry struct {
	domain            string
	includeSubdomains bool
	expires           time.Time
	cookie            *http.Cookie
}

func parseNetscapeCookies(data []byte) ([]netscapeEntry, error) {
	var entries []netscapeEntry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")

		httpOnly := false
		if strings.HasPrefix(line, httpOnlyPrefix) {
			line = strings.TrimPrefix(line, httpOnlyPrefix)
			httpOnly = true
		}
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 7 {
			return nil, fmt.Errorf("line %d: expected 7 tab-separated fields, got %d", lineNo, len(fields))
		}

		var expires time.Time
		if sec, err := strconv.ParseInt(fields[4], 10, 64); err == nil && sec > 0 {
			expires = time.Unix(sec, 0)
		} else if err != nil {
			return nil, fmt.Errorf("line %d: invalid expiry %q", lineNo, fields[4])
		}

		domain := fields[0]
		entries = append(entries, netscapeEntry{
			domain:            domain,
			includeSubdomains: strings.EqualFold(fields[1], "TRUE") || strings.HasPrefix(domain, "."),
			expires:           expires,
			cookie: &http.Cookie{
				Name:     fields[5],
				Value:    strings.Join(fields[6:], "\t"),
				Domain:   strings.TrimPrefix(domain, "."),
				Path:     fields[2],
				Secure:   strings.EqualFold(fields[3], "TRUE"),
				HttpOnly: httpOnly,
				Expires:  expires,
			},
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
