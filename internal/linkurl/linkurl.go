// Package linkurl normalizes user-entered URLs and compares stored links
// for duplicates by host and path.
package linkurl

import (
	"net/url"
	"strings"
)

// Normalize trims raw and prepends http:// unless it already carries an
// http or https scheme.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "http://" + raw
}

// Parse parses raw as an absolute URL with a host. When that fails and raw
// carries no scheme, it retries with an https:// prefix.
func Parse(raw string) (*url.URL, bool) {
	if u, ok := parseWithHost(raw); ok {
		return u, true
	}
	if strings.Contains(raw, "://") {
		return nil, false
	}
	return parseWithHost("https://" + raw)
}

func parseWithHost(raw string) (*url.URL, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return nil, false
	}
	return u, true
}

// Key returns the comparison key of raw: lowercased hostname plus path.
// An empty path counts as "/".
func Key(raw string) (string, bool) {
	u, ok := Parse(raw)
	if !ok {
		return "", false
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return strings.ToLower(u.Hostname()) + path, true
}
