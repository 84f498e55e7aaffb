package model

import (
	"fmt"
	"net/url"
	"strings"
)

// Normalize turns a raw user-supplied string into an absolute URL, schemed
// https:// when the caller omitted one. It never validates reachability.
func Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("empty url")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || strings.Contains(parsed.Scheme, ".") {
		parsed, err = url.Parse("https://" + trimmed)
	}
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("url has no host")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}

	return parsed.String(), nil
}

// CanonicalKey produces the cache key for a normalized URL: query and
// fragment dropped, trailing slashes collapsed, and the whole key (host and
// path alike) lowercased.
func CanonicalKey(normalized string) string {
	parsed, err := url.Parse(normalized)
	if err != nil {
		return strings.ToLower(strings.TrimSuffix(normalized, "/"))
	}

	parsed.RawQuery = ""
	parsed.Fragment = ""
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Path = strings.TrimRight(parsed.Path, "/")

	key := parsed.String()
	return strings.ToLower(key)
}

// SameResource reports whether two URLs point at the same resource once
// query, fragment, trailing slash, and host case are ignored — used by the
// canonical-tag check to compare a page's declared canonical against the
// URL it was actually served at. Only hostname and path are compared, so
// scheme and port differences are ignored as well.
func SameResource(a, b string) bool {
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return false
	}
	return strings.EqualFold(ua.Hostname(), ub.Hostname()) &&
		strings.TrimRight(ua.Path, "/") == strings.TrimRight(ub.Path, "/")
}

// FlipWWW toggles the "www." prefix on a URL's host, returning the variant
// URL used to probe canonical www-vs-apex redirects.
func FlipWWW(normalized string) (string, error) {
	parsed, err := url.Parse(normalized)
	if err != nil {
		return "", err
	}
	host := parsed.Hostname()
	port := parsed.Port()
	if strings.HasPrefix(host, "www.") {
		host = strings.TrimPrefix(host, "www.")
	} else {
		host = "www." + host
	}
	if port != "" {
		host = host + ":" + port
	}
	parsed.Host = host
	return parsed.String(), nil
}
