// Package classify maps raw probe outcomes to model.Check findings using
// the fixed thresholds and rules the audit is scored against. Every
// function here is pure: no I/O, no shared state.
package classify

import (
	"fmt"
	"strings"

	"github.com/khanhnv2901/webaudit/internal/model"
)

// Unknown is the details string used when a probe was never issued, for
// example because the sub-request quota was exhausted.
const Unknown = "Unknown"

func check(id model.CheckID, label string, status model.Status, details string, value interface{}) model.Check {
	return model.Check{ID: id, Label: label, Status: status, Details: details, Value: value}
}

// HTTP classifies the main page fetch's status code.
func HTTP(status int) model.Check {
	if status >= 400 || status == 0 {
		return check(model.CheckHTTP, "HTTP status", model.StatusFail, fmt.Sprintf("responded with status %d", status), status)
	}
	return check(model.CheckHTTP, "HTTP status", model.StatusPass, fmt.Sprintf("responded with status %d", status), status)
}

// TTFB classifies time-to-first-byte against the 1500ms boundary.
func TTFB(ms int64) model.Check {
	if ms < 1500 {
		return check(model.CheckTTFB, "Time to first byte", model.StatusPass, fmt.Sprintf("%dms", ms), ms)
	}
	return check(model.CheckTTFB, "Time to first byte", model.StatusWarn, fmt.Sprintf("%dms", ms), ms)
}

// OpenGraphInput bundles what the orchestrator learned about OG tags.
type OpenGraphInput struct {
	HasTitle     bool
	HasImage     bool
	ImageLoads   *bool // nil = not probed, true/false = probe result
	AnyTagFound  bool
}

// OpenGraph classifies Open Graph tag completeness.
func OpenGraph(in OpenGraphInput) model.Check {
	imageOK := in.ImageLoads == nil || *in.ImageLoads
	if in.HasTitle && in.HasImage && imageOK {
		return check(model.CheckOpenGraph, "Open Graph tags", model.StatusPass, "og:title and og:image present", nil)
	}
	if in.AnyTagFound {
		return check(model.CheckOpenGraph, "Open Graph tags", model.StatusWarn, "some Open Graph tags present but incomplete", nil)
	}
	return check(model.CheckOpenGraph, "Open Graph tags", model.StatusFail, "no Open Graph tags found", nil)
}

// Favicon classifies the favicon probe. probed=false means the probe was
// never attempted (no favicon URL could be built).
func Favicon(probed, ok bool) model.Check {
	if !probed {
		return check(model.CheckFavicon, "Favicon", model.StatusWarn, Unknown, nil)
	}
	if ok {
		return check(model.CheckFavicon, "Favicon", model.StatusPass, "favicon loads", nil)
	}
	return check(model.CheckFavicon, "Favicon", model.StatusWarn, "favicon failed to load", nil)
}

// Robots classifies robots.txt discovery and its blanket-disallow policy.
func Robots(exists, disallowAll bool) model.Check {
	if !exists {
		return check(model.CheckRobots, "robots.txt", model.StatusWarn, "robots.txt not found", nil)
	}
	if disallowAll {
		return check(model.CheckRobots, "robots.txt", model.StatusFail, "Disallow: / blocks all crawlers", nil)
	}
	return check(model.CheckRobots, "robots.txt", model.StatusPass, "robots.txt found, crawling allowed", nil)
}

// SitemapInput bundles the sitemap discovery/verification outcome.
type SitemapInput struct {
	Discovered bool
	HasLoc     bool
	SampledOK  bool
	Gzipped    bool
}

// Sitemap classifies sitemap discovery and sampling.
func Sitemap(in SitemapInput) model.Check {
	if !in.Discovered {
		return check(model.CheckSitemap, "Sitemap", model.StatusFail, "no sitemap discovered", nil)
	}
	if in.Gzipped {
		return check(model.CheckSitemap, "Sitemap", model.StatusWarn, "sitemap is gzip-compressed, contents not verified", nil)
	}
	if in.HasLoc && in.SampledOK {
		return check(model.CheckSitemap, "Sitemap", model.StatusPass, "sitemap discovered and sampled URL responded", nil)
	}
	return check(model.CheckSitemap, "Sitemap", model.StatusWarn, "sitemap discovered but not fully verified", nil)
}

// WWWCanonical classifies the www<->apex redirect probe. tested=false
// means the probe never ran (quota exhausted, or no variant URL could be
// built).
func WWWCanonical(tested, good bool) model.Check {
	if tested && good {
		return check(model.CheckWWWCanonical, "WWW canonicalization", model.StatusPass, "variant host redirects to canonical host", nil)
	}
	if !tested {
		return check(model.CheckWWWCanonical, "WWW canonicalization", model.StatusWarn, Unknown, nil)
	}
	return check(model.CheckWWWCanonical, "WWW canonicalization", model.StatusWarn, "variant host does not redirect cleanly", nil)
}

// Canonical classifies the canonical link tag(s) against the final URL.
func Canonical(hrefs []string, finalURL string) model.Check {
	if len(hrefs) == 0 {
		return check(model.CheckCanonical, "Canonical tag", model.StatusFail, "missing canonical tag", nil)
	}
	if len(hrefs) > 1 {
		return check(model.CheckCanonical, "Canonical tag", model.StatusWarn, fmt.Sprintf("%d canonical tags found, expected 1", len(hrefs)), nil)
	}
	if model.SameResource(hrefs[0], finalURL) {
		return check(model.CheckCanonical, "Canonical tag", model.StatusPass, "canonical matches final URL", nil)
	}
	return check(model.CheckCanonical, "Canonical tag", model.StatusWarn, "canonical does not match final URL", nil)
}

// NoindexInput bundles the four sources a noindex directive can appear in.
type NoindexInput struct {
	MetaRobots   string
	MetaGooglebot string
	MetaBingbot  string
	XRobotsTag   string
}

func containsNoindex(s string) bool {
	l := strings.ToLower(s)
	return strings.Contains(l, "noindex") || strings.Contains(l, "none")
}

// Noindex classifies whether any of the four robots-directive sources
// blocks indexing.
func Noindex(in NoindexInput) model.Check {
	sources := []string{in.MetaRobots, in.MetaGooglebot, in.MetaBingbot, in.XRobotsTag}
	for _, s := range sources {
		if containsNoindex(s) {
			return check(model.CheckNoindex, "Noindex directive", model.StatusFail, "a noindex/none directive was found", nil)
		}
	}
	return check(model.CheckNoindex, "Noindex directive", model.StatusPass, "no noindex directive found", nil)
}

// MetaRobots is informational: it never fails on its own (noindex already
// carries the fail), it just surfaces whether a directive is present.
func MetaRobots(in NoindexInput) model.Check {
	sources := []string{in.MetaRobots, in.MetaGooglebot, in.MetaBingbot, in.XRobotsTag}
	for _, s := range sources {
		if containsNoindex(s) {
			return check(model.CheckMetaRobots, "Meta robots directive", model.StatusWarn, "noindex directive present", nil)
		}
	}
	return check(model.CheckMetaRobots, "Meta robots directive", model.StatusPass, "no restrictive directive present", nil)
}

// MetaDescription classifies meta description length against [50,160].
func MetaDescription(desc string) model.Check {
	n := len(strings.TrimSpace(desc))
	if n == 0 {
		return check(model.CheckMetaDescription, "Meta description", model.StatusFail, "missing meta description", nil)
	}
	if n < 50 || n > 160 {
		return check(model.CheckMetaDescription, "Meta description", model.StatusWarn, fmt.Sprintf("length %d outside 50-160", n), n)
	}
	return check(model.CheckMetaDescription, "Meta description", model.StatusPass, fmt.Sprintf("length %d", n), n)
}

// TitleLength classifies <title> length against [15,60].
func TitleLength(title string) model.Check {
	n := len(strings.TrimSpace(title))
	if n == 0 {
		return check(model.CheckTitleLength, "Title length", model.StatusFail, "missing title", nil)
	}
	if n < 15 || n > 60 {
		return check(model.CheckTitleLength, "Title length", model.StatusWarn, fmt.Sprintf("length %d outside 15-60", n), n)
	}
	return check(model.CheckTitleLength, "Title length", model.StatusPass, fmt.Sprintf("length %d", n), n)
}

// Viewport classifies presence of the meta viewport tag.
func Viewport(present bool) model.Check {
	if present {
		return check(model.CheckViewport, "Viewport tag", model.StatusPass, "meta viewport present", nil)
	}
	return check(model.CheckViewport, "Viewport tag", model.StatusFail, "meta viewport missing", nil)
}

// ImgAlt classifies alt-text coverage across sampled images.
func ImgAlt(total, withAlt int) model.Check {
	if total == 0 {
		return check(model.CheckImgAlt, "Image alt text", model.StatusPass, "no images found", nil)
	}
	ratio := float64(withAlt) / float64(total)
	pct := int(ratio * 100)
	switch {
	case ratio >= 0.90:
		return check(model.CheckImgAlt, "Image alt text", model.StatusPass, fmt.Sprintf("%d%% of images have alt text", pct), pct)
	case ratio >= 0.60:
		return check(model.CheckImgAlt, "Image alt text", model.StatusWarn, fmt.Sprintf("%d%% of images have alt text", pct), pct)
	default:
		return check(model.CheckImgAlt, "Image alt text", model.StatusFail, fmt.Sprintf("%d%% of images have alt text", pct), pct)
	}
}

// ImgModern classifies presence of at least one avif/webp image source.
func ImgModern(hasModern bool) model.Check {
	if hasModern {
		return check(model.CheckImgModern, "Modern image formats", model.StatusPass, "avif/webp image found", nil)
	}
	return check(model.CheckImgModern, "Modern image formats", model.StatusWarn, "no avif/webp image found", nil)
}

// ImgSize classifies how many HEAD-probed images exceed 300KB.
func ImgSize(overThreshold int) model.Check {
	switch {
	case overThreshold == 0:
		return check(model.CheckImgSize, "Image size", model.StatusPass, "no oversized images among probed sample", overThreshold)
	case overThreshold <= 2:
		return check(model.CheckImgSize, "Image size", model.StatusWarn, fmt.Sprintf("%d oversized image(s) among probed sample", overThreshold), overThreshold)
	default:
		return check(model.CheckImgSize, "Image size", model.StatusFail, fmt.Sprintf("%d oversized image(s) among probed sample", overThreshold), overThreshold)
	}
}

// ImgLazy classifies presence of at least one loading=lazy image.
func ImgLazy(hasLazy bool) model.Check {
	if hasLazy {
		return check(model.CheckImgLazy, "Lazy-loaded images", model.StatusPass, "loading=lazy found", nil)
	}
	return check(model.CheckImgLazy, "Lazy-loaded images", model.StatusWarn, "no loading=lazy image found", nil)
}

// PSI classifies a PageSpeed Insights performance score against 70.
// Returns nil when the probe was never made (no key configured, or it
// errored) — psi is absent from the report entirely in that case.
func PSI(score int, available bool) *model.Check {
	if !available {
		return nil
	}
	var c model.Check
	if score >= 70 {
		c = check(model.CheckPSI, "PageSpeed score", model.StatusPass, fmt.Sprintf("score %d", score), score)
	} else {
		c = check(model.CheckPSI, "PageSpeed score", model.StatusWarn, fmt.Sprintf("score %d", score), score)
	}
	return &c
}

// Blocked builds the fail finding emitted only on the BLOCKED path.
func Blocked(status int) model.Check {
	return check(model.CheckBlocked, "Blocked by origin", model.StatusFail, fmt.Sprintf("origin returned %d after retry with browser headers", status), status)
}

// TimedOut builds the warn finding emitted only on the TIMEOUT path.
func TimedOut(budgetMs int64) model.Check {
	return check(model.CheckTimeout, "Request timed out", model.StatusWarn, fmt.Sprintf("no response within %dms budget", budgetMs), nil)
}
