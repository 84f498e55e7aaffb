package orchestrator

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/khanhnv2901/webaudit/internal/budget"
	"github.com/khanhnv2901/webaudit/internal/classify"
	"github.com/khanhnv2901/webaudit/internal/extract"
	"github.com/khanhnv2901/webaudit/internal/model"
	"github.com/khanhnv2901/webaudit/internal/prober"
	consts "github.com/khanhnv2901/webaudit/internal/shared/constants"
)

// sitemapCandidates are the well-known paths tried before falling back to
// whatever robots.txt advertised.
var sitemapCandidates = []string{
	"/sitemap.xml",
	"/sitemap_index.xml",
	"/sitemap-index.xml",
	"/wp-sitemap.xml",
}

func resolveAgainst(base, ref string) string {
	if ref == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func originOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Path, u.RawQuery, u.Fragment = "", "", ""
	return u.String()
}

// robotsCheckWithSitemaps fetches /robots.txt (not quota-counted) and
// returns both the classified check and any Sitemap: lines it found.
func (o *Orchestrator) robotsCheckWithSitemaps(bc *budget.Controller) (model.Check, []string) {
	origin := bc.Context().Value(originKey{})
	base, _ := origin.(string)

	robotsURL := strings.TrimRight(base, "/") + "/robots.txt"
	resp, err := o.prober.HeadThenGet(bc.Context(), robotsURL, prober.HeadThenGetOptions{
		TimeoutMs:       int(bc.Within(budget.Small).Milliseconds()),
		Headers:         prober.DefaultHeaders(),
		FallbackOnNonOK: true,
	})
	if err != nil || resp.StatusCode >= 400 {
		return classify.Robots(false, false), nil
	}

	body := string(resp.Body)
	disallowAll := robotsDisallowsAll(body)
	sitemaps := robotsSitemapLines(body)
	return classify.Robots(true, disallowAll), sitemaps
}

func robotsDisallowsAll(body string) bool {
	lines := strings.Split(body, "\n")
	inWildcardBlock := false
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "user-agent:"):
			agent := strings.TrimSpace(line[len("user-agent:"):])
			inWildcardBlock = agent == "*"
		case inWildcardBlock && strings.HasPrefix(lower, "disallow:"):
			path := strings.TrimSpace(line[len("disallow:"):])
			if path == "/" {
				return true
			}
		}
	}
	return false
}

func robotsSitemapLines(body string) []string {
	var out []string
	for _, raw := range strings.Split(body, "\n") {
		line := strings.TrimSpace(raw)
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "sitemap:") {
			out = append(out, strings.TrimSpace(line[len("sitemap:"):]))
		}
	}
	return out
}

func dedupe(items []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, it := range items {
		if it == "" || seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	return out
}

func isGzipped(url string, header http.Header) bool {
	if strings.HasSuffix(strings.ToLower(url), ".gz") {
		return true
	}
	ct := strings.ToLower(header.Get("Content-Type"))
	return strings.Contains(ct, "application/gzip") || strings.Contains(ct, "application/x-gzip")
}

// sitemapCheck discovers and samples the sitemap. Robots-advertised URLs
// are preferred over the well-known candidate paths.
func (o *Orchestrator) sitemapCheck(bc *budget.Controller, finalURL string, robotsSitemaps []string) model.Check {
	origin := bc.Context().Value(originKey{})
	base, _ := origin.(string)
	if base == "" && finalURL != "" {
		base = originOf(finalURL)
	}

	var candidates []string
	candidates = append(candidates, robotsSitemaps...)
	for _, c := range sitemapCandidates {
		candidates = append(candidates, strings.TrimRight(base, "/")+c)
	}
	candidates = dedupe(candidates)

	for _, candidate := range candidates {
		resp, err := o.prober.HeadThenGet(bc.Context(), candidate, prober.HeadThenGetOptions{
			TimeoutMs:       int(bc.Within(budget.Small).Milliseconds()),
			Headers:         prober.DefaultHeaders(),
			FallbackOnNonOK: true,
		})
		if err != nil || resp.StatusCode >= 400 {
			continue
		}
		if isGzipped(candidate, resp.Header) {
			return classify.Sitemap(classify.SitemapInput{Discovered: true, Gzipped: true})
		}

		getResp, err := o.prober.Fetch(bc.Context(), candidate, http.MethodGet, prober.FetchOptions{
			TimeoutMs: int(bc.Within(budget.Page).Milliseconds()),
			Headers:   prober.DefaultHeaders(),
		})
		if err != nil {
			return classify.Sitemap(classify.SitemapInput{Discovered: true})
		}
		if isGzipped(candidate, getResp.Header) {
			return classify.Sitemap(classify.SitemapInput{Discovered: true, Gzipped: true})
		}

		locs := extract.Locs(string(getResp.Body))
		if len(locs) == 0 {
			return classify.Sitemap(classify.SitemapInput{Discovered: true, HasLoc: false})
		}

		sampled := locs
		if len(sampled) > consts.SitemapSamples {
			sampled = sampled[:consts.SitemapSamples]
		}
		sampledOK := true
		for _, loc := range sampled {
			sampleResp, err := o.prober.HeadThenGet(bc.Context(), loc, prober.HeadThenGetOptions{
				TimeoutMs:       int(bc.Within(budget.Asset).Milliseconds()),
				Headers:         prober.DefaultHeaders(),
				FallbackOnNonOK: true,
			})
			if err != nil || sampleResp.StatusCode >= 400 {
				sampledOK = false
			}
		}
		return classify.Sitemap(classify.SitemapInput{Discovered: true, HasLoc: true, SampledOK: sampledOK})
	}

	return classify.Sitemap(classify.SitemapInput{Discovered: false})
}

// faviconCheck probes the discovered icon href, or /favicon.ico as a
// fallback when the page carried no icon link. Not quota-counted.
func (o *Orchestrator) faviconCheck(bc *budget.Controller, iconHref string) model.Check {
	origin, _ := bc.Context().Value(originKey{}).(string)
	target := iconHref
	if target == "" {
		target = strings.TrimRight(origin, "/") + "/favicon.ico"
	} else if origin != "" {
		target = resolveAgainst(origin, iconHref)
	}
	if target == "" {
		return classify.Favicon(false, false)
	}

	resp, err := o.prober.HeadThenGet(bc.Context(), target, prober.HeadThenGetOptions{
		TimeoutMs:       int(bc.Within(budget.Asset).Milliseconds()),
		Headers:         prober.DefaultHeaders(),
		FallbackOnNonOK: true,
	})
	ok := err == nil && resp.StatusCode >= 200 && resp.StatusCode < 400
	return classify.Favicon(true, ok)
}

// wwwCanonicalCheck is discretionary: it spends one unit of quota before
// issuing the manual-redirect probe against the flipped-www variant host.
func (o *Orchestrator) wwwCanonicalCheck(bc *budget.Controller, finalURL string) model.Check {
	if finalURL == "" || !bc.Spend(1) {
		return classify.WWWCanonical(false, false)
	}
	variant, err := model.FlipWWW(finalURL)
	if err != nil {
		return classify.WWWCanonical(false, false)
	}

	resp, err := o.prober.Fetch(bc.Context(), variant, http.MethodGet, prober.FetchOptions{
		Redirect:  prober.RedirectManual,
		TimeoutMs: int(bc.Within(budget.Small).Milliseconds()),
		Headers:   prober.DefaultHeaders(),
	})
	if err != nil {
		return classify.WWWCanonical(true, false)
	}
	if !isRedirectStatus(resp.StatusCode) || resp.Location == "" {
		return classify.WWWCanonical(true, false)
	}

	locURL, err := url.Parse(resolveAgainst(variant, resp.Location))
	if err != nil {
		return classify.WWWCanonical(true, false)
	}
	canonicalURL, _ := url.Parse(finalURL)
	good := canonicalURL != nil && strings.EqualFold(locURL.Hostname(), canonicalURL.Hostname())
	return classify.WWWCanonical(true, good)
}

func isRedirectStatus(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	default:
		return false
	}
}

// openGraphCheck spends one unit of quota to verify the og:image actually
// loads, when one is present. Absent or unspent, ImageLoads stays nil,
// which classify.OpenGraph treats as "not disqualifying".
func (o *Orchestrator) openGraphCheck(bc *budget.Controller, in classify.OpenGraphInput, ogImageHref string) model.Check {
	if !in.HasImage || ogImageHref == "" {
		return classify.OpenGraph(in)
	}
	if !bc.Spend(1) {
		return classify.OpenGraph(in)
	}

	origin, _ := bc.Context().Value(originKey{}).(string)
	imageURL := ogImageHref
	if origin != "" {
		imageURL = resolveAgainst(origin, ogImageHref)
	}

	resp, err := o.prober.Fetch(bc.Context(), imageURL, http.MethodGet, prober.FetchOptions{
		TimeoutMs: int(bc.Within(budget.Asset).Milliseconds()),
		Headers:   prober.DefaultHeaders(),
	})
	ok := err == nil && resp.StatusCode >= 200 && resp.StatusCode < 400
	in.ImageLoads = &ok
	return classify.OpenGraph(in)
}

// imgSizeCheck HEADs up to ImageHeads images (quota-gated) and counts how
// many exceed 300 KB by Content-Length.
func (o *Orchestrator) imgSizeCheck(bc *budget.Controller, imgs []extract.ImgTag, finalURL string) model.Check {
	origin, _ := bc.Context().Value(originKey{}).(string)
	over := 0
	probed := 0
	for _, img := range imgs {
		if probed >= consts.ImageHeads {
			break
		}
		if img.Src == "" || !bc.Spend(1) {
			continue
		}
		target := img.Src
		if origin != "" {
			target = resolveAgainst(origin, img.Src)
		}
		resp, err := o.prober.Fetch(bc.Context(), target, http.MethodHead, prober.FetchOptions{
			TimeoutMs: int(bc.Within(budget.Asset).Milliseconds()),
			Headers:   prober.DefaultHeaders(),
		})
		probed++
		if err != nil {
			continue
		}
		if n, convErr := strconv.Atoi(resp.Header.Get("Content-Length")); convErr == nil && n > 300000 {
			over++
		}
	}
	return classify.ImgSize(over)
}

// psiCheck asks the configured PSIClient for a performance score, only
// when at least 2s of overall budget remain.
func (o *Orchestrator) psiCheck(bc *budget.Controller, finalURL string) *model.Check {
	if bc.TimeLeft() < 2*time.Second {
		return nil
	}
	ctx, cancel := context.WithTimeout(bc.Context(), bc.Within(budget.PSI))
	defer cancel()

	score, err := o.opts.PSI.Score(ctx, finalURL)
	if err != nil {
		return nil
	}
	return classify.PSI(score, true)
}

type originKey struct{}
