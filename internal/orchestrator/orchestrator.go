// Package orchestrator drives one audit end to end: it sequences the
// probes described by the prober/extract/classify packages under a shared
// budget, isolates per-probe failures, and assembles the final Report.
package orchestrator

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/khanhnv2901/webaudit/internal/budget"
	"github.com/khanhnv2901/webaudit/internal/classify"
	"github.com/khanhnv2901/webaudit/internal/extract"
	"github.com/khanhnv2901/webaudit/internal/model"
	"github.com/khanhnv2901/webaudit/internal/prober"
	"github.com/khanhnv2901/webaudit/internal/score"
	consts "github.com/khanhnv2901/webaudit/internal/shared/constants"
)

// PSIClient abstracts the PageSpeed Insights lookup so the orchestrator
// never depends on a concrete HTTP client for it. A nil PSIClient means
// the probe is skipped entirely (no API key configured).
type PSIClient interface {
	// Score returns the 0-100 performance score for url.
	Score(ctx context.Context, url string) (int, error)
}

// Options configures one Orchestrator.
type Options struct {
	OverallBudget   time.Duration
	SubRequestQuota int
	PSI             PSIClient
	Debug           bool
}

// Orchestrator runs single-shot audits.
type Orchestrator struct {
	prober *prober.Prober
	opts   Options
}

// New returns an Orchestrator that issues probes with p.
func New(p *prober.Prober, opts Options) *Orchestrator {
	if opts.OverallBudget <= 0 {
		opts.OverallBudget = consts.DefaultOverallBudget
	}
	if opts.SubRequestQuota <= 0 {
		opts.SubRequestQuota = consts.DefaultSubRequestQuota
	}
	return &Orchestrator{prober: p, opts: opts}
}

// diag accumulates per-probe timing entries under a mutex; safe for the
// fan-out phase's concurrent probes to write into.
type diag struct {
	mu      sync.Mutex
	entries []model.DiagEntry
}

func (d *diag) record(probe string, start time.Time, skipped bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = append(d.entries, model.DiagEntry{
		Probe:   probe,
		Ms:      float64(time.Since(start).Microseconds()) / 1000,
		Skipped: skipped,
	})
}

// Run audits normalizedURL, which must already have passed model.Normalize.
func (o *Orchestrator) Run(ctx context.Context, normalizedURL string) *model.Report {
	ctx = context.WithValue(ctx, originKey{}, originOf(normalizedURL))
	bc := budget.New(ctx, o.opts.OverallBudget, o.opts.SubRequestQuota)
	defer bc.Close()

	d := &diag{}

	report := &model.Report{
		OK:            true,
		URL:           normalizedURL,
		NormalizedURL: normalizedURL,
	}

	pageStart := time.Now()
	resp, err := o.fetchPage(bc.Context(), normalizedURL, prober.DefaultHeaders(), bc.Within(budget.Page))
	d.record("page", pageStart, false)

	if err != nil {
		o.timeoutPath(bc, report, d)
		o.finish(report, d, o.opts.Debug)
		return report
	}

	if isBlockedStatus(resp.StatusCode) {
		retryStart := time.Now()
		retryResp, retryErr := o.fetchPage(bc.Context(), normalizedURL, prober.BrowserHeaders(), bc.Within(budget.Small))
		d.record("page-retry-browser-headers", retryStart, false)
		if retryErr != nil || isBlockedStatus(retryResp.StatusCode) {
			status := resp.StatusCode
			if retryResp != nil {
				status = retryResp.StatusCode
			}
			o.blockedPath(bc, report, d, status)
			o.finish(report, d, o.opts.Debug)
			return report
		}
		resp = retryResp
	}

	finalURL := resp.FinalURL
	if finalURL == "" {
		finalURL = normalizedURL
	}
	report.FinalURL = finalURL
	report.FetchedStatus = resp.StatusCode
	report.TimingMs = time.Since(pageStart).Milliseconds()

	html := string(resp.Body)
	report.Title = extract.Title(html)
	report.MetaDescription = extract.MetaByName(html, "description")

	checks := []model.Check{classify.HTTP(resp.StatusCode), classify.TTFB(report.TimingMs)}
	checks = append(checks, o.runProbes(bc, d, html, finalURL, resp.Header.Get("X-Robots-Tag"))...)
	checks = append(checks, lockedPlaceholders()...)

	report.Checks = checks
	o.finish(report, d, o.opts.Debug)
	return report
}

func (o *Orchestrator) fetchPage(ctx context.Context, url string, headers http.Header, timeout time.Duration) (*prober.Response, error) {
	return prober.Retry(ctx, prober.RetryOptions{}, func(ctx context.Context) (*prober.Response, error) {
		return o.prober.Fetch(ctx, url, http.MethodGet, prober.FetchOptions{
			Redirect:  prober.RedirectFollow,
			TimeoutMs: int(timeout.Milliseconds()),
			Headers:   headers,
		})
	})
}

func isBlockedStatus(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusTooManyRequests
}

// timeoutPath fills report for the TIMEOUT terminal state: fetchedStatus=0,
// timingMs pinned to the overall budget, title/metaDescription left empty.
func (o *Orchestrator) timeoutPath(bc *budget.Controller, report *model.Report, d *diag) {
	report.Timeout = true
	report.FetchedStatus = 0
	report.TimingMs = o.opts.OverallBudget.Milliseconds()
	report.Title = ""
	report.MetaDescription = ""

	checks := []model.Check{classify.TimedOut(o.opts.OverallBudget.Milliseconds())}
	checks = append(checks, o.bestEffortDiscovery(bc, d)...)
	checks = append(checks, lockedPlaceholders()...)
	report.Checks = checks
}

// blockedPath fills report for the BLOCKED terminal state.
func (o *Orchestrator) blockedPath(bc *budget.Controller, report *model.Report, d *diag, status int) {
	report.Blocked = true
	report.FetchedStatus = status

	checks := []model.Check{classify.Blocked(status)}
	checks = append(checks, o.bestEffortDiscovery(bc, d)...)
	checks = append(checks, lockedPlaceholders()...)
	report.Checks = checks
}

// bestEffortDiscovery runs the robots/sitemap/favicon probes that both
// degraded terminal states still attempt, isolated from each other.
func (o *Orchestrator) bestEffortDiscovery(bc *budget.Controller, d *diag) []model.Check {
	var mu sync.Mutex
	var checks []model.Check
	add := func(c model.Check) {
		mu.Lock()
		checks = append(checks, c)
		mu.Unlock()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s := time.Now()
		check, _ := o.robotsCheckWithSitemaps(bc)
		add(check)
		d.record("robots", s, false)
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		s := time.Now()
		add(o.sitemapCheck(bc, "", nil))
		d.record("sitemap", s, false)
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		s := time.Now()
		add(o.faviconCheck(bc, ""))
		d.record("favicon", s, false)
	}()
	wg.Wait()
	return checks
}

// finish stamps the diag array onto report when debug mode is on and
// computes the overall score for successful reports.
func (o *Orchestrator) finish(report *model.Report, d *diag, debug bool) {
	if debug {
		report.Diag = d.entries
	}
	if report.Blocked || report.Timeout {
		return
	}
	res := score.Compute(report.Checks)
	v := res.Overall
	report.Score = &v
}

func lockedPlaceholders() []model.Check {
	out := make([]model.Check, 0, len(model.LockedChecks))
	for _, id := range model.LockedChecks {
		out = append(out, model.LockedCheck(id))
	}
	return out
}

// runProbes fans the PROBES step out across independent goroutines, each
// isolated from the others' failures, sharing bc's deadline and quota.
func (o *Orchestrator) runProbes(bc *budget.Controller, d *diag, html, finalURL, xRobotsTag string) []model.Check {
	var mu sync.Mutex
	var checks []model.Check
	add := func(c model.Check) {
		mu.Lock()
		checks = append(checks, c)
		mu.Unlock()
	}
	addOpt := func(c *model.Check) {
		if c == nil {
			return
		}
		add(*c)
	}

	ogTitle := extract.MetaByProperty(html, "og:title")
	ogImage := extract.MetaByProperty(html, "og:image")
	ogInput := classify.OpenGraphInput{
		HasTitle: ogTitle != "",
		HasImage: ogImage != "",
		AnyTagFound: ogTitle != "" || ogImage != "" ||
			extract.MetaByProperty(html, "og:description") != "" ||
			extract.MetaByProperty(html, "og:url") != "",
	}

	canonicalHrefs := extract.CanonicalLinks(html)
	noindexInput := classify.NoindexInput{
		MetaRobots:    extract.MetaByName(html, "robots"),
		MetaGooglebot: extract.MetaByName(html, "googlebot"),
		MetaBingbot:   extract.MetaByName(html, "bingbot"),
		XRobotsTag:    xRobotsTag,
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s := time.Now()
		add(o.openGraphCheck(bc, ogInput, ogImage))
		d.record("opengraph", s, false)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s := time.Now()
		add(o.faviconCheck(bc, extract.IconHref(html)))
		d.record("favicon", s, false)
	}()

	// robots must resolve before sitemap discovery can use its Sitemap:
	// lines, so it runs synchronously ahead of the rest of the fan-out.
	robotsStart := time.Now()
	robotsCheckResult, robotsSitemapURLs := o.robotsCheckWithSitemaps(bc)
	add(robotsCheckResult)
	d.record("robots", robotsStart, false)

	wg.Add(1)
	go func() {
		defer wg.Done()
		s := time.Now()
		add(o.sitemapCheck(bc, finalURL, robotsSitemapURLs))
		d.record("sitemap", s, false)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s := time.Now()
		add(o.wwwCanonicalCheck(bc, finalURL))
		d.record("www-canonical", s, false)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s := time.Now()
		add(classify.Canonical(canonicalHrefs, finalURL))
		d.record("canonical", s, false)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s := time.Now()
		add(classify.Noindex(noindexInput))
		add(classify.MetaRobots(noindexInput))
		d.record("noindex", s, false)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s := time.Now()
		add(classify.MetaDescription(extract.MetaByName(html, "description")))
		add(classify.TitleLength(extract.Title(html)))
		add(classify.Viewport(extract.MetaByName(html, "viewport") != ""))
		d.record("meta-and-title", s, false)
	}()

	imgTags := extract.ImgTags(html)
	wg.Add(1)
	go func() {
		defer wg.Done()
		s := time.Now()
		total, withAlt := 0, 0
		hasModern, hasLazy := false, false
		for _, img := range imgTags {
			total++
			if img.HasAlt() {
				withAlt++
			}
			lower := strings.ToLower(img.Src)
			if strings.Contains(lower, ".avif") || strings.Contains(lower, ".webp") {
				hasModern = true
			}
			if img.Loading == "lazy" {
				hasLazy = true
			}
		}
		add(classify.ImgAlt(total, withAlt))
		add(classify.ImgModern(hasModern))
		add(classify.ImgLazy(hasLazy))
		d.record("image-attrs", s, false)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s := time.Now()
		add(o.imgSizeCheck(bc, imgTags, finalURL))
		d.record("img-size", s, false)
	}()

	if o.opts.PSI != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := time.Now()
			addOpt(o.psiCheck(bc, finalURL))
			d.record("psi", s, false)
		}()
	}

	wg.Wait()
	return checks
}
