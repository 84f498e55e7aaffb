// Package model defines the shared Report/Check/Target shapes produced by
// the audit orchestrator and serialized across the HTTP surface.
package model

// Status is the classified outcome of a single check.
type Status string

const (
	StatusPass   Status = "pass"
	StatusWarn   Status = "warn"
	StatusFail   Status = "fail"
	StatusLocked Status = "locked"
)

// CheckID is drawn from the closed set of identifiers a Report may contain.
type CheckID string

const (
	CheckHTTP             CheckID = "http"
	CheckTTFB             CheckID = "ttfb"
	CheckOpenGraph        CheckID = "opengraph"
	CheckFavicon          CheckID = "favicon"
	CheckRobots           CheckID = "robots"
	CheckSitemap          CheckID = "sitemap"
	CheckWWWCanonical     CheckID = "www-canonical"
	CheckCanonical        CheckID = "canonical"
	CheckNoindex          CheckID = "noindex"
	CheckMetaRobots       CheckID = "meta-robots"
	CheckMetaDescription  CheckID = "meta-description"
	CheckTitleLength      CheckID = "title-length"
	CheckViewport         CheckID = "viewport"
	CheckImgAlt           CheckID = "img-alt"
	CheckStructuredData   CheckID = "structured-data"
	CheckH1Structure      CheckID = "h1-structure"
	CheckLLMs             CheckID = "llms"
	CheckTimeout          CheckID = "timeout"
	CheckPSI              CheckID = "psi"
	CheckImgModern        CheckID = "img-modern"
	CheckImgSize          CheckID = "img-size"
	CheckImgLazy          CheckID = "img-lazy"
	CheckCompression      CheckID = "compression"
	CheckBlocked          CheckID = "blocked"
	CheckHTTPSRedirect    CheckID = "https-redirect"
	CheckMixedContent     CheckID = "mixed-content"
	CheckSecurityHeaders  CheckID = "security-headers"
)

// LockedChecks is the closed set of placeholder findings every successful,
// BLOCKED, and TIMEOUT report must contain.
var LockedChecks = []CheckID{
	CheckMixedContent,
	CheckSecurityHeaders,
	CheckHTTPSRedirect,
	CheckCompression,
	CheckStructuredData,
	CheckH1Structure,
	CheckLLMs,
}

// LockedLabels names the locked placeholders for report assembly.
var LockedLabels = map[CheckID]string{
	CheckMixedContent:    "Mixed content",
	CheckSecurityHeaders: "Security headers",
	CheckHTTPSRedirect:   "HTTPS redirect",
	CheckCompression:     "Compression",
	CheckStructuredData:  "Structured data",
	CheckH1Structure:     "Heading structure",
	CheckLLMs:            "LLM crawlability",
}

// Check is one classified finding in a Report.
type Check struct {
	ID      CheckID     `json:"id"`
	Label   string      `json:"label"`
	Status  Status      `json:"status"`
	Details string      `json:"details,omitempty"`
	Value   interface{} `json:"value,omitempty"`
	Locked  bool        `json:"locked,omitempty"`
}

// LockedCheck builds the locked placeholder finding for id.
func LockedCheck(id CheckID) Check {
	return Check{ID: id, Label: LockedLabels[id], Status: StatusLocked, Locked: true}
}

// DiagEntry records one probe's timing for DEBUG_AUDIT responses.
type DiagEntry struct {
	Probe   string  `json:"probe"`
	Ms      float64 `json:"ms"`
	Skipped bool    `json:"skipped,omitempty"`
}

// Report is the full result of one audit.
type Report struct {
	OK              bool        `json:"ok"`
	URL             string      `json:"url"`
	NormalizedURL   string      `json:"normalizedUrl"`
	FinalURL        string      `json:"finalUrl,omitempty"`
	FetchedStatus   int         `json:"fetchedStatus"`
	TimingMs        int64       `json:"timingMs"`
	Title           string      `json:"title"`
	MetaDescription string      `json:"metaDescription"`
	Speed           *int        `json:"speed,omitempty"`
	Checks          []Check     `json:"checks"`
	Blocked         bool        `json:"blocked,omitempty"`
	Timeout         bool        `json:"timeout,omitempty"`
	Cached          bool        `json:"cached,omitempty"`
	CacheAgeMs      int64       `json:"cacheAgeMs,omitempty"`
	ShareBlobPath   string      `json:"shareBlobPath,omitempty"`
	ShareBlobURL    string      `json:"shareBlobUrl,omitempty"`
	ShareURL        string      `json:"shareUrl,omitempty"`
	FromSnapshot    bool        `json:"fromSnapshot,omitempty"`
	Score           *int        `json:"score,omitempty"`
	Diag            []DiagEntry `json:"_diag,omitempty"`
}

// FindCheck returns the check with the given id, if present.
func (r *Report) FindCheck(id CheckID) (Check, bool) {
	for _, c := range r.Checks {
		if c.ID == id {
			return c, true
		}
	}
	return Check{}, false
}

// Clone returns a deep-enough copy of r safe to hand to a second caller
// (cache reads must not let one caller's mutation of Checks/Diag leak into
// another's).
func (r *Report) Clone() *Report {
	cp := *r
	if r.Checks != nil {
		cp.Checks = make([]Check, len(r.Checks))
		copy(cp.Checks, r.Checks)
	}
	if r.Diag != nil {
		cp.Diag = make([]DiagEntry, len(r.Diag))
		copy(cp.Diag, r.Diag)
	}
	if r.Speed != nil {
		v := *r.Speed
		cp.Speed = &v
	}
	if r.Score != nil {
		v := *r.Score
		cp.Score = &v
	}
	return &cp
}

// ErrorResponse is the JSON body for InvalidInput/SnapshotMissing/Unexpected errors.
type ErrorResponse struct {
	OK     bool     `json:"ok"`
	Errors []string `json:"errors"`
}
