package constants

import (
	"io/fs"
	"time"
)

const (
	// DefaultDirPerm is the default permission used when creating directories.
	DefaultDirPerm fs.FileMode = 0o755
	// DefaultFilePerm is the default permission used when creating files.
	DefaultFilePerm fs.FileMode = 0o644
)

const (
	// DefaultOverallBudget bounds the wall-clock duration of one audit.
	DefaultOverallBudget = 8500 * time.Millisecond
	// DefaultSubRequestQuota bounds discretionary outbound calls per audit.
	DefaultSubRequestQuota = 8
	// MinProbeTimeout is the floor `within()` clamps every per-probe timeout to.
	MinProbeTimeout = 150 * time.Millisecond

	// PageTimeout bounds the initial page fetch.
	PageTimeout = 6000 * time.Millisecond
	// AssetTimeout bounds auxiliary resource fetches (OG image, favicon, images, sitemap URL samples).
	AssetTimeout = 2000 * time.Millisecond
	// SmallTimeout bounds small fetches (robots.txt, sitemap discovery HEADs, www-variant probe).
	SmallTimeout = 2500 * time.Millisecond
	// PSITimeout bounds the PageSpeed Insights call.
	PSITimeout = 3000 * time.Millisecond

	// DefaultCacheTTL is how long a successful report is served from cache.
	DefaultCacheTTL = 90 * time.Second

	// SitemapSamples is how many sitemap-listed URLs get HEAD-then-GET sampled.
	SitemapSamples = 1
	// ImageHeads is how many image srcs get HEAD-probed for byte size.
	ImageHeads = 2
	// MaxImageTags is the truncation point for parsed <img> tags.
	MaxImageTags = 40
	// MaxJSONLDBlocks is the truncation point for parsed ld+json script bodies.
	MaxJSONLDBlocks = 5

	// RetryTries is the default attempt count for prober.Retry.
	RetryTries = 2
	// RetryBaseDelay scales linearly with attempt number before jitter is added.
	RetryBaseDelay = 400 * time.Millisecond
	// RetryJitterMax is the upper bound of the uniform jitter added to each retry delay.
	RetryJitterMax = 250 * time.Millisecond
)
