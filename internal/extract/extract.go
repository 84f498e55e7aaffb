// Package extract holds pure, side-effect-free HTML/XML parsing helpers.
// Every function here operates on a single decoded response body string and
// never performs I/O; matching is case-insensitive and quote-agnostic the
// way a hand-rolled regex scanner over untrusted markup has to be.
package extract

import (
	"regexp"
	"strings"

	consts "github.com/khanhnv2901/webaudit/internal/shared/constants"
)

var (
	titleRe = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

	linkTagRe = regexp.MustCompile(`(?is)<link\b[^>]*>`)
	metaTagRe = regexp.MustCompile(`(?is)<meta\b[^>]*>`)
	imgTagRe  = regexp.MustCompile(`(?is)<img\b[^>]*>`)
	jsonLDRe  = regexp.MustCompile(`(?is)<script[^>]*type\s*=\s*(?:"application/ld\+json"|'application/ld\+json'|application/ld\+json)[^>]*>(.*?)</script>`)
	locRe     = regexp.MustCompile(`(?is)<loc[^>]*>(.*?)</loc>`)

	attrRe = func(name string) *regexp.Regexp {
		return regexp.MustCompile(`(?is)\b` + regexp.QuoteMeta(name) + `\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'/>]+))`)
	}
)

// Title returns the first <title>…</title> content, trimmed.
func Title(html string) string {
	m := titleRe.FindStringSubmatch(html)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(stripTags(m[1]))
}

// MetaByName returns the content of the first <meta name=n content="…">.
func MetaByName(html, name string) string {
	return metaContent(html, "name", name)
}

// MetaByProperty returns the content of the first <meta property=p content="…">.
func MetaByProperty(html, property string) string {
	return metaContent(html, "property", property)
}

func metaContent(html, attr, want string) string {
	for _, tag := range metaTagRe.FindAllString(html, -1) {
		if !strings.EqualFold(attrValue(tag, attr), want) {
			continue
		}
		return attrValue(tag, "content")
	}
	return ""
}

// CanonicalLinks returns every <link rel=canonical href=…> tag's href, in
// document order, so callers can detect duplicates.
func CanonicalLinks(html string) []string {
	var hrefs []string
	for _, tag := range linkTagRe.FindAllString(html, -1) {
		if !relIncludes(tag, "canonical") {
			continue
		}
		if href := attrValue(tag, "href"); href != "" {
			hrefs = append(hrefs, href)
		}
	}
	return hrefs
}

// IconHref returns the first <link rel=…icon… href=…>'s href, if any.
func IconHref(html string) string {
	for _, tag := range linkTagRe.FindAllString(html, -1) {
		rel := strings.ToLower(attrValue(tag, "rel"))
		if strings.Contains(rel, "icon") {
			return attrValue(tag, "href")
		}
	}
	return ""
}

// ImgTag is a parsed <img> tag's attributes of interest.
type ImgTag struct {
	Src     string
	Alt     string
	Loading string
	Raw     string
}

// ImgTags returns the first MaxImageTags <img> tags.
func ImgTags(html string) []ImgTag {
	tags := imgTagRe.FindAllString(html, -1)
	if len(tags) > consts.MaxImageTags {
		tags = tags[:consts.MaxImageTags]
	}
	out := make([]ImgTag, 0, len(tags))
	for _, tag := range tags {
		out = append(out, ImgTag{
			Src:     attrValue(tag, "src"),
			Alt:     attrValue(tag, "alt"),
			Loading: strings.ToLower(attrValue(tag, "loading")),
			Raw:     tag,
		})
	}
	return out
}

// HasAlt reports whether the tag carries a non-blank alt value; a missing
// alt attribute and alt="" (or whitespace only) both count as no alt text.
func (t ImgTag) HasAlt() bool {
	return strings.TrimSpace(t.Alt) != ""
}

// JSONLDBlocks returns the first MaxJSONLDBlocks raw <script
// type=application/ld+json> bodies.
func JSONLDBlocks(html string) []string {
	matches := jsonLDRe.FindAllStringSubmatch(html, -1)
	out := make([]string, 0, len(matches))
	for i, m := range matches {
		if i >= consts.MaxJSONLDBlocks {
			break
		}
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

// Locs returns every <loc>…</loc> trimmed value; works for both urlset and
// sitemapindex XML documents since it doesn't distinguish parent tags.
func Locs(xml string) []string {
	matches := locRe.FindAllStringSubmatch(xml, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

func relIncludes(tag, want string) bool {
	rel := strings.ToLower(attrValue(tag, "rel"))
	for _, tok := range strings.Fields(rel) {
		if tok == want {
			return true
		}
	}
	return false
}

func attrValue(tag, name string) string {
	m := attrRe(name).FindStringSubmatch(tag)
	if m == nil {
		return ""
	}
	for _, v := range m[1:] {
		if v != "" {
			return unescapeMinimal(v)
		}
	}
	return ""
}

var tagStripRe = regexp.MustCompile(`(?is)<[^>]+>`)

func stripTags(s string) string {
	return tagStripRe.ReplaceAllString(s, "")
}

// unescapeMinimal handles the handful of entities that show up in
// hand-authored meta/title content without pulling in a full HTML decoder.
func unescapeMinimal(s string) string {
	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&apos;", "'",
	)
	return replacer.Replace(s)
}
