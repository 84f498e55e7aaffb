// Package score computes the weighted per-category scores and the
// harmonic-mean overall score, including the hard gates that cap it on
// specific failures.
package score

import (
	"math"

	"github.com/khanhnv2901/webaudit/internal/model"
)

// Category groups checks for weighted-harmonic-mean aggregation.
type Category string

const (
	SEO         Category = "seo"
	Performance Category = "performance"
	Security    Category = "security"
)

// categoryWeights are the relative weights used when aggregating category
// scores into the overall score.
var categoryWeights = map[Category]float64{
	SEO:         0.55,
	Performance: 0.35,
	Security:    0.10,
}

// checkWeights are the relative per-id weights within a category. An id
// absent from this map defaults to weight 1.
var checkWeights = map[model.CheckID]float64{
	model.CheckSitemap:          2.2,
	model.CheckCanonical:        2.0,
	model.CheckRobots:           1.6,
	model.CheckWWWCanonical:     1.2,
	model.CheckNoindex:          5.0,
	model.CheckMetaRobots:       1.0,
	model.CheckImgAlt:           1.2,
	model.CheckViewport:         1.1,
	model.CheckMetaDescription:  0.8,
	model.CheckTitleLength:      0.8,
	model.CheckOpenGraph:        0.5,
	model.CheckFavicon:          0.3,
	model.CheckPSI:              2.4,
	model.CheckTTFB:             1.4,
	model.CheckImgSize:          1.2,
	model.CheckImgModern:        0.8,
	model.CheckImgLazy:          0.6,
	model.CheckHTTP:             2.0,
	model.CheckHTTPSRedirect:    1.8,
	model.CheckMixedContent:     1.8,
	model.CheckSecurityHeaders:  1.0,
	model.CheckCompression:      1.2,
	model.CheckStructuredData:   1.4,
}

var checkCategory = map[model.CheckID]Category{
	model.CheckSitemap:         SEO,
	model.CheckCanonical:       SEO,
	model.CheckRobots:          SEO,
	model.CheckWWWCanonical:    SEO,
	model.CheckNoindex:         SEO,
	model.CheckMetaRobots:      SEO,
	model.CheckImgAlt:          SEO,
	model.CheckViewport:        SEO,
	model.CheckMetaDescription: SEO,
	model.CheckTitleLength:     SEO,
	model.CheckOpenGraph:       SEO,
	model.CheckFavicon:         SEO,
	model.CheckHTTP:            SEO,

	model.CheckPSI:       Performance,
	model.CheckTTFB:      Performance,
	model.CheckImgSize:   Performance,
	model.CheckImgModern: Performance,
	model.CheckImgLazy:   Performance,

	model.CheckHTTPSRedirect:   Security,
	model.CheckMixedContent:    Security,
	model.CheckSecurityHeaders: Security,
	model.CheckCompression:     Security,
	model.CheckStructuredData:  Security,
}

func weightOf(id model.CheckID) float64 {
	if w, ok := checkWeights[id]; ok {
		return w
	}
	return 1
}

func statusValue(s model.Status) float64 {
	switch s {
	case model.StatusPass:
		return 1
	case model.StatusWarn:
		return 0.5
	default:
		return 0
	}
}

const (
	minCategoryScore = 0.05
	maxCategoryScore = 1.0
)

// Result is the scorer's full output: the overall score plus the
// per-category breakdown, useful for diagnostics.
type Result struct {
	Overall    int
	Categories map[Category]float64 // clamped [0.05,1], only present categories
}

// Compute scores the final list of checks. Checks with id in
// {blocked, timeout} or with Locked==true never contribute.
func Compute(checks []model.Check) Result {
	sums := map[Category]float64{}
	weights := map[Category]float64{}

	byID := map[model.CheckID]model.Check{}

	for _, c := range checks {
		if c.Locked || c.ID == model.CheckBlocked || c.ID == model.CheckTimeout {
			continue
		}
		byID[c.ID] = c

		cat, ok := checkCategory[c.ID]
		if !ok {
			continue
		}
		w := weightOf(c.ID)
		sums[cat] += w * statusValue(c.Status)
		weights[cat] += w
	}

	categories := map[Category]float64{}
	for cat, w := range weights {
		if w <= 0 {
			continue
		}
		v := sums[cat] / w
		if v < minCategoryScore {
			v = minCategoryScore
		}
		if v > maxCategoryScore {
			v = maxCategoryScore
		}
		categories[cat] = v
	}

	overall := harmonicMean(categories)
	rounded := int(math.Round(overall * 100))

	rounded = applyGates(rounded, byID)

	return Result{Overall: rounded, Categories: categories}
}

// harmonicMean computes the weighted harmonic mean over the non-null
// category scores present in categories, renormalizing categoryWeights
// over just those present so a missing category (e.g. Security, whose
// checks are always locked) doesn't distort the result.
func harmonicMean(categories map[Category]float64) float64 {
	if len(categories) == 0 {
		return 0
	}
	var weightSum, reciprocalSum float64
	for cat, v := range categories {
		w := categoryWeights[cat]
		if w <= 0 {
			w = 1
		}
		weightSum += w
		reciprocalSum += w / v
	}
	if reciprocalSum == 0 {
		return 0
	}
	return weightSum / reciprocalSum
}

// applyGates caps the integer score in order on specific failures.
func applyGates(scoreVal int, byID map[model.CheckID]model.Check) int {
	if c, ok := byID[model.CheckNoindex]; ok && c.Status == model.StatusFail {
		return 0
	}
	if c, ok := byID[model.CheckHTTP]; ok && c.Status == model.StatusFail {
		scoreVal = min(scoreVal, 40)
	}
	if c, ok := byID[model.CheckCanonical]; ok && c.Status == model.StatusFail {
		scoreVal = min(scoreVal, 65)
	}
	sitemapFail := byID[model.CheckSitemap].Status == model.StatusFail
	robotsFail := byID[model.CheckRobots].Status == model.StatusFail
	if sitemapFail || robotsFail {
		scoreVal = min(scoreVal, 80)
	}
	if scoreVal < 0 {
		scoreVal = 0
	}
	if scoreVal > 100 {
		scoreVal = 100
	}
	return scoreVal
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
