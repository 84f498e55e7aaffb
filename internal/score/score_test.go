package score

import (
	"testing"

	"github.com/khanhnv2901/webaudit/internal/model"
)

func allPass() []model.Check {
	return []model.Check{
		{ID: model.CheckHTTP, Status: model.StatusPass},
		{ID: model.CheckSitemap, Status: model.StatusPass},
		{ID: model.CheckCanonical, Status: model.StatusPass},
		{ID: model.CheckRobots, Status: model.StatusPass},
		{ID: model.CheckNoindex, Status: model.StatusPass},
		{ID: model.CheckTTFB, Status: model.StatusPass},
		{ID: model.CheckPSI, Status: model.StatusPass},
	}
}

func TestComputeAllPassScoresHigh(t *testing.T) {
	result := Compute(allPass())
	if result.Overall < 90 {
		t.Fatalf("expected a high score for all-pass checks, got %d", result.Overall)
	}
}

func TestComputeIgnoresLockedAndTerminalChecks(t *testing.T) {
	checks := append(allPass(),
		model.Check{ID: model.CheckSecurityHeaders, Status: model.StatusFail, Locked: true},
		model.Check{ID: model.CheckBlocked, Status: model.StatusFail},
	)
	withExtras := Compute(checks)
	baseline := Compute(allPass())
	if withExtras.Overall != baseline.Overall {
		t.Fatalf("expected locked/terminal checks to be excluded: got %d vs baseline %d", withExtras.Overall, baseline.Overall)
	}
}

func TestComputeNoindexFailGatesToZero(t *testing.T) {
	checks := append(allPass(), model.Check{ID: model.CheckNoindex, Status: model.StatusFail})
	result := Compute(checks)
	if result.Overall != 0 {
		t.Fatalf("expected noindex failure to gate score to 0, got %d", result.Overall)
	}
}

func TestComputeHTTPFailGatesTo40(t *testing.T) {
	checks := []model.Check{
		{ID: model.CheckHTTP, Status: model.StatusFail},
		{ID: model.CheckSitemap, Status: model.StatusPass},
	}
	result := Compute(checks)
	if result.Overall > 40 {
		t.Fatalf("expected http failure to gate score to at most 40, got %d", result.Overall)
	}
}

func TestComputeSitemapFailGatesTo80(t *testing.T) {
	checks := append(allPass(), model.Check{ID: model.CheckSitemap, Status: model.StatusFail})
	result := Compute(checks)
	if result.Overall > 80 {
		t.Fatalf("expected sitemap failure to gate score to at most 80, got %d", result.Overall)
	}
}

func TestComputeSecurityCategoryAbsentWhenAllLocked(t *testing.T) {
	checks := allPass()
	for _, id := range []model.CheckID{model.CheckHTTPSRedirect, model.CheckMixedContent, model.CheckSecurityHeaders, model.CheckCompression, model.CheckStructuredData} {
		checks = append(checks, model.LockedCheck(id))
	}
	result := Compute(checks)
	if _, present := result.Categories[Security]; present {
		t.Fatal("expected security category absent when all its checks are locked")
	}
}

func TestComputeEmptyChecksScoresZero(t *testing.T) {
	result := Compute(nil)
	if result.Overall != 0 {
		t.Fatalf("expected 0 for no checks, got %d", result.Overall)
	}
}
