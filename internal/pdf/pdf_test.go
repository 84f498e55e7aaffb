package pdf

import (
	"bytes"
	"testing"

	"github.com/khanhnv2901/webaudit/internal/model"
)

func TestRenderProducesAPDF(t *testing.T) {
	score := 82
	report := &model.Report{
		URL:           "https://example.com",
		FinalURL:      "https://example.com/",
		FetchedStatus: 200,
		TimingMs:      340,
		Score:         &score,
		Checks: []model.Check{
			{ID: model.CheckHTTP, Label: "HTTP status", Status: model.StatusPass, Details: "responded with status 200"},
			{ID: model.CheckSitemap, Label: "Sitemap", Status: model.StatusWarn, Details: "sitemap discovered but not fully verified"},
		},
	}

	out, err := Render(report)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected non-empty PDF output")
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("expected output to start with the PDF magic header, got %q", out[:minInt(len(out), 8)])
	}
}

func TestRenderBlockedAndTimeoutBanners(t *testing.T) {
	report := &model.Report{URL: "https://example.com", Blocked: true}
	out, err := Render(report)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected non-empty PDF output for a blocked report")
	}

	report2 := &model.Report{URL: "https://example.com", Timeout: true}
	out2, err := Render(report2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out2) == 0 {
		t.Fatal("expected non-empty PDF output for a timed-out report")
	}
}

func TestRenderManyChecksPaginates(t *testing.T) {
	var checks []model.Check
	for i := 0; i < 60; i++ {
		checks = append(checks, model.Check{
			ID:      model.CheckImgAlt,
			Label:   "Image alt text",
			Status:  model.StatusPass,
			Details: "a long details string to push the cursor down the page and force pagination logic to trigger",
		})
	}
	report := &model.Report{URL: "https://example.com", Checks: checks}

	out, err := Render(report)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected non-empty PDF output")
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
