package classify

import (
	"testing"

	"github.com/khanhnv2901/webaudit/internal/model"
)

func TestHTTPStatusClassification(t *testing.T) {
	if got := HTTP(200); got.Status != model.StatusPass {
		t.Fatalf("200 should pass, got %s", got.Status)
	}
	if got := HTTP(404); got.Status != model.StatusFail {
		t.Fatalf("404 should fail, got %s", got.Status)
	}
	if got := HTTP(0); got.Status != model.StatusFail {
		t.Fatalf("0 should fail, got %s", got.Status)
	}
}

func TestTTFBBoundary(t *testing.T) {
	if got := TTFB(1499); got.Status != model.StatusPass {
		t.Fatalf("1499ms should pass, got %s", got.Status)
	}
	if got := TTFB(1500); got.Status != model.StatusWarn {
		t.Fatalf("1500ms should warn, got %s", got.Status)
	}
}

func TestMetaDescriptionBoundaries(t *testing.T) {
	cases := []struct {
		n    int
		want model.Status
	}{
		{0, model.StatusFail},
		{49, model.StatusWarn},
		{50, model.StatusPass},
		{160, model.StatusPass},
		{161, model.StatusWarn},
	}
	for _, c := range cases {
		desc := ""
		for i := 0; i < c.n; i++ {
			desc += "a"
		}
		got := MetaDescription(desc)
		if got.Status != c.want {
			t.Errorf("len %d: got %s want %s", c.n, got.Status, c.want)
		}
	}
}

func TestTitleLengthBoundaries(t *testing.T) {
	cases := []struct {
		n    int
		want model.Status
	}{
		{0, model.StatusFail},
		{14, model.StatusWarn},
		{15, model.StatusPass},
		{60, model.StatusPass},
		{61, model.StatusWarn},
	}
	for _, c := range cases {
		title := ""
		for i := 0; i < c.n; i++ {
			title += "a"
		}
		got := TitleLength(title)
		if got.Status != c.want {
			t.Errorf("len %d: got %s want %s", c.n, got.Status, c.want)
		}
	}
}

func TestImgAltBoundaries(t *testing.T) {
	if got := ImgAlt(0, 0); got.Status != model.StatusPass {
		t.Fatalf("no images should pass, got %s", got.Status)
	}
	if got := ImgAlt(10, 9); got.Status != model.StatusPass {
		t.Fatalf("90%% should pass, got %s", got.Status)
	}
	if got := ImgAlt(10, 6); got.Status != model.StatusWarn {
		t.Fatalf("60%% should warn, got %s", got.Status)
	}
	if got := ImgAlt(10, 5); got.Status != model.StatusFail {
		t.Fatalf("50%% should fail, got %s", got.Status)
	}
}

func TestImgSizeThresholds(t *testing.T) {
	if got := ImgSize(0); got.Status != model.StatusPass {
		t.Fatalf("0 oversized should pass, got %s", got.Status)
	}
	if got := ImgSize(2); got.Status != model.StatusWarn {
		t.Fatalf("2 oversized should warn, got %s", got.Status)
	}
	if got := ImgSize(3); got.Status != model.StatusFail {
		t.Fatalf("3 oversized should fail, got %s", got.Status)
	}
}

func TestPSIBoundary(t *testing.T) {
	if got := PSI(0, false); got != nil {
		t.Fatal("expected nil when psi not available")
	}
	if got := PSI(69, true); got == nil || got.Status != model.StatusWarn {
		t.Fatalf("score 69 should warn, got %+v", got)
	}
	if got := PSI(70, true); got == nil || got.Status != model.StatusPass {
		t.Fatalf("score 70 should pass, got %+v", got)
	}
}

func TestCanonicalClassification(t *testing.T) {
	final := "https://example.com/page"
	if got := Canonical(nil, final); got.Status != model.StatusFail {
		t.Fatalf("no canonical should fail, got %s", got.Status)
	}
	if got := Canonical([]string{"a", "b"}, final); got.Status != model.StatusWarn {
		t.Fatalf("multiple canonicals should warn, got %s", got.Status)
	}
	if got := Canonical([]string{final}, final); got.Status != model.StatusPass {
		t.Fatalf("matching canonical should pass, got %s", got.Status)
	}
	if got := Canonical([]string{"https://example.com/other"}, final); got.Status != model.StatusWarn {
		t.Fatalf("mismatched canonical should warn, got %s", got.Status)
	}
}

func TestNoindexSources(t *testing.T) {
	base := NoindexInput{}
	if got := Noindex(base); got.Status != model.StatusPass {
		t.Fatalf("no directive should pass, got %s", got.Status)
	}

	withHeader := NoindexInput{XRobotsTag: "noindex, nofollow"}
	if got := Noindex(withHeader); got.Status != model.StatusFail {
		t.Fatalf("noindex via X-Robots-Tag should fail, got %s", got.Status)
	}

	withMeta := NoindexInput{MetaRobots: "none"}
	if got := Noindex(withMeta); got.Status != model.StatusFail {
		t.Fatalf("none via meta robots should fail, got %s", got.Status)
	}
}

func TestBlockedAndTimedOut(t *testing.T) {
	if got := Blocked(403); got.Status != model.StatusFail || got.ID != model.CheckBlocked {
		t.Fatalf("unexpected blocked check: %+v", got)
	}
	if got := TimedOut(8500); got.Status != model.StatusWarn || got.ID != model.CheckTimeout {
		t.Fatalf("unexpected timeout check: %+v", got)
	}
}
