package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/khanhnv2901/webaudit/internal/cache"
	"github.com/khanhnv2901/webaudit/internal/orchestrator"
	"github.com/khanhnv2901/webaudit/internal/prober"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	p := prober.New()
	orc := orchestrator.New(p, orchestrator.Options{OverallBudget: 3 * time.Second, SubRequestQuota: 8})
	return NewServer(Config{
		Orchestrator: orc,
		Cache:        cache.New(90 * time.Second),
		Logger:       zaptest.NewLogger(t),
	})
}

func TestHandleCheckOptions(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/check", nil)
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
}

func TestHandleCheckGetPing(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/check", nil)
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if body["ping"] != "pong" {
		t.Fatalf("expected ping:pong, got %v", body)
	}
}

func TestHandleCheckInvalidURL(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/check?url=", nil)
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	// empty url falls back to the ping response, not an error.
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty url, got %d", rr.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/check?url=http://%zz", nil)
	rr2 := httptest.NewRecorder()
	s.ServeHTTP(rr2, req2)
	if rr2.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed url, got %d", rr2.Code)
	}
}

func TestHandleCheckPostRunsAudit(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>Hello World Site</title>
<meta name="description" content="A description that is long enough to pass the fifty to one hundred sixty character bound.">
<meta name="viewport" content="width=device-width">
<link rel="canonical" href="` + r.Host + `/">
</head><body></body></html>`))
	}))
	defer backend.Close()

	s := newTestServer(t)

	body, _ := json.Marshal(map[string]interface{}{"url": backend.URL})
	req := httptest.NewRequest(http.MethodPost, "/check", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var report struct {
		OK     bool `json:"ok"`
		Checks []struct {
			ID string `json:"id"`
		} `json:"checks"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if !report.OK {
		t.Fatalf("expected ok=true")
	}
	if len(report.Checks) == 0 {
		t.Fatalf("expected checks to be populated")
	}
}

func TestHandleCheckSnapshotMissing(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/check?id=does-not-exist", nil)
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodDelete, "/check", nil)
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}
