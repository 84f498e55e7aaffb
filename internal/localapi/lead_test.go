package localapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/khanhnv2901/webaudit/internal/model"
)

type fakeMailer struct {
	lastMsg Message
	err     error
}

func (f *fakeMailer) Send(ctx context.Context, msg Message) (string, error) {
	f.lastMsg = msg
	if f.err != nil {
		return "", f.err
	}
	return "fake-id", nil
}

func TestLeadHandlerValidation(t *testing.T) {
	mailer := &fakeMailer{}
	h := &LeadHandler{Mailer: mailer, NotifyTo: "ops@example.com", Logger: zaptest.NewLogger(t)}

	body, _ := json.Marshal(LeadRequest{Email: "not-an-email", Website: "example.com"})
	req := httptest.NewRequest(http.MethodPost, "/lead", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad email, got %d", rr.Code)
	}
}

func TestLeadHandlerDispatches(t *testing.T) {
	mailer := &fakeMailer{}
	h := &LeadHandler{Mailer: mailer, NotifyTo: "ops@example.com", Logger: zaptest.NewLogger(t)}

	body, _ := json.Marshal(LeadRequest{Email: "lead@example.com", Website: "example.com", Name: "Ada"})
	req := httptest.NewRequest(http.MethodPost, "/lead", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if resp["ok"] != true {
		t.Fatalf("expected ok=true, got %v", resp)
	}
	if mailer.lastMsg.To != "ops@example.com" {
		t.Fatalf("expected notification sent to ops address, got %q", mailer.lastMsg.To)
	}
}

func TestRenderPDFHandlerSendsAttachment(t *testing.T) {
	mailer := &fakeMailer{}
	h := &RenderPDFHandler{Mailer: mailer, Logger: zaptest.NewLogger(t)}

	report := model.Report{URL: "https://example.com", OK: true, Checks: []model.Check{
		{ID: model.CheckHTTP, Label: "HTTP status", Status: model.StatusPass},
	}}
	body, _ := json.Marshal(map[string]interface{}{"email": "customer@example.com", "payload": report})
	req := httptest.NewRequest(http.MethodPost, "/send-pdf", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(mailer.lastMsg.Attachment) == 0 {
		t.Fatalf("expected a non-empty pdf attachment")
	}
}

func TestRenderPDFHandlerInvalidEmail(t *testing.T) {
	mailer := &fakeMailer{}
	h := &RenderPDFHandler{Mailer: mailer, Logger: zaptest.NewLogger(t)}

	body, _ := json.Marshal(map[string]interface{}{"email": "nope", "payload": model.Report{}})
	req := httptest.NewRequest(http.MethodPost, "/send-pdf", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
