// Package localapi implements the two collaborators spec.md describes only
// by interface at the audit engine's boundary: lead capture and PDF
// delivery. Both dispatch through a transactional email provider; neither
// is part of the core audit path.
package localapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/khanhnv2901/webaudit/internal/model"
	"github.com/khanhnv2901/webaudit/internal/pdf"
)

// Mailer abstracts the transactional email dispatch so tests never make an
// outbound call to a real provider.
type Mailer interface {
	Send(ctx context.Context, msg Message) (id string, err error)
}

// Message is one outbound transactional email.
type Message struct {
	To          string
	Subject     string
	Text        string
	Attachment  []byte
	AttachName  string
	ContentType string
}

// ResendMailer sends Messages through Resend's HTTP API.
type ResendMailer struct {
	APIKey string
	From   string
	Client *http.Client
}

func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{APIKey: apiKey, From: from, Client: &http.Client{Timeout: 10 * time.Second}}
}

type resendPayload struct {
	From        string             `json:"from"`
	To          []string           `json:"to"`
	Subject     string             `json:"subject"`
	Text        string             `json:"text"`
	Attachments []resendAttachment `json:"attachments,omitempty"`
}

type resendAttachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"` // base64
}

func (m *ResendMailer) Send(ctx context.Context, msg Message) (string, error) {
	payload := resendPayload{
		From:    m.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
	}
	if len(msg.Attachment) > 0 {
		payload.Attachments = []resendAttachment{{
			Filename: msg.AttachName,
			Content:  base64.StdEncoding.EncodeToString(msg.Attachment),
		}}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal resend payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.resend.com/emails", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build resend request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.APIKey)

	resp, err := m.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("resend request: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		ID string `json:"id"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("resend responded %d", resp.StatusCode)
	}
	return out.ID, nil
}

// LeadRequest is the /lead POST body.
type LeadRequest struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email"`
	Website string `json:"website"`
	Source  string `json:"source,omitempty"`
	Message string `json:"message,omitempty"`
}

func (lr LeadRequest) validate() error {
	if !strings.Contains(lr.Email, "@") || !strings.Contains(lr.Email, ".") {
		return fmt.Errorf("email must look like an email address")
	}
	if strings.TrimSpace(lr.Website) == "" {
		return fmt.Errorf("website is required")
	}
	return nil
}

// LeadHandler serves POST /lead: validates the body and dispatches a
// notification email through Mailer.
type LeadHandler struct {
	Mailer   Mailer
	NotifyTo string
	Logger   *zap.Logger
}

func (h *LeadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, model.ErrorResponse{OK: false, Errors: []string{"method not allowed"}})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	var req LeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{OK: false, Errors: []string{"invalid JSON body"}})
		return
	}
	if err := req.validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{OK: false, Errors: []string{err.Error()}})
		return
	}

	id, err := h.Mailer.Send(r.Context(), Message{
		To:      h.NotifyTo,
		Subject: "New lead: " + req.Website,
		Text:    fmt.Sprintf("name=%s email=%s website=%s source=%s\n\n%s", req.Name, req.Email, req.Website, req.Source, req.Message),
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("lead notification failed", zap.Error(err))
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": false, "errors": []string{"notification failed"}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "id": id})
}

// RenderPDFHandler serves POST /send-pdf: renders the given report to a
// PDF and emails it as an attachment.
type RenderPDFHandler struct {
	Mailer Mailer
	Logger *zap.Logger
}

type sendPDFRequest struct {
	Email   string       `json:"email"`
	Payload model.Report `json:"payload"`
}

func (h *RenderPDFHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, model.ErrorResponse{OK: false, Errors: []string{"method not allowed"}})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req sendPDFRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{OK: false, Errors: []string{"invalid JSON body"}})
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{OK: false, Errors: []string{"email must look like an email address"}})
		return
	}

	bytesOut, err := pdf.Render(&req.Payload)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{OK: false, Errors: []string{"render failed"}})
		return
	}

	id, err := h.Mailer.Send(r.Context(), Message{
		To:         req.Email,
		Subject:    "Your website audit report",
		Text:       "Attached is your audit report for " + req.Payload.URL,
		Attachment: bytesOut,
		AttachName: "audit-report.pdf",
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("pdf send failed", zap.Error(err))
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": false, "errors": []string{"send failed"}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "id": id})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
