// Package api implements the HTTP surface: the /check audit endpoint plus
// local stand-ins for the two out-of-core-scope collaborators (lead
// capture, PDF delivery) described at the boundary.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/khanhnv2901/webaudit/internal/api/middleware"
	"github.com/khanhnv2901/webaudit/internal/cache"
	"github.com/khanhnv2901/webaudit/internal/model"
	"github.com/khanhnv2901/webaudit/internal/orchestrator"
	"github.com/khanhnv2901/webaudit/internal/snapshot"
)

// LeadHandler and RenderPDFHandler are the local stand-ins for the
// out-of-core-scope /lead and /send-pdf collaborators (see
// internal/localapi). Both are optional: a nil handler means the route
// isn't mounted.
type Config struct {
	Orchestrator *orchestrator.Orchestrator
	Cache        *cache.Cache
	Snapshots    snapshot.Store
	ShareBase    string

	LeadHandler      http.Handler
	RenderPDFHandler http.Handler

	Logger      *zap.Logger
	CORSOrigins []string // empty = allow any origin
	RateLimit   int      // requests/sec per IP for the /lead and /send-pdf routes; 0 = disabled
	RateBurst   int
}

// Server serves the audit engine's HTTP surface.
type Server struct {
	cfg      Config
	mux      *http.ServeMux
	limiters *rateLimiterMap
}

// NewServer builds a Server ready to ServeHTTP.
func NewServer(cfg Config) *Server {
	srv := &Server{
		cfg:      cfg,
		mux:      http.NewServeMux(),
		limiters: newRateLimiterMap(),
	}
	srv.routes()
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handler := middleware.RequestID(s.withLogging(s.withCORS(s.mux)))
	handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/check", s.handleCheck)
	if s.cfg.LeadHandler != nil {
		s.mux.Handle("/lead", s.withRateLimit(s.cfg.LeadHandler))
	}
	if s.cfg.RenderPDFHandler != nil {
		s.mux.Handle("/send-pdf", s.withRateLimit(s.cfg.RenderPDFHandler))
	}
}

// handleCheck implements the audit endpoint's three verbs (§6): OPTIONS
// preflight, GET (ping, snapshot lookup, or an audit driven by query
// params), and POST (an audit driven by a JSON body, optionally
// snapshotted).
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
	case http.MethodGet:
		s.handleCheckGet(w, r)
	case http.MethodPost:
		s.handleCheckPost(w, r)
	default:
		s.methodNotAllowed(w, r)
	}
}

func (s *Server) handleCheckGet(w http.ResponseWriter, r *http.Request) {
	q, err := url.ParseQuery(r.URL.RawQuery)
	if err != nil {
		s.writeInvalidInput(w, "invalid query string: "+err.Error())
		return
	}
	rawURL := q.Get("url")

	if pathOrID := firstNonEmpty(q.Get("blob"), q.Get("id")); pathOrID != "" {
		s.serveSnapshot(w, r, pathOrID)
		return
	}

	if rawURL == "" {
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "ping": "pong"})
		return
	}

	nocache := q.Get("nocache") == "1" || strings.EqualFold(q.Get("nocache"), "true")
	s.runAudit(w, r, rawURL, nocache, false)
}

type checkPostRequest struct {
	URL      string `json:"url"`
	NoCache  bool   `json:"nocache"`
	Snapshot bool   `json:"snapshot"`
}

func (s *Server) handleCheckPost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req checkPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeInvalidInput(w, "invalid JSON body")
		return
	}
	s.runAudit(w, r, req.URL, req.NoCache, req.Snapshot)
}

func (s *Server) serveSnapshot(w http.ResponseWriter, r *http.Request, pathOrID string) {
	if s.cfg.Snapshots == nil {
		s.writeSnapshotMissing(w, pathOrID)
		return
	}
	report, err := s.cfg.Snapshots.Load(pathOrID)
	if err != nil {
		s.writeSnapshotMissing(w, pathOrID)
		return
	}
	report.FromSnapshot = true
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) runAudit(w http.ResponseWriter, r *http.Request, rawURL string, nocache, wantSnapshot bool) {
	normalized, err := model.Normalize(rawURL)
	if err != nil {
		s.writeInvalidInput(w, "invalid url: "+err.Error())
		return
	}
	key := model.CanonicalKey(normalized)

	if !nocache && !wantSnapshot && s.cfg.Cache != nil {
		if entry, ok := s.cfg.Cache.GetEntry(key); ok {
			resp := entry.Payload.Clone()
			resp.Cached = true
			resp.CacheAgeMs = time.Since(entry.CreatedAt).Milliseconds()
			writeJSON(w, http.StatusOK, resp)
			return
		}
	}

	report := s.cfg.Orchestrator.Run(r.Context(), normalized)

	if wantSnapshot && s.cfg.Snapshots != nil {
		blobPath, blobURL, saveErr := s.cfg.Snapshots.Save(report)
		if saveErr == nil {
			report.ShareBlobPath = blobPath
			report.ShareBlobURL = blobURL
			if s.cfg.ShareBase != "" {
				report.ShareURL = s.cfg.ShareBase + "?blob=" + url.QueryEscape(blobPath)
			}
		} else if s.cfg.Logger != nil {
			s.cfg.Logger.Warn("snapshot save failed", zap.Error(saveErr))
		}
	}

	if !wantSnapshot && !report.Blocked && !report.Timeout && s.cfg.Cache != nil {
		s.cfg.Cache.Set(key, report)
	}

	writeJSON(w, http.StatusOK, report)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func (s *Server) writeInvalidInput(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, model.ErrorResponse{OK: false, Errors: []string{msg}})
}

func (s *Server) writeSnapshotMissing(w http.ResponseWriter, pathOrID string) {
	writeJSON(w, http.StatusNotFound, model.ErrorResponse{OK: false, Errors: []string{"snapshot not found: " + pathOrID}})
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, model.ErrorResponse{OK: false, Errors: []string{"method not allowed"}})
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	msg := err.Error()
	if status >= 500 {
		if s.cfg.Logger != nil {
			s.cfg.Logger.Error("internal_server_error", zap.Error(err), zap.Int("status", status))
		}
		msg = "internal server error"
	}
	writeJSON(w, status, model.ErrorResponse{OK: false, Errors: []string{msg}})
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowOrigin := "*"
		if len(s.cfg.CORSOrigins) > 0 {
			allowOrigin = ""
			for _, o := range s.cfg.CORSOrigins {
				if o == origin {
					allowOrigin = origin
					break
				}
			}
		}
		if allowOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "3600")
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lrw, r)
		if s.cfg.Logger != nil {
			s.cfg.Logger.Info("http_request",
				zap.String("request_id", middleware.GetRequestID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", lrw.statusCode),
				zap.Duration("duration", time.Since(start)),
			)
		}
	})
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.RateLimit <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		clientIP := clientIPFrom(r)
		limiter := s.limiters.getLimiter(clientIP, s.cfg.RateLimit, s.cfg.RateBurst)
		if !limiter.Allow() {
			s.writeError(w, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIPFrom(r *http.Request) string {
	ip := r.RemoteAddr
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if idx := strings.Index(forwarded, ","); idx > 0 {
			ip = strings.TrimSpace(forwarded[:idx])
		} else {
			ip = strings.TrimSpace(forwarded)
		}
	}
	if idx := strings.LastIndex(ip, ":"); idx > 0 {
		ip = ip[:idx]
	}
	return ip
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// rateLimiterMap manages per-IP rate limiters with automatic cleanup.
type rateLimiterMap struct {
	mu       sync.RWMutex
	limiters map[string]*ipLimiter
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiterMap() *rateLimiterMap {
	m := &rateLimiterMap{limiters: make(map[string]*ipLimiter)}
	go m.cleanupLoop()
	return m
}

func (m *rateLimiterMap) getLimiter(ip string, rps, burst int) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, exists := m.limiters[ip]
	if !exists {
		l = &ipLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst), lastSeen: time.Now()}
		m.limiters[ip] = l
	} else {
		l.lastSeen = time.Now()
	}
	return l.limiter
}

func (m *rateLimiterMap) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		m.mu.Lock()
		for ip, l := range m.limiters {
			if time.Since(l.lastSeen) > 5*time.Minute {
				delete(m.limiters, ip)
			}
		}
		m.mu.Unlock()
	}
}
