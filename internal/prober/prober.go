// Package prober implements the one-shot HTTP fetch primitive the audit
// orchestrator drives: per-request timeouts, retry-with-jitter on
// transient network errors, and a HEAD-then-GET fallback for origins that
// reject minimal clients.
package prober

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"time"

	consts "github.com/khanhnv2901/webaudit/internal/shared/constants"
)

// ErrAborted is returned when a probe's deadline elapses before the
// response headers arrive.
var ErrAborted = errors.New("probe aborted: deadline exceeded")

// RedirectMode selects whether the underlying client follows redirects.
type RedirectMode int

const (
	RedirectFollow RedirectMode = iota
	RedirectManual
)

// Response is the trimmed-down probe result the rest of the audit engine
// consumes: status, headers, and a bounded body already read into memory.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Location   string // Location header, only meaningful for RedirectManual
	FinalURL   string // request URL after following redirects
	TLS        *tls.ConnectionState
}

// maxBodyBytes caps how much of any response body the prober reads, so a
// misbehaving origin streaming forever cannot blow the audit's memory.
const maxBodyBytes = 2 << 20 // 2 MiB

// FetchOptions configures a single Fetch call.
type FetchOptions struct {
	Redirect  RedirectMode
	TimeoutMs int
	Headers   http.Header
}

// Prober issues outbound HTTP probes on behalf of the orchestrator.
type Prober struct {
	// Transport lets callers (tests) install a custom RoundTripper, e.g.
	// one backed by httptest.Server's client.
	Transport http.RoundTripper
}

// New returns a Prober using a hardened default transport.
func New() *Prober {
	return &Prober{
		Transport: &http.Transport{
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
			MaxIdleConnsPerHost: 4,
		},
	}
}

// DefaultHeaders is the light header profile used for the initial probe of
// any resource.
func DefaultHeaders() http.Header {
	h := http.Header{}
	h.Set("User-Agent", "WebsiteAuditBot/1.0 (+https://example.invalid/bot)")
	h.Set("Accept", "*/*")
	h.Set("Cache-Control", "no-cache")
	h.Set("Pragma", "no-cache")
	return h
}

// BrowserHeaders is the richer profile used on WAF retries and for origins
// that reject minimal clients.
func BrowserHeaders() http.Header {
	h := http.Header{}
	h.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Sec-Ch-Ua", `"Chromium";v="124", "Not:A-Brand";v="99"`)
	h.Set("Sec-Ch-Ua-Mobile", "?0")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Cache-Control", "no-cache")
	h.Set("Referer", "https://www.google.com/")
	return h
}

// Fetch issues a single request honoring the caller-supplied deadline. It
// returns ErrAborted when the context expires before a response is read.
func (p *Prober) Fetch(ctx context.Context, rawURL, method string, opts FetchOptions) (*Response, error) {
	timeout := time.Duration(opts.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = consts.AssetTimeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range opts.Headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", DefaultHeaders().Get("User-Agent"))
	}

	client := &http.Client{Transport: p.Transport}
	if opts.Redirect == RedirectManual {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		if reqCtx.Err() != nil {
			return nil, ErrAborted
		}
		return nil, classifyNetError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if reqCtx.Err() != nil {
			return nil, ErrAborted
		}
		return nil, classifyNetError(err)
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		Location:   resp.Header.Get("Location"),
		FinalURL:   finalURL,
		TLS:        resp.TLS,
	}, nil
}

// HeadThenGetOptions configures HeadThenGet.
type HeadThenGetOptions struct {
	TimeoutMs       int
	Headers         http.Header
	FallbackOnNonOK bool
}

// HeadThenGet issues a HEAD first; if the origin doesn't support HEAD (no
// response, 405/501, or — when FallbackOnNonOK is set — any non-2xx/3xx),
// it retries as GET with the same deadline class.
func (p *Prober) HeadThenGet(ctx context.Context, rawURL string, opts HeadThenGetOptions) (*Response, error) {
	resp, err := p.Fetch(ctx, rawURL, http.MethodHead, FetchOptions{
		TimeoutMs: opts.TimeoutMs,
		Headers:   opts.Headers,
	})
	needsGet := err != nil
	if resp != nil {
		if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented {
			needsGet = true
		}
		if opts.FallbackOnNonOK && (resp.StatusCode < 200 || resp.StatusCode >= 400) {
			needsGet = true
		}
	}
	if !needsGet {
		return resp, err
	}

	return p.Fetch(ctx, rawURL, http.MethodGet, FetchOptions{
		TimeoutMs: opts.TimeoutMs,
		Headers:   opts.Headers,
	})
}

// RetryOptions configures Retry.
type RetryOptions struct {
	Tries     int
	BaseDelay time.Duration
}

// Retry re-invokes op on ErrAborted or a transient network error, waiting
// baseDelay*attempt plus uniform(0..250ms) jitter between attempts. HTTP
// status codes never trigger a retry — only transport-level failures do.
func Retry[T any](ctx context.Context, opts RetryOptions, op func(ctx context.Context) (T, error)) (T, error) {
	tries := opts.Tries
	if tries <= 0 {
		tries = consts.RetryTries
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = consts.RetryBaseDelay
	}

	var zero T
	var lastErr error
	for attempt := 1; attempt <= tries; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !isRetryable(err) || attempt == tries {
			break
		}
		delay := baseDelay*time.Duration(attempt) + time.Duration(rand.Int63n(int64(consts.RetryJitterMax)))
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
	return zero, lastErr
}

func isRetryable(err error) bool {
	if errors.Is(err, ErrAborted) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, needle := range []string{"connection reset", "no such host", "network is unreachable", "connection refused", "timeout", "eof"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}

func classifyNetError(err error) error {
	if err == nil {
		return nil
	}
	return err
}
