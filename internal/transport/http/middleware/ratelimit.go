package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"sitehrm/internal/transport/http/api"
)

// RateLimitKeyFunc derives the bucket a request is counted against.
type RateLimitKeyFunc func(r *http.Request) string

type window struct {
	count int
	reset time.Time
}

// fixedWindow counts requests per key in fixed windows. Expired keys are
// swept every sweepEvery calls so per-IP buckets do not pile up.
type fixedWindow struct {
	name   string
	limit  int
	period time.Duration
	keyFn  RateLimitKeyFunc

	mu      sync.Mutex
	buckets map[string]*window
	calls   int
}

const sweepEvery = 1024

func newFixedWindow(name string, limit int, period time.Duration, keyFn RateLimitKeyFunc) *fixedWindow {
	return &fixedWindow{
		name:    name,
		limit:   limit,
		period:  period,
		keyFn:   keyFn,
		buckets: map[string]*window{},
	}
}

// RateLimit applies one limit per authenticated actor, falling back to the
// client IP for anonymous calls.
func RateLimit(limit int, period time.Duration) func(http.Handler) http.Handler {
	fw := newFixedWindow("global", limit, period, actorOrIPKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if fw.allow(w, r) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

type sensitiveRoute struct {
	method string
	match  func(path string) bool
	limits []*fixedWindow
}

// SensitiveMutationRateLimit adds tighter limits to the routes that move
// money or lock data: login is counted per IP and per email, bulk payroll
// per tenant, and finalize and payment-status per actor.
func SensitiveMutationRateLimit(baseLimit int, period time.Duration) func(http.Handler) http.Handler {
	quarter := max(baseLimit/4, 1)
	half := max(baseLimit/2, 1)
	actor := newFixedWindow("actor", half, period, actorOrIPKey)
	routes := []sensitiveRoute{
		{http.MethodPost, exactPath("/auth/login"), []*fixedWindow{
			newFixedWindow("login-ip", quarter, period, clientIPKey),
			newFixedWindow("login-email", quarter, period, loginEmailKey),
		}},
		{http.MethodPost, exactPath("/payslips/generate/bulk"), []*fixedWindow{
			newFixedWindow("bulk-tenant", quarter, period, tenantOrIPKey),
			actor,
		}},
		{http.MethodPost, exactPath("/attendance/finalize"), []*fixedWindow{actor}},
		{http.MethodPut, paymentStatusPath, []*fixedWindow{actor}},
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, fw := range matchSensitive(routes, r) {
				if !fw.allow(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func matchSensitive(routes []sensitiveRoute, r *http.Request) []*fixedWindow {
	path := apiPath(r.URL.Path)
	for _, route := range routes {
		if r.Method == route.method && route.match(path) {
			return route.limits
		}
	}
	return nil
}

func exactPath(want string) func(string) bool {
	return func(path string) bool { return path == want }
}

func paymentStatusPath(path string) bool {
	rest, ok := strings.CutPrefix(path, "/payslips/")
	if !ok {
		return false
	}
	id, ok := strings.CutSuffix(rest, "/payment-status")
	return ok && id != "" && !strings.Contains(id, "/")
}

func apiPath(path string) string {
	path = strings.TrimPrefix(strings.TrimSpace(path), "/api/v1")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimSuffix(path, "/")
}

func (fw *fixedWindow) allow(w http.ResponseWriter, r *http.Request) bool {
	if fw.limit <= 0 {
		return true
	}
	key := fw.keyFn(r)
	if key == "" {
		key = "ip:" + clientIPKey(r)
	}
	now := time.Now()

	fw.mu.Lock()
	fw.calls++
	if fw.calls%sweepEvery == 0 {
		for k, b := range fw.buckets {
			if now.After(b.reset) {
				delete(fw.buckets, k)
			}
		}
	}
	b, ok := fw.buckets[key]
	if !ok || now.After(b.reset) {
		b = &window{reset: now.Add(fw.period)}
		fw.buckets[key] = b
	}
	b.count++
	count, reset := b.count, b.reset
	fw.mu.Unlock()

	resetIn := ceilSeconds(reset.Sub(now))
	headers := w.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(fw.limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(max(fw.limit-count, 0)))
	headers.Set("X-RateLimit-Reset", strconv.Itoa(resetIn))
	if count <= fw.limit {
		return true
	}

	headers.Set("Retry-After", strconv.Itoa(max(resetIn, 1)))
	slog.WarnContext(r.Context(), "rate limit exceeded",
		"limiter", fw.name,
		"key", key,
		"method", r.Method,
		"path", r.URL.Path,
		"limit", fw.limit,
	)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

func actorOrIPKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.TenantID + ":" + user.UserID
	}
	return "ip:" + clientIPKey(r)
}

func tenantOrIPKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.TenantID != "" {
		return "tenant:" + user.TenantID
	}
	return "ip:" + clientIPKey(r)
}

// loginEmailKey counts login attempts per target account so a credential
// spray spread across IPs still trips the limit.
func loginEmailKey(r *http.Request) string {
	if email := peekLoginEmail(r); email != "" {
		return "email:" + email
	}
	return "ip:" + clientIPKey(r)
}

func clientIPKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	return addr
}

// peekLoginEmail reads the email from a JSON login body and restores the
// body for the handler.
func peekLoginEmail(r *http.Request) string {
	if r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 16*1024))
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(payload.Email))
}
