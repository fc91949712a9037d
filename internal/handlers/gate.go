package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/sessions"
)

// Session cookie carrying the admin authentication state.
const SessionName = "admin.sid"

const csrfHeader = "X-CSRF-Token"

// AdminGate layers the checks guarding every admin-scoped request:
// loopback firewall, feature flag, rate limit, CSRF (mutating routes) and
// session authentication, in that order, short-circuiting on the first
// failure. Authorization failures all answer an opaque Forbidden so the
// caller cannot tell which check tripped.
type AdminGate struct {
	SessionStore *sessions.CookieStore
	Limiter      *RateLimiter
	Enabled      bool
}

// setNoIndex keeps admin surfaces out of search indexes.
func setNoIndex(w http.ResponseWriter) {
	w.Header().Set("X-Robots-Tag", "noindex, nofollow")
}

func forbidden(w http.ResponseWriter) {
	http.Error(w, "Forbidden", http.StatusForbidden)
}

func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Firewall admits only loopback callers (127.0.0.1, ::1 and the mapped
// ::ffff:127.0.0.1 form).
func (g *AdminGate) Firewall(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setNoIndex(w)
		if !isLoopback(r.RemoteAddr) {
			forbidden(w)
			return
		}
		next(w, r)
	}
}

// EnabledGuard rejects everything while the admin surface is switched off.
func (g *AdminGate) EnabledGuard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !g.Enabled {
			forbidden(w)
			return
		}
		next(w, r)
	}
}

// RateLimit enforces the per-caller sliding window.
func (g *AdminGate) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			key = r.RemoteAddr
		}
		if !g.Limiter.Allow(key) {
			slog.Warn("Rate limit exceeded", "ip", key)
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// ensureCSRF mints the session's CSRF token on first use. The token never
// rotates within a session.
func ensureCSRF(session *sessions.Session) string {
	if token, ok := session.Values["csrf_token"].(string); ok && token != "" {
		return token
	}
	token := newCSRFToken()
	session.Values["csrf_token"] = token
	return token
}

func newCSRFToken() string {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "fallback-token-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return hex.EncodeToString(b)
}

// VerifyCSRF requires the header token to equal the one bound to the
// caller's session. Applied to state-mutating routes only.
func (g *AdminGate) VerifyCSRF(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := g.SessionStore.Get(r, SessionName)
		token, ok := session.Values["csrf_token"].(string)
		if !ok || token == "" || r.Header.Get(csrfHeader) != token {
			forbidden(w)
			return
		}
		next(w, r)
	}
}

// RequireAuth admits only sessions with a verified login behind them.
func (g *AdminGate) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := g.SessionStore.Get(r, SessionName)
		if auth, ok := session.Values["authenticated"].(bool); !ok || !auth {
			forbidden(w)
			return
		}
		next(w, r)
	}
}

// Public is the base pipeline: firewall, feature flag, rate limit.
func (g *AdminGate) Public(next http.HandlerFunc) http.HandlerFunc {
	return g.Firewall(g.EnabledGuard(g.RateLimit(next)))
}

// Mutating adds CSRF verification to the base pipeline.
func (g *AdminGate) Mutating(next http.HandlerFunc) http.HandlerFunc {
	return g.Public(g.VerifyCSRF(next))
}

// Private requires an authenticated session on top of the base pipeline.
func (g *AdminGate) Private(next http.HandlerFunc) http.HandlerFunc {
	return g.Public(g.RequireAuth(next))
}

// MutatingPrivate is the full pipeline for authenticated writes.
func (g *AdminGate) MutatingPrivate(next http.HandlerFunc) http.HandlerFunc {
	return g.Public(g.VerifyCSRF(g.RequireAuth(next)))
}
