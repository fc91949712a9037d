package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGate(t *testing.T) *AdminGate {
	t.Helper()
	return &AdminGate{
		SessionStore: sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef")),
		Limiter:      NewRateLimiter(5*time.Minute, 50),
		Enabled:      true,
	}
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

func loopbackRequest(method, target string) *http.Request {
	r := httptest.NewRequest(method, target, nil)
	r.RemoteAddr = "127.0.0.1:54321"
	return r
}

func TestFirewall_RejectsNonLoopback(t *testing.T) {
	gate := newTestGate(t)
	h := gate.Public(okHandler)

	for _, addr := range []string{"203.0.113.9:4455", "10.0.0.5:80", "192.168.1.2:9999"} {
		r := httptest.NewRequest(http.MethodGet, "/api/session", nil)
		r.RemoteAddr = addr
		w := httptest.NewRecorder()
		h(w, r)
		assert.Equal(t, http.StatusForbidden, w.Code, "addr %s must be rejected", addr)
		assert.Equal(t, "Forbidden", strings.TrimSpace(w.Body.String()))
	}
}

func TestFirewall_AcceptsLoopbackForms(t *testing.T) {
	gate := newTestGate(t)
	h := gate.Public(okHandler)

	for _, addr := range []string{"127.0.0.1:54321", "[::1]:54321", "[::ffff:127.0.0.1]:54321"} {
		r := httptest.NewRequest(http.MethodGet, "/api/session", nil)
		r.RemoteAddr = addr
		w := httptest.NewRecorder()
		h(w, r)
		assert.Equal(t, http.StatusOK, w.Code, "addr %s must be admitted", addr)
	}
}

func TestEnabledGuard(t *testing.T) {
	gate := newTestGate(t)
	gate.Enabled = false
	h := gate.Public(okHandler)

	w := httptest.NewRecorder()
	h(w, loopbackRequest(http.MethodGet, "/api/session"))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGate_SetsNoIndexHeader(t *testing.T) {
	gate := newTestGate(t)
	h := gate.Public(okHandler)

	w := httptest.NewRecorder()
	h(w, loopbackRequest(http.MethodGet, "/api/session"))
	assert.Equal(t, "noindex, nofollow", w.Header().Get("X-Robots-Tag"))
}

func TestGate_RateLimitExceeded(t *testing.T) {
	gate := newTestGate(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	gate.Limiter = NewRateLimiter(5*time.Minute, 3)
	gate.Limiter.SetClock(func() time.Time { return now })
	h := gate.Public(okHandler)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		h(w, loopbackRequest(http.MethodGet, "/api/session"))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	h(w, loopbackRequest(http.MethodGet, "/api/session"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// After the window elapses a request succeeds again.
	now = now.Add(5*time.Minute + time.Second)
	w = httptest.NewRecorder()
	h(w, loopbackRequest(http.MethodGet, "/api/session"))
	assert.Equal(t, http.StatusOK, w.Code)
}

// fetchCSRF runs the token-issuing endpoint and returns the token plus the
// session cookies to replay on the next request.
func fetchCSRF(t *testing.T, gate *AdminGate) (string, []*http.Cookie) {
	t.Helper()
	h := gate.Public(func(w http.ResponseWriter, r *http.Request) {
		session, _ := gate.SessionStore.Get(r, SessionName)
		token := ensureCSRF(session)
		require.NoError(t, session.Save(r, w))
		writeJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
	})
	w := httptest.NewRecorder()
	h(w, loopbackRequest(http.MethodGet, "/api/csrf"))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		CSRFToken string `json:"csrfToken"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.CSRFToken)
	return body.CSRFToken, w.Result().Cookies()
}

func TestVerifyCSRF(t *testing.T) {
	gate := newTestGate(t)
	token, cookies := fetchCSRF(t, gate)
	h := gate.Mutating(okHandler)

	// Missing header.
	r := loopbackRequest(http.MethodPost, "/api/login")
	for _, c := range cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Wrong header.
	r = loopbackRequest(http.MethodPost, "/api/login")
	for _, c := range cookies {
		r.AddCookie(c)
	}
	r.Header.Set("X-CSRF-Token", "not-the-token")
	w = httptest.NewRecorder()
	h(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Matching token bound to the same session.
	r = loopbackRequest(http.MethodPost, "/api/login")
	for _, c := range cookies {
		r.AddCookie(c)
	}
	r.Header.Set("X-CSRF-Token", token)
	w = httptest.NewRecorder()
	h(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCSRFToken_StableWithinSession(t *testing.T) {
	gate := newTestGate(t)
	token1, cookies := fetchCSRF(t, gate)

	h := gate.Public(func(w http.ResponseWriter, r *http.Request) {
		session, _ := gate.SessionStore.Get(r, SessionName)
		writeJSON(w, http.StatusOK, map[string]string{"csrfToken": ensureCSRF(session)})
	})
	r := loopbackRequest(http.MethodGet, "/api/csrf")
	for _, c := range cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h(w, r)

	var body struct {
		CSRFToken string `json:"csrfToken"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, token1, body.CSRFToken, "token must never rotate mid-session")
}

func TestRequireAuth_RejectsUnauthenticatedSession(t *testing.T) {
	gate := newTestGate(t)
	h := gate.Private(okHandler)

	w := httptest.NewRecorder()
	h(w, loopbackRequest(http.MethodGet, "/api/products"))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGateOrdering_FirewallBeforeRateLimit(t *testing.T) {
	gate := newTestGate(t)
	gate.Limiter = NewRateLimiter(5*time.Minute, 1)
	h := gate.Public(okHandler)

	// Remote callers are turned away before consuming rate-limit budget.
	for i := 0; i < 5; i++ {
		r := httptest.NewRequest(http.MethodGet, "/api/session", nil)
		r.RemoteAddr = "203.0.113.9:4455"
		w := httptest.NewRecorder()
		h(w, r)
		assert.Equal(t, http.StatusForbidden, w.Code)
	}

	w := httptest.NewRecorder()
	h(w, loopbackRequest(http.MethodGet, "/api/session"))
	assert.Equal(t, http.StatusOK, w.Code, "loopback budget must be untouched")
}
