package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/gorilla/sessions"

	"github.com/potatoomann/11code-site/internal/store"
)

// Basic email validation regex
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minPasswordLen = 6

type AdminHandler struct {
	Users        *store.AdminUserStore
	SessionStore *sessions.CookieStore
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func jsonError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// CSRFToken issues the session-bound CSRF token, minting it on first call.
func (h *AdminHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, SessionName)
	token := ensureCSRF(session)
	if err := session.Save(r, w); err != nil {
		slog.Error("Failed to save session", "error", err)
		jsonError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}

// SessionStatus reports whether the caller's session is authenticated.
func (h *AdminHandler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, SessionName)
	auth, _ := session.Values["authenticated"].(bool)
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": auth})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an administrator. Malformed input is a 400, distinct
// from a credential mismatch, which never reveals whether the email exists.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !emailRegex.MatchString(email) {
		jsonError(w, http.StatusBadRequest, "Invalid email format")
		return
	}
	if len(req.Password) < minPasswordLen {
		jsonError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	ok, err := h.Users.Verify(email, req.Password)
	if err != nil {
		slog.Error("Failed to verify admin user", "error", err)
		jsonError(w, http.StatusInternalServerError, "Login failed. Please try again.")
		return
	}
	if !ok {
		slog.Info("Failed login attempt", "email", email)
		jsonError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	session, _ := h.SessionStore.Get(r, SessionName)
	session.Values["authenticated"] = true
	session.Values["admin_email"] = email
	if err := session.Save(r, w); err != nil {
		slog.Error("Failed to save session", "error", err)
		jsonError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}

	slog.Info("Login successful", "email", email)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Logout destroys the session outright; any further admin access needs a
// fresh login.
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, SessionName)
	session.Values = make(map[any]any)
	session.Options.MaxAge = -1 // Expire immediately
	if err := session.Save(r, w); err != nil {
		slog.Error("Failed to save session", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
