package handlers

import (
	"net/http"
	"path/filepath"
)

// PageHandler serves the admin login and dashboard documents from the
// admin directory. The directory is never exposed through the public
// static file server.
type PageHandler struct {
	AdminDir string
}

// LoginPage serves the admin login view.
func (h *PageHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(h.AdminDir, "admin-login.html"))
}

// DashboardPage serves the dashboard view. The gate's RequireAuth runs
// before this handler.
func (h *PageHandler) DashboardPage(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(h.AdminDir, "admin.html"))
}

// BlockedAdminPaths are public paths that textually resemble admin routes.
// They answer Not Found regardless of what exists on disk.
var BlockedAdminPaths = []string{
	"/admin.html",
	"/admin-login",
	"/admin-login/",
	"/admin-login.html",
	"/admin.login",
	"/admin/admin-login.html",
	"/afraskhan",
	"/afraskhan/",
	"/afraskhan/dashboard",
	"/__afraskhan_admin",
	"/__afraskhan_admin/",
	"/__afraskhan_admin/dashboard",
}

// NotFound hides blocked admin-lookalike paths.
func NotFound(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Not Found", http.StatusNotFound)
}
