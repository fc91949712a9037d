package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/potatoomann/11code-site/internal/contact"
	"github.com/potatoomann/11code-site/internal/events"
)

// ContactHandler exposes the admin-editable site contact details.
type ContactHandler struct {
	Contacts *contact.Store
	Events   *events.Log
}

// Get returns the current contact record; an empty one before the first
// save.
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.Contacts.Get()
	if err != nil {
		slog.Error("Failed to read contact details", "error", err)
		jsonError(w, http.StatusInternalServerError, "Failed to read contact details")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Save replaces the contact record. At least one detail is required.
func (h *ContactHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req contact.Contact
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	saved, err := h.Contacts.Set(req)
	if err != nil {
		if errors.Is(err, contact.ErrEmpty) {
			jsonError(w, http.StatusBadRequest, "Please provide at least one contact detail")
			return
		}
		slog.Error("Failed to save contact details", "error", err)
		jsonError(w, http.StatusInternalServerError, "Failed to save contact details")
		return
	}

	if h.Events != nil {
		if err := h.Events.Append("admin_update_contact", map[string]any{
			"email": saved.Email, "phone": saved.Phone, "address": saved.Address,
		}); err != nil {
			slog.Warn("Failed to log admin event", "type", "admin_update_contact", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "contact": saved})
}
