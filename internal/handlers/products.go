package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/potatoomann/11code-site/internal/events"
	"github.com/potatoomann/11code-site/internal/models"
	"github.com/potatoomann/11code-site/internal/store"
)

const (
	maxNameLen        = 200
	maxDescriptionLen = 2000
	maxPrice          = 1000000
)

var (
	productIDShape = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	imagePathShape = regexp.MustCompile(`(?i)^(img/|\./img/|/img/)[a-zA-Z0-9._/-]+\.(jpg|jpeg|png|gif|webp)$`)
)

func validProductID(id string) bool {
	return productIDShape.MatchString(id) && len(id) <= 50
}

// validImagePath rejects traversal sequences and anything outside img/
// with an unrecognized extension.
func validImagePath(path string) bool {
	if path == "" || strings.Contains(path, "..") || strings.Contains(path, "//") {
		return false
	}
	return imagePathShape.MatchString(path)
}

func sanitizeString(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	return s
}

type ProductHandler struct {
	Products *store.ProductStore
	Events   *events.Log
}

// logEvent records an admin action for the dashboard; analytics failures
// never fail the request.
func (h *ProductHandler) logEvent(typ string, data map[string]any) {
	if h.Events == nil {
		return
	}
	if err := h.Events.Append(typ, data); err != nil {
		slog.Warn("Failed to log admin event", "type", typ, "error", err)
	}
}

// List returns the catalog keyed by id.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.Products.All()
	if err != nil {
		slog.Error("Failed to read products", "error", err)
		jsonError(w, http.StatusInternalServerError, "Failed to read products")
		return
	}
	writeJSON(w, http.StatusOK, products)
}

type createProductRequest struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	FrontImage  string  `json:"frontImage"`
	BackImage   string  `json:"backImage"`
}

// Create validates and adds a product; a taken id answers 409.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.ID == "" || req.Name == "" || req.Price == 0 || req.FrontImage == "" {
		jsonError(w, http.StatusBadRequest, "Missing required fields: id, name, price, frontImage")
		return
	}
	if !validProductID(req.ID) {
		jsonError(w, http.StatusBadRequest, "Invalid product ID. Use only letters, numbers, hyphens, and underscores.")
		return
	}
	name := sanitizeString(req.Name, maxNameLen)
	if name == "" {
		jsonError(w, http.StatusBadRequest, "Product name is required")
		return
	}
	if req.Price <= 0 || req.Price >= maxPrice {
		jsonError(w, http.StatusBadRequest, "Price must be a positive number less than 1,000,000")
		return
	}
	if !validImagePath(strings.TrimSpace(req.FrontImage)) {
		jsonError(w, http.StatusBadRequest, "Invalid front image path")
		return
	}
	if req.BackImage != "" && !validImagePath(strings.TrimSpace(req.BackImage)) {
		jsonError(w, http.StatusBadRequest, "Invalid back image path")
		return
	}

	product := models.Product{
		ID:          strings.TrimSpace(req.ID),
		Name:        name,
		Price:       req.Price,
		Description: sanitizeString(req.Description, maxDescriptionLen),
		Images: models.ProductImages{
			Front: strings.TrimSpace(req.FrontImage),
			Back:  strings.TrimSpace(req.BackImage),
		},
	}

	if err := h.Products.Create(product); err != nil {
		if errors.Is(err, store.ErrDuplicateID) {
			jsonError(w, http.StatusConflict, "Product with this ID already exists")
			return
		}
		slog.Error("Failed to add product", "id", product.ID, "error", err)
		jsonError(w, http.StatusInternalServerError, "Failed to add product")
		return
	}

	h.logEvent("admin_add_product", map[string]any{"id": product.ID, "name": product.Name})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "product": product})
}

type updateStockRequest struct {
	OutOfStock bool `json:"outOfStock"`
}

// UpdateStock flips the out-of-stock flag on a product.
func (h *ProductHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !validProductID(id) {
		jsonError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}
	var req updateStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.Products.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "Product not found")
			return
		}
		slog.Error("Failed to read product", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "Failed to read product")
		return
	}

	product.OutOfStock = req.OutOfStock
	if err := h.Products.Update(*product); err != nil {
		slog.Error("Failed to update product stock", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "Failed to update product")
		return
	}

	eventType := "admin_mark_in_stock"
	if req.OutOfStock {
		eventType = "admin_mark_out_of_stock"
	}
	h.logEvent(eventType, map[string]any{"id": id, "name": product.Name})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "product": product})
}

type updateSizeRequest struct {
	Size      string `json:"size"`
	Available bool   `json:"available"`
}

// UpdateSize marks a size unavailable or restores it. Marking a size that
// is already unavailable answers 409; restoring an available size is a
// no-op.
func (h *ProductHandler) UpdateSize(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !validProductID(id) {
		jsonError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}
	var req updateSizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	size := strings.ToUpper(strings.TrimSpace(req.Size))
	if size == "" || len(size) > 10 {
		jsonError(w, http.StatusBadRequest, "Invalid size")
		return
	}

	product, err := h.Products.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "Product not found")
			return
		}
		slog.Error("Failed to read product", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "Failed to read product")
		return
	}

	eventType := "admin_size_restored"
	if req.Available {
		kept := product.UnavailableSizes[:0]
		for _, s := range product.UnavailableSizes {
			if s != size {
				kept = append(kept, s)
			}
		}
		product.UnavailableSizes = kept
	} else {
		for _, s := range product.UnavailableSizes {
			if s == size {
				jsonError(w, http.StatusConflict, "Size is already marked as unavailable")
				return
			}
		}
		product.UnavailableSizes = append(product.UnavailableSizes, size)
		eventType = "admin_size_unavailable"
	}

	if err := h.Products.Update(*product); err != nil {
		slog.Error("Failed to update product sizes", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "Failed to update product")
		return
	}

	h.logEvent(eventType, map[string]any{"id": id, "name": product.Name, "size": size})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "product": product})
}

// Delete removes a product; a missing id answers 404, which the caller can
// treat as already-gone.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !validProductID(id) {
		jsonError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := h.Products.Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "Product not found")
			return
		}
		slog.Error("Failed to delete product", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	h.logEvent("admin_delete_product", map[string]any{"id": id})
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
