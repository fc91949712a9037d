package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/potatoomann/11code-site/internal/events"
	"github.com/potatoomann/11code-site/internal/models"
	"github.com/potatoomann/11code-site/internal/store"
)

func newProductHandler(t *testing.T) *ProductHandler {
	t.Helper()
	return &ProductHandler{Products: store.NewProductStore(t.TempDir())}
}

const validProductBody = `{
	"id": "007",
	"name": "Third Kit",
	"price": 999,
	"description": "Limited edition third kit",
	"frontImage": "img/third_front.jpg",
	"backImage": "img/third_back.jpg"
}`

func postProduct(h *ProductHandler, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Create(w, r)
	return w
}

func TestCreateProduct(t *testing.T) {
	h := newProductHandler(t)

	w := postProduct(h, validProductBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		OK      bool           `json:"ok"`
		Product models.Product `json:"product"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, "007", resp.Product.ID)
	assert.Equal(t, "img/third_front.jpg", resp.Product.Images.Front)
}

func TestCreateProduct_DuplicateIDConflicts(t *testing.T) {
	h := newProductHandler(t)

	require.Equal(t, http.StatusOK, postProduct(h, validProductBody).Code)
	w := postProduct(h, validProductBody)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateProduct_Validation(t *testing.T) {
	h := newProductHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing fields", `{"id":"007"}`},
		{"bad id characters", `{"id":"00 7!","name":"Kit","price":10,"frontImage":"img/a.jpg"}`},
		{"zero price", `{"id":"007","name":"Kit","price":0,"frontImage":"img/a.jpg"}`},
		{"negative price", `{"id":"007","name":"Kit","price":-5,"frontImage":"img/a.jpg"}`},
		{"price too large", `{"id":"007","name":"Kit","price":2000000,"frontImage":"img/a.jpg"}`},
		{"traversal image path", `{"id":"007","name":"Kit","price":10,"frontImage":"img/../../etc/passwd"}`},
		{"image outside img dir", `{"id":"007","name":"Kit","price":10,"frontImage":"uploads/a.jpg"}`},
		{"unrecognized extension", `{"id":"007","name":"Kit","price":10,"frontImage":"img/a.exe"}`},
		{"bad back image", `{"id":"007","name":"Kit","price":10,"frontImage":"img/a.jpg","backImage":"img//b.jpg"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postProduct(h, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestDeleteProduct(t *testing.T) {
	h := newProductHandler(t)
	require.Equal(t, http.StatusOK, postProduct(h, validProductBody).Code)

	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/products/{id}", h.Delete)

	r := httptest.NewRequest(http.MethodDelete, "/api/products/007", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)

	// Deleting a product that is gone answers 404, not an error state.
	r = httptest.NewRequest(http.MethodDelete, "/api/products/007", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	assert.Equal(t, http.StatusNotFound, w.Code)

	r = httptest.NewRequest(http.MethodDelete, "/api/products/bad%20id!", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateProductStock(t *testing.T) {
	h := newProductHandler(t)
	require.Equal(t, http.StatusOK, postProduct(h, validProductBody).Code)

	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/products/{id}/stock", h.UpdateStock)

	r := httptest.NewRequest(http.MethodPut, "/api/products/007/stock", strings.NewReader(`{"outOfStock":true}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	p, err := h.Products.Get("007")
	require.NoError(t, err)
	assert.True(t, p.OutOfStock)

	// And back in stock.
	r = httptest.NewRequest(http.MethodPut, "/api/products/007/stock", strings.NewReader(`{"outOfStock":false}`))
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	p, err = h.Products.Get("007")
	require.NoError(t, err)
	assert.False(t, p.OutOfStock)

	r = httptest.NewRequest(http.MethodPut, "/api/products/missing/stock", strings.NewReader(`{"outOfStock":true}`))
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateProductSize(t *testing.T) {
	h := newProductHandler(t)
	require.Equal(t, http.StatusOK, postProduct(h, validProductBody).Code)

	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/products/{id}/sizes", h.UpdateSize)

	putSize := func(id, body string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPut, "/api/products/"+id+"/sizes", strings.NewReader(body))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		return w
	}

	// Sizes are normalized to upper case before storing.
	require.Equal(t, http.StatusOK, putSize("007", `{"size":" m ","available":false}`).Code)
	p, err := h.Products.Get("007")
	require.NoError(t, err)
	assert.Equal(t, []string{"M"}, p.UnavailableSizes)

	// Marking the same size again conflicts.
	assert.Equal(t, http.StatusConflict, putSize("007", `{"size":"M","available":false}`).Code)

	require.Equal(t, http.StatusOK, putSize("007", `{"size":"XL","available":false}`).Code)
	require.Equal(t, http.StatusOK, putSize("007", `{"size":"M","available":true}`).Code)
	p, err = h.Products.Get("007")
	require.NoError(t, err)
	assert.Equal(t, []string{"XL"}, p.UnavailableSizes)

	// Restoring a size that was never unavailable is a no-op.
	assert.Equal(t, http.StatusOK, putSize("007", `{"size":"S","available":true}`).Code)

	assert.Equal(t, http.StatusBadRequest, putSize("007", `{"size":"  ","available":false}`).Code)
	assert.Equal(t, http.StatusNotFound, putSize("missing", `{"size":"M","available":false}`).Code)
}

func TestStockAndSizeUpdatesLogAdminEvents(t *testing.T) {
	log := events.NewLog(store.NewMemKV(), nil)
	h := newProductHandler(t)
	h.Events = log
	require.Equal(t, http.StatusOK, postProduct(h, validProductBody).Code)

	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/products/{id}/stock", h.UpdateStock)
	mux.HandleFunc("PUT /api/products/{id}/sizes", h.UpdateSize)

	for _, req := range []struct{ path, body string }{
		{"/api/products/007/stock", `{"outOfStock":true}`},
		{"/api/products/007/stock", `{"outOfStock":false}`},
		{"/api/products/007/sizes", `{"size":"M","available":false}`},
		{"/api/products/007/sizes", `{"size":"M","available":true}`},
	} {
		r := httptest.NewRequest(http.MethodPut, req.path, strings.NewReader(req.body))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	evs, err := log.List()
	require.NoError(t, err)
	require.Len(t, evs, 5)
	assert.Equal(t, "admin_add_product", evs[0].Type)
	assert.Equal(t, "admin_mark_out_of_stock", evs[1].Type)
	assert.Equal(t, "admin_mark_in_stock", evs[2].Type)
	assert.Equal(t, "admin_size_unavailable", evs[3].Type)
	assert.Equal(t, "admin_size_restored", evs[4].Type)
	assert.Equal(t, "M", evs[3].Data["size"])
}

func TestListProducts(t *testing.T) {
	h := newProductHandler(t)
	require.Equal(t, http.StatusOK, postProduct(h, validProductBody).Code)

	r := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	w := httptest.NewRecorder()
	h.List(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	var catalog map[string]models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &catalog))
	require.Len(t, catalog, 1)
	assert.Equal(t, "Third Kit", catalog["007"].Name)
}

func TestProductMutationsLogAdminEvents(t *testing.T) {
	log := events.NewLog(store.NewMemKV(), nil)
	h := newProductHandler(t)
	h.Events = log

	require.Equal(t, http.StatusOK, postProduct(h, validProductBody).Code)

	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/products/{id}", h.Delete)
	r := httptest.NewRequest(http.MethodDelete, "/api/products/007", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	evs, err := log.List()
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, "admin_add_product", evs[0].Type)
	assert.Equal(t, "admin_delete_product", evs[1].Type)
}

func TestValidImagePath(t *testing.T) {
	valid := []string{"img/kit.jpg", "/img/kit.png", "./img/sub/kit.webp", "img/Kit_1-a.JPEG"}
	for _, p := range valid {
		assert.True(t, validImagePath(p), "expected %q to be accepted", p)
	}
	invalid := []string{"", "img/../secret.jpg", "img//kit.jpg", "uploads/kit.jpg", "img/kit.svg", "img/kit"}
	for _, p := range invalid {
		assert.False(t, validImagePath(p), "expected %q to be rejected", p)
	}
}
