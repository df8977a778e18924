package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"storefront/internal/products"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListProducts(t *testing.T) {
	r := testRouter(t, Deps{Users: &fakeUserStore{}, Orders: &fakeOrderStore{}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/list", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Products []products.Product `json:"products"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Products)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/list?category=bundles", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	for _, p := range resp.Products {
		assert.Equal(t, "bundles", p.Category)
	}
}

func TestGetProduct(t *testing.T) {
	r := testRouter(t, Deps{Users: &fakeUserStore{}, Orders: &fakeOrderStore{}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/view/"+url.PathEscape("Starter Bundle"), nil))
	require.Equal(t, http.StatusOK, w.Code)

	var p products.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "Starter Bundle", p.Name)
	assert.Equal(t, 10.0, p.Price)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/view/no-such-product", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
