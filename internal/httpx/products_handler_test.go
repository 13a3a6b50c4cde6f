package httpx

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/davidortiz/eshop-backend/internal/catalog"
)

type productsStoreMock struct {
	product  catalog.Product
	products []catalog.Product
	count    int64
	err      error
}

func (m *productsStoreMock) List(context.Context, []string) ([]catalog.Product, error) {
	return m.products, m.err
}
func (m *productsStoreMock) Get(context.Context, string) (catalog.Product, error) {
	return m.product, m.err
}
func (m *productsStoreMock) Create(_ context.Context, p catalog.Product) (catalog.Product, error) {
	if m.err != nil {
		return catalog.Product{}, m.err
	}
	return p, nil
}
func (m *productsStoreMock) Update(_ context.Context, p catalog.Product) (catalog.Product, error) {
	if m.err != nil {
		return catalog.Product{}, m.err
	}
	return p, nil
}
func (m *productsStoreMock) Delete(context.Context, string) error { return m.err }
func (m *productsStoreMock) Count(context.Context) (int64, error) { return m.count, m.err }
func (m *productsStoreMock) Featured(context.Context, int) ([]catalog.Product, error) {
	return m.products, m.err
}

func newProductsRouter(store ProductsStore) *chi.Mux {
	h := &ProductsHandler{Store: store}
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func TestProductCreate_DanglingCategoryIs400(t *testing.T) {
	store := &productsStoreMock{err: fmt.Errorf("%w: category c-missing", catalog.ErrNotFound)}
	r := newProductsRouter(store)

	body := `{"name": "Mug", "price_cents": 700, "category": "c-missing"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/products", bytes.NewBufferString(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductCreate_NegativePrice(t *testing.T) {
	r := newProductsRouter(&productsStoreMock{})

	body := `{"name": "Mug", "price_cents": -1, "category": "c-1"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/products", bytes.NewBufferString(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductGet_NotFoundIs404(t *testing.T) {
	store := &productsStoreMock{err: fmt.Errorf("%w: product p-missing", catalog.ErrNotFound)}
	r := newProductsRouter(store)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/p-missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductCount_Zero(t *testing.T) {
	r := newProductsRouter(&productsStoreMock{count: 0})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/get/count", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"productCount": 0}`, rec.Body.String())
}

func TestFeatured_BadCount(t *testing.T) {
	r := newProductsRouter(&productsStoreMock{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/get/featured/nope", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
