package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/studioveld/storefront-backend/internal/catalog"
	"github.com/studioveld/storefront-backend/pkg/commerce"
	pkgerrors "github.com/studioveld/storefront-backend/pkg/errors"
)

type stubCatalogCommerce struct {
	categories []commerce.Category
	products   []commerce.Product
	product    *commerce.Product
	err        error
}

func (s *stubCatalogCommerce) ListCategories(ctx context.Context, query url.Values) ([]commerce.Category, error) {
	return s.categories, s.err
}

func (s *stubCatalogCommerce) ListProducts(ctx context.Context, query url.Values) ([]commerce.Product, error) {
	return s.products, s.err
}

func (s *stubCatalogCommerce) GetProduct(ctx context.Context, id int) (*commerce.Product, error) {
	return s.product, s.err
}

func newCatalogService(t *testing.T, stub *stubCatalogCommerce) *catalog.Service {
	t.Helper()
	svc, err := catalog.NewService(catalog.ServiceParams{Commerce: stub, RootCategoryID: 5})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestListCategories_FiltersRoot(t *testing.T) {
	svc := newCatalogService(t, &stubCatalogCommerce{categories: []commerce.Category{
		{ID: 10, Name: "Chairs", Parent: 5},
		{ID: 20, Name: "Hidden", Parent: 3},
	}})
	handler := ListCategories(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/store/categories", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload struct {
		Data []catalog.CategoryView `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Data) != 1 || payload.Data[0].ID != 10 {
		t.Fatalf("unexpected categories: %+v", payload.Data)
	}
}

func TestListProducts_UpstreamFailureBecomes500(t *testing.T) {
	svc := newCatalogService(t, &stubCatalogCommerce{
		err: pkgerrors.New(pkgerrors.CodeDependency, "upstream returned 502"),
	})
	handler := ListProducts(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/store/products", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeDependency) {
		t.Fatalf("unexpected code: %s", payload.Error.Code)
	}
}

func TestListProducts_RejectsBadPaging(t *testing.T) {
	svc := newCatalogService(t, &stubCatalogCommerce{})
	handler := ListProducts(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/store/products?per_page=не-число", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetProduct_NumericIDOnly(t *testing.T) {
	svc := newCatalogService(t, &stubCatalogCommerce{product: &commerce.Product{ID: 7, Name: "Desk"}})

	router := chi.NewRouter()
	router.Get("/api/store/products/{id}", GetProduct(svc, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/store/products/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/store/products/7", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
