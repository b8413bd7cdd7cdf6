package catalog

import (
	"context"
	"net/url"
	"testing"

	"github.com/studioveld/storefront-backend/pkg/commerce"
	pkgerrors "github.com/studioveld/storefront-backend/pkg/errors"
)

type stubCommerce struct {
	categories []commerce.Category
	products   []commerce.Product
	product    *commerce.Product
	err        error

	lastProductQuery url.Values
}

func (s *stubCommerce) ListCategories(ctx context.Context, query url.Values) ([]commerce.Category, error) {
	return s.categories, s.err
}

func (s *stubCommerce) ListProducts(ctx context.Context, query url.Values) ([]commerce.Product, error) {
	s.lastProductQuery = query
	return s.products, s.err
}

func (s *stubCommerce) GetProduct(ctx context.Context, id int) (*commerce.Product, error) {
	return s.product, s.err
}

func newTestService(t *testing.T, stub *stubCommerce, rootID int) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Commerce: stub, RootCategoryID: rootID})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCategories_FiltersByRootParent(t *testing.T) {
	stub := &stubCommerce{categories: []commerce.Category{
		{ID: 10, Name: "Chairs", Slug: "chairs", Parent: 5, Count: 3},
		{ID: 11, Name: "Internal", Slug: "internal", Parent: 0, Count: 9},
		{ID: 12, Name: "Tables", Slug: "tables", Parent: 5, Count: 7},
	}}
	svc := newTestService(t, stub, 5)

	views, err := svc.Categories(context.Background())
	if err != nil {
		t.Fatalf("categories: %v", err)
	}

	if len(views) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(views))
	}
	for _, view := range views {
		if view.ID != 10 && view.ID != 12 {
			t.Fatalf("unexpected category in result: %d", view.ID)
		}
	}
}

func TestProducts_AppliesPagingDefaults(t *testing.T) {
	stub := &stubCommerce{products: []commerce.Product{{ID: 1, Name: "Chair"}}}
	svc := newTestService(t, stub, 5)

	if _, err := svc.Products(context.Background(), ProductQuery{CategoryID: 10}); err != nil {
		t.Fatalf("products: %v", err)
	}

	if got := stub.lastProductQuery.Get("page"); got != "1" {
		t.Fatalf("unexpected page: %s", got)
	}
	if got := stub.lastProductQuery.Get("per_page"); got != "12" {
		t.Fatalf("unexpected per_page: %s", got)
	}
	if got := stub.lastProductQuery.Get("category"); got != "10" {
		t.Fatalf("unexpected category: %s", got)
	}
}

func TestProducts_ListOmitsDetailFields(t *testing.T) {
	stub := &stubCommerce{products: []commerce.Product{{
		ID:          1,
		Name:        "Chair",
		Description: "long copy",
		Attributes:  []commerce.ProductAttribute{{Name: "Color", Options: []string{"oak"}}},
		Images:      []commerce.ProductImage{{Src: "https://cdn.example.com/chair.jpg"}},
		Categories:  []commerce.ProductCategoryRef{{ID: 10}},
	}}}
	svc := newTestService(t, stub, 5)

	views, err := svc.Products(context.Background(), ProductQuery{})
	if err != nil {
		t.Fatalf("products: %v", err)
	}

	if views[0].Description != "" {
		t.Fatal("list view should not carry the description")
	}
	if len(views[0].Attributes) != 0 {
		t.Fatal("list view should not carry attributes")
	}
	if views[0].Images[0] != "https://cdn.example.com/chair.jpg" {
		t.Fatalf("unexpected image: %s", views[0].Images[0])
	}
	if views[0].CategoryIDs[0] != 10 {
		t.Fatalf("unexpected category id: %d", views[0].CategoryIDs[0])
	}
}

func TestProduct_DetailIncludesAttributes(t *testing.T) {
	stub := &stubCommerce{product: &commerce.Product{
		ID:          7,
		Name:        "Desk",
		Description: "solid oak",
		Attributes:  []commerce.ProductAttribute{{Name: "Finish", Options: []string{"matte", "gloss"}}},
	}}
	svc := newTestService(t, stub, 5)

	view, err := svc.Product(context.Background(), 7)
	if err != nil {
		t.Fatalf("product: %v", err)
	}

	if view.Description != "solid oak" {
		t.Fatalf("unexpected description: %s", view.Description)
	}
	if len(view.Attributes) != 1 || view.Attributes[0].Name != "Finish" {
		t.Fatalf("unexpected attributes: %+v", view.Attributes)
	}
}

func TestProduct_RejectsNonPositiveID(t *testing.T) {
	svc := newTestService(t, &stubCommerce{}, 5)

	_, err := svc.Product(context.Background(), 0)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCategories_PropagatesUpstreamError(t *testing.T) {
	stub := &stubCommerce{err: pkgerrors.New(pkgerrors.CodeDependency, "upstream down")}
	svc := newTestService(t, stub, 5)

	if _, err := svc.Categories(context.Background()); err == nil {
		t.Fatal("expected upstream error")
	}
}
