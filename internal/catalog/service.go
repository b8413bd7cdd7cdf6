package catalog

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/studioveld/storefront-backend/pkg/commerce"
	pkgerrors "github.com/studioveld/storefront-backend/pkg/errors"
	"github.com/studioveld/storefront-backend/pkg/logger"
)

const (
	defaultPerPage = 12
	maxPerPage     = 100
)

type commerceCatalog interface {
	ListCategories(ctx context.Context, query url.Values) ([]commerce.Category, error)
	ListProducts(ctx context.Context, query url.Values) ([]commerce.Product, error)
	GetProduct(ctx context.Context, id int) (*commerce.Product, error)
}

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	Commerce       commerceCatalog
	RootCategoryID int
	Logger         *logger.Logger
}

// Service serves the storefront's read-only product views.
type Service struct {
	commerce       commerceCatalog
	rootCategoryID int
	logger         *logger.Logger
}

// NewService builds a catalog service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Commerce == nil {
		return nil, errors.New("commerce client is required")
	}
	return &Service{
		commerce:       params.Commerce,
		rootCategoryID: params.RootCategoryID,
		logger:         params.Logger,
	}, nil
}

// CategoryView is the storefront shape of a backend category.
type CategoryView struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
	Image string `json:"image,omitempty"`
}

// ProductView is the storefront shape of a backend product. Description and
// attributes are only populated on the detail view.
type ProductView struct {
	ID               int      `json:"id"`
	Name             string   `json:"name"`
	Slug             string   `json:"slug"`
	Price            string   `json:"price"`
	RegularPrice     string   `json:"regular_price"`
	SalePrice        string   `json:"sale_price,omitempty"`
	OnSale           bool     `json:"on_sale"`
	StockStatus      string   `json:"stock_status"`
	ShortDescription string   `json:"short_description"`
	Description      string   `json:"description,omitempty"`
	Images           []string `json:"images"`
	CategoryIDs      []int    `json:"category_ids"`

	Attributes []ProductAttributeView `json:"attributes,omitempty"`
}

// ProductAttributeView is a name/options pair shown on the detail page.
type ProductAttributeView struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

// ProductQuery captures the list filters accepted by the products endpoint.
type ProductQuery struct {
	CategoryID int
	Page       int
	PerPage    int
}

// Categories returns the direct children of the configured root category.
func (s *Service) Categories(ctx context.Context) ([]CategoryView, error) {
	query := url.Values{}
	query.Set("per_page", "100")
	query.Set("hide_empty", "true")

	all, err := s.commerce.ListCategories(ctx, query)
	if err != nil {
		return nil, err
	}

	views := make([]CategoryView, 0, len(all))
	for _, category := range all {
		if category.Parent != s.rootCategoryID {
			continue
		}
		views = append(views, newCategoryView(category))
	}
	return views, nil
}

// Products returns one page of narrowed products.
func (s *Service) Products(ctx context.Context, q ProductQuery) ([]ProductView, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PerPage <= 0 {
		q.PerPage = defaultPerPage
	}
	if q.PerPage > maxPerPage {
		q.PerPage = maxPerPage
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(q.Page))
	query.Set("per_page", strconv.Itoa(q.PerPage))
	query.Set("status", "publish")
	if q.CategoryID > 0 {
		query.Set("category", strconv.Itoa(q.CategoryID))
	}

	products, err := s.commerce.ListProducts(ctx, query)
	if err != nil {
		return nil, err
	}

	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, newProductView(p, false))
	}
	return views, nil
}

// Product returns the detail view for one product.
func (s *Service) Product(ctx context.Context, id int) (*ProductView, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}

	product, err := s.commerce.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	view := newProductView(*product, true)
	return &view, nil
}

func newCategoryView(category commerce.Category) CategoryView {
	view := CategoryView{
		ID:    category.ID,
		Name:  category.Name,
		Slug:  category.Slug,
		Count: category.Count,
	}
	if category.Image != nil {
		view.Image = category.Image.Src
	}
	return view
}

func newProductView(p commerce.Product, detail bool) ProductView {
	view := ProductView{
		ID:               p.ID,
		Name:             p.Name,
		Slug:             p.Slug,
		Price:            p.Price,
		RegularPrice:     p.RegularPrice,
		SalePrice:        p.SalePrice,
		OnSale:           p.OnSale,
		StockStatus:      p.StockStatus,
		ShortDescription: p.ShortDescription,
		Images:           make([]string, 0, len(p.Images)),
		CategoryIDs:      make([]int, 0, len(p.Categories)),
	}
	for _, image := range p.Images {
		view.Images = append(view.Images, image.Src)
	}
	for _, category := range p.Categories {
		view.CategoryIDs = append(view.CategoryIDs, category.ID)
	}
	if detail {
		view.Description = p.Description
		for _, attribute := range p.Attributes {
			view.Attributes = append(view.Attributes, ProductAttributeView{
				Name:    attribute.Name,
				Options: attribute.Options,
			})
		}
	}
	return view
}
