package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/studioveld/storefront-backend/pkg/config"
	pkgerrors "github.com/studioveld/storefront-backend/pkg/errors"
	"github.com/studioveld/storefront-backend/pkg/logger"
	"github.com/studioveld/storefront-backend/pkg/types"
)

var (
	errBaseURLRequired     = errors.New("commerce base url is required")
	errCredentialsRequired = errors.New("commerce consumer key/secret are required")
)

// Client talks to the commerce backend's REST API. Authentication uses the
// consumer key/secret pair passed as query parameters, the way the backend's
// server-to-server API expects.
type Client struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	httpClient     *http.Client
	logger         *logger.Logger
}

// NewClient validates the configuration and returns a ready client.
func NewClient(cfg config.CommerceConfig, logg *logger.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	if strings.TrimSpace(cfg.ConsumerKey) == "" || strings.TrimSpace(cfg.ConsumerSecret) == "" {
		return nil, errCredentialsRequired
	}

	return &Client{
		baseURL:        baseURL,
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		logger:         logg,
	}, nil
}

// Category is the backend's category record, narrowed.
type Category struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Parent int    `json:"parent"`
	Count  int    `json:"count"`
	Image  *struct {
		Src string `json:"src"`
	} `json:"image,omitempty"`
}

// ProductImage holds one product image URL.
type ProductImage struct {
	Src string `json:"src"`
	Alt string `json:"alt,omitempty"`
}

// ProductCategoryRef links a product to a category.
type ProductCategoryRef struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}

// ProductAttribute is a name/options pair on a product.
type ProductAttribute struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

// Product is the backend's product record, narrowed to storefront fields.
type Product struct {
	ID               int                  `json:"id"`
	Name             string               `json:"name"`
	Slug             string               `json:"slug"`
	Price            string               `json:"price"`
	RegularPrice     string               `json:"regular_price"`
	SalePrice        string               `json:"sale_price"`
	OnSale           bool                 `json:"on_sale"`
	StockStatus      string               `json:"stock_status"`
	ShortDescription string               `json:"short_description"`
	Description      string               `json:"description,omitempty"`
	Images           []ProductImage       `json:"images"`
	Categories       []ProductCategoryRef `json:"categories"`
	Attributes       []ProductAttribute   `json:"attributes,omitempty"`
}

// ListCategories fetches every category page the backend returns for the query.
func (c *Client) ListCategories(ctx context.Context, query url.Values) ([]Category, error) {
	var out []Category
	if err := c.do(ctx, http.MethodGet, "/products/categories", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListProducts fetches a page of products.
func (c *Client) ListProducts(ctx context.Context, query url.Values) ([]Product, error) {
	var out []Product
	if err := c.do(ctx, http.MethodGet, "/products", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProduct fetches one product by id.
func (c *Client) GetProduct(ctx context.Context, id int) (*Product, error) {
	var out Product
	if err := c.do(ctx, http.MethodGet, "/products/"+strconv.Itoa(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindCustomerByEmail returns the customer for the email, or nil when absent.
func (c *Client) FindCustomerByEmail(ctx context.Context, email string) (*types.Customer, error) {
	query := url.Values{}
	query.Set("email", email)
	var out []types.Customer
	if err := c.do(ctx, http.MethodGet, "/customers", query, nil, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

// GetCustomer fetches one customer by id.
func (c *Client) GetCustomer(ctx context.Context, id int) (*types.Customer, error) {
	var out types.Customer
	if err := c.do(ctx, http.MethodGet, "/customers/"+strconv.Itoa(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CustomerCreate is the payload for registering a backend customer.
type CustomerCreate struct {
	Email     string           `json:"email"`
	FirstName string           `json:"first_name,omitempty"`
	LastName  string           `json:"last_name,omitempty"`
	Username  string           `json:"username,omitempty"`
	Password  string           `json:"password"`
	MetaData  []types.MetaData `json:"meta_data,omitempty"`
}

// CreateCustomer registers a new customer in the backend.
func (c *Client) CreateCustomer(ctx context.Context, payload CustomerCreate) (*types.Customer, error) {
	var out types.Customer
	if err := c.do(ctx, http.MethodPost, "/customers", nil, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCustomerMeta writes metadata entries onto an existing customer.
func (c *Client) UpdateCustomerMeta(ctx context.Context, id int, meta []types.MetaData) (*types.Customer, error) {
	payload := map[string]any{"meta_data": meta}
	var out types.Customer
	if err := c.do(ctx, http.MethodPut, "/customers/"+strconv.Itoa(id), nil, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListOrders fetches orders for a customer with passthrough paging.
func (c *Client) ListOrders(ctx context.Context, customerID, page, perPage int) ([]types.Order, error) {
	query := url.Values{}
	query.Set("customer", strconv.Itoa(customerID))
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		query.Set("per_page", strconv.Itoa(perPage))
	}
	var out []types.Order
	if err := c.do(ctx, http.MethodGet, "/orders", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateOrder submits a new order to the backend.
func (c *Client) CreateOrder(ctx context.Context, payload types.OrderCreate) (*types.Order, error) {
	var out types.Order
	if err := c.do(ctx, http.MethodPost, "/orders", nil, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build commerce url")
	}

	q := u.Query()
	for key, values := range query {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	q.Set("consumer_key", c.consumerKey)
	q.Set("consumer_secret", c.consumerSecret)
	u.RawQuery = q.Encode()

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode commerce payload")
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build commerce request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call commerce backend")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read commerce response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("commerce backend returned status %d for %s %s", resp.StatusCode, method, path)).
			WithDetails(map[string]any{"status": resp.StatusCode, "body": truncate(string(raw), 512)})
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("commerce backend returned non-JSON response (%s) for %s %s", contentType, method, path))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode commerce response")
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
