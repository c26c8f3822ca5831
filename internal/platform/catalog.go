package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/egcartridge/storefront/internal/domain"
	"github.com/egcartridge/storefront/pkg/errors"
)

type productWire struct {
	ID           flexString          `json:"id"`
	Name         string              `json:"name"`
	ModelNumber  string              `json:"model_number"`
	Description  string              `json:"description"`
	Price        decimal.Decimal     `json:"price"`
	SpecialPrice decimal.NullDecimal `json:"special_price"`
	BrandID      flexString          `json:"brand_id"`
	CategoryID   flexString          `json:"category_id"`
	Image        string              `json:"image"`
	Stock        flexInt             `json:"stock"`
	IsActive     flexBool            `json:"is_active"`
}

func (w productWire) toDomain() domain.Product {
	active := true
	if w.IsActive.Set {
		active = w.IsActive.Value
	}
	return domain.Product{
		ID:           string(w.ID),
		Name:         w.Name,
		ModelNumber:  w.ModelNumber,
		Description:  w.Description,
		Price:        w.Price,
		SpecialPrice: w.SpecialPrice,
		BrandID:      string(w.BrandID),
		CategoryID:   string(w.CategoryID),
		Image:        w.Image,
		Stock:        int(w.Stock),
		IsActive:     active,
	}
}

type namedWire struct {
	ID   flexString `json:"id"`
	Name string     `json:"name"`
}

// GetProducts fetches the product list
func (c *Client) GetProducts(ctx context.Context) ([]domain.Product, error) {
	body, err := c.do(ctx, http.MethodGet, "/products", domain.None, nil)
	if err != nil {
		return []domain.Product{}, err
	}
	return decodeProducts(body)
}

func decodeProducts(body []byte) ([]domain.Product, error) {
	arr, err := normalizeList("products", body, "products")
	if err != nil {
		return []domain.Product{}, err
	}
	var wire []productWire
	if err := json.Unmarshal(arr, &wire); err != nil {
		return []domain.Product{}, fmt.Errorf("failed to decode products: %w", err)
	}
	out := make([]domain.Product, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.toDomain())
	}
	return out, nil
}

// GetBrands fetches the brand list
func (c *Client) GetBrands(ctx context.Context) ([]domain.Brand, error) {
	body, err := c.do(ctx, http.MethodGet, "/brands", domain.None, nil)
	if err != nil {
		return []domain.Brand{}, err
	}
	named, err := decodeNamed("brands", body)
	out := make([]domain.Brand, 0, len(named))
	for _, n := range named {
		out = append(out, domain.Brand{ID: string(n.ID), Name: n.Name})
	}
	return out, err
}

// GetCategories fetches the category list
func (c *Client) GetCategories(ctx context.Context) ([]domain.Category, error) {
	body, err := c.do(ctx, http.MethodGet, "/categories", domain.None, nil)
	if err != nil {
		return []domain.Category{}, err
	}
	named, err := decodeNamed("categories", body)
	out := make([]domain.Category, 0, len(named))
	for _, n := range named {
		out = append(out, domain.Category{ID: string(n.ID), Name: n.Name})
	}
	return out, err
}

func decodeNamed(resource string, body []byte) ([]namedWire, error) {
	arr, err := normalizeList(resource, body, resource)
	if err != nil {
		return nil, err
	}
	var wire []namedWire
	if err := json.Unmarshal(arr, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", resource, err)
	}
	return wire, nil
}

// GetProduct fetches one product. Unknown ids return *errors.ErrNotFound.
func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &errors.ErrNotFound{Resource: "product", ID: id}
	}

	body, err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), domain.None, nil)
	if err != nil {
		if apiErr, ok := err.(*errors.ErrAPI); ok && apiErr.Status == http.StatusNotFound {
			return nil, &errors.ErrNotFound{Resource: "product", ID: id}
		}
		return nil, err
	}

	var wire productWire
	if err := json.Unmarshal(unwrapObject(body, "product", "data"), &wire); err != nil {
		return nil, fmt.Errorf("failed to decode product: %w", err)
	}
	if wire.ID == "" {
		return nil, &errors.ErrNotFound{Resource: "product", ID: id}
	}

	p := wire.toDomain()
	return &p, nil
}
