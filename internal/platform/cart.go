package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/egcartridge/storefront/internal/domain"
	"github.com/egcartridge/storefront/pkg/errors"
)

// AddToCartRequest is the body of POST /cart
type AddToCartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type cartItemWire struct {
	ID           flexString          `json:"id"`
	ProductID    flexString          `json:"product_id"`
	Name         string              `json:"name"`
	ProductName  string              `json:"product_name"`
	ModelNumber  string              `json:"model_number"`
	Image        string              `json:"image"`
	Price        decimal.Decimal     `json:"price"`
	SpecialPrice decimal.NullDecimal `json:"special_price"`
	Quantity     flexInt             `json:"quantity"`
	Product      *productWire        `json:"product"`
}

func (w cartItemWire) toDomain() domain.CartLineItem {
	line := domain.CartLineItem{
		ProductID:    string(w.ProductID),
		Name:         w.Name,
		ModelNumber:  w.ModelNumber,
		Image:        w.Image,
		UnitPrice:    w.Price,
		SpecialPrice: w.SpecialPrice,
		Quantity:     int(w.Quantity),
	}
	if line.ProductID == "" {
		line.ProductID = string(w.ID)
	}
	if line.Name == "" {
		line.Name = w.ProductName
	}
	if w.Product != nil {
		p := w.Product.toDomain()
		if line.ProductID == "" {
			line.ProductID = p.ID
		}
		if line.Name == "" {
			line.Name = p.Name
		}
		if line.ModelNumber == "" {
			line.ModelNumber = p.ModelNumber
		}
		if line.Image == "" {
			line.Image = p.Image
		}
		if line.UnitPrice.IsZero() {
			line.UnitPrice = p.Price
			line.SpecialPrice = p.SpecialPrice
		}
	}
	if line.Quantity < 1 {
		line.Quantity = 1
	}
	return line
}

func requireCredential(cred domain.Credential) error {
	if cred.IsNone() {
		return &errors.ErrUnauthorized{Message: "sign in to use the remote cart"}
	}
	return nil
}

// GetCartCount returns the number of items in the remote cart
func (c *Client) GetCartCount(ctx context.Context, cred domain.Credential) (int, error) {
	if err := requireCredential(cred); err != nil {
		return 0, err
	}
	body, err := c.do(ctx, http.MethodGet, "/cart/count", cred, nil)
	if err != nil {
		return 0, err
	}

	var payload struct {
		Count      *flexInt `json:"count"`
		TotalItems *flexInt `json:"total_items"`
	}
	if err := json.Unmarshal(unwrapObject(body, "data", "cart"), &payload); err != nil {
		var n flexInt
		if err2 := json.Unmarshal(body, &n); err2 == nil {
			return int(n), nil
		}
		return 0, fmt.Errorf("failed to decode cart count: %w", err)
	}
	switch {
	case payload.Count != nil:
		return int(*payload.Count), nil
	case payload.TotalItems != nil:
		return int(*payload.TotalItems), nil
	}
	return 0, &ErrShape{Endpoint: "cart/count"}
}

// GetCart returns a snapshot of the remote cart lines
func (c *Client) GetCart(ctx context.Context, cred domain.Credential) ([]domain.CartLineItem, error) {
	if err := requireCredential(cred); err != nil {
		return nil, err
	}
	body, err := c.do(ctx, http.MethodGet, "/cart", cred, nil)
	if err != nil {
		return nil, err
	}

	arr, err := normalizeList("cart", body, "cart_items")
	if err != nil {
		return nil, err
	}
	var wire []cartItemWire
	if err := json.Unmarshal(arr, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	out := make([]domain.CartLineItem, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.toDomain())
	}
	return out, nil
}

// AddToCart adds quantity of a product to the remote cart
func (c *Client) AddToCart(ctx context.Context, cred domain.Credential, productID string, quantity int) error {
	if err := requireCredential(cred); err != nil {
		return err
	}
	_, err := c.do(ctx, http.MethodPost, "/cart", cred, AddToCartRequest{ProductID: productID, Quantity: quantity})
	return err
}

// UpdateCartItem replaces the quantity of a remote cart line
func (c *Client) UpdateCartItem(ctx context.Context, cred domain.Credential, productID string, quantity int) error {
	if err := requireCredential(cred); err != nil {
		return err
	}
	body := map[string]int{"quantity": quantity}
	_, err := c.do(ctx, http.MethodPut, "/cart/"+url.PathEscape(productID), cred, body)
	return err
}

// RemoveCartItem deletes a remote cart line
func (c *Client) RemoveCartItem(ctx context.Context, cred domain.Credential, productID string) error {
	if err := requireCredential(cred); err != nil {
		return err
	}
	_, err := c.do(ctx, http.MethodDelete, "/cart/"+url.PathEscape(productID), cred, nil)
	return err
}
