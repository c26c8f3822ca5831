package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/egcartridge/storefront/internal/domain"
	"github.com/egcartridge/storefront/pkg/errors"
)

// OrderRequest is the body of POST /orders/from-cart
type OrderRequest struct {
	BillingInfo   BillingPayload     `json:"billing_info"`
	PaymentMethod string             `json:"payment_method"`
	Items         []OrderItemPayload `json:"items,omitempty"`
}

type BillingPayload struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type OrderItemPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// OrderResult is the order returned after a successful submission
type OrderResult struct {
	ID  string          `json:"id"`
	Raw json.RawMessage `json:"order"`
}

type profileWire struct {
	FullName string `json:"full_name"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
}

type orderWire struct {
	ID            flexString      `json:"id"`
	Status        string          `json:"status"`
	Total         decimal.Decimal `json:"total"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
	CreatedAt     flexTime        `json:"created_at"`
	Items         []orderItemWire `json:"items"`
	OrderItems    []orderItemWire `json:"order_items"`
}

type orderItemWire struct {
	ProductID     flexString      `json:"product_id"`
	Name          string          `json:"name"`
	ProductName   string          `json:"product_name"`
	Quantity      flexInt         `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	SerialNumbers json.RawMessage `json:"serial_numbers"`
	SerialNumber  json.RawMessage `json:"serial_number"`
	Product       *productWire    `json:"product"`
}

func (w orderWire) toDomain() domain.Order {
	o := domain.Order{
		ID:            string(w.ID),
		Status:        w.Status,
		Total:         w.Total,
		PaymentMethod: w.PaymentMethod,
		CreatedAt:     time.Time(w.CreatedAt),
	}
	if o.Total.IsZero() {
		o.Total = w.TotalAmount
	}
	items := w.Items
	if len(items) == 0 {
		items = w.OrderItems
	}
	o.Items = make([]domain.OrderItem, 0, len(items))
	for _, it := range items {
		oi := domain.OrderItem{
			ProductID: string(it.ProductID),
			Name:      it.Name,
			Quantity:  int(it.Quantity),
			Price:     it.Price,
		}
		if oi.Name == "" {
			oi.Name = it.ProductName
		}
		if oi.Name == "" && it.Product != nil {
			oi.Name = it.Product.Name
		}
		serials := it.SerialNumbers
		if len(serials) == 0 {
			serials = it.SerialNumber
		}
		oi.SerialNumbers = parseSerialNumbers(serials)
		o.Items = append(o.Items, oi)
	}
	return o
}

// GetProfile fetches the authenticated user's profile
func (c *Client) GetProfile(ctx context.Context, cred domain.Credential) (*domain.Profile, error) {
	if err := requireCredential(cred); err != nil {
		return nil, err
	}
	body, err := c.do(ctx, http.MethodGet, "/profile", cred, nil)
	if err != nil {
		return nil, err
	}

	var wire profileWire
	if err := json.Unmarshal(unwrapObject(body, "user", "profile", "data"), &wire); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	p := &domain.Profile{
		FullName: wire.FullName,
		Email:    wire.Email,
		Phone:    wire.Phone,
		Address:  wire.Address,
		City:     wire.City,
	}
	if p.FullName == "" {
		p.FullName = wire.Name
	}
	if p.FullName == "" {
		p.FullName = wire.Username
	}
	return p, nil
}

// PlaceOrder submits an order. Guests submit with domain.None. The
// idempotency key lets the platform recognise a retried submission.
func (c *Client) PlaceOrder(ctx context.Context, cred domain.Credential, req OrderRequest, idempotencyKey string) (*OrderResult, error) {
	var opts []requestOption
	if idempotencyKey != "" {
		opts = append(opts, withHeader("Idempotency-Key", idempotencyKey))
	}

	body, err := c.do(ctx, http.MethodPost, "/orders/from-cart", cred, req, opts...)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Order   json.RawMessage `json:"order"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}

	var order struct {
		ID flexString `json:"id"`
	}
	if len(payload.Order) > 0 {
		if err := json.Unmarshal(payload.Order, &order); err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
	}
	if order.ID == "" {
		return nil, &errors.ErrAPI{Status: http.StatusOK, Message: payload.Message}
	}

	return &OrderResult{ID: string(order.ID), Raw: payload.Order}, nil
}

// GetOrders fetches the authenticated user's order history
func (c *Client) GetOrders(ctx context.Context, cred domain.Credential) ([]domain.Order, error) {
	if err := requireCredential(cred); err != nil {
		return nil, err
	}
	body, err := c.do(ctx, http.MethodGet, "/orders", cred, nil)
	if err != nil {
		return nil, err
	}

	arr, err := normalizeList("orders", body, "orders")
	if err != nil {
		return nil, err
	}
	var wire []orderWire
	if err := json.Unmarshal(arr, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	out := make([]domain.Order, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.toDomain())
	}
	return out, nil
}
