package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLineItem is one product line in a cart. Name, model number and prices
// are copied when the line is added and are not refreshed afterwards.
type CartLineItem struct {
	ProductID    string              `json:"id"`
	Name         string              `json:"name"`
	ModelNumber  string              `json:"model_number,omitempty"`
	Image        string              `json:"image,omitempty"`
	UnitPrice    decimal.Decimal     `json:"price"`
	SpecialPrice decimal.NullDecimal `json:"special_price"`
	Quantity     int                 `json:"quantity"`
	AddedAt      *time.Time          `json:"addedAt,omitempty"`
}

// EffectivePrice is the special price when it is set and lower than the unit price
func (l CartLineItem) EffectivePrice() decimal.Decimal {
	return effectivePrice(l.UnitPrice, l.SpecialPrice)
}

// LineTotal is EffectivePrice times quantity
func (l CartLineItem) LineTotal() decimal.Decimal {
	return l.EffectivePrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Product represents a catalog product
type Product struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	ModelNumber  string              `json:"model_number"`
	Description  string              `json:"description"`
	Price        decimal.Decimal     `json:"price"`
	SpecialPrice decimal.NullDecimal `json:"special_price"`
	BrandID      string              `json:"brand_id"`
	CategoryID   string              `json:"category_id"`
	Image        string              `json:"image,omitempty"`
	Stock        int                 `json:"stock"`
	IsActive     bool                `json:"is_active"`
}

func (p Product) EffectivePrice() decimal.Decimal {
	return effectivePrice(p.Price, p.SpecialPrice)
}

// HasDiscount reports whether a special price below the regular price is active
func (p Product) HasDiscount() bool {
	return p.SpecialPrice.Valid && p.SpecialPrice.Decimal.LessThan(p.Price)
}

// Snapshot copies the descriptive fields of the product into a cart line
func (p Product) Snapshot(quantity int) CartLineItem {
	return CartLineItem{
		ProductID:    p.ID,
		Name:         p.Name,
		ModelNumber:  p.ModelNumber,
		Image:        p.Image,
		UnitPrice:    p.Price,
		SpecialPrice: p.SpecialPrice,
		Quantity:     quantity,
	}
}

// Brand represents a product brand
type Brand struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Category represents a product category
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserRecord is the locally stored record of the signed-in user
type UserRecord struct {
	Role     Role   `json:"role"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Credential is the bearer credential attached to platform requests
type Credential struct {
	Kind  CredentialKind
	Token string
}

// None is the guest credential
var None = Credential{Kind: CredentialNone}

func (c Credential) IsNone() bool {
	return c.Kind == CredentialNone || c.Token == ""
}

// Profile is the authenticated user's profile, used to prefill checkout
type Profile struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
}

// BillingInfo is the billing step of a checkout
type BillingInfo struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Address  string `json:"address" validate:"required"`
	City     string `json:"city" validate:"required"`
}

// Order represents a placed order in the user's history
type Order struct {
	ID            string          `json:"id"`
	Status        string          `json:"status"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	CreatedAt     time.Time       `json:"created_at"`
	Items         []OrderItem     `json:"items"`
}

// OrderItem represents a line of a placed order
type OrderItem struct {
	ProductID     string          `json:"product_id"`
	Name          string          `json:"name"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	SerialNumbers []string        `json:"serial_numbers,omitempty"`
}

func effectivePrice(unit decimal.Decimal, special decimal.NullDecimal) decimal.Decimal {
	if special.Valid && special.Decimal.LessThan(unit) {
		return special.Decimal
	}
	return unit
}
