package checkout

import (
	"github.com/egcartridge/storefront/internal/domain"
	"github.com/egcartridge/storefront/pkg/errors"
)

// SourceKind tells where the lines of a checkout come from
type SourceKind string

const (
	SourceCart   SourceKind = "cart"
	SourceBuyNow SourceKind = "buy_now"
)

// Source is the set of lines being purchased: the cart selection or one
// "buy now" product. The two are mutually exclusive.
type Source struct {
	Kind  SourceKind
	Items []domain.CartLineItem
}

// FromCart checks out the selected cart lines
func FromCart(items []domain.CartLineItem) (Source, error) {
	if len(items) == 0 {
		return Source{}, errors.ErrEmptySelection
	}
	return Source{Kind: SourceCart, Items: append([]domain.CartLineItem{}, items...)}, nil
}

// BuyNow checks out a single product, bypassing the cart
func BuyNow(product *domain.Product, quantity int) (Source, error) {
	if product == nil || product.ID == "" {
		return Source{}, &errors.ErrValidation{Field: "product", Message: "no product selected"}
	}
	if quantity < 1 {
		quantity = 1
	}
	return Source{Kind: SourceBuyNow, Items: []domain.CartLineItem{product.Snapshot(quantity)}}, nil
}
