package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/egcartridge/storefront/internal/domain"
)

// Filter is the set of predicates a product must all satisfy. Zero values are
// inactive: an empty search, empty id lists, DiscountOnly false and a nil bound.
type Filter struct {
	Search       string           `json:"search"`
	BrandIDs     []string         `json:"brand_ids"`
	CategoryIDs  []string         `json:"category_ids"`
	DiscountOnly bool             `json:"discount_only"`
	MinPrice     *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice     *decimal.Decimal `json:"max_price,omitempty"`
}

// Match reports whether p satisfies every active predicate
func (f Filter) Match(p domain.Product) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.ModelNumber), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
	}
	if len(f.BrandIDs) > 0 && !contains(f.BrandIDs, p.BrandID) {
		return false
	}
	if len(f.CategoryIDs) > 0 && !contains(f.CategoryIDs, p.CategoryID) {
		return false
	}
	if f.DiscountOnly && !p.HasDiscount() {
		return false
	}
	price := p.EffectivePrice()
	if f.MinPrice != nil && price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && price.GreaterThan(*f.MaxPrice) {
		return false
	}
	return true
}

// Apply returns the products matching f, in their original order
func (f Filter) Apply(products []domain.Product) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
