package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/egcartridge/storefront/internal/domain"
)

// PriceRange is the price slider pair. Floor and Ceil are the seeded limits;
// Min never exceeds Max.
type PriceRange struct {
	Floor decimal.Decimal `json:"floor"`
	Ceil  decimal.Decimal `json:"ceil"`
	Min   decimal.Decimal `json:"min"`
	Max   decimal.Decimal `json:"max"`
}

// NewPriceRange seeds the range from the lowest and highest effective price
func NewPriceRange(products []domain.Product) PriceRange {
	var r PriceRange
	for i, p := range products {
		price := p.EffectivePrice()
		if i == 0 || price.LessThan(r.Floor) {
			r.Floor = price
		}
		if i == 0 || price.GreaterThan(r.Ceil) {
			r.Ceil = price
		}
	}
	r.Min, r.Max = r.Floor, r.Ceil
	return r
}

// SetMin moves the lower bound, clamped to [Floor, Max]
func (r *PriceRange) SetMin(v decimal.Decimal) {
	r.Min = decimal.Max(r.Floor, decimal.Min(v, r.Max))
}

// SetMax moves the upper bound, clamped to [Min, Ceil]
func (r *PriceRange) SetMax(v decimal.Decimal) {
	r.Max = decimal.Min(r.Ceil, decimal.Max(v, r.Min))
}

// Narrowed reports whether either bound moved off its seeded limit
func (r PriceRange) Narrowed() bool {
	return !r.Min.Equal(r.Floor) || !r.Max.Equal(r.Ceil)
}
