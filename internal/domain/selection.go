package domain

import "github.com/shopspring/decimal"

// SelectionSet is the set of cart line ids chosen for checkout
type SelectionSet map[string]struct{}

// SelectAll returns a selection holding every line of items
func SelectAll(items []CartLineItem) SelectionSet {
	s := make(SelectionSet, len(items))
	for _, it := range items {
		s[it.ProductID] = struct{}{}
	}
	return s
}

func (s SelectionSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s SelectionSet) Add(id string) {
	s[id] = struct{}{}
}

func (s SelectionSet) Remove(id string) {
	delete(s, id)
}

func (s SelectionSet) Len() int {
	return len(s)
}

// IDs returns the selected ids in the order they appear in items
func (s SelectionSet) IDs(items []CartLineItem) []string {
	ids := make([]string, 0, len(s))
	for _, it := range items {
		if s.Has(it.ProductID) {
			ids = append(ids, it.ProductID)
		}
	}
	return ids
}

// Total sums EffectivePrice times quantity over the selected lines only
func Total(items []CartLineItem, selected SelectionSet) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if selected.Has(it.ProductID) {
			total = total.Add(it.LineTotal())
		}
	}
	return total
}
