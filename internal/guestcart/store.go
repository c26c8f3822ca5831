// Package guestcart keeps the cart of a shopper without a credential in the
// client-local store. Every mutation rewrites the whole list immediately.
package guestcart

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/egcartridge/storefront/internal/domain"
	"github.com/egcartridge/storefront/internal/events"
	"github.com/egcartridge/storefront/internal/localstore"
)

type Store struct {
	store  *localstore.Store
	bus    *events.Bus
	logger *zap.Logger
	now    func() time.Time
}

func NewStore(store *localstore.Store, bus *events.Bus, logger *zap.Logger) *Store {
	return &Store{
		store:  store,
		bus:    bus,
		logger: logger,
		now:    time.Now,
	}
}

// Load returns the stored lines in order. Missing or malformed data yields an empty list.
func (s *Store) Load(ctx context.Context) []domain.CartLineItem {
	var items []domain.CartLineItem
	ok, err := s.store.GetJSON(ctx, localstore.KeyCart, &items)
	if err != nil {
		s.logger.Warn("Ignoring malformed guest cart", zap.Error(err))
		return []domain.CartLineItem{}
	}
	if !ok || items == nil {
		return []domain.CartLineItem{}
	}
	return items
}

// Count is the sum of quantities across all lines
func (s *Store) Count(ctx context.Context) int {
	n := 0
	for _, it := range s.Load(ctx) {
		n += it.Quantity
	}
	return n
}

// Add increments the line for the same product, or appends a new line
func (s *Store) Add(ctx context.Context, snapshot domain.CartLineItem, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	return s.mutate(ctx, func(items []domain.CartLineItem) ([]domain.CartLineItem, bool) {
		for i := range items {
			if items[i].ProductID == snapshot.ProductID {
				items[i].Quantity += quantity
				return items, true
			}
		}
		line := snapshot
		line.Quantity = quantity
		added := s.now()
		line.AddedAt = &added
		return append(items, line), true
	})
}

// SetQuantity replaces the quantity of one line. n < 1 is ignored.
func (s *Store) SetQuantity(ctx context.Context, id string, n int) error {
	if n < 1 {
		return nil
	}
	return s.mutate(ctx, func(items []domain.CartLineItem) ([]domain.CartLineItem, bool) {
		for i := range items {
			if items[i].ProductID == id {
				if items[i].Quantity == n {
					return items, false
				}
				items[i].Quantity = n
				return items, true
			}
		}
		return items, false
	})
}

func (s *Store) Increment(ctx context.Context, id string) error {
	return s.step(ctx, id, 1)
}

// Decrement lowers the quantity by one, never below 1
func (s *Store) Decrement(ctx context.Context, id string) error {
	return s.step(ctx, id, -1)
}

// Remove deletes the line and drops id from selection when one is given
func (s *Store) Remove(ctx context.Context, id string, selection domain.SelectionSet) error {
	if selection != nil {
		selection.Remove(id)
	}
	return s.mutate(ctx, func(items []domain.CartLineItem) ([]domain.CartLineItem, bool) {
		out := items[:0]
		for _, it := range items {
			if it.ProductID != id {
				out = append(out, it)
			}
		}
		return out, len(out) != len(items)
	})
}

// Clear deletes the guest cart entirely
func (s *Store) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, localstore.KeyCart); err != nil {
		return err
	}
	s.bus.Publish(events.CartChanged)
	return nil
}

func (s *Store) step(ctx context.Context, id string, delta int) error {
	return s.mutate(ctx, func(items []domain.CartLineItem) ([]domain.CartLineItem, bool) {
		for i := range items {
			if items[i].ProductID == id {
				next := items[i].Quantity + delta
				if next < 1 {
					return items, false
				}
				items[i].Quantity = next
				return items, true
			}
		}
		return items, false
	})
}

// mutate applies fn under the store lock and persists the list when fn reports a change
func (s *Store) mutate(ctx context.Context, fn func([]domain.CartLineItem) ([]domain.CartLineItem, bool)) error {
	changed := false
	err := s.store.Update(ctx, localstore.KeyCart, func(current []byte, exists bool) ([]byte, error) {
		var items []domain.CartLineItem
		if exists {
			if err := json.Unmarshal(current, &items); err != nil {
				s.logger.Warn("Replacing malformed guest cart", zap.Error(err))
				items = nil
			}
		}
		next, ok := fn(items)
		if !ok {
			return nil, nil
		}
		if next == nil {
			next = []domain.CartLineItem{}
		}
		changed = true
		return json.Marshal(next)
	})
	if err != nil {
		s.logger.Error("Failed to update guest cart", zap.Error(err))
		return err
	}
	if changed {
		s.bus.Publish(events.CartChanged)
	}
	return nil
}
