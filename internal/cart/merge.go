package cart

import (
	"context"

	"go.uber.org/zap"

	"github.com/egcartridge/storefront/internal/domain"
	"github.com/egcartridge/storefront/internal/events"
	"github.com/egcartridge/storefront/internal/guestcart"
)

// MergeResult reports how many guest lines moved to the remote cart
type MergeResult struct {
	Merged int      `json:"merged"`
	Failed []string `json:"failed,omitempty"`
}

// Merger moves the guest cart into the remote cart after sign-in
type Merger struct {
	guest  *guestcart.Store
	client RemoteCart
	bus    *events.Bus
	logger *zap.Logger
}

func NewMerger(guest *guestcart.Store, client RemoteCart, bus *events.Bus, logger *zap.Logger) *Merger {
	return &Merger{guest: guest, client: client, bus: bus, logger: logger}
}

// Merge adds every guest line to the remote cart, one request per line.
// Lines that were accepted are removed from guest storage; the rest stay
// there so a later Merge retries only what is left.
func (m *Merger) Merge(ctx context.Context, cred domain.Credential) MergeResult {
	var res MergeResult
	if cred.IsNone() {
		return res
	}

	for _, line := range m.guest.Load(ctx) {
		if err := m.client.AddToCart(ctx, cred, line.ProductID, line.Quantity); err != nil {
			m.logger.Warn("Failed to merge guest cart line",
				zap.String("product_id", line.ProductID),
				zap.Error(err),
			)
			res.Failed = append(res.Failed, line.ProductID)
			continue
		}
		if err := m.guest.Remove(ctx, line.ProductID, nil); err != nil {
			m.logger.Warn("Failed to drop merged guest line", zap.String("product_id", line.ProductID), zap.Error(err))
		}
		res.Merged++
	}

	if res.Merged > 0 {
		m.bus.Publish(events.CartChanged)
		m.logger.Info("Merged guest cart", zap.Int("merged", res.Merged), zap.Int("failed", len(res.Failed)))
	}
	return res
}
