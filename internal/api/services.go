package api

import (
	"go.uber.org/zap"

	"github.com/egcartridge/storefront/internal/admin"
	"github.com/egcartridge/storefront/internal/auth"
	"github.com/egcartridge/storefront/internal/cart"
	"github.com/egcartridge/storefront/internal/catalog"
	"github.com/egcartridge/storefront/internal/checkout"
	"github.com/egcartridge/storefront/internal/config"
	"github.com/egcartridge/storefront/internal/events"
	"github.com/egcartridge/storefront/internal/guestcart"
	"github.com/egcartridge/storefront/internal/localstore"
	"github.com/egcartridge/storefront/internal/notify"
	"github.com/egcartridge/storefront/internal/platform"
)

// notificationLimit is how many undrained notifications are kept
const notificationLimit = 50

// Services holds everything the handlers need for one shopper session
type Services struct {
	Bus      *events.Bus
	Notes    *notify.Recorder
	Resolver *auth.Resolver
	Guest    *guestcart.Store
	Client   *platform.Client
	Cart     *cart.View
	Merger   *cart.Merger // nil unless merging on login is enabled
	Catalog  *catalog.View
	Checkout *checkout.Service
	Shell    *admin.Shell
}

// NewServices wires the session components over store
func NewServices(cfg *config.Config, store *localstore.Store, logger *zap.Logger) *Services {
	bus := events.NewBus()
	notes := notify.NewRecorder(notificationLimit, notify.NewLog(logger))
	client := platform.NewClient(cfg.Platform, logger)
	resolver := auth.NewResolver(store, bus, logger)
	guest := guestcart.NewStore(store, bus, logger)

	s := &Services{
		Bus:      bus,
		Notes:    notes,
		Resolver: resolver,
		Guest:    guest,
		Client:   client,
		Cart:     cart.NewView(resolver, guest, client, bus, notes, logger),
		Catalog:  catalog.NewView(catalog.NewLoader(client, logger), client, cfg.Catalog.PageSize, logger),
		Checkout: checkout.NewService(client, resolver, guest, bus, notes, logger),
		Shell:    admin.NewShell(resolver, guest, notes, logger),
	}
	if cfg.Cart.MergeOnLogin {
		s.Merger = cart.NewMerger(guest, client, bus, logger)
	}
	return s
}

// Close tears down views with background work or bus subscriptions
func (s *Services) Close() {
	s.Cart.Close()
	s.Catalog.Close()
}
