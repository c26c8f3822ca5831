// Package admin is the console shell: navigation, session display and logout.
package admin

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/egcartridge/storefront/internal/auth"
	"github.com/egcartridge/storefront/internal/notify"
)

// NavItem is one entry of the console navigation
type NavItem struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Path   string `json:"path"`
	Active bool   `json:"active"`
}

var navigation = []NavItem{
	{Key: "dashboard", Label: "Dashboard", Path: "/admin"},
	{Key: "products", Label: "Products", Path: "/admin/products"},
	{Key: "orders", Label: "Orders", Path: "/admin/orders"},
	{Key: "customers", Label: "Customers", Path: "/admin/customers"},
	{Key: "settings", Label: "Settings", Path: "/admin/settings"},
}

type SessionSource interface {
	Session(ctx context.Context) auth.Session
	Logout(ctx context.Context) error
}

// GuestCart is cleared on logout
type GuestCart interface {
	Clear(ctx context.Context) error
}

type Shell struct {
	sessions SessionSource
	guest    GuestCart
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewShell(sessions SessionSource, guest GuestCart, notifier notify.Notifier, logger *zap.Logger) *Shell {
	return &Shell{sessions: sessions, guest: guest, notifier: notifier, logger: logger}
}

// Nav returns the navigation with the entry for current marked active.
// The longest matching path wins so /admin does not shadow its children.
func (s *Shell) Nav(current string) []NavItem {
	items := make([]NavItem, len(navigation))
	copy(items, navigation)

	best := -1
	for i, it := range items {
		if current == it.Path || strings.HasPrefix(current, it.Path+"/") {
			if best < 0 || len(it.Path) > len(items[best].Path) {
				best = i
			}
		}
	}
	if best >= 0 {
		items[best].Active = true
	}
	return items
}

func (s *Shell) Session(ctx context.Context) auth.Session {
	return s.sessions.Session(ctx)
}

// Logout clears the credentials and user record, then the guest cart.
// A failure clearing the cart is logged; the credentials are already gone.
func (s *Shell) Logout(ctx context.Context) error {
	if err := s.sessions.Logout(ctx); err != nil {
		s.logger.Error("Failed to log out", zap.Error(err))
		s.notifier.Notify(notify.LevelError, "Failed to log out")
		return err
	}
	if err := s.guest.Clear(ctx); err != nil {
		s.logger.Warn("Failed to clear guest cart on logout", zap.Error(err))
	}
	s.logger.Info("User signed out")
	s.notifier.Notify(notify.LevelSuccess, "Logged out successfully")
	return nil
}
