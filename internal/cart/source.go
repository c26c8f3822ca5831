package cart

import (
	"context"

	"github.com/egcartridge/storefront/internal/domain"
	"github.com/egcartridge/storefront/internal/guestcart"
)

// RemoteCart is the part of the platform client the cart needs
type RemoteCart interface {
	GetCartCount(ctx context.Context, cred domain.Credential) (int, error)
	GetCart(ctx context.Context, cred domain.Credential) ([]domain.CartLineItem, error)
	AddToCart(ctx context.Context, cred domain.Credential, productID string, quantity int) error
	UpdateCartItem(ctx context.Context, cred domain.Credential, productID string, quantity int) error
	RemoveCartItem(ctx context.Context, cred domain.Credential, productID string) error
}

// CredentialResolver picks the active credential
type CredentialResolver interface {
	Resolve(ctx context.Context) domain.Credential
}

// source is whichever cart representation is authoritative for the current credential
type source interface {
	load(ctx context.Context) ([]domain.CartLineItem, error)
	count(ctx context.Context) (int, error)
	add(ctx context.Context, product domain.Product, quantity int) error
	setQuantity(ctx context.Context, id string, n int) error
	remove(ctx context.Context, id string) error
	remote() bool
}

type guestSource struct {
	store *guestcart.Store
}

func (g guestSource) load(ctx context.Context) ([]domain.CartLineItem, error) {
	return g.store.Load(ctx), nil
}

func (g guestSource) count(ctx context.Context) (int, error) {
	return g.store.Count(ctx), nil
}

func (g guestSource) add(ctx context.Context, product domain.Product, quantity int) error {
	return g.store.Add(ctx, product.Snapshot(quantity), quantity)
}

func (g guestSource) setQuantity(ctx context.Context, id string, n int) error {
	return g.store.SetQuantity(ctx, id, n)
}

func (g guestSource) remove(ctx context.Context, id string) error {
	return g.store.Remove(ctx, id, nil)
}

func (g guestSource) remote() bool { return false }

type remoteSource struct {
	client RemoteCart
	cred   domain.Credential
}

func (r remoteSource) load(ctx context.Context) ([]domain.CartLineItem, error) {
	return r.client.GetCart(ctx, r.cred)
}

func (r remoteSource) count(ctx context.Context) (int, error) {
	return r.client.GetCartCount(ctx, r.cred)
}

func (r remoteSource) add(ctx context.Context, product domain.Product, quantity int) error {
	return r.client.AddToCart(ctx, r.cred, product.ID, quantity)
}

func (r remoteSource) setQuantity(ctx context.Context, id string, n int) error {
	return r.client.UpdateCartItem(ctx, r.cred, id, n)
}

func (r remoteSource) remove(ctx context.Context, id string) error {
	return r.client.RemoveCartItem(ctx, r.cred, id)
}

func (r remoteSource) remote() bool { return true }
