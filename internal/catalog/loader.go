// Package catalog loads the product catalog and keeps the filter, price range
// and page state of a catalog view.
package catalog

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/egcartridge/storefront/internal/domain"
)

// Source is the part of the platform client the catalog reads from
type Source interface {
	GetProducts(ctx context.Context) ([]domain.Product, error)
	GetBrands(ctx context.Context) ([]domain.Brand, error)
	GetCategories(ctx context.Context) ([]domain.Category, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

// Data is one load of the three catalog collections
type Data struct {
	Products   []domain.Product
	Brands     []domain.Brand
	Categories []domain.Category
}

// Active returns the products that are offered for sale
func (d *Data) Active() []domain.Product {
	out := make([]domain.Product, 0, len(d.Products))
	for _, p := range d.Products {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out
}

type Loader struct {
	source Source
	logger *zap.Logger
}

func NewLoader(source Source, logger *zap.Logger) *Loader {
	return &Loader{source: source, logger: logger}
}

// Load fetches products, brands and categories concurrently. A collection
// that fails to load is empty; the others are still returned. The only error
// is ctx ending before the loads finish.
func (l *Loader) Load(ctx context.Context) (*Data, error) {
	data := &Data{
		Products:   []domain.Product{},
		Brands:     []domain.Brand{},
		Categories: []domain.Category{},
	}

	// Failures degrade a collection to empty, so no goroutine returns an error
	// and gctx is only cancelled when ctx is.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := l.source.GetProducts(gctx)
		if err != nil {
			l.logger.Warn("Failed to load products", zap.Error(err))
			return nil
		}
		data.Products = products
		return nil
	})
	g.Go(func() error {
		brands, err := l.source.GetBrands(gctx)
		if err != nil {
			l.logger.Warn("Failed to load brands", zap.Error(err))
			return nil
		}
		data.Brands = brands
		return nil
	})
	g.Go(func() error {
		categories, err := l.source.GetCategories(gctx)
		if err != nil {
			l.logger.Warn("Failed to load categories", zap.Error(err))
			return nil
		}
		data.Categories = categories
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.logger.Debug("Catalog loaded",
		zap.Int("products", len(data.Products)),
		zap.Int("brands", len(data.Brands)),
		zap.Int("categories", len(data.Categories)),
	)
	return data, nil
}
