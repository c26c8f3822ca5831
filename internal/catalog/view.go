package catalog

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/egcartridge/storefront/internal/domain"
	"github.com/egcartridge/storefront/internal/lifecycle"
)

// DefaultPageSize is used when the configured page size is not positive
const DefaultPageSize = 9

// View is the catalog screen: the loaded collections plus the shopper's
// filter, price range and page. Changing a predicate keeps the current page;
// the page is only clamped when it runs past the last one.
type View struct {
	loader   *Loader
	source   Source
	pageSize int
	logger   *zap.Logger

	mu     sync.Mutex
	scope  *lifecycle.Scope
	data   *Data
	filter Filter
	rng    PriceRange
	page   int
	closed bool
}

// Result is the rendered catalog
type Result struct {
	Loaded     bool                 `json:"loaded"`
	Page       Page[domain.Product] `json:"page"`
	Filter     Filter               `json:"filter"`
	PriceRange PriceRange           `json:"price_range"`
	Brands     []domain.Brand       `json:"brands"`
	Categories []domain.Category    `json:"categories"`
}

func NewView(loader *Loader, source Source, pageSize int, logger *zap.Logger) *View {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &View{
		loader:   loader,
		source:   source,
		pageSize: pageSize,
		logger:   logger,
		page:     1,
	}
}

// Refresh reloads the collections and reseeds the price range. A refresh
// started later supersedes this one; its result is then dropped.
func (v *View) Refresh(ctx context.Context) error {
	scope, ok := v.newScope(ctx)
	if !ok {
		return lifecycle.ErrClosed
	}
	defer scope.Close()

	data, err := lifecycle.Run(scope, v.loader.Load)
	if errors.Is(err, lifecycle.ErrClosed) {
		v.logger.Debug("Dropped superseded catalog load")
		return nil
	}
	if err != nil {
		return err
	}
	v.apply(scope, data)
	return nil
}

// Preload starts a refresh in the background. Its result is applied only if
// no later refresh or Close happened first.
func (v *View) Preload(ctx context.Context) {
	scope, ok := v.newScope(ctx)
	if !ok {
		return
	}
	var data *Data
	scope.Go(func(ctx context.Context) error {
		var err error
		data, err = v.loader.Load(ctx)
		return err
	}, func(err error) {
		if err != nil {
			v.logger.Warn("Catalog preload failed", zap.Error(err))
			return
		}
		v.apply(scope, data)
	})
}

// Close tears the view down; in-flight loads are cancelled and dropped
func (v *View) Close() {
	v.mu.Lock()
	v.closed = true
	old := v.scope
	v.mu.Unlock()

	if old != nil {
		old.Close()
	}
}

func (v *View) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.data != nil
}

// newScope replaces the current scope. The old one is closed outside v.mu
// because its apply callback takes v.mu while holding the scope lock.
func (v *View) newScope(ctx context.Context) (*lifecycle.Scope, bool) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil, false
	}
	old := v.scope
	scope := lifecycle.NewScope(ctx)
	v.scope = scope
	v.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return scope, true
}

func (v *View) apply(scope *lifecycle.Scope, data *Data) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.scope != scope || v.closed {
		return
	}
	v.data = data
	v.rng = NewPriceRange(data.Active())
}

func (v *View) SetSearch(q string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter.Search = q
}

func (v *View) SetBrands(ids []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter.BrandIDs = append([]string(nil), ids...)
}

func (v *View) SetCategories(ids []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter.CategoryIDs = append([]string(nil), ids...)
}

func (v *View) SetDiscountOnly(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter.DiscountOnly = on
}

// SetMinPrice moves the lower slider; it never passes the upper one
func (v *View) SetMinPrice(d decimal.Decimal) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rng.SetMin(d)
}

// SetMaxPrice moves the upper slider; it never passes the lower one
func (v *View) SetMaxPrice(d decimal.Decimal) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rng.SetMax(d)
}

func (v *View) SetPage(page int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page = page
}

// ResetFilters clears every predicate and restores the seeded price range
func (v *View) ResetFilters() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter = Filter{}
	v.rng.Min, v.rng.Max = v.rng.Floor, v.rng.Ceil
}

// Result applies the filter to the active products and slices out the
// current page. A page past the end is clamped and remembered.
func (v *View) Result() Result {
	v.mu.Lock()
	defer v.mu.Unlock()

	f := v.currentFilter()
	res := Result{
		Loaded:     v.data != nil,
		Filter:     f,
		PriceRange: v.rng,
		Brands:     []domain.Brand{},
		Categories: []domain.Category{},
	}
	var matched []domain.Product
	if v.data != nil {
		matched = f.Apply(v.data.Active())
		res.Brands = v.data.Brands
		res.Categories = v.data.Categories
	}
	res.Page = Paginate(matched, v.page, v.pageSize)
	v.page = res.Page.Page
	return res
}

// Product fetches one product by id. An unknown id is an *errors.ErrNotFound.
func (v *View) Product(ctx context.Context, id string) (*domain.Product, error) {
	return v.source.GetProduct(ctx, id)
}

func (v *View) currentFilter() Filter {
	f := v.filter
	f.BrandIDs = append([]string(nil), f.BrandIDs...)
	f.CategoryIDs = append([]string(nil), f.CategoryIDs...)
	if v.data != nil {
		lo, hi := v.rng.Min, v.rng.Max
		f.MinPrice, f.MaxPrice = &lo, &hi
	}
	return f
}
