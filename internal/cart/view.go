// Package cart presents one cart regardless of whether it lives in the guest
// store or on the platform, and tracks which lines are selected for checkout.
package cart

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/egcartridge/storefront/internal/domain"
	"github.com/egcartridge/storefront/internal/events"
	"github.com/egcartridge/storefront/internal/guestcart"
	"github.com/egcartridge/storefront/internal/notify"
	"github.com/egcartridge/storefront/pkg/errors"
)

// Snapshot is the rendered state of the cart
type Snapshot struct {
	Items         []domain.CartLineItem `json:"items"`
	Selected      []string              `json:"selected"`
	SelectedCount int                   `json:"selected_count"`
	Total         decimal.Decimal       `json:"total"`
	Empty         bool                  `json:"empty"`
	CanCheckout   bool                  `json:"can_checkout"`
	Remote        bool                  `json:"remote"`
}

type View struct {
	resolver CredentialResolver
	guest    *guestcart.Store
	client   RemoteCart
	bus      *events.Bus
	notifier notify.Notifier
	logger   *zap.Logger

	unsubscribe []func()

	mu       sync.Mutex
	items    []domain.CartLineItem
	selected domain.SelectionSet
	isRemote bool
	// loaded is false until the first read and again after a session change
	loaded bool
	// stale marks a cart that changed since the last read; gen counts those
	// changes and session counts session changes
	stale   bool
	gen     uint64
	session uint64
}

func NewView(
	resolver CredentialResolver,
	guest *guestcart.Store,
	client RemoteCart,
	bus *events.Bus,
	notifier notify.Notifier,
	logger *zap.Logger,
) *View {
	v := &View{
		resolver: resolver,
		guest:    guest,
		client:   client,
		bus:      bus,
		notifier: notifier,
		logger:   logger,
		items:    []domain.CartLineItem{},
		selected: domain.SelectionSet{},
	}
	if bus != nil {
		v.unsubscribe = append(v.unsubscribe,
			bus.Subscribe(events.CartChanged, v.invalidate),
			bus.Subscribe(events.SessionChanged, v.reset),
		)
	}
	return v
}

// Close stops listening for cart and session signals
func (v *View) Close() {
	for _, fn := range v.unsubscribe {
		fn()
	}
	v.unsubscribe = nil
}

// invalidate marks the cached lines stale. Subscribers run on the publisher's
// goroutine, and the view never publishes while holding mu.
func (v *View) invalidate() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stale = true
	v.gen++
}

// reset drops the cached cart; a different shopper owns the next one
func (v *View) reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.items = []domain.CartLineItem{}
	v.selected = domain.SelectionSet{}
	v.isRemote = false
	v.loaded = false
	v.stale = true
	v.gen++
	v.session++
}

// readMark is the state a read started from
type readMark struct{ gen, session uint64 }

func (v *View) mark() readMark {
	v.mu.Lock()
	defer v.mu.Unlock()
	return readMark{gen: v.gen, session: v.session}
}

// outdated reports whether the session changed after m was taken. Must hold mu.
func (v *View) outdated(m readMark) bool {
	return v.session != m.session
}

// settle records a successful read started at m. Must hold mu.
func (v *View) settle(m readMark, remote bool) {
	v.isRemote = remote
	v.loaded = true
	if v.gen == m.gen {
		v.stale = false
	}
}

// active picks the guest store or the remote cart from the current credential
func (v *View) active(ctx context.Context) source {
	cred := v.resolver.Resolve(ctx)
	if cred.IsNone() {
		return guestSource{store: v.guest}
	}
	return remoteSource{client: v.client, cred: cred}
}

// Load reads the cart and selects every line
func (v *View) Load(ctx context.Context) (Snapshot, error) {
	m := v.mark()
	src := v.active(ctx)
	items, err := src.load(ctx)
	if err != nil {
		v.fail("Failed to load cart", err)
		return v.Snapshot(), err
	}

	v.mu.Lock()
	if !v.outdated(m) {
		v.items = items
		v.selected = domain.SelectAll(items)
		v.settle(m, src.remote())
	}
	v.mu.Unlock()

	return v.Snapshot(), nil
}

// Sync brings the view up to date with the active cart. The first read, and
// the first read after a session change, selects every line. A cart that
// changed since the last read is re-read keeping the selection of surviving
// lines; lines the view has not seen before come in selected.
func (v *View) Sync(ctx context.Context) (Snapshot, error) {
	return v.sync(ctx, false)
}

func (v *View) sync(ctx context.Context, force bool) (Snapshot, error) {
	v.mu.Lock()
	loaded, stale := v.loaded, v.stale
	v.mu.Unlock()

	if !loaded {
		return v.Load(ctx)
	}
	if !stale && !force {
		return v.Snapshot(), nil
	}
	session := v.mark().session
	if err := v.refresh(ctx, v.active(ctx), session); err != nil {
		return v.Snapshot(), err
	}
	return v.Snapshot(), nil
}

// refresh re-reads src and reconciles the selection with what it holds.
// session is taken before src was resolved; a session change since then
// discards the read.
func (v *View) refresh(ctx context.Context, src source, session uint64) error {
	m := v.mark()
	m.session = session
	items, err := src.load(ctx)
	if err != nil {
		v.fail("Failed to refresh cart", err)
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.outdated(m) {
		return nil
	}
	if src.remote() != v.isRemote {
		v.selected = domain.SelectAll(items)
	} else {
		seen := make(map[string]bool, len(v.items))
		for _, it := range v.items {
			seen[it.ProductID] = true
		}
		kept := domain.SelectionSet{}
		for _, it := range items {
			if v.selected.Has(it.ProductID) || !seen[it.ProductID] {
				kept.Add(it.ProductID)
			}
		}
		v.selected = kept
	}
	v.items = items
	v.settle(m, src.remote())
	return nil
}

// Count returns the number of items for the header badge. Errors are logged and read as 0.
func (v *View) Count(ctx context.Context) int {
	n, err := v.active(ctx).count(ctx)
	if err != nil {
		v.logger.Warn("Failed to get cart count", zap.Error(err))
		return 0
	}
	return n
}

// Add puts quantity of product into the active cart
func (v *View) Add(ctx context.Context, product domain.Product, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	src := v.active(ctx)
	if err := src.add(ctx, product, quantity); err != nil {
		v.fail("Failed to add to cart", err)
		return err
	}
	if src.remote() {
		v.bus.Publish(events.CartChanged)
	}
	v.notifier.Notify(notify.LevelSuccess, product.Name+" added to cart")
	return nil
}

// SetQuantity replaces a line's quantity; n < 1 is ignored
func (v *View) SetQuantity(ctx context.Context, id string, n int) error {
	if n < 1 {
		return nil
	}
	if _, ok := v.line(id); !ok {
		return &errors.ErrNotFound{Resource: "cart item", ID: id}
	}
	session := v.mark().session
	src := v.active(ctx)
	if err := src.setQuantity(ctx, id, n); err != nil {
		v.fail("Failed to update quantity", err)
		return err
	}
	return v.afterMutation(ctx, src, session)
}

func (v *View) Increment(ctx context.Context, id string) error {
	line, ok := v.line(id)
	if !ok {
		return &errors.ErrNotFound{Resource: "cart item", ID: id}
	}
	return v.SetQuantity(ctx, id, line.Quantity+1)
}

// Decrement lowers a line's quantity by one and stops at 1
func (v *View) Decrement(ctx context.Context, id string) error {
	line, ok := v.line(id)
	if !ok {
		return &errors.ErrNotFound{Resource: "cart item", ID: id}
	}
	if line.Quantity <= 1 {
		return nil
	}
	return v.SetQuantity(ctx, id, line.Quantity-1)
}

// Remove deletes a line and drops it from the selection
func (v *View) Remove(ctx context.Context, id string) error {
	if _, ok := v.line(id); !ok {
		return &errors.ErrNotFound{Resource: "cart item", ID: id}
	}
	session := v.mark().session
	src := v.active(ctx)
	if err := src.remove(ctx, id); err != nil {
		v.fail("Failed to remove item", err)
		return err
	}

	v.mu.Lock()
	v.selected.Remove(id)
	v.mu.Unlock()

	v.notifier.Notify(notify.LevelInfo, "Item removed from cart")
	return v.afterMutation(ctx, src, session)
}

// Toggle flips the selection of one line
func (v *View) Toggle(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.hasLine(id) {
		return
	}
	if v.selected.Has(id) {
		v.selected.Remove(id)
		return
	}
	v.selected.Add(id)
}

// SetSelected selects exactly ids, ignoring ids that are not in the cart
func (v *View) SetSelected(ids []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selected = domain.SelectionSet{}
	for _, id := range ids {
		if v.hasLine(id) {
			v.selected.Add(id)
		}
	}
}

// SelectAll selects every line, or clears the selection
func (v *View) SelectAll(all bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if all {
		v.selected = domain.SelectAll(v.items)
		return
	}
	v.selected = domain.SelectionSet{}
}

func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	items := append([]domain.CartLineItem{}, v.items...)
	n := v.selected.Len()
	return Snapshot{
		Items:         items,
		Selected:      v.selected.IDs(v.items),
		SelectedCount: n,
		Total:         domain.Total(v.items, v.selected),
		Empty:         len(v.items) == 0,
		CanCheckout:   n > 0,
		Remote:        v.isRemote,
	}
}

// BeginCheckout re-reads the active cart and returns the selected lines that
// are still in it, refusing an empty selection
func (v *View) BeginCheckout(ctx context.Context) ([]domain.CartLineItem, error) {
	if _, err := v.sync(ctx, true); err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.selected.Len() == 0 {
		return nil, errors.ErrEmptySelection
	}
	out := make([]domain.CartLineItem, 0, v.selected.Len())
	for _, it := range v.items {
		if v.selected.Has(it.ProductID) {
			out = append(out, it)
		}
	}
	return out, nil
}

// afterMutation re-reads the cart and keeps the selection of lines that still exist
func (v *View) afterMutation(ctx context.Context, src source, session uint64) error {
	if src.remote() {
		v.bus.Publish(events.CartChanged)
	}
	return v.refresh(ctx, src, session)
}

func (v *View) line(id string) (domain.CartLineItem, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, it := range v.items {
		if it.ProductID == id {
			return it, true
		}
	}
	return domain.CartLineItem{}, false
}

func (v *View) hasLine(id string) bool {
	for _, it := range v.items {
		if it.ProductID == id {
			return true
		}
	}
	return false
}

func (v *View) fail(msg string, err error) {
	v.logger.Error(msg, zap.Error(err))
	v.notifier.Notify(notify.LevelError, errors.UserMessage(err))
}
