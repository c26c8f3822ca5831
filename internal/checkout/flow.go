// Package checkout runs the two-step checkout: billing details, then payment
// method and order submission.
package checkout

import (
	"context"
	stderrors "errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/egcartridge/storefront/internal/domain"
	"github.com/egcartridge/storefront/internal/events"
	"github.com/egcartridge/storefront/internal/notify"
	"github.com/egcartridge/storefront/internal/platform"
	"github.com/egcartridge/storefront/pkg/errors"
)

// Step is the current screen of the checkout
type Step string

const (
	StepBilling  Step = "billing"
	StepPayment  Step = "payment"
	StepComplete Step = "complete"
)

// RedirectAfterOrder is where the shopper goes after a successful order
const RedirectAfterOrder = "/"

// OrderPlacer is the part of the platform client the checkout needs
type OrderPlacer interface {
	GetProfile(ctx context.Context, cred domain.Credential) (*domain.Profile, error)
	PlaceOrder(ctx context.Context, cred domain.Credential, req platform.OrderRequest, idempotencyKey string) (*platform.OrderResult, error)
}

type CredentialResolver interface {
	Resolve(ctx context.Context) domain.Credential
}

// GuestCart is cleared after a guest order succeeds
type GuestCart interface {
	Clear(ctx context.Context) error
}

// Service starts checkout flows
type Service struct {
	client   OrderPlacer
	resolver CredentialResolver
	guest    GuestCart
	bus      *events.Bus
	notifier notify.Notifier
	logger   *zap.Logger
	validate *validator.Validate
}

func NewService(client OrderPlacer, resolver CredentialResolver, guest GuestCart, bus *events.Bus, notifier notify.Notifier, logger *zap.Logger) *Service {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Service{
		client:   client,
		resolver: resolver,
		guest:    guest,
		bus:      bus,
		notifier: notifier,
		logger:   logger,
		validate: v,
	}
}

// Start opens a fresh checkout for src and prefills billing from the profile when signed in
func (s *Service) Start(ctx context.Context, src Source) *Flow {
	f := &Flow{
		svc:            s,
		step:           StepBilling,
		source:         src,
		idempotencyKey: uuid.NewString(),
	}
	f.prefill(ctx)
	return f
}

// Flow is one checkout visit. Nothing of it is persisted.
type Flow struct {
	svc *Service

	mu             sync.Mutex
	step           Step
	billing        domain.BillingInfo
	payment        domain.PaymentMethod
	source         Source
	idempotencyKey string
	submitting     bool
	orderID        string
	lastError      string
}

// State is the rendered checkout
type State struct {
	Step          Step                  `json:"step"`
	Source        SourceKind            `json:"source"`
	Billing       domain.BillingInfo    `json:"billing"`
	PaymentMethod domain.PaymentMethod  `json:"payment_method,omitempty"`
	Items         []domain.CartLineItem `json:"items"`
	Total         decimal.Decimal       `json:"total"`
	Submitting    bool                  `json:"submitting"`
	OrderID       string                `json:"order_id,omitempty"`
	Error         string                `json:"error,omitempty"`
}

// Result is returned by a successful Submit
type Result struct {
	OrderID  string `json:"order_id"`
	Redirect string `json:"redirect"`
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	items := append([]domain.CartLineItem{}, f.source.Items...)
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return State{
		Step:          f.step,
		Source:        f.source.Kind,
		Billing:       f.billing,
		PaymentMethod: f.payment,
		Items:         items,
		Total:         total,
		Submitting:    f.submitting,
		OrderID:       f.orderID,
		Error:         f.lastError,
	}
}

// SubmitBilling validates the billing fields and moves to the payment step.
// No request is made.
func (f *Flow) SubmitBilling(info domain.BillingInfo) error {
	info = trimBilling(info)
	if err := f.svc.validate.Struct(info); err != nil {
		return validationError(err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepBilling {
		return &errors.ErrInvalidStep{From: string(f.step), To: string(StepPayment)}
	}
	f.billing = info
	f.step = StepPayment
	return nil
}

// Back returns from payment to billing, keeping what was entered
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepPayment || f.submitting {
		return &errors.ErrInvalidStep{From: string(f.step), To: string(StepBilling)}
	}
	f.step = StepBilling
	return nil
}

// SelectPayment chooses one of the offered payment methods
func (f *Flow) SelectPayment(m domain.PaymentMethod) error {
	if !m.IsValid() {
		return &errors.ErrValidation{Field: "payment_method", Message: "unsupported payment method"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepPayment {
		return &errors.ErrInvalidStep{From: string(f.step), To: string(StepPayment)}
	}
	f.payment = m
	return nil
}

// Submit places the order. It refuses to run without a payment method or
// while a previous submission is still in flight. On failure the draft is
// kept so the shopper can retry.
func (f *Flow) Submit(ctx context.Context) (*Result, error) {
	cred := f.svc.resolver.Resolve(ctx)

	f.mu.Lock()
	if f.step != StepPayment {
		f.mu.Unlock()
		return nil, &errors.ErrInvalidStep{From: string(f.step), To: string(StepComplete)}
	}
	if f.submitting {
		f.mu.Unlock()
		return nil, errors.ErrCheckoutInFlight
	}
	if f.payment == "" {
		f.mu.Unlock()
		return nil, errors.ErrPaymentMethodRequired
	}
	f.submitting = true
	f.lastError = ""
	req := f.buildRequest(cred)
	key := f.idempotencyKey
	f.mu.Unlock()

	res, err := f.svc.client.PlaceOrder(ctx, cred, req, key)

	f.mu.Lock()
	f.submitting = false
	if err != nil {
		f.lastError = errors.UserMessage(err)
		f.mu.Unlock()
		f.svc.logger.Error("Failed to place order", zap.Error(err))
		f.svc.notifier.Notify(notify.LevelError, f.lastError)
		return nil, err
	}
	f.step = StepComplete
	f.orderID = res.ID
	f.mu.Unlock()

	f.svc.logger.Info("Order placed",
		zap.String("order_id", res.ID),
		zap.String("payment_method", req.PaymentMethod),
		zap.Bool("guest", cred.IsNone()),
	)

	if cred.IsNone() {
		if err := f.svc.guest.Clear(ctx); err != nil {
			f.svc.logger.Warn("Failed to clear guest cart after order", zap.Error(err))
		}
	}
	f.svc.bus.Publish(events.CartChanged)
	f.svc.notifier.Notify(notify.LevelSuccess, "Order placed successfully")

	return &Result{OrderID: res.ID, Redirect: RedirectAfterOrder}, nil
}

// buildRequest assembles the order body. Guests and buy-now purchases send
// their lines; a signed-in cart checkout lets the platform use the stored cart.
func (f *Flow) buildRequest(cred domain.Credential) platform.OrderRequest {
	req := platform.OrderRequest{
		BillingInfo: platform.BillingPayload{
			FullName: f.billing.FullName,
			Email:    f.billing.Email,
			Phone:    f.billing.Phone,
			Address:  f.billing.Address + ", " + f.billing.City,
		},
		PaymentMethod: f.payment.APIToken(),
	}
	if cred.IsNone() || f.source.Kind == SourceBuyNow {
		req.Items = make([]platform.OrderItemPayload, 0, len(f.source.Items))
		for _, it := range f.source.Items {
			req.Items = append(req.Items, platform.OrderItemPayload{ProductID: it.ProductID, Quantity: it.Quantity})
		}
	}
	return req
}

// prefill copies profile fields into empty billing fields. Failures are ignored.
func (f *Flow) prefill(ctx context.Context) {
	cred := f.svc.resolver.Resolve(ctx)
	if cred.IsNone() {
		return
	}
	p, err := f.svc.client.GetProfile(ctx, cred)
	if err != nil {
		f.svc.logger.Warn("Failed to prefill checkout from profile", zap.Error(err))
		return
	}
	if p == nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = strings.TrimSpace(v)
		}
	}
	fill(&f.billing.FullName, p.FullName)
	fill(&f.billing.Email, p.Email)
	fill(&f.billing.Phone, p.Phone)
	fill(&f.billing.Address, p.Address)
	fill(&f.billing.City, p.City)
}

func trimBilling(b domain.BillingInfo) domain.BillingInfo {
	return domain.BillingInfo{
		FullName: strings.TrimSpace(b.FullName),
		Email:    strings.TrimSpace(b.Email),
		Phone:    strings.TrimSpace(b.Phone),
		Address:  strings.TrimSpace(b.Address),
		City:     strings.TrimSpace(b.City),
	}
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		msg := "is required"
		if fe.Tag() == "email" {
			msg = "must be a valid email address"
		}
		return &errors.ErrValidation{Field: fe.Field(), Message: msg}
	}
	return &errors.ErrValidation{Message: err.Error()}
}
