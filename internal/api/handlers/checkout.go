package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/egcartridge/storefront/internal/cart"
	"github.com/egcartridge/storefront/internal/catalog"
	"github.com/egcartridge/storefront/internal/checkout"
	"github.com/egcartridge/storefront/internal/domain"
	"github.com/egcartridge/storefront/pkg/errors"
)

// CheckoutSession holds the shopper's current checkout. Starting a new one
// replaces it; nothing of it survives a restart.
type CheckoutSession struct {
	svc *checkout.Service

	mu   sync.Mutex
	flow *checkout.Flow
}

func NewCheckoutSession(svc *checkout.Service) *CheckoutSession {
	return &CheckoutSession{svc: svc}
}

func (s *CheckoutSession) current() (*checkout.Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flow == nil {
		return nil, errors.ErrNoCheckout
	}
	return s.flow, nil
}

func (s *CheckoutSession) replace(f *checkout.Flow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flow = f
}

// StartCheckoutRequest picks the checkout source. Source "cart" uses the
// selected cart lines; "buy_now" uses ProductID and Quantity.
type StartCheckoutRequest struct {
	Source    string `json:"source" binding:"required,oneof=cart buy_now"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity" binding:"min=0"`
}

type PaymentRequest struct {
	PaymentMethod domain.PaymentMethod `json:"payment_method" binding:"required"`
}

// HandleCheckoutState handles GET /v1/checkout
func HandleCheckoutState(sessions *CheckoutSession) gin.HandlerFunc {
	return func(c *gin.Context) {
		flow, err := sessions.current()
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"checkout":        flow.State(),
			"payment_methods": domain.PaymentMethods,
		})
	}
}

// HandleCheckoutStart handles POST /v1/checkout/start
func HandleCheckoutStart(sessions *CheckoutSession, cartView *cart.View, products *catalog.View, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req StartCheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		ctx := c.Request.Context()
		var (
			src checkout.Source
			err error
		)
		if req.Source == string(checkout.SourceBuyNow) {
			if req.ProductID == "" {
				respondError(c, &errors.ErrValidation{Field: "product_id", Message: "no product selected"}, logger)
				return
			}
			product, perr := products.Product(ctx, req.ProductID)
			if perr != nil {
				respondError(c, perr, logger)
				return
			}
			src, err = checkout.BuyNow(product, req.Quantity)
		} else {
			lines, lerr := cartView.BeginCheckout(ctx)
			if lerr != nil {
				respondError(c, lerr, logger)
				return
			}
			src, err = checkout.FromCart(lines)
		}
		if err != nil {
			respondError(c, err, logger)
			return
		}

		flow := sessions.svc.Start(ctx, src)
		sessions.replace(flow)
		c.JSON(http.StatusCreated, gin.H{"checkout": flow.State()})
	}
}

// HandleCheckoutBilling handles POST /v1/checkout/billing
func HandleCheckoutBilling(sessions *CheckoutSession, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		flow, err := sessions.current()
		if err != nil {
			respondError(c, err, logger)
			return
		}

		var info domain.BillingInfo
		if err := c.ShouldBindJSON(&info); err != nil {
			bindError(c, err)
			return
		}
		if err := flow.SubmitBilling(info); err != nil {
			respondError(c, err, logger)
			return
		}
		c.JSON(http.StatusOK, gin.H{"checkout": flow.State()})
	}
}

// HandleCheckoutBack handles POST /v1/checkout/back
func HandleCheckoutBack(sessions *CheckoutSession, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		flow, err := sessions.current()
		if err != nil {
			respondError(c, err, logger)
			return
		}
		if err := flow.Back(); err != nil {
			respondError(c, err, logger)
			return
		}
		c.JSON(http.StatusOK, gin.H{"checkout": flow.State()})
	}
}

// HandleCheckoutPayment handles POST /v1/checkout/payment
func HandleCheckoutPayment(sessions *CheckoutSession, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		flow, err := sessions.current()
		if err != nil {
			respondError(c, err, logger)
			return
		}

		var req PaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		if err := flow.SelectPayment(req.PaymentMethod); err != nil {
			respondError(c, err, logger)
			return
		}
		c.JSON(http.StatusOK, gin.H{"checkout": flow.State()})
	}
}

// HandleCheckoutSubmit handles POST /v1/checkout/submit
func HandleCheckoutSubmit(sessions *CheckoutSession, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		flow, err := sessions.current()
		if err != nil {
			respondError(c, err, logger)
			return
		}

		res, err := flow.Submit(c.Request.Context())
		if err != nil {
			respondError(c, err, logger)
			return
		}
		c.JSON(http.StatusCreated, res)
	}
}
