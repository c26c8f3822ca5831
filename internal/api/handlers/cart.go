package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/egcartridge/storefront/internal/cart"
	"github.com/egcartridge/storefront/internal/catalog"
)

// AddToCartRequest represents the add-to-cart payload
type AddToCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"min=0"`
}

// UpdateCartItemRequest sets a quantity or steps it by one
type UpdateCartItemRequest struct {
	Quantity *int   `json:"quantity,omitempty"`
	Action   string `json:"action,omitempty" binding:"omitempty,oneof=increment decrement"`
}

// CartSelectionRequest changes which lines are selected for checkout.
// Exactly one of the fields is used, in the order All, Toggle, IDs.
type CartSelectionRequest struct {
	All    *bool    `json:"all,omitempty"`
	Toggle string   `json:"toggle,omitempty"`
	IDs    []string `json:"ids,omitempty"`
}

// HandleGetCart handles GET /v1/cart
func HandleGetCart(view *cart.View, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := view.Load(c.Request.Context())
		if err != nil {
			respondError(c, err, logger)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// HandleCartCount handles GET /v1/cart/count
func HandleCartCount(view *cart.View) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"count": view.Count(c.Request.Context())})
	}
}

// HandleAddToCart handles POST /v1/cart/items
func HandleAddToCart(view *cart.View, products *catalog.View, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AddToCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		product, err := products.Product(c.Request.Context(), req.ProductID)
		if err != nil {
			respondError(c, err, logger)
			return
		}

		if err := view.Add(c.Request.Context(), *product, req.Quantity); err != nil {
			respondError(c, err, logger)
			return
		}

		snap, err := view.Load(c.Request.Context())
		if err != nil {
			respondError(c, err, logger)
			return
		}
		c.JSON(http.StatusCreated, snap)
	}
}

// HandleUpdateCartItem handles PATCH /v1/cart/items/:id
func HandleUpdateCartItem(view *cart.View, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		ctx := c.Request.Context()
		id := c.Param("id")
		if err := ensureCartLoaded(ctx, view); err != nil {
			respondError(c, err, logger)
			return
		}

		var err error
		switch {
		case req.Action == "increment":
			err = view.Increment(ctx, id)
		case req.Action == "decrement":
			err = view.Decrement(ctx, id)
		case req.Quantity != nil:
			err = view.SetQuantity(ctx, id, *req.Quantity)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "quantity or action is required"})
			return
		}
		if err != nil {
			respondError(c, err, logger)
			return
		}

		c.JSON(http.StatusOK, view.Snapshot())
	}
}

// HandleRemoveCartItem handles DELETE /v1/cart/items/:id
func HandleRemoveCartItem(view *cart.View, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := ensureCartLoaded(c.Request.Context(), view); err != nil {
			respondError(c, err, logger)
			return
		}
		if err := view.Remove(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err, logger)
			return
		}
		c.JSON(http.StatusOK, view.Snapshot())
	}
}

// HandleCartSelection handles POST /v1/cart/selection
func HandleCartSelection(view *cart.View, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CartSelectionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		if err := ensureCartLoaded(c.Request.Context(), view); err != nil {
			respondError(c, err, logger)
			return
		}

		switch {
		case req.All != nil:
			view.SelectAll(*req.All)
		case req.Toggle != "":
			view.Toggle(req.Toggle)
		default:
			view.SetSelected(req.IDs)
		}
		c.JSON(http.StatusOK, view.Snapshot())
	}
}

// ensureCartLoaded brings the view up to date before line edits, so they work
// before the first GET /v1/cart and never act on a cart another session owns.
// A cart that is still current keeps its selection.
func ensureCartLoaded(ctx context.Context, view *cart.View) error {
	_, err := view.Sync(ctx)
	return err
}
