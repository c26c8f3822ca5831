package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/egcartridge/storefront/internal/lifecycle"
	"github.com/egcartridge/storefront/pkg/errors"
)

// respondError maps a domain error to a status code and a shopper-facing message
func respondError(c *gin.Context, err error, logger *zap.Logger) {
	var (
		notFound   *errors.ErrNotFound
		validation *errors.ErrValidation
		unauth     *errors.ErrUnauthorized
		apiErr     *errors.ErrAPI
		step       *errors.ErrInvalidStep
	)

	switch {
	case stderrors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": validation.Message, "field": validation.Field})
	case stderrors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case stderrors.As(err, &unauth):
		c.JSON(http.StatusUnauthorized, gin.H{"error": unauth.Error()})
	case stderrors.As(err, &step):
		c.JSON(http.StatusConflict, gin.H{"error": step.Error()})
	case stderrors.Is(err, errors.ErrCheckoutInFlight), stderrors.Is(err, errors.ErrNoCheckout):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case stderrors.Is(err, errors.ErrEmptySelection), stderrors.Is(err, errors.ErrPaymentMethodRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case stderrors.As(err, &apiErr):
		status := http.StatusBadGateway
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			status = apiErr.Status
		}
		c.JSON(status, gin.H{"error": errors.UserMessage(err)})
	case stderrors.Is(err, lifecycle.ErrClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "view closed"})
	default:
		logger.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": errors.UserMessage(err)})
	}
}

// bindError reports a malformed request body
func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error":   "validation failed",
		"details": err.Error(),
	})
}
