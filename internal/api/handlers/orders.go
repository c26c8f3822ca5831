package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/egcartridge/storefront/internal/domain"
	"github.com/egcartridge/storefront/pkg/errors"
)

type OrderLister interface {
	GetOrders(ctx context.Context, cred domain.Credential) ([]domain.Order, error)
}

type CredentialResolver interface {
	Resolve(ctx context.Context) domain.Credential
}

// HandleListOrders handles GET /v1/orders
func HandleListOrders(orders OrderLister, resolver CredentialResolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		cred := resolver.Resolve(c.Request.Context())
		if cred.IsNone() {
			respondError(c, &errors.ErrUnauthorized{Message: "sign in to view your orders"}, logger)
			return
		}

		list, err := orders.GetOrders(c.Request.Context(), cred)
		if err != nil {
			logger.Error("Failed to list orders", zap.Error(err))
			respondError(c, err, logger)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"orders": list,
			"count":  len(list),
		})
	}
}
