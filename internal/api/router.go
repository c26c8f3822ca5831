package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/egcartridge/storefront/internal/api/handlers"
	"github.com/egcartridge/storefront/internal/api/middleware"
	"github.com/egcartridge/storefront/internal/config"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, svc *Services, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	checkouts := handlers.NewCheckoutSession(svc.Checkout)

	v1 := router.Group("/v1")
	{
		v1.GET("/catalog", handlers.HandleCatalog(svc.Catalog, logger))
		v1.GET("/products/:id", handlers.HandleGetProduct(svc.Catalog, logger))

		v1.GET("/cart", handlers.HandleGetCart(svc.Cart, logger))
		v1.GET("/cart/count", handlers.HandleCartCount(svc.Cart))
		v1.POST("/cart/items", handlers.HandleAddToCart(svc.Cart, svc.Catalog, logger))
		v1.PATCH("/cart/items/:id", handlers.HandleUpdateCartItem(svc.Cart, logger))
		v1.DELETE("/cart/items/:id", handlers.HandleRemoveCartItem(svc.Cart, logger))
		v1.POST("/cart/selection", handlers.HandleCartSelection(svc.Cart, logger))

		v1.GET("/checkout", handlers.HandleCheckoutState(checkouts))
		v1.POST("/checkout/start", handlers.HandleCheckoutStart(checkouts, svc.Cart, svc.Catalog, logger))
		v1.POST("/checkout/billing", handlers.HandleCheckoutBilling(checkouts, logger))
		v1.POST("/checkout/back", handlers.HandleCheckoutBack(checkouts, logger))
		v1.POST("/checkout/payment", handlers.HandleCheckoutPayment(checkouts, logger))
		v1.POST("/checkout/submit", handlers.HandleCheckoutSubmit(checkouts, logger))

		v1.GET("/orders", handlers.HandleListOrders(svc.Client, svc.Resolver, logger))

		v1.POST("/session/login", handlers.HandleLogin(svc.Resolver, svc.Merger, logger))
		v1.POST("/session/logout", handlers.HandleLogout(svc.Shell, logger))
		v1.GET("/session", handlers.HandleSession(svc.Resolver))
		v1.GET("/notifications", handlers.HandleNotifications(svc.Notes))

		adminRoutes := v1.Group("/admin")
		adminRoutes.Use(middleware.AdminKeyMiddleware(cfg.Admin.KeyHash, logger))
		{
			adminRoutes.GET("/nav", handlers.HandleAdminNav(svc.Shell))
			adminRoutes.GET("/session", handlers.HandleAdminSession(svc.Shell))
			adminRoutes.POST("/logout", handlers.HandleLogout(svc.Shell, logger))
		}
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", middleware.GetRequestID(c)),
		)
	}
}
