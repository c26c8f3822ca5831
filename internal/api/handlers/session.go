package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/egcartridge/storefront/internal/admin"
	"github.com/egcartridge/storefront/internal/auth"
	"github.com/egcartridge/storefront/internal/cart"
	"github.com/egcartridge/storefront/internal/domain"
	"github.com/egcartridge/storefront/internal/notify"
)

// LoginRequest carries the user record and token issued by the platform's sign-in
type LoginRequest struct {
	Token    string      `json:"token" binding:"required"`
	Role     domain.Role `json:"role" binding:"omitempty,oneof=user distributor admin"`
	Username string      `json:"username" binding:"required"`
	Email    string      `json:"email" binding:"omitempty,email"`
}

// HandleLogin handles POST /v1/session/login. When merger is set the guest
// cart is moved into the remote cart right after the credential is stored.
func HandleLogin(resolver *auth.Resolver, merger *cart.Merger, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		ctx := c.Request.Context()
		user := domain.UserRecord{Role: req.Role, Username: req.Username, Email: req.Email}
		cred, err := resolver.Login(ctx, user, req.Token)
		if err != nil {
			respondError(c, err, logger)
			return
		}

		resp := gin.H{"session": resolver.Session(ctx)}
		if merger != nil {
			resp["merge"] = merger.Merge(ctx, cred)
		}
		c.JSON(http.StatusOK, resp)
	}
}

// HandleLogout handles POST /v1/session/logout and POST /v1/admin/logout
func HandleLogout(shell *admin.Shell, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := shell.Logout(c.Request.Context()); err != nil {
			logger.Error("Failed to log out", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log out"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"session": shell.Session(c.Request.Context())})
	}
}

// HandleSession handles GET /v1/session
func HandleSession(resolver *auth.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"session": resolver.Session(c.Request.Context())})
	}
}

// HandleNotifications handles GET /v1/notifications. Returned notifications are forgotten.
func HandleNotifications(notes *notify.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"notifications": notes.Drain()})
	}
}
