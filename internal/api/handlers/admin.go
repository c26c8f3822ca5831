package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/egcartridge/storefront/internal/admin"
)

// HandleAdminNav handles GET /v1/admin/nav?current=/admin/orders
func HandleAdminNav(shell *admin.Shell) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"items": shell.Nav(c.DefaultQuery("current", "/admin"))})
	}
}

// HandleAdminSession handles GET /v1/admin/session
func HandleAdminSession(shell *admin.Shell) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"session": shell.Session(c.Request.Context())})
	}
}
