// auth.go validates administrator Bearer tokens. Every /api/v1 route except
// login runs behind this middleware.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/license-office/license-office/internal/auth"
	"github.com/license-office/license-office/internal/db/repositories"
)

// AuthMiddleware validates the administrator JWT and loads the administrator
// into the request context under "admin" and "admin_id".
func AuthMiddleware(adminRepo *repositories.AdministratorRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing authorization header",
			})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header must start with 'Bearer '",
			})
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token is empty",
			})
			return
		}

		claims, err := auth.ValidateJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid credentials",
			})
			return
		}

		admin, err := adminRepo.GetByID(c.Request.Context(), claims.AdminID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to load administrator",
			})
			return
		}

		// A token outlives the administrator row it was minted for; deleted or
		// deactivated administrators lose access immediately.
		if admin == nil || !admin.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Administrator not found or inactive",
			})
			return
		}

		c.Set("admin", admin)
		c.Set("admin_id", admin.ID)

		c.Next()
	}
}
