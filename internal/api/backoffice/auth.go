// auth.go implements the administrator login endpoint. Passwords travel
// base64-encoded and are compared against the stored bcrypt hash; the
// response carries an HS256 JWT accepted by the auth middleware.
package backoffice

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/license-office/license-office/internal/auth"
	"github.com/license-office/license-office/internal/config"
	"github.com/license-office/license-office/internal/db/repositories"
	"github.com/license-office/license-office/internal/telemetry"
	"github.com/license-office/license-office/internal/validation"
)

// AuthHandlers handles authentication endpoints
type AuthHandlers struct {
	cfg       *config.Config
	adminRepo *repositories.AdministratorRepository
}

// NewAuthHandlers creates a new AuthHandlers instance
func NewAuthHandlers(cfg *config.Config, db *sqlx.DB) *AuthHandlers {
	return &AuthHandlers{
		cfg:       cfg,
		adminRepo: repositories.NewAdministratorRepository(db),
	}
}

// LoginRequest represents an administrator login request
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"` // base64-encoded
}

// @Summary      Administrator login
// @Description  Exchange administrator credentials for a Bearer token.
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        body  body  LoginRequest  true  "Login and base64-encoded password"
// @Success      200  {object}  map[string]interface{}  "token, expires_at"
// @Failure      400  {object}  map[string]interface{}  "Malformed request"
// @Failure      401  {object}  map[string]interface{}  "Invalid credentials"
// @Router       /api/v1/auth/login [post]
// LoginHandler authenticates an administrator
// POST /api/v1/auth/login
func (h *AuthHandlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "login and password are required"})
			return
		}

		secret, err := validation.DecodeSecret("password", req.Password)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		admin, err := h.adminRepo.GetByLogin(c.Request.Context(), req.Login)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up administrator"})
			return
		}

		// Unknown login, inactive account, and wrong password all collapse
		// into the same 401 so the endpoint does not leak which logins exist.
		if admin == nil || !admin.IsActive || !auth.CheckPassword(admin.PasswordSecret, secret) {
			telemetry.LoginAttemptsTotal.WithLabelValues("failure").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		ttl := h.cfg.Auth.TokenTTL
		token, err := auth.GenerateJWT(admin.ID, admin.Login, ttl)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
			return
		}

		telemetry.LoginAttemptsTotal.WithLabelValues("success").Inc()
		c.JSON(http.StatusOK, gin.H{
			"token":      token,
			"expires_at": time.Now().Add(ttl).UTC(),
		})
	}
}
