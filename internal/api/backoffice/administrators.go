// administrators.go implements CRUD handlers for back-office administrator
// accounts.
package backoffice

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/license-office/license-office/internal/auth"
	"github.com/license-office/license-office/internal/config"
	"github.com/license-office/license-office/internal/db/models"
	"github.com/license-office/license-office/internal/db/repositories"
	"github.com/license-office/license-office/internal/validation"
)

// AdministratorHandlers handles administrator management endpoints
type AdministratorHandlers struct {
	cfg       *config.Config
	adminRepo *repositories.AdministratorRepository
}

// NewAdministratorHandlers creates a new AdministratorHandlers instance
func NewAdministratorHandlers(cfg *config.Config, db *sqlx.DB) *AdministratorHandlers {
	return &AdministratorHandlers{
		cfg:       cfg,
		adminRepo: repositories.NewAdministratorRepository(db),
	}
}

// AdministratorRequest represents an administrator create/update payload
type AdministratorRequest struct {
	FirstName      string  `json:"firstName"`
	LastName       string  `json:"lastName"`
	Login          string  `json:"login"`
	Email          string  `json:"email"`
	PasswordSecret *string `json:"passwordSecret"` // base64; nil on update keeps the stored hash
	IsActive       *bool   `json:"isActive"`
}

// @Summary      List administrators
// @Tags         Administrators
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  models.Administrator
// @Router       /api/v1/administrators [get]
// ListAdministratorsHandler lists all administrators
// GET /api/v1/administrators
func (h *AdministratorHandlers) ListAdministratorsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		admins, err := h.adminRepo.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list administrators"})
			return
		}
		c.JSON(http.StatusOK, admins)
	}
}

// @Summary      Get administrator
// @Tags         Administrators
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Administrator ID"
// @Success      200  {object}  models.Administrator
// @Failure      404  {object}  map[string]interface{}  "Administrator not found"
// @Router       /api/v1/administrators/{id} [get]
// GetAdministratorHandler retrieves an administrator by ID
// GET /api/v1/administrators/:id
func (h *AdministratorHandlers) GetAdministratorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		admin, err := h.adminRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve administrator"})
			return
		}
		if admin == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Administrator not found"})
			return
		}
		c.JSON(http.StatusOK, admin)
	}
}

// @Summary      Create administrator
// @Tags         Administrators
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  AdministratorRequest  true  "Administrator fields"
// @Success      201  {object}  models.Administrator
// @Failure      400  {object}  map[string]interface{}  "Missing or malformed fields"
// @Failure      409  {object}  map[string]interface{}  "Login or email already in use"
// @Router       /api/v1/administrators [post]
// CreateAdministratorHandler creates an administrator
// POST /api/v1/administrators
func (h *AdministratorHandlers) CreateAdministratorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AdministratorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if err := validation.ValidateRequiredFields(map[string]string{
			"firstName": req.FirstName,
			"lastName":  req.LastName,
			"login":     req.Login,
			"email":     req.Email,
		}); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.PasswordSecret == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "passwordSecret is required"})
			return
		}

		secret, err := validation.DecodeSecret("passwordSecret", *req.PasswordSecret)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		hash, err := auth.HashPassword(secret)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}

		admin := &models.Administrator{
			FirstName:      req.FirstName,
			LastName:       req.LastName,
			Login:          req.Login,
			Email:          req.Email,
			PasswordSecret: hash,
			IsActive:       true,
		}
		if req.IsActive != nil {
			admin.IsActive = *req.IsActive
		}

		if err := h.adminRepo.Create(c.Request.Context(), admin); err != nil {
			writeRepoError(c, err, "Failed to create administrator")
			return
		}
		c.JSON(http.StatusCreated, admin)
	}
}

// @Summary      Update administrator
// @Tags         Administrators
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                true  "Administrator ID"
// @Param        body  body  AdministratorRequest  true  "Changed fields"
// @Success      200  {object}  models.Administrator
// @Failure      404  {object}  map[string]interface{}  "Administrator not found"
// @Failure      409  {object}  map[string]interface{}  "Login or email already in use"
// @Router       /api/v1/administrators/{id} [put]
// UpdateAdministratorHandler updates an administrator
// PUT /api/v1/administrators/:id
func (h *AdministratorHandlers) UpdateAdministratorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		admin, err := h.adminRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve administrator"})
			return
		}
		if admin == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Administrator not found"})
			return
		}

		var req AdministratorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if req.FirstName != "" {
			admin.FirstName = req.FirstName
		}
		if req.LastName != "" {
			admin.LastName = req.LastName
		}
		if req.Login != "" {
			admin.Login = req.Login
		}
		if req.Email != "" {
			admin.Email = req.Email
		}
		if req.IsActive != nil {
			admin.IsActive = *req.IsActive
		}
		if req.PasswordSecret != nil {
			secret, err := validation.DecodeSecret("passwordSecret", *req.PasswordSecret)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			hash, err := auth.HashPassword(secret)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
				return
			}
			admin.PasswordSecret = hash
		}

		if err := h.adminRepo.Update(c.Request.Context(), admin); err != nil {
			writeRepoError(c, err, "Failed to update administrator")
			return
		}
		c.JSON(http.StatusOK, admin)
	}
}

// @Summary      Delete administrator
// @Tags         Administrators
// @Security     Bearer
// @Param        id  path  string  true  "Administrator ID"
// @Success      204  "Deleted"
// @Failure      404  {object}  map[string]interface{}  "Administrator not found"
// @Router       /api/v1/administrators/{id} [delete]
// DeleteAdministratorHandler deletes an administrator
// DELETE /api/v1/administrators/:id
func (h *AdministratorHandlers) DeleteAdministratorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		admin, err := h.adminRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve administrator"})
			return
		}
		if admin == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Administrator not found"})
			return
		}

		if err := h.adminRepo.Delete(c.Request.Context(), id); err != nil {
			writeRepoError(c, err, "Failed to delete administrator")
			return
		}
		c.Status(http.StatusNoContent)
	}
}
