// users.go implements CRUD handlers for customer portal users. The
// customer_id reference is existence-checked before any write so a bad
// reference reads as a client mistake (400), not a missing resource.
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

// UserHandlers handles user management endpoints
type UserHandlers struct {
	cfg          *config.Config
	userRepo     *repositories.UserRepository
	customerRepo *repositories.CustomerRepository
}

// NewUserHandlers creates a new UserHandlers instance
func NewUserHandlers(cfg *config.Config, db *sqlx.DB) *UserHandlers {
	return &UserHandlers{
		cfg:          cfg,
		userRepo:     repositories.NewUserRepository(db),
		customerRepo: repositories.NewCustomerRepository(db),
	}
}

// UserRequest represents a user create/update payload
type UserRequest struct {
	CustomerID     string  `json:"customerId"`
	FirstName      string  `json:"firstName"`
	LastName       string  `json:"lastName"`
	Login          string  `json:"login"`
	Email          string  `json:"email"`
	PasswordSecret *string `json:"passwordSecret"` // base64; nil on update keeps the stored hash
	IsActive       *bool   `json:"isActive"`
}

// checkCustomerExists pre-checks a customer reference. Writes the 400
// response and returns false when the customer is missing.
func (h *UserHandlers) checkCustomerExists(c *gin.Context, customerID string) bool {
	customer, err := h.customerRepo.GetByID(c.Request.Context(), customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify customer"})
		return false
	}
	if customer == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customerId does not reference an existing customer"})
		return false
	}
	return true
}

// ListUsersHandler lists all users
// GET /api/v1/users
func (h *UserHandlers) ListUsersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := h.userRepo.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
			return
		}
		c.JSON(http.StatusOK, users)
	}
}

// GetUserHandler retrieves a user by ID
// GET /api/v1/users/:id
func (h *UserHandlers) GetUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		user, err := h.userRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
			return
		}
		if user == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// @Summary      Create user
// @Tags         Users
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  UserRequest  true  "User fields"
// @Success      201  {object}  models.User
// @Failure      400  {object}  map[string]interface{}  "Missing fields or unknown customer"
// @Failure      409  {object}  map[string]interface{}  "Login or email already in use"
// @Router       /api/v1/users [post]
// CreateUserHandler creates a user
// POST /api/v1/users
func (h *UserHandlers) CreateUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if err := validation.ValidateRequiredFields(map[string]string{
			"customerId": req.CustomerID,
			"firstName":  req.FirstName,
			"lastName":   req.LastName,
			"login":      req.Login,
			"email":      req.Email,
		}); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := validation.ValidateUUID("customerId", req.CustomerID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.PasswordSecret == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "passwordSecret is required"})
			return
		}

		if !h.checkCustomerExists(c, req.CustomerID) {
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

		user := &models.User{
			CustomerID:     req.CustomerID,
			FirstName:      req.FirstName,
			LastName:       req.LastName,
			Login:          req.Login,
			Email:          req.Email,
			PasswordSecret: hash,
			IsActive:       true,
		}
		if req.IsActive != nil {
			user.IsActive = *req.IsActive
		}

		if err := h.userRepo.Create(c.Request.Context(), user); err != nil {
			writeRepoError(c, err, "Failed to create user")
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

// UpdateUserHandler updates a user
// PUT /api/v1/users/:id
func (h *UserHandlers) UpdateUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		user, err := h.userRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
			return
		}
		if user == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		var req UserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if req.CustomerID != "" && req.CustomerID != user.CustomerID {
			if err := validation.ValidateUUID("customerId", req.CustomerID); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if !h.checkCustomerExists(c, req.CustomerID) {
				return
			}
			user.CustomerID = req.CustomerID
		}
		if req.FirstName != "" {
			user.FirstName = req.FirstName
		}
		if req.LastName != "" {
			user.LastName = req.LastName
		}
		if req.Login != "" {
			user.Login = req.Login
		}
		if req.Email != "" {
			user.Email = req.Email
		}
		if req.IsActive != nil {
			user.IsActive = *req.IsActive
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
			user.PasswordSecret = hash
		}

		if err := h.userRepo.Update(c.Request.Context(), user); err != nil {
			writeRepoError(c, err, "Failed to update user")
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// DeleteUserHandler deletes a user
// DELETE /api/v1/users/:id
func (h *UserHandlers) DeleteUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		user, err := h.userRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
			return
		}
		if user == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		if err := h.userRepo.Delete(c.Request.Context(), id); err != nil {
			writeRepoError(c, err, "Failed to delete user")
			return
		}
		c.Status(http.StatusNoContent)
	}
}
