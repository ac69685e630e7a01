// servers.go implements CRUD handlers for customer servers. Fingerprints
// arrive base64-encoded, are stored as raw bytes, and never appear in
// responses.
package backoffice

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/license-office/license-office/internal/config"
	"github.com/license-office/license-office/internal/db/models"
	"github.com/license-office/license-office/internal/db/repositories"
	"github.com/license-office/license-office/internal/validation"
)

// ServerHandlers handles server management endpoints
type ServerHandlers struct {
	cfg          *config.Config
	serverRepo   *repositories.ServerRepository
	customerRepo *repositories.CustomerRepository
}

// NewServerHandlers creates a new ServerHandlers instance
func NewServerHandlers(cfg *config.Config, db *sqlx.DB) *ServerHandlers {
	return &ServerHandlers{
		cfg:          cfg,
		serverRepo:   repositories.NewServerRepository(db),
		customerRepo: repositories.NewCustomerRepository(db),
	}
}

// ServerRequest represents a server create/update payload
type ServerRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Fingerprint *string `json:"fingerprint"` // base64; nil on update keeps the stored bytes
	CustomerID  *string `json:"customerId"`
	IsActive    *bool   `json:"isActive"`
}

// ListServersHandler lists all servers
// GET /api/v1/servers
func (h *ServerHandlers) ListServersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		servers, err := h.serverRepo.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list servers"})
			return
		}
		c.JSON(http.StatusOK, servers)
	}
}

// GetServerHandler retrieves a server by ID
// GET /api/v1/servers/:id
func (h *ServerHandlers) GetServerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		server, err := h.serverRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve server"})
			return
		}
		if server == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Server not found"})
			return
		}
		c.JSON(http.StatusOK, server)
	}
}

// @Summary      Create server
// @Tags         Servers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  ServerRequest  true  "Server fields; fingerprint is base64"
// @Success      201  {object}  models.Server
// @Failure      400  {object}  map[string]interface{}  "Missing fields, bad base64, or unknown customer"
// @Failure      409  {object}  map[string]interface{}  "Name or fingerprint already registered"
// @Router       /api/v1/servers [post]
// CreateServerHandler creates a server
// POST /api/v1/servers
func (h *ServerHandlers) CreateServerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ServerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if err := validation.ValidateRequired("name", req.Name); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Fingerprint == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "fingerprint is required"})
			return
		}

		fingerprint, err := validation.DecodeSecret("fingerprint", *req.Fingerprint)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if req.CustomerID != nil {
			if err := validation.ValidateUUID("customerId", *req.CustomerID); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			customer, err := h.customerRepo.GetByID(c.Request.Context(), *req.CustomerID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify customer"})
				return
			}
			if customer == nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "customerId does not reference an existing customer"})
				return
			}
		}

		server := &models.Server{
			Name:        req.Name,
			Description: req.Description,
			Fingerprint: fingerprint,
			CustomerID:  req.CustomerID,
			IsActive:    true,
		}
		if req.IsActive != nil {
			server.IsActive = *req.IsActive
		}

		if err := h.serverRepo.Create(c.Request.Context(), server); err != nil {
			writeRepoError(c, err, "Failed to create server")
			return
		}
		c.JSON(http.StatusCreated, server)
	}
}

// UpdateServerHandler updates a server
// PUT /api/v1/servers/:id
func (h *ServerHandlers) UpdateServerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		server, err := h.serverRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve server"})
			return
		}
		if server == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Server not found"})
			return
		}

		var req ServerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if req.Name != "" {
			server.Name = req.Name
		}
		if req.Description != nil {
			server.Description = req.Description
		}
		if req.IsActive != nil {
			server.IsActive = *req.IsActive
		}
		if req.Fingerprint != nil {
			fingerprint, err := validation.DecodeSecret("fingerprint", *req.Fingerprint)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			server.Fingerprint = fingerprint
		}
		if req.CustomerID != nil {
			if err := validation.ValidateUUID("customerId", *req.CustomerID); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			customer, err := h.customerRepo.GetByID(c.Request.Context(), *req.CustomerID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify customer"})
				return
			}
			if customer == nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "customerId does not reference an existing customer"})
				return
			}
			server.CustomerID = req.CustomerID
		}

		if err := h.serverRepo.Update(c.Request.Context(), server); err != nil {
			writeRepoError(c, err, "Failed to update server")
			return
		}
		c.JSON(http.StatusOK, server)
	}
}

// DeleteServerHandler deletes a server
// DELETE /api/v1/servers/:id
func (h *ServerHandlers) DeleteServerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		server, err := h.serverRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve server"})
			return
		}
		if server == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Server not found"})
			return
		}

		if err := h.serverRepo.Delete(c.Request.Context(), id); err != nil {
			writeRepoError(c, err, "Failed to delete server")
			return
		}
		c.Status(http.StatusNoContent)
	}
}
