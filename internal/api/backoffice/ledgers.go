// ledgers.go implements CRUD handlers for the legacy license activity
// ledger. Every foreign reference is existence-checked before the write so
// a bad reference reads as a client mistake (400).
package backoffice

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/license-office/license-office/internal/config"
	"github.com/license-office/license-office/internal/db/models"
	"github.com/license-office/license-office/internal/db/repositories"
	"github.com/license-office/license-office/internal/validation"
)

// LedgerHandlers handles license ledger endpoints
type LedgerHandlers struct {
	cfg         *config.Config
	ledgerRepo  *repositories.LedgerRepository
	licenseRepo *repositories.LicenseRepository
	serverRepo  *repositories.ServerRepository
	lookupRepo  *repositories.LookupRepository
}

// NewLedgerHandlers creates a new LedgerHandlers instance
func NewLedgerHandlers(cfg *config.Config, db *sqlx.DB) *LedgerHandlers {
	return &LedgerHandlers{
		cfg:         cfg,
		ledgerRepo:  repositories.NewLedgerRepository(db),
		licenseRepo: repositories.NewLicenseRepository(db),
		serverRepo:  repositories.NewServerRepository(db),
		lookupRepo:  repositories.NewLookupRepository(db),
	}
}

// LedgerRequest represents a ledger entry create/update payload
type LedgerRequest struct {
	LicenseID       string     `json:"licenseId"`
	ServerID        *string    `json:"serverId"`
	ActivityDate    *time.Time `json:"activityDate"` // defaults to now on create
	LicenseActionID string     `json:"licenseActionId"`
	Comment         *string    `json:"comment"`
	ExpirationDate  *time.Time `json:"expirationDate"`
}

// checkLedgerRefs verifies the license, action, and optional server
// references. Writes the error response and returns false on failure.
func (h *LedgerHandlers) checkLedgerRefs(c *gin.Context, licenseID, actionID string, serverID *string) bool {
	license, err := h.licenseRepo.GetByID(c.Request.Context(), licenseID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify license"})
		return false
	}
	if license == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "licenseId does not reference an existing license"})
		return false
	}

	action, err := h.lookupRepo.GetActionByID(c.Request.Context(), actionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify license action"})
		return false
	}
	if action == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "licenseActionId does not reference an existing license action"})
		return false
	}

	if serverID != nil {
		server, err := h.serverRepo.GetByID(c.Request.Context(), *serverID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify server"})
			return false
		}
		if server == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "serverId does not reference an existing server"})
			return false
		}
	}

	return true
}

// ListLedgersHandler lists ledger entries, newest activity first
// GET /api/v1/license-ledgers
func (h *LedgerHandlers) ListLedgersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := h.ledgerRepo.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list ledger entries"})
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}

// GetLedgerHandler retrieves a ledger entry by ID
// GET /api/v1/license-ledgers/:id
func (h *LedgerHandlers) GetLedgerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		entry, err := h.ledgerRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve ledger entry"})
			return
		}
		if entry == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Ledger entry not found"})
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

// @Summary      Create ledger entry
// @Tags         Ledgers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  LedgerRequest  true  "Ledger entry fields"
// @Success      201  {object}  models.LicenseLedger
// @Failure      400  {object}  map[string]interface{}  "Missing fields or unknown reference"
// @Router       /api/v1/license-ledgers [post]
// CreateLedgerHandler creates a ledger entry
// POST /api/v1/license-ledgers
func (h *LedgerHandlers) CreateLedgerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LedgerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if err := validation.ValidateRequiredFields(map[string]string{
			"licenseId":       req.LicenseID,
			"licenseActionId": req.LicenseActionID,
		}); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !h.checkLedgerRefs(c, req.LicenseID, req.LicenseActionID, req.ServerID) {
			return
		}

		entry := &models.LicenseLedger{
			LicenseID:       req.LicenseID,
			ServerID:        req.ServerID,
			ActivityDate:    time.Now(),
			LicenseActionID: req.LicenseActionID,
			Comment:         req.Comment,
			ExpirationDate:  req.ExpirationDate,
		}
		if req.ActivityDate != nil {
			entry.ActivityDate = *req.ActivityDate
		}

		if err := h.ledgerRepo.Create(c.Request.Context(), entry); err != nil {
			writeRepoError(c, err, "Failed to create ledger entry")
			return
		}
		c.JSON(http.StatusCreated, entry)
	}
}

// UpdateLedgerHandler updates a ledger entry
// PUT /api/v1/license-ledgers/:id
func (h *LedgerHandlers) UpdateLedgerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		entry, err := h.ledgerRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve ledger entry"})
			return
		}
		if entry == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Ledger entry not found"})
			return
		}

		var req LedgerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if req.LicenseID != "" {
			entry.LicenseID = req.LicenseID
		}
		if req.LicenseActionID != "" {
			entry.LicenseActionID = req.LicenseActionID
		}
		if req.ServerID != nil {
			entry.ServerID = req.ServerID
		}
		if req.ActivityDate != nil {
			entry.ActivityDate = *req.ActivityDate
		}
		if req.Comment != nil {
			entry.Comment = req.Comment
		}
		if req.ExpirationDate != nil {
			entry.ExpirationDate = req.ExpirationDate
		}

		if !h.checkLedgerRefs(c, entry.LicenseID, entry.LicenseActionID, entry.ServerID) {
			return
		}

		if err := h.ledgerRepo.Update(c.Request.Context(), entry); err != nil {
			writeRepoError(c, err, "Failed to update ledger entry")
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

// DeleteLedgerHandler deletes a ledger entry
// DELETE /api/v1/license-ledgers/:id
func (h *LedgerHandlers) DeleteLedgerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		entry, err := h.ledgerRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve ledger entry"})
			return
		}
		if entry == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Ledger entry not found"})
			return
		}

		if err := h.ledgerRepo.Delete(c.Request.Context(), id); err != nil {
			writeRepoError(c, err, "Failed to delete ledger entry")
			return
		}
		c.Status(http.StatusNoContent)
	}
}
