// licenses.go implements CRUD handlers for licenses, the lifecycle
// endpoints (request-activation, activate, deactivate, retire), and the
// audit history listing.
package backoffice

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/license-office/license-office/internal/config"
	"github.com/license-office/license-office/internal/db/models"
	"github.com/license-office/license-office/internal/db/repositories"
	"github.com/license-office/license-office/internal/services"
	"github.com/license-office/license-office/internal/validation"
)

// LicenseHandlers handles license management and lifecycle endpoints
type LicenseHandlers struct {
	cfg         *config.Config
	licenseRepo *repositories.LicenseRepository
	lookupRepo  *repositories.LookupRepository
	auditRepo   *repositories.AuditRepository
	lifecycle   *services.LicenseLifecycle
}

// NewLicenseHandlers creates a new LicenseHandlers instance
func NewLicenseHandlers(cfg *config.Config, db *sqlx.DB) *LicenseHandlers {
	licenseRepo := repositories.NewLicenseRepository(db)
	serverRepo := repositories.NewServerRepository(db)
	lookupRepo := repositories.NewLookupRepository(db)
	return &LicenseHandlers{
		cfg:         cfg,
		licenseRepo: licenseRepo,
		lookupRepo:  lookupRepo,
		auditRepo:   repositories.NewAuditRepository(db),
		lifecycle:   services.NewLicenseLifecycle(licenseRepo, serverRepo, lookupRepo),
	}
}

// LicenseRequest represents a license create/update payload
type LicenseRequest struct {
	UniqueID     string  `json:"uniqueId"` // optional on create, ignored on update
	ExternalName *string `json:"externalName"`
	TypeID       string  `json:"typeId"`
	StatusID     string  `json:"statusId"` // optional; defaults to Available on create
}

// LifecycleRequest represents the shared payload of the lifecycle endpoints
type LifecycleRequest struct {
	ServerID    string  `json:"serverId"`    // request-activation: nominate by row id
	Fingerprint string  `json:"fingerprint"` // request-activation: or by base64 fingerprint
	CustomerID  *string `json:"customerId"`  // request-activation: optional ownership scope
	Comment     *string `json:"comment"`
}

// checkTypeExists pre-checks a license type reference
func (h *LicenseHandlers) checkTypeExists(c *gin.Context, typeID string) bool {
	lt, err := h.lookupRepo.GetTypeByID(c.Request.Context(), typeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify license type"})
		return false
	}
	if lt == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "typeId does not reference an existing license type"})
		return false
	}
	return true
}

// updatedBy returns the authenticated administrator's id, when present
func updatedBy(c *gin.Context) *string {
	if adminID, exists := c.Get("admin_id"); exists {
		if id, ok := adminID.(string); ok && id != "" {
			return &id
		}
	}
	return nil
}

// ListLicensesHandler lists all licenses
// GET /api/v1/licenses
func (h *LicenseHandlers) ListLicensesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		licenses, err := h.licenseRepo.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list licenses"})
			return
		}
		c.JSON(http.StatusOK, licenses)
	}
}

// GetLicenseHandler retrieves a license by ID
// GET /api/v1/licenses/:id
func (h *LicenseHandlers) GetLicenseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		license, err := h.licenseRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve license"})
			return
		}
		if license == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "License not found"})
			return
		}
		c.JSON(http.StatusOK, license)
	}
}

// @Summary      Create license
// @Description  Create a standalone license. New licenses start in the Available status unless a statusId is supplied.
// @Tags         Licenses
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  LicenseRequest  true  "License fields"
// @Success      201  {object}  models.License
// @Failure      400  {object}  map[string]interface{}  "Missing fields or unknown type/status"
// @Failure      409  {object}  map[string]interface{}  "uniqueId already in use"
// @Router       /api/v1/licenses [post]
// CreateLicenseHandler creates a license
// POST /api/v1/licenses
func (h *LicenseHandlers) CreateLicenseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LicenseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if err := validation.ValidateRequired("typeId", req.TypeID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !h.checkTypeExists(c, req.TypeID) {
			return
		}

		statusID := req.StatusID
		if statusID == "" {
			status, err := h.lookupRepo.GetStatusByName(c.Request.Context(), models.StatusAvailable)
			if err != nil || status == nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve default status"})
				return
			}
			statusID = status.ID
		} else {
			status, err := h.lookupRepo.GetStatusByID(c.Request.Context(), statusID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify license status"})
				return
			}
			if status == nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "statusId does not reference an existing license status"})
				return
			}
		}

		license := &models.License{
			UniqueID:     req.UniqueID,
			ExternalName: req.ExternalName,
			TypeID:       req.TypeID,
			StatusID:     statusID,
		}

		if err := h.licenseRepo.Create(c.Request.Context(), license); err != nil {
			writeRepoError(c, err, "Failed to create license")
			return
		}

		// The creation itself gets an audit row so the history starts at the
		// first state, not at the first transition.
		audit := &models.LicenseAudit{
			LicenseIDRef:    license.ID,
			UniqueID:        &license.UniqueID,
			ExternalName:    license.ExternalName,
			LicenseStatusID: license.StatusID,
			TypeID:          license.TypeID,
			UpdatedBy:       updatedBy(c),
		}
		if err := h.auditRepo.Create(c.Request.Context(), audit); err != nil {
			slog.Warn("failed to record license creation audit",
				"license_id", license.ID, "error", err)
		}

		c.JSON(http.StatusCreated, license)
	}
}

// UpdateLicenseHandler updates a license. uniqueId is immutable and ignored.
// PUT /api/v1/licenses/:id
func (h *LicenseHandlers) UpdateLicenseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		license, err := h.licenseRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve license"})
			return
		}
		if license == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "License not found"})
			return
		}

		var req LicenseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if req.ExternalName != nil {
			license.ExternalName = req.ExternalName
		}
		if req.TypeID != "" && req.TypeID != license.TypeID {
			if !h.checkTypeExists(c, req.TypeID) {
				return
			}
			license.TypeID = req.TypeID
		}
		if req.StatusID != "" && req.StatusID != license.StatusID {
			status, err := h.lookupRepo.GetStatusByID(c.Request.Context(), req.StatusID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify license status"})
				return
			}
			if status == nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "statusId does not reference an existing license status"})
				return
			}
			license.StatusID = req.StatusID
		}

		if err := h.licenseRepo.Update(c.Request.Context(), license); err != nil {
			writeRepoError(c, err, "Failed to update license")
			return
		}
		c.JSON(http.StatusOK, license)
	}
}

// DeleteLicenseHandler deletes a license
// DELETE /api/v1/licenses/:id
func (h *LicenseHandlers) DeleteLicenseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		license, err := h.licenseRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve license"})
			return
		}
		if license == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "License not found"})
			return
		}

		if err := h.licenseRepo.Delete(c.Request.Context(), id); err != nil {
			writeRepoError(c, err, "Failed to delete license")
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary      Request license activation
// @Description  Nominate a server (by id or base64 fingerprint) for a license. Moves the license to Activation Requested.
// @Tags         Licenses
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string            true  "License ID"
// @Param        body  body  LifecycleRequest  true  "Server reference and optional customer scope"
// @Success      200  {object}  models.License
// @Failure      400  {object}  map[string]interface{}  "Unknown server or wrong customer"
// @Failure      404  {object}  map[string]interface{}  "License not found"
// @Failure      409  {object}  map[string]interface{}  "License state does not permit the request"
// @Router       /api/v1/licenses/{id}/request-activation [post]
// RequestActivationHandler nominates a server for activation
// POST /api/v1/licenses/:id/request-activation
func (h *LicenseHandlers) RequestActivationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		var req LifecycleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		ref := services.ServerRef{ID: req.ServerID}
		if req.ServerID == "" {
			if req.Fingerprint == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "serverId or fingerprint is required"})
				return
			}
			fingerprint, err := validation.DecodeSecret("fingerprint", req.Fingerprint)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ref.Fingerprint = fingerprint
		}

		license, err := h.lifecycle.RequestActivation(c.Request.Context(), id, ref, req.CustomerID, updatedBy(c), req.Comment)
		if err != nil {
			h.writeLifecycleError(c, err)
			return
		}
		c.JSON(http.StatusOK, license)
	}
}

// @Summary      Activate license
// @Description  Complete a requested activation. Business refusals come back as 200 with ok=false.
// @Tags         Licenses
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string            true  "License ID"
// @Param        body  body  LifecycleRequest  true  "Optional comment"
// @Success      200  {object}  services.ActivationResult
// @Failure      404  {object}  map[string]interface{}  "License not found"
// @Router       /api/v1/licenses/{id}/activate [post]
// ActivateHandler completes a requested activation
// POST /api/v1/licenses/:id/activate
func (h *LicenseHandlers) ActivateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		var req LifecycleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		result, err := h.lifecycle.Activate(c.Request.Context(), id, updatedBy(c), req.Comment)
		if err != nil {
			h.writeLifecycleError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// DeactivateHandler releases a license back to Available
// POST /api/v1/licenses/:id/deactivate
func (h *LicenseHandlers) DeactivateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		var req LifecycleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		license, err := h.lifecycle.Deactivate(c.Request.Context(), id, updatedBy(c), req.Comment)
		if err != nil {
			h.writeLifecycleError(c, err)
			return
		}
		c.JSON(http.StatusOK, license)
	}
}

// RetireHandler moves a license to the terminal Deactivated status
// POST /api/v1/licenses/:id/retire
func (h *LicenseHandlers) RetireHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		var req LifecycleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		license, err := h.lifecycle.Retire(c.Request.Context(), id, updatedBy(c), req.Comment)
		if err != nil {
			h.writeLifecycleError(c, err)
			return
		}
		c.JSON(http.StatusOK, license)
	}
}

// @Summary      License audit history
// @Description  List the audit rows for a license, newest first.
// @Tags         Licenses
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "License ID"
// @Success      200  {array}  models.LicenseAudit
// @Failure      404  {object}  map[string]interface{}  "License not found"
// @Router       /api/v1/licenses/{id}/audits [get]
// ListLicenseAuditsHandler lists a license's audit history
// GET /api/v1/licenses/:id/audits
func (h *LicenseHandlers) ListLicenseAuditsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		license, err := h.licenseRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve license"})
			return
		}
		if license == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "License not found"})
			return
		}

		audits, err := h.auditRepo.ListByLicense(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list audit entries"})
			return
		}
		c.JSON(http.StatusOK, audits)
	}
}

// ListAuditsHandler lists audit entries across all licenses, read-only,
// optionally filtered to one license
// GET /api/v1/license-audits?licenseId=...
func (h *LicenseHandlers) ListAuditsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			audits []*models.LicenseAudit
			err    error
		)
		if licenseID := c.Query("licenseId"); licenseID != "" {
			if uuidErr := validation.ValidateUUID("licenseId", licenseID); uuidErr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": uuidErr.Error()})
				return
			}
			audits, err = h.auditRepo.ListByLicense(c.Request.Context(), licenseID)
		} else {
			audits, err = h.auditRepo.List(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list audit entries"})
			return
		}
		c.JSON(http.StatusOK, audits)
	}
}

// writeLifecycleError maps lifecycle service errors onto the package's
// status conventions
func (h *LicenseHandlers) writeLifecycleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrLicenseNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "License not found"})
	case errors.Is(err, services.ErrServerNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": "The referenced server does not exist"})
	case errors.Is(err, services.ErrServerNotOwned):
		c.JSON(http.StatusBadRequest, gin.H{"error": "The server does not belong to the given customer"})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "License operation failed"})
	}
}
