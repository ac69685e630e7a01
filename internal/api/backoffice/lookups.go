// lookups.go exposes the seeded lookup tables read-only. The rows are
// managed by migrations, not by the API.
package backoffice

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/license-office/license-office/internal/config"
	"github.com/license-office/license-office/internal/db/repositories"
)

// LookupHandlers handles the read-only lookup endpoints
type LookupHandlers struct {
	cfg        *config.Config
	lookupRepo *repositories.LookupRepository
}

// NewLookupHandlers creates a new LookupHandlers instance
func NewLookupHandlers(cfg *config.Config, db *sqlx.DB) *LookupHandlers {
	return &LookupHandlers{
		cfg:        cfg,
		lookupRepo: repositories.NewLookupRepository(db),
	}
}

// ListLicenseTypesHandler lists the seeded license types
// GET /api/v1/license-types
func (h *LookupHandlers) ListLicenseTypesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		types, err := h.lookupRepo.ListTypes(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list license types"})
			return
		}
		c.JSON(http.StatusOK, types)
	}
}

// ListLicenseStatusesHandler lists the seeded license statuses
// GET /api/v1/license-statuses
func (h *LookupHandlers) ListLicenseStatusesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		statuses, err := h.lookupRepo.ListStatuses(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list license statuses"})
			return
		}
		c.JSON(http.StatusOK, statuses)
	}
}

// ListLicenseActionsHandler lists the seeded license actions
// GET /api/v1/license-actions
func (h *LookupHandlers) ListLicenseActionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actions, err := h.lookupRepo.ListActions(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list license actions"})
			return
		}
		c.JSON(http.StatusOK, actions)
	}
}
