// Package backoffice implements the administrative HTTP handlers for the
// license back office. All routes except login run behind the Bearer-token
// middleware (see internal/middleware/auth.go).
//
// Status conventions shared by every handler in this package:
//   - missing/malformed input, failed FK pre-check → 400
//   - unknown id on read/update/delete → 404
//   - unique collision, delete blocked by references → 409
//   - repository failure → 500
package backoffice

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/license-office/license-office/internal/db/repositories"
	"github.com/license-office/license-office/internal/validation"
)

// writeRepoError maps a repository write error to a response. Constraint
// violations that survive the pre-checks are races lost to a concurrent
// writer and surface as 409, naming the blocking constraint when the
// driver reported one.
func writeRepoError(c *gin.Context, err error, internalMsg string) {
	var ce *repositories.ConstraintError
	errors.As(err, &ce)

	switch {
	case repositories.IsUniqueViolation(err):
		msg := "A record with the same unique value already exists"
		if ce != nil && ce.Constraint != "" {
			msg += " (constraint " + ce.Constraint + ")"
		}
		c.JSON(http.StatusConflict, gin.H{"error": msg})
	case repositories.IsForeignKeyViolation(err):
		msg := "The record is referenced by other records"
		if ce != nil && ce.Table != "" {
			msg = "The record is referenced by rows in " + ce.Table
		}
		if ce != nil && ce.Constraint != "" {
			msg += " (constraint " + ce.Constraint + ")"
		}
		c.JSON(http.StatusConflict, gin.H{"error": msg})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": internalMsg,
		})
	}
}

// requireUUIDParam validates the :id path parameter. Returns the id and true
// when well-formed; writes the 400 response and returns false otherwise.
func requireUUIDParam(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if err := validation.ValidateUUID("id", id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return id, true
}
