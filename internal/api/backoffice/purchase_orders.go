// purchase_orders.go implements CRUD handlers for purchase orders and the
// join endpoints that attach licenses to an order with a contracted duration.
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

// PurchaseOrderHandlers handles purchase order endpoints
type PurchaseOrderHandlers struct {
	cfg          *config.Config
	poRepo       *repositories.PurchaseOrderRepository
	customerRepo *repositories.CustomerRepository
	licenseRepo  *repositories.LicenseRepository
	lookupRepo   *repositories.LookupRepository
}

// NewPurchaseOrderHandlers creates a new PurchaseOrderHandlers instance
func NewPurchaseOrderHandlers(cfg *config.Config, db *sqlx.DB) *PurchaseOrderHandlers {
	return &PurchaseOrderHandlers{
		cfg:          cfg,
		poRepo:       repositories.NewPurchaseOrderRepository(db),
		customerRepo: repositories.NewCustomerRepository(db),
		licenseRepo:  repositories.NewLicenseRepository(db),
		lookupRepo:   repositories.NewLookupRepository(db),
	}
}

// PurchaseOrderRequest represents a purchase order create/update payload
type PurchaseOrderRequest struct {
	PoName       string     `json:"poName"`
	PurchaseDate *time.Time `json:"purchaseDate"`
	CustomerID   string     `json:"customerId"`
	IsClosed     *bool      `json:"isClosed"`
}

// AttachLicenseRequest attaches a license to a purchase order. Set licenseId
// to link an existing license; leave it empty to create a new one inline.
type AttachLicenseRequest struct {
	LicenseID    string  `json:"licenseId"`
	Duration     int     `json:"duration"` // contracted years, 0 = perpetual
	UniqueID     string  `json:"uniqueId"`
	ExternalName *string `json:"externalName"`
	TypeID       string  `json:"typeId"`
}

// @Summary      List purchase orders
// @Description  List purchase orders newest first, each with its aggregated license list. A license attached through several join rows appears once with its durations summed.
// @Tags         PurchaseOrders
// @Security     Bearer
// @Produce      json
// @Param        customerId  query  string  false  "Restrict to one customer"
// @Success      200  {array}  models.PurchaseOrderWithLicenses
// @Router       /api/v1/purchase-orders [get]
// ListPurchaseOrdersHandler lists purchase orders with aggregated licenses
// GET /api/v1/purchase-orders?customerId=...
func (h *PurchaseOrderHandlers) ListPurchaseOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var customerID *string
		if v := c.Query("customerId"); v != "" {
			if err := validation.ValidateUUID("customerId", v); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			customerID = &v
		}

		orders, err := h.poRepo.ListWithLicenses(c.Request.Context(), customerID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list purchase orders"})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// GetPurchaseOrderHandler retrieves a purchase order by ID
// GET /api/v1/purchase-orders/:id
func (h *PurchaseOrderHandlers) GetPurchaseOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		po, err := h.poRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve purchase order"})
			return
		}
		if po == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Purchase order not found"})
			return
		}
		c.JSON(http.StatusOK, po)
	}
}

// @Summary      Create purchase order
// @Tags         PurchaseOrders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  PurchaseOrderRequest  true  "Purchase order fields"
// @Success      201  {object}  models.PurchaseOrder
// @Failure      400  {object}  map[string]interface{}  "Missing fields or unknown customer"
// @Router       /api/v1/purchase-orders [post]
// CreatePurchaseOrderHandler creates a purchase order
// POST /api/v1/purchase-orders
func (h *PurchaseOrderHandlers) CreatePurchaseOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PurchaseOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if err := validation.ValidateRequiredFields(map[string]string{
			"poName":     req.PoName,
			"customerId": req.CustomerID,
		}); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.PurchaseDate == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "purchaseDate is required"})
			return
		}
		if err := validation.ValidateUUID("customerId", req.CustomerID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		customer, err := h.customerRepo.GetByID(c.Request.Context(), req.CustomerID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify customer"})
			return
		}
		if customer == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "customerId does not reference an existing customer"})
			return
		}

		po := &models.PurchaseOrder{
			PoName:       req.PoName,
			PurchaseDate: *req.PurchaseDate,
			CustomerID:   req.CustomerID,
		}
		if req.IsClosed != nil {
			po.IsClosed = *req.IsClosed
		}

		if err := h.poRepo.Create(c.Request.Context(), po); err != nil {
			writeRepoError(c, err, "Failed to create purchase order")
			return
		}
		c.JSON(http.StatusCreated, po)
	}
}

// UpdatePurchaseOrderHandler updates a purchase order
// PUT /api/v1/purchase-orders/:id
func (h *PurchaseOrderHandlers) UpdatePurchaseOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		po, err := h.poRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve purchase order"})
			return
		}
		if po == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Purchase order not found"})
			return
		}

		var req PurchaseOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if req.PoName != "" {
			po.PoName = req.PoName
		}
		if req.PurchaseDate != nil {
			po.PurchaseDate = *req.PurchaseDate
		}
		if req.IsClosed != nil {
			po.IsClosed = *req.IsClosed
		}
		if req.CustomerID != "" && req.CustomerID != po.CustomerID {
			if err := validation.ValidateUUID("customerId", req.CustomerID); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			customer, err := h.customerRepo.GetByID(c.Request.Context(), req.CustomerID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify customer"})
				return
			}
			if customer == nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "customerId does not reference an existing customer"})
				return
			}
			po.CustomerID = req.CustomerID
		}

		if err := h.poRepo.Update(c.Request.Context(), po); err != nil {
			writeRepoError(c, err, "Failed to update purchase order")
			return
		}
		c.JSON(http.StatusOK, po)
	}
}

// DeletePurchaseOrderHandler deletes a purchase order
// DELETE /api/v1/purchase-orders/:id
func (h *PurchaseOrderHandlers) DeletePurchaseOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		po, err := h.poRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve purchase order"})
			return
		}
		if po == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Purchase order not found"})
			return
		}

		if err := h.poRepo.Delete(c.Request.Context(), id); err != nil {
			writeRepoError(c, err, "Failed to delete purchase order")
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary      List purchase order licenses
// @Description  List the order's licenses with each license's summed contracted duration.
// @Tags         PurchaseOrders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Purchase order ID"
// @Success      200  {array}  models.LicenseWithDuration
// @Failure      404  {object}  map[string]interface{}  "Purchase order not found"
// @Router       /api/v1/purchase-orders/{id}/licenses [get]
// ListPurchaseOrderLicensesHandler lists the aggregated licenses of one order
// GET /api/v1/purchase-orders/:id/licenses
func (h *PurchaseOrderHandlers) ListPurchaseOrderLicensesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		po, err := h.poRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve purchase order"})
			return
		}
		if po == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Purchase order not found"})
			return
		}

		licenses, err := h.poRepo.ListLicenses(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list licenses"})
			return
		}
		c.JSON(http.StatusOK, licenses)
	}
}

// @Summary      Attach license to purchase order
// @Description  Link an existing license (licenseId) or create a new one inline (typeId). Either way a join row with the contracted duration is added; repeating the call for the same license records a renewal.
// @Tags         PurchaseOrders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                true  "Purchase order ID"
// @Param        body  body  AttachLicenseRequest  true  "License reference or inline fields plus duration"
// @Success      201  {object}  models.License
// @Failure      400  {object}  map[string]interface{}  "Bad duration, unknown license, or unknown type"
// @Failure      404  {object}  map[string]interface{}  "Purchase order not found"
// @Router       /api/v1/purchase-orders/{id}/licenses [post]
// AttachLicenseHandler adds a license join row to a purchase order
// POST /api/v1/purchase-orders/:id/licenses
func (h *PurchaseOrderHandlers) AttachLicenseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		po, err := h.poRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve purchase order"})
			return
		}
		if po == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Purchase order not found"})
			return
		}

		var req AttachLicenseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if err := validation.ValidateDuration(req.Duration); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if req.LicenseID != "" {
			h.linkExistingLicense(c, id, req)
			return
		}

		if err := validation.ValidateRequired("typeId", req.TypeID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		licenseType, err := h.lookupRepo.GetTypeByID(c.Request.Context(), req.TypeID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify license type"})
			return
		}
		if licenseType == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "typeId does not reference an existing license type"})
			return
		}

		status, err := h.lookupRepo.GetStatusByName(c.Request.Context(), models.StatusAvailable)
		if err != nil || status == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve default status"})
			return
		}

		license := &models.License{
			UniqueID:     req.UniqueID,
			ExternalName: req.ExternalName,
			TypeID:       req.TypeID,
			StatusID:     status.ID,
		}

		if err := h.licenseRepo.CreateWithJoin(c.Request.Context(), license, id, req.Duration); err != nil {
			writeRepoError(c, err, "Failed to create license")
			return
		}
		c.JSON(http.StatusCreated, license)
	}
}

// linkExistingLicense adds a join row for a license that already exists
func (h *PurchaseOrderHandlers) linkExistingLicense(c *gin.Context, purchaseOrderID string, req AttachLicenseRequest) {
	if err := validation.ValidateUUID("licenseId", req.LicenseID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	license, err := h.licenseRepo.GetByID(c.Request.Context(), req.LicenseID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve license"})
		return
	}
	if license == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "licenseId does not reference an existing license"})
		return
	}

	if err := h.licenseRepo.AddJoinRow(c.Request.Context(), purchaseOrderID, req.LicenseID, req.Duration); err != nil {
		writeRepoError(c, err, "Failed to attach license")
		return
	}
	c.JSON(http.StatusCreated, license)
}
