// customers.go implements CRUD handlers for customers, the businessName
// prefix search, and the nested user and purchase-order listings.
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

// CustomerHandlers handles customer management endpoints
type CustomerHandlers struct {
	cfg          *config.Config
	customerRepo *repositories.CustomerRepository
	userRepo     *repositories.UserRepository
	poRepo       *repositories.PurchaseOrderRepository
}

// NewCustomerHandlers creates a new CustomerHandlers instance
func NewCustomerHandlers(cfg *config.Config, db *sqlx.DB) *CustomerHandlers {
	return &CustomerHandlers{
		cfg:          cfg,
		customerRepo: repositories.NewCustomerRepository(db),
		userRepo:     repositories.NewUserRepository(db),
		poRepo:       repositories.NewPurchaseOrderRepository(db),
	}
}

// CustomerRequest represents a customer create/update payload
type CustomerRequest struct {
	BusinessName     string  `json:"businessName"`
	ContactName      string  `json:"contactName"`
	ContactEmail     *string `json:"contactEmail"`
	ContactPhone     *string `json:"contactPhone"`
	BusinessAddress1 *string `json:"businessAddress1"`
	BusinessAddress2 *string `json:"businessAddress2"`
	BusinessCity     *string `json:"businessCity"`
	BusinessState    *string `json:"businessState"`
	BusinessZip      *string `json:"businessZip"`
	BusinessCountry  *string `json:"businessCountry"`
}

// @Summary      List customers
// @Description  List all customers, optionally filtered by a case-insensitive business-name prefix.
// @Tags         Customers
// @Security     Bearer
// @Produce      json
// @Param        businessName  query  string  false  "Business name prefix"
// @Success      200  {array}  models.Customer
// @Router       /api/v1/customers [get]
// ListCustomersHandler lists customers with optional prefix search
// GET /api/v1/customers?businessName=Ac
func (h *CustomerHandlers) ListCustomersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		prefix := c.Query("businessName")

		customers, err := h.customerRepo.List(c.Request.Context(), prefix)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list customers"})
			return
		}
		c.JSON(http.StatusOK, customers)
	}
}

// @Summary      Get customer
// @Tags         Customers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Customer ID"
// @Success      200  {object}  models.Customer
// @Failure      404  {object}  map[string]interface{}  "Customer not found"
// @Router       /api/v1/customers/{id} [get]
// GetCustomerHandler retrieves a customer by ID
// GET /api/v1/customers/:id
func (h *CustomerHandlers) GetCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		customer, err := h.customerRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve customer"})
			return
		}
		if customer == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

// @Summary      Create customer
// @Tags         Customers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  CustomerRequest  true  "Customer fields"
// @Success      201  {object}  models.Customer
// @Failure      400  {object}  map[string]interface{}  "Missing required fields"
// @Failure      409  {object}  map[string]interface{}  "Business name already in use"
// @Router       /api/v1/customers [post]
// CreateCustomerHandler creates a customer
// POST /api/v1/customers
func (h *CustomerHandlers) CreateCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CustomerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if err := validation.ValidateRequiredFields(map[string]string{
			"businessName": req.BusinessName,
			"contactName":  req.ContactName,
		}); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		customer := &models.Customer{
			BusinessName:     req.BusinessName,
			ContactName:      req.ContactName,
			ContactEmail:     req.ContactEmail,
			ContactPhone:     req.ContactPhone,
			BusinessAddress1: req.BusinessAddress1,
			BusinessAddress2: req.BusinessAddress2,
			BusinessCity:     req.BusinessCity,
			BusinessState:    req.BusinessState,
			BusinessZip:      req.BusinessZip,
			BusinessCountry:  req.BusinessCountry,
		}

		if err := h.customerRepo.Create(c.Request.Context(), customer); err != nil {
			writeRepoError(c, err, "Failed to create customer")
			return
		}
		c.JSON(http.StatusCreated, customer)
	}
}

// @Summary      Update customer
// @Tags         Customers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string           true  "Customer ID"
// @Param        body  body  CustomerRequest  true  "Changed fields"
// @Success      200  {object}  models.Customer
// @Failure      404  {object}  map[string]interface{}  "Customer not found"
// @Router       /api/v1/customers/{id} [put]
// UpdateCustomerHandler updates a customer
// PUT /api/v1/customers/:id
func (h *CustomerHandlers) UpdateCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		customer, err := h.customerRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve customer"})
			return
		}
		if customer == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
			return
		}

		var req CustomerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if req.BusinessName != "" {
			customer.BusinessName = req.BusinessName
		}
		if req.ContactName != "" {
			customer.ContactName = req.ContactName
		}
		if req.ContactEmail != nil {
			customer.ContactEmail = req.ContactEmail
		}
		if req.ContactPhone != nil {
			customer.ContactPhone = req.ContactPhone
		}
		if req.BusinessAddress1 != nil {
			customer.BusinessAddress1 = req.BusinessAddress1
		}
		if req.BusinessAddress2 != nil {
			customer.BusinessAddress2 = req.BusinessAddress2
		}
		if req.BusinessCity != nil {
			customer.BusinessCity = req.BusinessCity
		}
		if req.BusinessState != nil {
			customer.BusinessState = req.BusinessState
		}
		if req.BusinessZip != nil {
			customer.BusinessZip = req.BusinessZip
		}
		if req.BusinessCountry != nil {
			customer.BusinessCountry = req.BusinessCountry
		}

		if err := h.customerRepo.Update(c.Request.Context(), customer); err != nil {
			writeRepoError(c, err, "Failed to update customer")
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

// @Summary      Delete customer
// @Tags         Customers
// @Security     Bearer
// @Param        id  path  string  true  "Customer ID"
// @Success      204  "Deleted"
// @Failure      404  {object}  map[string]interface{}  "Customer not found"
// @Failure      409  {object}  map[string]interface{}  "Customer still referenced"
// @Router       /api/v1/customers/{id} [delete]
// DeleteCustomerHandler deletes a customer
// DELETE /api/v1/customers/:id
func (h *CustomerHandlers) DeleteCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		customer, err := h.customerRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve customer"})
			return
		}
		if customer == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
			return
		}

		if err := h.customerRepo.Delete(c.Request.Context(), id); err != nil {
			writeRepoError(c, err, "Failed to delete customer")
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary      List customer users
// @Tags         Customers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Customer ID"
// @Success      200  {array}  models.User
// @Failure      404  {object}  map[string]interface{}  "Customer not found"
// @Router       /api/v1/customers/{id}/users [get]
// ListCustomerUsersHandler lists the users of one customer
// GET /api/v1/customers/:id/users
func (h *CustomerHandlers) ListCustomerUsersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		customer, err := h.customerRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve customer"})
			return
		}
		if customer == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
			return
		}

		users, err := h.userRepo.ListByCustomer(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
			return
		}
		c.JSON(http.StatusOK, users)
	}
}

// @Summary      List customer purchase orders
// @Description  List the customer's purchase orders, each with its aggregated license list.
// @Tags         Customers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Customer ID"
// @Success      200  {array}  models.PurchaseOrderWithLicenses
// @Failure      404  {object}  map[string]interface{}  "Customer not found"
// @Router       /api/v1/customers/{id}/purchase-orders [get]
// ListCustomerPurchaseOrdersHandler lists one customer's purchase orders
// GET /api/v1/customers/:id/purchase-orders
func (h *CustomerHandlers) ListCustomerPurchaseOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireUUIDParam(c)
		if !ok {
			return
		}

		customer, err := h.customerRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve customer"})
			return
		}
		if customer == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
			return
		}

		orders, err := h.poRepo.ListWithLicenses(c.Request.Context(), &id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list purchase orders"})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}
