// customer_repository.go implements CustomerRepository, providing database
// queries for customer records including the businessName prefix search.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/license-office/license-office/internal/db/models"
)

// CustomerRepository handles customer database operations
type CustomerRepository struct {
	db *sqlx.DB
}

// NewCustomerRepository creates a new CustomerRepository
func NewCustomerRepository(db *sqlx.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

const customerColumns = `id, business_name, contact_name, contact_email, contact_phone,
	business_address1, business_address2, business_city, business_state,
	business_zip, business_country, created_at, updated_at`

// Create inserts a new customer and fills in the generated id and timestamps
func (r *CustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	customer.ID = uuid.New().String()
	customer.CreatedAt = time.Now()
	customer.UpdatedAt = customer.CreatedAt

	query := `
		INSERT INTO customers (
			id, business_name, contact_name, contact_email, contact_phone,
			business_address1, business_address2, business_city, business_state,
			business_zip, business_country, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		customer.ID,
		customer.BusinessName,
		customer.ContactName,
		customer.ContactEmail,
		customer.ContactPhone,
		customer.BusinessAddress1,
		customer.BusinessAddress2,
		customer.BusinessCity,
		customer.BusinessState,
		customer.BusinessZip,
		customer.BusinessCountry,
		customer.CreatedAt,
		customer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", translateError(err))
	}

	return nil
}

// GetByID retrieves a customer by ID. Returns (nil, nil) when no row exists.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	var customer models.Customer
	err := r.db.GetContext(ctx, &customer, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return &customer, nil
}

// Update persists changed customer fields
func (r *CustomerRepository) Update(ctx context.Context, customer *models.Customer) error {
	customer.UpdatedAt = time.Now()

	query := `
		UPDATE customers
		SET business_name = $2, contact_name = $3, contact_email = $4,
		    contact_phone = $5, business_address1 = $6, business_address2 = $7,
		    business_city = $8, business_state = $9, business_zip = $10,
		    business_country = $11, updated_at = $12
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		customer.ID,
		customer.BusinessName,
		customer.ContactName,
		customer.ContactEmail,
		customer.ContactPhone,
		customer.BusinessAddress1,
		customer.BusinessAddress2,
		customer.BusinessCity,
		customer.BusinessState,
		customer.BusinessZip,
		customer.BusinessCountry,
		customer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", translateError(err))
	}

	return nil
}

// Delete removes a customer. Deletes are blocked by the database while
// purchase orders, users, or servers still reference the customer; the
// resulting error matches ErrForeignKeyViolation.
func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", translateError(err))
	}
	return nil
}

// List retrieves customers ordered by business name. When prefix is
// non-empty, only customers whose business name starts with it
// (case-insensitive) are returned.
func (r *CustomerRepository) List(ctx context.Context, prefix string) ([]*models.Customer, error) {
	customers := make([]*models.Customer, 0)

	if prefix != "" {
		query := `SELECT ` + customerColumns + `
			FROM customers
			WHERE business_name ILIKE $1 || '%'
			ORDER BY business_name`
		if err := r.db.SelectContext(ctx, &customers, query, prefix); err != nil {
			return nil, fmt.Errorf("failed to search customers: %w", err)
		}
		return customers, nil
	}

	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY business_name`
	if err := r.db.SelectContext(ctx, &customers, query); err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	return customers, nil
}
