// purchase_order_repository.go implements PurchaseOrderRepository, including
// the aggregation query that lists purchase orders with their licenses and
// each license's summed contracted duration.
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

// PurchaseOrderRepository handles purchase order database operations
type PurchaseOrderRepository struct {
	db *sqlx.DB
}

// NewPurchaseOrderRepository creates a new PurchaseOrderRepository
func NewPurchaseOrderRepository(db *sqlx.DB) *PurchaseOrderRepository {
	return &PurchaseOrderRepository{db: db}
}

const purchaseOrderColumns = `id, po_name, purchase_date, customer_id, is_closed,
	created_at, updated_at`

// aggregatedLicensesQuery computes, per (purchase order, license) pair, the
// summed duration across every join row linking that pair. The group-by key
// list and the SUM target are written out in full so the grouping columns
// and the aggregate cannot drift apart.
const aggregatedLicensesQuery = `
	SELECT pol.purchase_order_id,
	       l.id, l.unique_id, l.external_name, l.type_id, l.status_id,
	       l.server_id, l.requested_server_id, l.activation_date,
	       l.expiration_date, l.created_at, l.updated_at,
	       lt.name AS type_name,
	       SUM(pol.duration) AS total_duration
	FROM purchase_order_licenses pol
	JOIN licenses l ON l.id = pol.license_id
	JOIN license_types lt ON lt.id = l.type_id
	%s
	GROUP BY pol.purchase_order_id,
	         l.id, l.unique_id, l.external_name, l.type_id, l.status_id,
	         l.server_id, l.requested_server_id, l.activation_date,
	         l.expiration_date, l.created_at, l.updated_at,
	         lt.name
	ORDER BY pol.purchase_order_id, l.id
`

// aggregatedLicenseRow is the scan target for aggregatedLicensesQuery.
type aggregatedLicenseRow struct {
	PurchaseOrderID string `db:"purchase_order_id"`
	models.LicenseWithDuration
}

// Create inserts a new purchase order
func (r *PurchaseOrderRepository) Create(ctx context.Context, po *models.PurchaseOrder) error {
	po.ID = uuid.New().String()
	po.CreatedAt = time.Now()
	po.UpdatedAt = po.CreatedAt

	query := `
		INSERT INTO purchase_orders (
			id, po_name, purchase_date, customer_id, is_closed, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		po.ID,
		po.PoName,
		po.PurchaseDate,
		po.CustomerID,
		po.IsClosed,
		po.CreatedAt,
		po.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create purchase order: %w", translateError(err))
	}

	return nil
}

// GetByID retrieves a purchase order by ID. Returns (nil, nil) when no row exists.
func (r *PurchaseOrderRepository) GetByID(ctx context.Context, id string) (*models.PurchaseOrder, error) {
	query := `SELECT ` + purchaseOrderColumns + ` FROM purchase_orders WHERE id = $1`

	var po models.PurchaseOrder
	err := r.db.GetContext(ctx, &po, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}

	return &po, nil
}

// Update persists changed purchase order fields
func (r *PurchaseOrderRepository) Update(ctx context.Context, po *models.PurchaseOrder) error {
	po.UpdatedAt = time.Now()

	query := `
		UPDATE purchase_orders
		SET po_name = $2, purchase_date = $3, customer_id = $4, is_closed = $5,
		    updated_at = $6
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		po.ID,
		po.PoName,
		po.PurchaseDate,
		po.CustomerID,
		po.IsClosed,
		po.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update purchase order: %w", translateError(err))
	}

	return nil
}

// Delete removes a purchase order. Blocked while join rows reference it.
func (r *PurchaseOrderRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM purchase_orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete purchase order: %w", translateError(err))
	}
	return nil
}

// ListWithLicenses retrieves purchase orders newest purchase-date first,
// each with its aggregated license list. Passing a non-nil customerID
// restricts the listing to that customer. Purchase orders with no licenses
// appear with an empty list; a license linked through several join rows
// appears once with its durations summed.
func (r *PurchaseOrderRepository) ListWithLicenses(ctx context.Context, customerID *string) ([]*models.PurchaseOrderWithLicenses, error) {
	orders := make([]*models.PurchaseOrder, 0)

	if customerID != nil {
		query := `SELECT ` + purchaseOrderColumns + `
			FROM purchase_orders
			WHERE customer_id = $1
			ORDER BY purchase_date DESC, created_at DESC`
		if err := r.db.SelectContext(ctx, &orders, query, *customerID); err != nil {
			return nil, fmt.Errorf("failed to list purchase orders: %w", err)
		}
	} else {
		query := `SELECT ` + purchaseOrderColumns + `
			FROM purchase_orders
			ORDER BY purchase_date DESC, created_at DESC`
		if err := r.db.SelectContext(ctx, &orders, query); err != nil {
			return nil, fmt.Errorf("failed to list purchase orders: %w", err)
		}
	}

	// Aggregate license durations for the same scope in one grouped query,
	// then fold the rows into their purchase orders.
	rows := make([]aggregatedLicenseRow, 0)
	if customerID != nil {
		query := fmt.Sprintf(aggregatedLicensesQuery,
			`JOIN purchase_orders po ON po.id = pol.purchase_order_id
	WHERE po.customer_id = $1`)
		if err := r.db.SelectContext(ctx, &rows, query, *customerID); err != nil {
			return nil, fmt.Errorf("failed to aggregate purchase order licenses: %w", err)
		}
	} else {
		query := fmt.Sprintf(aggregatedLicensesQuery, "")
		if err := r.db.SelectContext(ctx, &rows, query); err != nil {
			return nil, fmt.Errorf("failed to aggregate purchase order licenses: %w", err)
		}
	}

	byPO := make(map[string][]models.LicenseWithDuration, len(orders))
	for _, row := range rows {
		byPO[row.PurchaseOrderID] = append(byPO[row.PurchaseOrderID], row.LicenseWithDuration)
	}

	result := make([]*models.PurchaseOrderWithLicenses, 0, len(orders))
	for _, po := range orders {
		licenses := byPO[po.ID]
		if licenses == nil {
			licenses = make([]models.LicenseWithDuration, 0)
		}
		result = append(result, &models.PurchaseOrderWithLicenses{
			PurchaseOrder: *po,
			Licenses:      licenses,
		})
	}

	return result, nil
}

// ListLicenses retrieves the aggregated license list for one purchase order.
func (r *PurchaseOrderRepository) ListLicenses(ctx context.Context, purchaseOrderID string) ([]models.LicenseWithDuration, error) {
	query := fmt.Sprintf(aggregatedLicensesQuery, `WHERE pol.purchase_order_id = $1`)

	rows := make([]aggregatedLicenseRow, 0)
	if err := r.db.SelectContext(ctx, &rows, query, purchaseOrderID); err != nil {
		return nil, fmt.Errorf("failed to list purchase order licenses: %w", err)
	}

	licenses := make([]models.LicenseWithDuration, 0, len(rows))
	for _, row := range rows {
		licenses = append(licenses, row.LicenseWithDuration)
	}

	return licenses, nil
}
