package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/license-office/license-office/internal/db/models"
)

// ---------------------------------------------------------------------------
// Column definitions
// ---------------------------------------------------------------------------

var poCols = []string{
	"id", "po_name", "purchase_date", "customer_id", "is_closed", "created_at", "updated_at",
}

var aggregatedCols = []string{
	"purchase_order_id",
	"id", "unique_id", "external_name", "type_id", "status_id", "server_id",
	"requested_server_id", "activation_date", "expiration_date", "created_at", "updated_at",
	"type_name", "total_duration",
}

// ---------------------------------------------------------------------------
// Row builders
// ---------------------------------------------------------------------------

func samplePORows() *sqlmock.Rows {
	purchased := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(poCols).
		AddRow("po-2", "PO-2026-002", purchased, "cust-1", false, time.Now(), time.Now()).
		AddRow("po-1", "PO-2026-001", purchased.AddDate(0, -1, 0), "cust-1", false, time.Now(), time.Now())
}

func emptyPORow() *sqlmock.Rows {
	return sqlmock.NewRows(poCols)
}

func aggregatedRow(rows *sqlmock.Rows, poID, licenseID, typeName string, totalDuration int) *sqlmock.Rows {
	return rows.AddRow(poID,
		licenseID, "uid-"+licenseID, nil, "type-annual", "status-available", nil,
		nil, nil, nil, time.Now(), time.Now(),
		typeName, totalDuration)
}

func newPORepo(t *testing.T) (*PurchaseOrderRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPurchaseOrderRepository(sqlx.NewDb(db, "sqlmock")), mock
}

// ---------------------------------------------------------------------------
// GetByID
// ---------------------------------------------------------------------------

func TestPurchaseOrderGetByID_Found(t *testing.T) {
	repo, mock := newPORepo(t)
	mock.ExpectQuery("SELECT.*FROM purchase_orders WHERE id").
		WithArgs("po-1").
		WillReturnRows(sqlmock.NewRows(poCols).
			AddRow("po-1", "PO-2026-001", time.Now(), "cust-1", false, time.Now(), time.Now()))

	po, err := repo.GetByID(context.Background(), "po-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if po == nil {
		t.Fatal("expected purchase order, got nil")
	}
	if po.PoName != "PO-2026-001" {
		t.Errorf("PoName = %s, want PO-2026-001", po.PoName)
	}
}

func TestPurchaseOrderGetByID_NotFound(t *testing.T) {
	repo, mock := newPORepo(t)
	mock.ExpectQuery("SELECT.*FROM purchase_orders WHERE id").
		WillReturnRows(emptyPORow())

	po, err := repo.GetByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if po != nil {
		t.Error("expected nil, got non-nil")
	}
}

// ---------------------------------------------------------------------------
// Create / Delete
// ---------------------------------------------------------------------------

func TestPurchaseOrderCreate_Success(t *testing.T) {
	repo, mock := newPORepo(t)
	mock.ExpectExec("INSERT INTO purchase_orders").
		WillReturnResult(sqlmock.NewResult(0, 1))

	po := &models.PurchaseOrder{PoName: "PO-2026-003", CustomerID: "cust-1"}
	if err := repo.Create(context.Background(), po); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if po.ID == "" {
		t.Error("Create did not assign an ID")
	}
}

func TestPurchaseOrderCreate_MissingCustomer(t *testing.T) {
	repo, mock := newPORepo(t)
	mock.ExpectExec("INSERT INTO purchase_orders").
		WillReturnError(&pq.Error{Code: pgForeignKeyViolation, Constraint: "purchase_orders_customer_id_fkey"})

	err := repo.Create(context.Background(), &models.PurchaseOrder{PoName: "PO-X", CustomerID: "missing"})
	if !IsForeignKeyViolation(err) {
		t.Errorf("expected foreign key violation, got %v", err)
	}
}

func TestPurchaseOrderDelete_ReferencedRows(t *testing.T) {
	repo, mock := newPORepo(t)
	mock.ExpectExec("DELETE FROM purchase_orders").
		WithArgs("po-1").
		WillReturnError(&pq.Error{Code: pgForeignKeyViolation, Constraint: "purchase_order_licenses_purchase_order_id_fkey"})

	err := repo.Delete(context.Background(), "po-1")
	if !IsForeignKeyViolation(err) {
		t.Errorf("expected foreign key violation, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// ListWithLicenses
// ---------------------------------------------------------------------------

func TestListWithLicenses_SumsDurationsPerLicense(t *testing.T) {
	repo, mock := newPORepo(t)
	mock.ExpectQuery("SELECT.*FROM purchase_orders.*ORDER BY purchase_date DESC").
		WillReturnRows(samplePORows())

	// po-1 carries one license linked twice (3y original + 2y renewal, summed
	// by the grouped query) and one single-row license; po-2 has none.
	agg := sqlmock.NewRows(aggregatedCols)
	agg = aggregatedRow(agg, "po-1", "lic-1", "Annual", 5)
	agg = aggregatedRow(agg, "po-1", "lic-2", "Annual", 1)
	mock.ExpectQuery("SELECT.*SUM\\(pol.duration\\).*FROM purchase_order_licenses").
		WillReturnRows(agg)

	result, err := repo.ListWithLicenses(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("len = %d, want 2", len(result))
	}

	// Listing order follows purchase date, newest first.
	if result[0].ID != "po-2" || result[1].ID != "po-1" {
		t.Fatalf("order = [%s %s], want [po-2 po-1]", result[0].ID, result[1].ID)
	}

	if result[0].Licenses == nil {
		t.Fatal("zero-license purchase order has nil license list, want empty")
	}
	if len(result[0].Licenses) != 0 {
		t.Errorf("po-2 license count = %d, want 0", len(result[0].Licenses))
	}

	if len(result[1].Licenses) != 2 {
		t.Fatalf("po-1 license count = %d, want 2", len(result[1].Licenses))
	}
	if result[1].Licenses[0].TotalDuration != 5 {
		t.Errorf("lic-1 total duration = %d, want 5", result[1].Licenses[0].TotalDuration)
	}
	if result[1].Licenses[0].TypeName != "Annual" {
		t.Errorf("lic-1 type name = %s, want Annual", result[1].Licenses[0].TypeName)
	}
}

func TestListWithLicenses_CustomerFilter(t *testing.T) {
	repo, mock := newPORepo(t)
	mock.ExpectQuery("SELECT.*FROM purchase_orders.*WHERE customer_id").
		WithArgs("cust-1").
		WillReturnRows(samplePORows())
	mock.ExpectQuery("SELECT.*SUM\\(pol.duration\\).*WHERE po.customer_id").
		WithArgs("cust-1").
		WillReturnRows(sqlmock.NewRows(aggregatedCols))

	customerID := "cust-1"
	result, err := repo.ListWithLicenses(context.Background(), &customerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("len = %d, want 2", len(result))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListWithLicenses_Empty(t *testing.T) {
	repo, mock := newPORepo(t)
	mock.ExpectQuery("SELECT.*FROM purchase_orders").
		WillReturnRows(emptyPORow())
	mock.ExpectQuery("SELECT.*SUM\\(pol.duration\\)").
		WillReturnRows(sqlmock.NewRows(aggregatedCols))

	result, err := repo.ListWithLicenses(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(result) != 0 {
		t.Errorf("len = %d, want 0", len(result))
	}
}

// ---------------------------------------------------------------------------
// ListLicenses
// ---------------------------------------------------------------------------

func TestListLicenses_SinglePurchaseOrder(t *testing.T) {
	repo, mock := newPORepo(t)
	agg := aggregatedRow(sqlmock.NewRows(aggregatedCols), "po-1", "lic-1", "Annual", 3)
	mock.ExpectQuery("SELECT.*SUM\\(pol.duration\\).*WHERE pol.purchase_order_id").
		WithArgs("po-1").
		WillReturnRows(agg)

	licenses, err := repo.ListLicenses(context.Background(), "po-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(licenses) != 1 {
		t.Fatalf("len = %d, want 1", len(licenses))
	}
	if licenses[0].ID != "lic-1" {
		t.Errorf("ID = %s, want lic-1", licenses[0].ID)
	}
	if licenses[0].TotalDuration != 3 {
		t.Errorf("total duration = %d, want 3", licenses[0].TotalDuration)
	}
}
