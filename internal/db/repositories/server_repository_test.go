package repositories

import (
	"bytes"
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/license-office/license-office/internal/db/models"
)

var serverCols = []string{
	"id", "name", "description", "fingerprint", "customer_id",
	"is_active", "created_at", "updated_at",
}

func sampleServerRow(fingerprint []byte) *sqlmock.Rows {
	return sqlmock.NewRows(serverCols).
		AddRow("srv-1", "prod-east", nil, fingerprint, "cust-1", true, time.Now(), time.Now())
}

func newServerRepo(t *testing.T) (*ServerRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewServerRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestServerGetByFingerprint_Found(t *testing.T) {
	repo, mock := newServerRepo(t)
	fp := []byte{0xde, 0xad, 0xbe, 0xef}
	mock.ExpectQuery("SELECT.*FROM servers WHERE fingerprint").
		WithArgs(fp).
		WillReturnRows(sampleServerRow(fp))

	server, err := repo.GetByFingerprint(context.Background(), fp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if server == nil {
		t.Fatal("expected server, got nil")
	}
	if !bytes.Equal(server.Fingerprint, fp) {
		t.Error("fingerprint mismatch")
	}
}

func TestServerGetByFingerprint_NotFound(t *testing.T) {
	repo, mock := newServerRepo(t)
	mock.ExpectQuery("SELECT.*FROM servers WHERE fingerprint").
		WillReturnRows(sqlmock.NewRows(serverCols))

	server, err := repo.GetByFingerprint(context.Background(), []byte{0x00})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if server != nil {
		t.Error("expected nil, got non-nil")
	}
}

func TestServerCreate_DuplicateFingerprint(t *testing.T) {
	repo, mock := newServerRepo(t)
	mock.ExpectExec("INSERT INTO servers").
		WillReturnError(&pq.Error{Code: pgUniqueViolation, Constraint: "servers_fingerprint_key"})

	server := &models.Server{Name: "prod-west", Fingerprint: []byte{0xde, 0xad}}
	err := repo.Create(context.Background(), server)
	if !IsUniqueViolation(err) {
		t.Errorf("expected unique violation, got %v", err)
	}
}
