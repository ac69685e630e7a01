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

var userCols = []string{
	"id", "customer_id", "first_name", "last_name", "login", "email",
	"password_secret", "is_active", "created_at", "updated_at",
}

func sampleUserRow() *sqlmock.Rows {
	return sqlmock.NewRows(userCols).
		AddRow("user-1", "cust-1", "Jo", "Smith", "jsmith", "jo@acme.example",
			[]byte("$2a$10$hash"), true, time.Now(), time.Now())
}

func newUserRepo(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestUserGetByLogin_Found(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users WHERE login").
		WithArgs("jsmith").
		WillReturnRows(sampleUserRow())

	user, err := repo.GetByLogin(context.Background(), "jsmith")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
	if len(user.PasswordSecret) == 0 {
		t.Error("PasswordSecret not loaded")
	}
}

func TestUserGetByLogin_NotFound(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users WHERE login").
		WillReturnRows(sqlmock.NewRows(userCols))

	user, err := repo.GetByLogin(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != nil {
		t.Error("expected nil, got non-nil")
	}
}

func TestUserCreate_DuplicateLogin(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pq.Error{Code: pgUniqueViolation, Constraint: "users_login_key"})

	user := &models.User{CustomerID: "cust-1", Login: "jsmith", Email: "jo@acme.example"}
	err := repo.Create(context.Background(), user)
	if !IsUniqueViolation(err) {
		t.Errorf("expected unique violation, got %v", err)
	}
}

func TestUserListByCustomer(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users WHERE customer_id").
		WithArgs("cust-1").
		WillReturnRows(sampleUserRow())

	users, err := repo.ListByCustomer(context.Background(), "cust-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("len = %d, want 1", len(users))
	}
	if users[0].CustomerID != "cust-1" {
		t.Errorf("CustomerID = %s, want cust-1", users[0].CustomerID)
	}
}
