// server_repository.go implements ServerRepository for machines that
// licenses are activated against.
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

// ServerRepository handles server database operations
type ServerRepository struct {
	db *sqlx.DB
}

// NewServerRepository creates a new ServerRepository
func NewServerRepository(db *sqlx.DB) *ServerRepository {
	return &ServerRepository{db: db}
}

const serverColumns = `id, name, description, fingerprint, customer_id,
	is_active, created_at, updated_at`

// Create inserts a new server
func (r *ServerRepository) Create(ctx context.Context, server *models.Server) error {
	server.ID = uuid.New().String()
	server.CreatedAt = time.Now()
	server.UpdatedAt = server.CreatedAt

	query := `
		INSERT INTO servers (
			id, name, description, fingerprint, customer_id,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		server.ID,
		server.Name,
		server.Description,
		server.Fingerprint,
		server.CustomerID,
		server.IsActive,
		server.CreatedAt,
		server.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", translateError(err))
	}

	return nil
}

// GetByID retrieves a server by ID. Returns (nil, nil) when no row exists.
func (r *ServerRepository) GetByID(ctx context.Context, id string) (*models.Server, error) {
	query := `SELECT ` + serverColumns + ` FROM servers WHERE id = $1`

	var server models.Server
	err := r.db.GetContext(ctx, &server, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get server: %w", err)
	}

	return &server, nil
}

// GetByFingerprint retrieves a server by its raw fingerprint bytes.
// Activation requests may nominate a server this way instead of by id.
func (r *ServerRepository) GetByFingerprint(ctx context.Context, fingerprint []byte) (*models.Server, error) {
	query := `SELECT ` + serverColumns + ` FROM servers WHERE fingerprint = $1`

	var server models.Server
	err := r.db.GetContext(ctx, &server, query, fingerprint)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get server by fingerprint: %w", err)
	}

	return &server, nil
}

// Update persists changed server fields. Fingerprint is written as-is;
// callers that did not receive a new fingerprint carry the stored one over.
func (r *ServerRepository) Update(ctx context.Context, server *models.Server) error {
	server.UpdatedAt = time.Now()

	query := `
		UPDATE servers
		SET name = $2, description = $3, fingerprint = $4, customer_id = $5,
		    is_active = $6, updated_at = $7
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		server.ID,
		server.Name,
		server.Description,
		server.Fingerprint,
		server.CustomerID,
		server.IsActive,
		server.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update server: %w", translateError(err))
	}

	return nil
}

// Delete removes a server. Blocked while licenses or ledger rows reference it.
func (r *ServerRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM servers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete server: %w", translateError(err))
	}
	return nil
}

// List retrieves all servers ordered by name
func (r *ServerRepository) List(ctx context.Context) ([]*models.Server, error) {
	query := `SELECT ` + serverColumns + ` FROM servers ORDER BY name`

	servers := make([]*models.Server, 0)
	if err := r.db.SelectContext(ctx, &servers, query); err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}

	return servers, nil
}
