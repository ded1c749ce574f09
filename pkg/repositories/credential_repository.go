package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/museme-app/museme-engine/pkg/apperrors"
	"github.com/museme-app/museme-engine/pkg/database"
	"github.com/museme-app/museme-engine/pkg/models"
)

// CredentialRepository defines the interface for generation-API credential
// data access.
type CredentialRepository interface {
	// Create inserts a new active credential for the given key value.
	Create(ctx context.Context, keyValue string) (*models.Credential, error)

	// List returns all credentials, newest first.
	List(ctx context.Context) ([]*models.Credential, error)

	// ListActive returns active credentials in least-recently-used order:
	// never-used credentials first, then ascending last-used time, ties
	// broken by creation time.
	ListActive(ctx context.Context) ([]*models.Credential, error)

	// SetActive flips the active flag on a credential.
	SetActive(ctx context.Context, id uuid.UUID, active bool) error

	// Delete removes a credential.
	Delete(ctx context.Context, id uuid.UUID) error

	// RecordUsage bumps usage bookkeeping for the credential with the given
	// key value: usage count always, error count only on failure, last-used
	// stamped to now. A single UPDATE so concurrent dispatches never lose
	// counts.
	RecordUsage(ctx context.Context, keyValue string, success bool) error
}

// credentialRepository implements CredentialRepository using PostgreSQL.
type credentialRepository struct {
	q database.Querier
}

// NewCredentialRepository creates a new credential repository.
func NewCredentialRepository(db *database.DB) CredentialRepository {
	return &credentialRepository{q: db.Pool}
}

// Create inserts a new active credential.
func (r *credentialRepository) Create(ctx context.Context, keyValue string) (*models.Credential, error) {
	cred := &models.Credential{
		ID:        uuid.New(),
		KeyValue:  keyValue,
		IsActive:  true,
		CreatedAt: time.Now(),
	}

	query := `
		INSERT INTO api_credentials (id, key_value, is_active, created_at)
		VALUES ($1, $2, $3, $4)`

	if _, err := r.q.Exec(ctx, query, cred.ID, cred.KeyValue, cred.IsActive, cred.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create credential: %w", err)
	}

	return cred, nil
}

// List returns all credentials, newest first.
func (r *credentialRepository) List(ctx context.Context) ([]*models.Credential, error) {
	query := `
		SELECT id, key_value, is_active, created_at, last_used_at, usage_count, error_count
		FROM api_credentials
		ORDER BY created_at DESC`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	defer rows.Close()

	return scanCredentials(rows)
}

// ListActive returns active credentials in least-recently-used order.
func (r *credentialRepository) ListActive(ctx context.Context) ([]*models.Credential, error) {
	query := `
		SELECT id, key_value, is_active, created_at, last_used_at, usage_count, error_count
		FROM api_credentials
		WHERE is_active
		ORDER BY last_used_at ASC NULLS FIRST, created_at ASC`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active credentials: %w", err)
	}
	defer rows.Close()

	return scanCredentials(rows)
}

// SetActive flips the active flag on a credential.
func (r *credentialRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result, err := r.q.Exec(ctx,
		`UPDATE api_credentials SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete removes a credential by ID.
func (r *credentialRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.q.Exec(ctx, `DELETE FROM api_credentials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// RecordUsage bumps the usage counters for a credential in one statement.
func (r *credentialRepository) RecordUsage(ctx context.Context, keyValue string, success bool) error {
	query := `
		UPDATE api_credentials
		SET usage_count = usage_count + 1,
		    error_count = error_count + CASE WHEN $2 THEN 0 ELSE 1 END,
		    last_used_at = now()
		WHERE key_value = $1`

	result, err := r.q.Exec(ctx, query, keyValue, success)
	if err != nil {
		return fmt.Errorf("failed to record credential usage: %w", err)
	}
	if result.RowsAffected() == 0 {
		// Fallback credentials from config have no database row.
		return apperrors.ErrNotFound
	}
	return nil
}

func scanCredentials(rows pgx.Rows) ([]*models.Credential, error) {
	var creds []*models.Credential
	for rows.Next() {
		var c models.Credential
		if err := rows.Scan(
			&c.ID,
			&c.KeyValue,
			&c.IsActive,
			&c.CreatedAt,
			&c.LastUsedAt,
			&c.UsageCount,
			&c.ErrorCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		creds = append(creds, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	return creds, nil
}

// Ensure credentialRepository implements CredentialRepository at compile time.
var _ CredentialRepository = (*credentialRepository)(nil)
