// Package campaigns provides PostgreSQL-backed persistence for the
// campaigns relation.
package campaigns

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"campaignspace/internal/common"
	"campaignspace/internal/dbx"
	"campaignspace/internal/server/models"
)

// PostgresRepository implements campaign storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new campaign row.
func (r *PostgresRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	query := `
		INSERT INTO campaigns (id, user_id, name)
		VALUES ($1, $2, $3);
	`
	_, err := r.db.ExecContext(ctx, query, campaign.ID, campaign.OwnerID, campaign.Name)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListByOwner returns all campaigns owned by ownerID, ordered by name
// ascending. An owner with no campaigns gets an empty slice, not an error.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Campaign, error) {
	query := `
		SELECT id, user_id, name, created_at FROM campaigns
		WHERE user_id=$1
		ORDER BY name ASC
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select campaigns: %w", err)
	}
	defer rows.Close()

	result := []*models.Campaign{}
	for rows.Next() {
		var item models.Campaign
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Name, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID returns the campaign with the given id, or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	query := `
		SELECT id, user_id, name, created_at FROM campaigns
		WHERE id=$1
	`
	result := &models.Campaign{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&result.ID, &result.OwnerID, &result.Name, &result.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select campaign: %w", err)
	}
	return result, nil
}

// Rename updates the campaign name, scoped to the owner. Returns
// common.ErrorNotFound when the id is unknown or not owned by ownerID.
// The owner column itself is never updated.
func (r *PostgresRepository) Rename(ctx context.Context, id string, ownerID string, newName string) error {
	query := `UPDATE campaigns SET name=$1 WHERE id=$2 AND user_id=$3`
	res, err := r.db.ExecContext(ctx, query, newName, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to rename campaign: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Delete removes the campaign row. The caller is responsible for deleting
// dependent file records first. Returns common.ErrorNotFound on zero rows.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM campaigns WHERE id=$1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
