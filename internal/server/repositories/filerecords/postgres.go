// Package filerecords provides PostgreSQL-backed persistence for the
// file_records relation.
package filerecords

import (
	"context"
	"fmt"

	"campaignspace/internal/dbx"
	"campaignspace/internal/server/models"
)

// PostgresRepository implements file record storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new file record. Records are immutable once created.
func (r *PostgresRepository) Create(ctx context.Context, record *models.FileRecord) error {
	query := `
		INSERT INTO file_records (id, user_id, campaign_id, file_name, file_type, storage_path)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.OwnerID, record.CampaignID, record.FileName, record.FileType, record.StorageKey)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListByCampaign returns all file records for a campaign, newest first.
func (r *PostgresRepository) ListByCampaign(ctx context.Context, campaignID string) ([]*models.FileRecord, error) {
	query := `
		SELECT id, user_id, campaign_id, file_name, file_type, storage_path, created_at FROM file_records
		WHERE campaign_id=$1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to select file records: %w", err)
	}
	defer rows.Close()

	result := []*models.FileRecord{}
	for rows.Next() {
		var item models.FileRecord
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.CampaignID, &item.FileName, &item.FileType, &item.StorageKey, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteByCampaign bulk-deletes all records of a campaign. Deleting zero
// rows is success, so the operation is idempotent.
func (r *PostgresRepository) DeleteByCampaign(ctx context.Context, campaignID string) error {
	query := `DELETE FROM file_records WHERE campaign_id=$1`
	if _, err := r.db.ExecContext(ctx, query, campaignID); err != nil {
		return fmt.Errorf("failed to delete file records: %w", err)
	}
	return nil
}

// CountByCampaign returns the number of records for a campaign.
func (r *PostgresRepository) CountByCampaign(ctx context.Context, campaignID string) (int64, error) {
	query := `SELECT COUNT(*) FROM file_records WHERE campaign_id=$1`
	var n int64
	if err := r.db.QueryRowContext(ctx, query, campaignID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count file records: %w", err)
	}
	return n, nil
}
