package filerecords

import (
	"context"

	"campaignspace/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, record *models.FileRecord) error
	ListByCampaign(ctx context.Context, campaignID string) ([]*models.FileRecord, error)
	DeleteByCampaign(ctx context.Context, campaignID string) error
	CountByCampaign(ctx context.Context, campaignID string) (int64, error)
}
