package campaigns

import (
	"context"

	"campaignspace/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Campaign, error)
	GetByID(ctx context.Context, id string) (*models.Campaign, error)
	Rename(ctx context.Context, id string, ownerID string, newName string) error
	Delete(ctx context.Context, id string) error
}
