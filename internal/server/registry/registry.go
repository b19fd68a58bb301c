// Package registry enforces the ownership and cascade-delete invariants
// that the bare repositories do not: a campaign is visible only to its
// owner, and its file records are always deleted before the campaign row.
package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"campaignspace/internal/common"
	"campaignspace/internal/logging"
	"campaignspace/internal/server/models"
	"campaignspace/internal/server/notify"
	"campaignspace/internal/server/repositories/campaigns"
	"campaignspace/internal/server/repositories/filerecords"
)

type Service struct {
	campaignRepo campaigns.Repository
	fileRepo     filerecords.Repository
	notifier     notify.Notifier
	logger       logging.Logger
}

func NewService(campaignRepo campaigns.Repository, fileRepo filerecords.Repository, notifier notify.Notifier, logger logging.Logger) *Service {
	return &Service{
		campaignRepo: campaignRepo,
		fileRepo:     fileRepo,
		notifier:     notifier,
		logger:       logger,
	}
}

// CreateCampaign validates and creates a campaign for ownerID. Names are
// trimmed; a blank name is a validation error. Duplicate names are allowed.
func (s *Service) CreateCampaign(ctx context.Context, ownerID, name string) (*models.Campaign, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("campaign name is empty: %w", common.ErrorValidation)
	}

	campaign := &models.Campaign{
		ID:      uuid.New().String(),
		OwnerID: ownerID,
		Name:    name,
	}
	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		return nil, fmt.Errorf("error creating campaign: %w", err)
	}

	s.emit(ctx, notify.Event{Kind: "campaign.created", OwnerID: ownerID, CampaignID: campaign.ID})

	return campaign, nil
}

// ListCampaigns returns the owner's campaigns ordered by name ascending.
func (s *Service) ListCampaigns(ctx context.Context, ownerID string) ([]*models.Campaign, error) {
	result, err := s.campaignRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error listing campaigns: %w", err)
	}
	return result, nil
}

// RenameCampaign updates the campaign name, scoped to the owner. An unknown
// id and a foreign campaign are indistinguishable: both are not found.
func (s *Service) RenameCampaign(ctx context.Context, id, ownerID, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return fmt.Errorf("campaign name is empty: %w", common.ErrorValidation)
	}
	return s.campaignRepo.Rename(ctx, id, ownerID, newName)
}

// GetOwnedCampaign loads a campaign and verifies ownerID owns it.
func (s *Service) GetOwnedCampaign(ctx context.Context, id, ownerID string) (*models.Campaign, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign.OwnerID != ownerID {
		return nil, common.ErrorUnauthorized
	}
	return campaign, nil
}

// CountFiles returns the number of file records in an owned campaign.
func (s *Service) CountFiles(ctx context.Context, id, ownerID string) (int64, error) {
	campaign, err := s.GetOwnedCampaign(ctx, id, ownerID)
	if err != nil {
		return 0, err
	}
	return s.fileRepo.CountByCampaign(ctx, campaign.ID)
}

// DeleteCampaignCascade deletes a campaign and its file records, records
// first. If the record delete fails the campaign row is left untouched: a
// campaign without its records would be an undetectable orphan, while
// records surviving a failed campaign delete stay discoverable and
// retryable. Output-bucket artifacts are not removed; see DESIGN.md.
func (s *Service) DeleteCampaignCascade(ctx context.Context, id, ownerID string) error {
	campaign, err := s.GetOwnedCampaign(ctx, id, ownerID)
	if err != nil {
		return err
	}

	if err := s.fileRepo.DeleteByCampaign(ctx, campaign.ID); err != nil {
		return &common.StepError{Step: "file records delete", Err: err}
	}

	if err := s.campaignRepo.Delete(ctx, campaign.ID); err != nil {
		return &common.StepError{Step: "campaign delete", Completed: "file records delete", Err: err}
	}

	s.emit(ctx, notify.Event{Kind: "campaign.deleted", OwnerID: ownerID, CampaignID: campaign.ID})

	return nil
}

func (s *Service) emit(ctx context.Context, event notify.Event) {
	if err := s.notifier.Publish(ctx, event); err != nil {
		s.logger.Warn(ctx, "notification publish failed", "kind", event.Kind, "error", err)
	}
}
