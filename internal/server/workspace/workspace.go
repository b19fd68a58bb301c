// Package workspace is the single entry point the transport layer calls.
// It sequences the externally visible workflows: upload (blob put then
// metadata insert), listing (records joined with resolved URLs), and
// derived-artifact generation.
//
// The metadata store and the two blob buckets are independent systems and
// no cross-store transaction exists; every workflow either is safe to
// re-invoke or reports which step completed so the caller can resume.
package workspace

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"

	"campaignspace/internal/common"
	"campaignspace/internal/logging"
	"campaignspace/internal/server/models"
	"campaignspace/internal/server/notify"
	"campaignspace/internal/server/objstore"
	"campaignspace/internal/server/pipeline"
	"campaignspace/internal/server/registry"
	"campaignspace/internal/server/repositories/filerecords"
)

// nowUnixMilli is a seam for tests that need deterministic storage keys.
var nowUnixMilli = func() int64 {
	return time.Now().UnixMilli()
}

type Service struct {
	registry     *registry.Service
	fileRepo     filerecords.Repository
	store        objstore.Client
	pipeline     *pipeline.Service
	notifier     notify.Notifier
	logger       logging.Logger
	inputBucket  string
	outputBucket string
}

func NewService(
	reg *registry.Service,
	fileRepo filerecords.Repository,
	store objstore.Client,
	pipe *pipeline.Service,
	notifier notify.Notifier,
	logger logging.Logger,
	inputBucket, outputBucket string,
) *Service {
	return &Service{
		registry:     reg,
		fileRepo:     fileRepo,
		store:        store,
		pipeline:     pipe,
		notifier:     notifier,
		logger:       logger,
		inputBucket:  inputBucket,
		outputBucket: outputBucket,
	}
}

// UploadResult is what a successful upload hands back to the boundary.
type UploadResult struct {
	Record *models.FileRecord
	// InputURL is the immediately resolvable link to the uploaded bytes.
	InputURL string
}

// StorageKey derives an owner-prefixed, collision-resistant input key:
// owner + "/" + creation time in unix milliseconds + original extension.
func StorageKey(ownerID, fileName string) string {
	return fmt.Sprintf("%s/%d%s", ownerID, nowUnixMilli(), path.Ext(fileName))
}

// Upload stores the file bytes in the input bucket and records its
// metadata. If the metadata insert fails after a successful put, the
// error is a StepError wrapping ErrorPartialSuccess: the blob exists at
// the derived key and only the metadata step needs to be retried.
func (s *Service) Upload(ctx context.Context, ownerID, campaignID, fileName, contentType string, data []byte) (*UploadResult, error) {
	if campaignID == "" {
		return nil, fmt.Errorf("no campaign selected: %w", common.ErrorValidation)
	}
	if fileName == "" {
		return nil, fmt.Errorf("no file name: %w", common.ErrorValidation)
	}

	campaign, err := s.registry.GetOwnedCampaign(ctx, campaignID, ownerID)
	if err != nil {
		return nil, err
	}

	key := StorageKey(ownerID, fileName)

	if err := s.store.Put(ctx, s.inputBucket, key, data, contentType, false); err != nil {
		return nil, &common.StepError{Step: "blob upload", Err: err}
	}

	inputURL, err := s.store.ResolveURL(s.inputBucket, key)
	if err != nil {
		// The upload itself succeeded; the link is re-derivable later.
		s.logger.Warn(ctx, "could not resolve input url", "key", key, "error", err)
		inputURL = ""
	}

	record := &models.FileRecord{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		CampaignID: campaign.ID,
		FileName:   path.Base(key),
		FileType:   contentType,
		StorageKey: key,
	}
	if err := s.fileRepo.Create(ctx, record); err != nil {
		return nil, &common.StepError{
			Step:      "metadata insert",
			Completed: "blob upload",
			Err:       fmt.Errorf("%v: %w", err, common.ErrorPartialSuccess),
		}
	}

	s.emit(ctx, notify.Event{Kind: "file.uploaded", OwnerID: ownerID, CampaignID: campaign.ID, StorageKey: key, URL: inputURL})

	return &UploadResult{Record: record, InputURL: inputURL}, nil
}

// UploadUnfiled stores file bytes in the input bucket without attaching
// them to a campaign: no metadata row is written. This is the direct
// upload path; files stored this way appear in no listing until a record
// is created for them.
func (s *Service) UploadUnfiled(ctx context.Context, ownerID, fileName, contentType string, data []byte) (string, error) {
	if fileName == "" {
		return "", fmt.Errorf("no file name: %w", common.ErrorValidation)
	}

	key := StorageKey(ownerID, fileName)

	if err := s.store.Put(ctx, s.inputBucket, key, data, contentType, false); err != nil {
		return "", fmt.Errorf("error storing file: %w", err)
	}

	inputURL, err := s.store.ResolveURL(s.inputBucket, key)
	if err != nil {
		s.logger.Warn(ctx, "could not resolve input url", "key", key, "error", err)
		inputURL = ""
	}

	s.emit(ctx, notify.Event{Kind: "file.uploaded", OwnerID: ownerID, StorageKey: key, URL: inputURL})

	return inputURL, nil
}

// ListFiles returns the campaign's records joined with their input URL
// and, best-effort, the output URL. A missing or unresolvable output is
// not an error: the artifact has simply not been generated yet and the
// listing shows it as absent.
func (s *Service) ListFiles(ctx context.Context, ownerID, campaignID string) ([]*models.FileListing, error) {
	campaign, err := s.registry.GetOwnedCampaign(ctx, campaignID, ownerID)
	if err != nil {
		return nil, err
	}

	records, err := s.fileRepo.ListByCampaign(ctx, campaign.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing file records: %w", err)
	}

	result := make([]*models.FileListing, 0, len(records))
	for _, record := range records {
		listing := &models.FileListing{Record: *record}

		inputURL, err := s.store.ResolveURL(s.inputBucket, record.StorageKey)
		if err != nil {
			return nil, fmt.Errorf("error resolving input url for %s: %w", record.StorageKey, err)
		}
		listing.InputURL = inputURL

		destKey := pipeline.DestinationKey(record.OwnerID, record.StorageKey)
		if ok, err := s.store.Exists(ctx, s.outputBucket, destKey); err == nil && ok {
			if outputURL, err := s.store.ResolveURL(s.outputBucket, destKey); err == nil {
				listing.OutputURL = outputURL
			}
		} else if err != nil {
			s.logger.Warn(ctx, "output existence check failed", "key", destKey, "error", err)
		}

		result = append(result, listing)
	}

	return result, nil
}

// Generate produces the derived artifact for an uploaded input key and
// returns its URL. Regenerating an existing artifact fails with
// ErrorAlreadyGenerated; see GenerateIfAbsent on the pipeline for the
// idempotent variant.
func (s *Service) Generate(ctx context.Context, ownerID, inputKey string) (string, error) {
	if inputKey == "" {
		return "", fmt.Errorf("no uploaded file to process: %w", common.ErrorValidation)
	}

	url, err := s.pipeline.Generate(ctx, inputKey, ownerID)
	if err != nil {
		return "", err
	}

	s.emit(ctx, notify.Event{Kind: "output.generated", OwnerID: ownerID, StorageKey: inputKey, URL: url})

	return url, nil
}

// GenerateIfAbsent is the idempotent variant of Generate: if the artifact
// already exists its URL is returned and existed is true. A notification
// is emitted only when the artifact was newly produced.
func (s *Service) GenerateIfAbsent(ctx context.Context, ownerID, inputKey string) (url string, existed bool, err error) {
	if inputKey == "" {
		return "", false, fmt.Errorf("no uploaded file to process: %w", common.ErrorValidation)
	}

	url, existed, err = s.pipeline.GenerateIfAbsent(ctx, inputKey, ownerID)
	if err != nil {
		return "", false, err
	}
	if !existed {
		s.emit(ctx, notify.Event{Kind: "output.generated", OwnerID: ownerID, StorageKey: inputKey, URL: url})
	}
	return url, existed, nil
}

func (s *Service) emit(ctx context.Context, event notify.Event) {
	if err := s.notifier.Publish(ctx, event); err != nil {
		s.logger.Warn(ctx, "notification publish failed", "kind", event.Kind, "error", err)
	}
}
