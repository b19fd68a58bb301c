// Package pipeline produces the derived output artifact for one file
// record's input key: it dereferences the input object over HTTP and
// re-uploads the bytes into the output bucket under a derived key.
//
// The pipeline owns idempotency: the output bucket rejects overwrites, so
// at most one generation attempt per destination key can ever succeed.
// Concurrent generations race on that store-side check; no in-process lock
// is added since it would not hold across replicas.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/sethvargo/go-retry"

	"campaignspace/internal/common"
	"campaignspace/internal/logging"
	"campaignspace/internal/server/objstore"
)

type Service struct {
	store        objstore.Client
	httpClient   *http.Client
	inputBucket  string
	outputBucket string
	logger       logging.Logger
}

// NewService builds a pipeline. httpClient must carry the fetch timeout;
// blocking forever on a dead source is not an option.
func NewService(store objstore.Client, httpClient *http.Client, inputBucket, outputBucket string, logger logging.Logger) *Service {
	return &Service{
		store:        store,
		httpClient:   httpClient,
		inputBucket:  inputBucket,
		outputBucket: outputBucket,
		logger:       logger,
	}
}

// DestinationKey derives the output key for an input key: only the final
// filename component is kept, re-prefixed with the owner id. Output keys
// are always derived; callers cannot supply one.
func DestinationKey(ownerID, inputKey string) string {
	return ownerID + "/" + path.Base(inputKey)
}

// Generate copies the input object's bytes into the output bucket.
//
// Steps: resolve the source URL, dereference it over HTTP (transient
// failures retried with bounded backoff), derive the destination key, put
// with overwrite disabled, resolve the destination URL. A destination that
// already exists fails with ErrorAlreadyGenerated; callers who want
// idempotent semantics use GenerateIfAbsent.
func (s *Service) Generate(ctx context.Context, inputKey, ownerID string) (string, error) {

	sourceURL, err := s.store.ResolveURL(s.inputBucket, inputKey)
	if err != nil {
		return "", fmt.Errorf("could not get source URL: %v: %w", err, common.ErrorSourceUnresolvable)
	}

	body, contentType, err := s.fetchSource(ctx, sourceURL)
	if err != nil {
		return "", err
	}

	destKey := DestinationKey(ownerID, inputKey)

	err = s.store.Put(ctx, s.outputBucket, destKey, body, contentType, false)
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return "", fmt.Errorf("output %s exists: %w", destKey, common.ErrorAlreadyGenerated)
		}
		return "", fmt.Errorf("error uploading output: %w", err)
	}

	finalURL, err := s.store.ResolveURL(s.outputBucket, destKey)
	if err != nil {
		// The upload is not rolled back: the artifact exists and a retry
		// of resolution alone can recover it.
		return "", fmt.Errorf("could not get final URL: %v: %w", err, common.ErrorDestinationUnresolvable)
	}

	s.logger.Info(ctx, "output generated", "input_key", inputKey, "dest_key", destKey)

	return finalURL, nil
}

// GenerateIfAbsent behaves like Generate but treats an already-generated
// destination as success, resolving and returning the existing URL. The
// second return value reports whether the artifact existed beforehand.
// This also absorbs the ambiguous case of a canceled-then-retried
// generation whose first attempt reached the store.
func (s *Service) GenerateIfAbsent(ctx context.Context, inputKey, ownerID string) (string, bool, error) {
	finalURL, err := s.Generate(ctx, inputKey, ownerID)
	if err == nil {
		return finalURL, false, nil
	}
	if !errors.Is(err, common.ErrorAlreadyGenerated) {
		return "", false, err
	}

	destKey := DestinationKey(ownerID, inputKey)
	existingURL, err := s.store.ResolveURL(s.outputBucket, destKey)
	if err != nil {
		return "", true, fmt.Errorf("could not get final URL: %v: %w", err, common.ErrorDestinationUnresolvable)
	}
	return existingURL, true, nil
}

// fetchSource dereferences the resolved source URL. Transport errors are
// retried with exponential backoff; a status that indicates absence is not.
func (s *Service) fetchSource(ctx context.Context, sourceURL string) ([]byte, string, error) {
	var body []byte
	var contentType string

	backoff := retry.WithMaxRetries(2, retry.NewExponential(200*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
		if err != nil {
			return err
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
			return fmt.Errorf("source download returned status %d: %w", resp.StatusCode, common.ErrorSourceNotFound)
		}
		if resp.StatusCode != http.StatusOK {
			return retry.RetryableError(fmt.Errorf("source download returned status %d", resp.StatusCode))
		}

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}

		body = b
		contentType = resp.Header.Get("Content-Type")
		return nil
	})

	if err != nil {
		if errors.Is(err, common.ErrorSourceNotFound) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("failed to download source file: %v: %w", err, common.ErrorSourceUnreachable)
	}

	return body, contentType, nil
}
