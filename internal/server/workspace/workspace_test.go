package workspace

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"campaignspace/internal/common"
	"campaignspace/internal/logging"
	"campaignspace/internal/server/models"
	"campaignspace/internal/server/notify"
	"campaignspace/internal/server/objstore"
	"campaignspace/internal/server/pipeline"
	"campaignspace/internal/server/registry"
	"campaignspace/internal/server/repositories/campaigns"
	"campaignspace/internal/server/repositories/filerecords"
)

const (
	inputBucket  = "campaign-files"
	outputBucket = "campaign-outputs"
)

// -------- test fakes --------

type fakeCampaignRepo struct {
	campaigns.Repository

	byID map[string]*models.Campaign
}

func (f *fakeCampaignRepo) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return c, nil
}

type fakeFileRepo struct {
	filerecords.Repository

	records   []*models.FileRecord
	createErr error
	listErr   error
}

func (f *fakeFileRepo) Create(ctx context.Context, record *models.FileRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeFileRepo) ListByCampaign(ctx context.Context, campaignID string) ([]*models.FileRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	result := []*models.FileRecord{}
	for _, r := range f.records {
		if r.CampaignID == campaignID {
			result = append(result, r)
		}
	}
	return result, nil
}

type capturingNotifier struct {
	events []notify.Event
}

func (n *capturingNotifier) Publish(ctx context.Context, event notify.Event) error {
	n.events = append(n.events, event)
	return nil
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// newStoreServer exposes an in-memory store over HTTP so resolved URLs
// actually dereference, mirroring a public bucket endpoint.
func newStoreServer(t *testing.T) *objstore.Memory {
	t.Helper()

	store := objstore.NewMemory("")
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
		if len(parts) != 2 {
			http.NotFound(w, r)
			return
		}
		data, err := store.GetBytes(r.Context(), parts[0], parts[1])
		if err != nil {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(ts.Close)

	store.BaseURL = ts.URL
	return store
}

type env struct {
	service  *Service
	store    *objstore.Memory
	fileRepo *fakeFileRepo
	notifier *capturingNotifier
}

func newEnv(t *testing.T, campaign *models.Campaign) *env {
	t.Helper()

	store := newStoreServer(t)
	campaignRepo := &fakeCampaignRepo{byID: map[string]*models.Campaign{}}
	if campaign != nil {
		campaignRepo.byID[campaign.ID] = campaign
	}
	fileRepo := &fakeFileRepo{}
	notifier := &capturingNotifier{}
	logger := testLogger()

	reg := registry.NewService(campaignRepo, fileRepo, notifier, logger)
	pipe := pipeline.NewService(store, &http.Client{Timeout: 5 * time.Second}, inputBucket, outputBucket, logger)

	return &env{
		service:  NewService(reg, fileRepo, store, pipe, notifier, logger, inputBucket, outputBucket),
		store:    store,
		fileRepo: fileRepo,
		notifier: notifier,
	}
}

func fixKey(t *testing.T, millis int64) {
	t.Helper()
	orig := nowUnixMilli
	nowUnixMilli = func() int64 { return millis }
	t.Cleanup(func() { nowUnixMilli = orig })
}

// -------- tests --------

func TestStorageKey(t *testing.T) {
	fixKey(t, 1700000000123)

	got := StorageKey("owner-1", "logo.png")
	want := "owner-1/1700000000123.png"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	// Files without an extension get a bare timestamp key.
	got = StorageKey("owner-1", "README")
	want = "owner-1/1700000000123"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestUpload_Success(t *testing.T) {
	campaign := &models.Campaign{ID: "camp-1", OwnerID: "owner-1", Name: "Spring"}
	e := newEnv(t, campaign)
	fixKey(t, 1700000000123)

	result, err := e.service.Upload(context.Background(), "owner-1", "camp-1", "logo.png", "image/png", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantKey := "owner-1/1700000000123.png"
	if result.Record.StorageKey != wantKey {
		t.Fatalf("expected key %q, got %q", wantKey, result.Record.StorageKey)
	}
	if result.Record.CampaignID != "camp-1" || result.Record.OwnerID != "owner-1" {
		t.Fatalf("record not scoped to campaign/owner: %+v", result.Record)
	}
	if result.Record.FileName != "1700000000123.png" {
		t.Fatalf("unexpected file name %q", result.Record.FileName)
	}
	if result.Record.ID == "" {
		t.Fatal("record id not assigned")
	}
	if !strings.HasSuffix(result.InputURL, "/"+inputBucket+"/"+wantKey) {
		t.Fatalf("unexpected input url %q", result.InputURL)
	}

	data, err := e.store.GetBytes(context.Background(), inputBucket, wantKey)
	if err != nil {
		t.Fatalf("blob not stored: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("unexpected blob contents %q", data)
	}

	if len(e.fileRepo.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(e.fileRepo.records))
	}
	if len(e.notifier.events) != 1 || e.notifier.events[0].Kind != "file.uploaded" {
		t.Fatalf("expected file.uploaded event, got %+v", e.notifier.events)
	}
}

func TestUpload_NoCampaignSelected(t *testing.T) {
	e := newEnv(t, nil)

	_, err := e.service.Upload(context.Background(), "owner-1", "", "logo.png", "image/png", []byte("x"))
	if !errors.Is(err, common.ErrorValidation) {
		t.Fatalf("expected ErrorValidation, got %v", err)
	}
}

func TestUpload_ForeignCampaign(t *testing.T) {
	campaign := &models.Campaign{ID: "camp-1", OwnerID: "other", Name: "Spring"}
	e := newEnv(t, campaign)

	_, err := e.service.Upload(context.Background(), "owner-1", "camp-1", "logo.png", "image/png", []byte("x"))
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("expected ErrorUnauthorized, got %v", err)
	}
}

func TestUpload_BlobPutFails(t *testing.T) {
	campaign := &models.Campaign{ID: "camp-1", OwnerID: "owner-1", Name: "Spring"}
	e := newEnv(t, campaign)
	e.store.PutErr = common.ErrorStoreUnavailable

	_, err := e.service.Upload(context.Background(), "owner-1", "camp-1", "logo.png", "image/png", []byte("x"))
	if !errors.Is(err, common.ErrorStoreUnavailable) {
		t.Fatalf("expected ErrorStoreUnavailable, got %v", err)
	}

	var stepErr *common.StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected StepError, got %T", err)
	}
	if stepErr.Step != "blob upload" || stepErr.Completed != "" {
		t.Fatalf("unexpected step report: %+v", stepErr)
	}
	if len(e.fileRepo.records) != 0 {
		t.Fatal("metadata must not be inserted when the blob put fails")
	}
}

func TestUpload_MetadataInsertFails_PartialSuccess(t *testing.T) {
	campaign := &models.Campaign{ID: "camp-1", OwnerID: "owner-1", Name: "Spring"}
	e := newEnv(t, campaign)
	e.fileRepo.createErr = errors.New("insert blew up")
	fixKey(t, 1700000000123)

	_, err := e.service.Upload(context.Background(), "owner-1", "camp-1", "logo.png", "image/png", []byte("x"))
	if !errors.Is(err, common.ErrorPartialSuccess) {
		t.Fatalf("expected ErrorPartialSuccess, got %v", err)
	}

	var stepErr *common.StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected StepError, got %T", err)
	}
	if stepErr.Step != "metadata insert" || stepErr.Completed != "blob upload" {
		t.Fatalf("unexpected step report: %+v", stepErr)
	}

	// The blob exists at the derived key even though the workflow failed.
	if _, err := e.store.GetBytes(context.Background(), inputBucket, "owner-1/1700000000123.png"); err != nil {
		t.Fatalf("blob missing after partial success: %v", err)
	}
}

func TestListFiles(t *testing.T) {
	campaign := &models.Campaign{ID: "camp-1", OwnerID: "owner-1", Name: "Spring"}
	e := newEnv(t, campaign)
	ctx := context.Background()

	// Two records; only the first has a generated output.
	e.fileRepo.records = []*models.FileRecord{
		{ID: "f1", OwnerID: "owner-1", CampaignID: "camp-1", StorageKey: "owner-1/1.png"},
		{ID: "f2", OwnerID: "owner-1", CampaignID: "camp-1", StorageKey: "owner-1/2.png"},
	}
	if err := e.store.Put(ctx, inputBucket, "owner-1/1.png", []byte("a"), "image/png", false); err != nil {
		t.Fatal(err)
	}
	if err := e.store.Put(ctx, inputBucket, "owner-1/2.png", []byte("b"), "image/png", false); err != nil {
		t.Fatal(err)
	}
	if err := e.store.Put(ctx, outputBucket, "owner-1/1.png", []byte("a"), "image/png", false); err != nil {
		t.Fatal(err)
	}

	listings, err := e.service.ListFiles(ctx, "owner-1", "camp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}

	if listings[0].InputURL == "" || listings[1].InputURL == "" {
		t.Fatal("input urls must always be resolved")
	}
	if listings[0].OutputURL == "" {
		t.Fatal("expected output url for the generated record")
	}
	if listings[1].OutputURL != "" {
		t.Fatalf("expected no output url for ungenerated record, got %q", listings[1].OutputURL)
	}
}

func TestListFiles_ExistenceCheckFailureIsNotFatal(t *testing.T) {
	campaign := &models.Campaign{ID: "camp-1", OwnerID: "owner-1", Name: "Spring"}
	e := newEnv(t, campaign)
	ctx := context.Background()

	e.fileRepo.records = []*models.FileRecord{
		{ID: "f1", OwnerID: "owner-1", CampaignID: "camp-1", StorageKey: "owner-1/1.png"},
	}
	e.store.GetErr = common.ErrorStoreUnavailable

	listings, err := e.service.ListFiles(ctx, "owner-1", "camp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(listings))
	}
	if listings[0].OutputURL != "" {
		t.Fatalf("expected empty output url when existence check fails, got %q", listings[0].OutputURL)
	}
}

func TestListFiles_ForeignCampaign(t *testing.T) {
	campaign := &models.Campaign{ID: "camp-1", OwnerID: "other", Name: "Spring"}
	e := newEnv(t, campaign)

	_, err := e.service.ListFiles(context.Background(), "owner-1", "camp-1")
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("expected ErrorUnauthorized, got %v", err)
	}
}

func TestGenerate(t *testing.T) {
	campaign := &models.Campaign{ID: "camp-1", OwnerID: "owner-1", Name: "Spring"}
	e := newEnv(t, campaign)
	ctx := context.Background()

	if err := e.store.Put(ctx, inputBucket, "owner-1/1.png", []byte("png-bytes"), "image/png", false); err != nil {
		t.Fatal(err)
	}

	url, err := e.service.Generate(ctx, "owner-1", "owner-1/1.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(url, "/"+outputBucket+"/owner-1/1.png") {
		t.Fatalf("unexpected output url %q", url)
	}

	data, err := e.store.GetBytes(ctx, outputBucket, "owner-1/1.png")
	if err != nil {
		t.Fatalf("artifact not stored: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("unexpected artifact contents %q", data)
	}

	if len(e.notifier.events) != 1 || e.notifier.events[0].Kind != "output.generated" {
		t.Fatalf("expected output.generated event, got %+v", e.notifier.events)
	}
}

func TestGenerateIfAbsent_SecondCallReturnsExisting(t *testing.T) {
	campaign := &models.Campaign{ID: "camp-1", OwnerID: "owner-1", Name: "Spring"}
	e := newEnv(t, campaign)
	ctx := context.Background()

	if err := e.store.Put(ctx, inputBucket, "owner-1/1.png", []byte("png-bytes"), "image/png", false); err != nil {
		t.Fatal(err)
	}

	first, existed, err := e.service.GenerateIfAbsent(ctx, "owner-1", "owner-1/1.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if existed {
		t.Fatal("first call must report a fresh artifact")
	}

	second, existed, err := e.service.GenerateIfAbsent(ctx, "owner-1", "owner-1/1.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !existed {
		t.Fatal("second call must report the artifact as existing")
	}
	if first != second {
		t.Fatalf("urls differ: %q vs %q", first, second)
	}

	// Only the first call produced the artifact, so only one event.
	if len(e.notifier.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(e.notifier.events))
	}
}

func TestGenerate_EmptyKey(t *testing.T) {
	e := newEnv(t, nil)

	_, err := e.service.Generate(context.Background(), "owner-1", "")
	if !errors.Is(err, common.ErrorValidation) {
		t.Fatalf("expected ErrorValidation, got %v", err)
	}
}
