package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"campaignspace/internal/server/models"
)

// maxUploadBytes bounds multipart uploads read into memory.
const maxUploadBytes = 32 << 20

type campaignResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	FileCount int64     `json:"file_count"`
}

func toCampaignResponse(c *models.Campaign) campaignResponse {
	return campaignResponse{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
}

type fileListingResponse struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	FileType   string    `json:"file_type"`
	StorageKey string    `json:"storage_key"`
	CreatedAt  time.Time `json:"created_at"`
	InputURL   string    `json:"input_url"`
	OutputURL  string    `json:"output_url,omitempty"`
}

func (h *Handler) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	campaigns, err := h.registry.ListCampaigns(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	result := make([]campaignResponse, 0, len(campaigns))
	for _, c := range campaigns {
		item := toCampaignResponse(c)
		if n, err := h.registry.CountFiles(r.Context(), c.ID, userID); err == nil {
			item.FileCount = n
		}
		result = append(result, item)
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	campaign, err := h.registry.CreateCampaign(r.Context(), userID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCampaignResponse(campaign))
}

func (h *Handler) handleRenameCampaign(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.registry.RenameCampaign(r.Context(), id, userID, req.Name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteCampaign cascade-deletes the campaign's file records and then
// the campaign itself. Output-bucket artifacts are not removed.
func (h *Handler) handleDeleteCampaign(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.registry.DeleteCampaignCascade(r.Context(), id, userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListFiles(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	listings, err := h.workspace.ListFiles(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	result := make([]fileListingResponse, 0, len(listings))
	for _, l := range listings {
		result = append(result, fileListingResponse{
			ID:         l.Record.ID,
			FileName:   l.Record.FileName,
			FileType:   l.Record.FileType,
			StorageKey: l.Record.StorageKey,
			CreatedAt:  l.Record.CreatedAt,
			InputURL:   l.InputURL,
			OutputURL:  l.OutputURL,
		})
	}
	writeJSON(w, http.StatusOK, result)
}

// handleUploadFile accepts a multipart "file" field, stores it in the input
// bucket, and records its metadata under the campaign.
func (h *Handler) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "could not read file")
		return
	}

	contentType := header.Header.Get("Content-Type")
	result, err := h.workspace.Upload(r.Context(), userID, id, header.Filename, contentType, data)
	if err != nil {
		h.logger.Error(r.Context(), "upload failed", "campaign", id, "file", header.Filename, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, fileListingResponse{
		ID:         result.Record.ID,
		FileName:   result.Record.FileName,
		FileType:   result.Record.FileType,
		StorageKey: result.Record.StorageKey,
		CreatedAt:  result.Record.CreatedAt,
		InputURL:   result.InputURL,
	})
}

// handleGenerateFile triggers generation for an uploaded storage key. With
// if_absent set, an already generated artifact is returned instead of a
// conflict.
func (h *Handler) handleGenerateFile(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	var req struct {
		FilePath string `json:"filePath"`
		IfAbsent bool   `json:"if_absent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		url     string
		existed bool
		err     error
	)
	if req.IfAbsent {
		url, existed, err = h.workspace.GenerateIfAbsent(r.Context(), userID, req.FilePath)
	} else {
		url, err = h.workspace.Generate(r.Context(), userID, req.FilePath)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"publicUrl": url, "existed": existed})
}
