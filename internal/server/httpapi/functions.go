package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
)

// generateOutputRequest is the body of POST /functions/v1/generate-output.
// UserID is part of the wire format for compatibility with existing
// frontends, but the authenticated token identity is what is enforced.
type generateOutputRequest struct {
	FilePath string `json:"filePath"`
	UserID   string `json:"userId"`
}

type generateOutputResponse struct {
	PublicURL string `json:"publicUrl"`
}

// handleGenerateOutput produces the derived artifact for an uploaded input
// key and returns its public URL.
func (h *Handler) handleGenerateOutput(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	var req generateOutputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID != "" && req.UserID != userID {
		writeJSONError(w, http.StatusUnauthorized, "userId does not match token identity")
		return
	}

	url, err := h.workspace.Generate(r.Context(), userID, req.FilePath)
	if err != nil {
		h.logger.Error(r.Context(), "generation failed", "key", req.FilePath, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, generateOutputResponse{PublicURL: url})
}

// handleUploadHandler accepts a single multipart "file" field and stores it
// in the input bucket without creating a metadata record.
func (h *Handler) handleUploadHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Upload failed", http.StatusInternalServerError)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if _, err := h.workspace.UploadUnfiled(r.Context(), userID, header.Filename, contentType, data); err != nil {
		h.logger.Error(r.Context(), "direct upload failed", "file", header.Filename, "error", err)
		http.Error(w, "Upload failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Upload successful!"))
}
