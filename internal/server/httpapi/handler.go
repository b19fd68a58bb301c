// Package httpapi is the inbound HTTP adapter. It exposes the function
// endpoints consumed by the dashboard frontend plus a JSON API for
// campaign and file management, all bearer-token authenticated.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"campaignspace/internal/logging"
	"campaignspace/internal/server/registry"
	"campaignspace/internal/server/workspace"
)

// Handler holds the route dependencies and the configured router.
type Handler struct {
	workspace *workspace.Service
	registry  *registry.Service
	secretKey []byte
	logger    logging.Logger
	router    chi.Router
}

// NewHandler creates a handler with all routes configured.
func NewHandler(ws *workspace.Service, reg *registry.Service, secretKey []byte, logger logging.Logger) *Handler {
	h := &Handler{workspace: ws, registry: reg, secretKey: secretKey, logger: logger}

	r := chi.NewRouter()
	r.Use(h.corsMiddleware)

	r.Route("/functions/v1", func(r chi.Router) {
		r.With(h.authMiddleware).Post("/generate-output", h.handleGenerateOutput)
		r.With(h.authMiddleware).Post("/upload-handler", h.handleUploadHandler)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.authMiddleware)
		r.Get("/campaigns", h.handleListCampaigns)
		r.Post("/campaigns", h.handleCreateCampaign)
		r.Patch("/campaigns/{id}", h.handleRenameCampaign)
		r.Delete("/campaigns/{id}", h.handleDeleteCampaign)
		r.Get("/campaigns/{id}/files", h.handleListFiles)
		r.Post("/campaigns/{id}/files", h.handleUploadFile)
		r.Post("/campaigns/{id}/files/generate", h.handleGenerateFile)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}
