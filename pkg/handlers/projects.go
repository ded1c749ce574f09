package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/museme-app/museme-engine/pkg/services"
)

// ProjectHandler handles project and edit HTTP requests.
type ProjectHandler struct {
	songService services.SongService
	logger      *zap.Logger
}

// NewProjectHandler creates a new project handler.
func NewProjectHandler(songService services.SongService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		songService: songService,
		logger:      logger,
	}
}

// RegisterRoutes registers the project handler's routes on the given mux.
func (h *ProjectHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/projects", h.ListProjects)
	mux.HandleFunc("GET /api/projects/{project_id}/songs", h.ListProjectSongs)
	mux.HandleFunc("POST /api/projects/{project_id}/edit", h.EditProject)
}

// ListProjects handles GET /api/projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.songService.ListProjects(r.Context())
	if err != nil {
		h.logger.Error("Failed to list projects", zap.Error(err))
		_ = ServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: projects}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListProjectSongs handles GET /api/projects/{project_id}/songs
func (h *ProjectHandler) ListProjectSongs(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseUUIDPath(w, r, "project_id")
	if !ok {
		return
	}

	songs, err := h.songService.ListProjectSongs(r.Context(), projectID)
	if err != nil {
		_ = ServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: songs}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// EditProject handles POST /api/projects/{project_id}/edit
func (h *ProjectHandler) EditProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseUUIDPath(w, r, "project_id")
	if !ok {
		return
	}

	var req services.EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if req.Prompt == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "missing_prompt", "Prompt is required")
		return
	}

	song, err := h.songService.Edit(r.Context(), projectID, req)
	if err != nil {
		h.logger.Error("Project edit failed",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		_ = ServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: song}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
