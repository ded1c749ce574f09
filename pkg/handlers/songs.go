package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/museme-app/museme-engine/pkg/services"
)

// SongHandler handles song generation and listing HTTP requests.
type SongHandler struct {
	songService services.SongService
	logger      *zap.Logger
}

// NewSongHandler creates a new song handler.
func NewSongHandler(songService services.SongService, logger *zap.Logger) *SongHandler {
	return &SongHandler{
		songService: songService,
		logger:      logger,
	}
}

// RegisterRoutes registers the song handler's routes on the given mux.
func (h *SongHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/songs", h.ListSongs)
	mux.HandleFunc("GET /api/songs/{song_id}", h.GetSong)
	mux.HandleFunc("POST /api/songs/generate", h.Generate)
}

// ListSongs handles GET /api/songs
func (h *SongHandler) ListSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := h.songService.ListSongs(r.Context())
	if err != nil {
		h.logger.Error("Failed to list songs", zap.Error(err))
		_ = ServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: songs}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetSong handles GET /api/songs/{song_id}
func (h *SongHandler) GetSong(w http.ResponseWriter, r *http.Request) {
	songID, ok := ParseUUIDPath(w, r, "song_id")
	if !ok {
		return
	}

	song, err := h.songService.GetSong(r.Context(), songID)
	if err != nil {
		_ = ServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: song}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Generate handles POST /api/songs/generate
func (h *SongHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req services.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if req.Prompt == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "missing_prompt", "Prompt is required")
		return
	}

	result, err := h.songService.Generate(r.Context(), req)
	if err != nil {
		h.logger.Error("Song generation failed", zap.Error(err))
		_ = ServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
