package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/museme-app/museme-engine/pkg/services"
)

// AssetHandler handles sample library HTTP requests.
type AssetHandler struct {
	assetService    services.AssetService
	analysisService services.AnalysisService
	logger          *zap.Logger
}

// NewAssetHandler creates a new asset handler.
func NewAssetHandler(assetService services.AssetService, analysisService services.AnalysisService, logger *zap.Logger) *AssetHandler {
	return &AssetHandler{
		assetService:    assetService,
		analysisService: analysisService,
		logger:          logger,
	}
}

// RegisterRoutes registers the asset handler's routes on the given mux.
func (h *AssetHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/assets", h.ListAssets)
	mux.HandleFunc("POST /api/assets", h.RegisterAsset)
	mux.HandleFunc("GET /api/assets/{asset_id}", h.GetAsset)
	mux.HandleFunc("POST /api/analyze", h.AnalyzeAll)
	mux.HandleFunc("POST /api/assets/{asset_id}/analyze", h.AnalyzeAsset)
}

// ListAssets handles GET /api/assets
func (h *AssetHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.assetService.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list assets", zap.Error(err))
		_ = ServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: assets}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// RegisterAsset handles POST /api/assets
func (h *AssetHandler) RegisterAsset(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if req.Filename == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "missing_filename", "Filename is required")
		return
	}

	asset, err := h.assetService.Register(r.Context(), req)
	if err != nil {
		h.logger.Error("Failed to register asset", zap.Error(err))
		_ = ServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: asset}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetAsset handles GET /api/assets/{asset_id}
func (h *AssetHandler) GetAsset(w http.ResponseWriter, r *http.Request) {
	assetID, ok := ParseUUIDPath(w, r, "asset_id")
	if !ok {
		return
	}

	asset, err := h.assetService.Get(r.Context(), assetID)
	if err != nil {
		_ = ServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: asset}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// AnalyzeAll handles POST /api/analyze
func (h *AssetHandler) AnalyzeAll(w http.ResponseWriter, r *http.Request) {
	summary, err := h.analysisService.AnalyzeAll(r.Context())
	if err != nil {
		h.logger.Error("Batch analysis failed", zap.Error(err))
		_ = ServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: summary}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// AnalyzeAsset handles POST /api/assets/{asset_id}/analyze
// The force query parameter triggers re-analysis of an already-analyzed
// sample.
func (h *AssetHandler) AnalyzeAsset(w http.ResponseWriter, r *http.Request) {
	assetID, ok := ParseUUIDPath(w, r, "asset_id")
	if !ok {
		return
	}
	force := r.URL.Query().Get("force") == "true"

	asset, err := h.analysisService.AnalyzeAsset(r.Context(), assetID, force)
	if err != nil {
		h.logger.Error("Asset analysis failed",
			zap.String("asset_id", assetID.String()),
			zap.Error(err))
		_ = ServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: asset}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
