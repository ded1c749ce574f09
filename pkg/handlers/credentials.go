package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/museme-app/museme-engine/pkg/models"
	"github.com/museme-app/museme-engine/pkg/services"
)

// CredentialHandler handles generation API key management requests.
type CredentialHandler struct {
	credentialService services.CredentialService
	logger            *zap.Logger
}

// NewCredentialHandler creates a new credential handler.
func NewCredentialHandler(credentialService services.CredentialService, logger *zap.Logger) *CredentialHandler {
	return &CredentialHandler{
		credentialService: credentialService,
		logger:            logger,
	}
}

// RegisterRoutes registers the credential handler's routes on the given mux.
func (h *CredentialHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/keys", h.ListKeys)
	mux.HandleFunc("POST /api/keys", h.AddKey)
	mux.HandleFunc("DELETE /api/keys/{key_id}", h.RemoveKey)
	mux.HandleFunc("PATCH /api/keys/{key_id}", h.UpdateKey)
}

// credentialResponse exposes a credential with its key value redacted.
type credentialResponse struct {
	ID         string     `json:"id"`
	Key        string     `json:"key"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	UsageCount int        `json:"usage_count"`
	ErrorCount int        `json:"error_count"`
}

func toCredentialResponse(c *models.Credential) credentialResponse {
	return credentialResponse{
		ID:         c.ID.String(),
		Key:        c.Redacted(),
		IsActive:   c.IsActive,
		CreatedAt:  c.CreatedAt,
		LastUsedAt: c.LastUsedAt,
		UsageCount: c.UsageCount,
		ErrorCount: c.ErrorCount,
	}
}

// ListKeys handles GET /api/keys
func (h *CredentialHandler) ListKeys(w http.ResponseWriter, r *http.Request) {
	creds, err := h.credentialService.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list credentials", zap.Error(err))
		_ = ServiceError(w, err)
		return
	}

	out := make([]credentialResponse, 0, len(creds))
	for _, c := range creds {
		out = append(out, toCredentialResponse(c))
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: out}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

type addKeyRequest struct {
	Key string `json:"key"`
}

// AddKey handles POST /api/keys
func (h *CredentialHandler) AddKey(w http.ResponseWriter, r *http.Request) {
	var req addKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if req.Key == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "missing_key", "Key is required")
		return
	}

	cred, err := h.credentialService.Add(r.Context(), req.Key)
	if err != nil {
		h.logger.Error("Failed to add credential", zap.Error(err))
		_ = ServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: toCredentialResponse(cred)}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// RemoveKey handles DELETE /api/keys/{key_id}
func (h *CredentialHandler) RemoveKey(w http.ResponseWriter, r *http.Request) {
	keyID, ok := ParseUUIDPath(w, r, "key_id")
	if !ok {
		return
	}

	if err := h.credentialService.Remove(r.Context(), keyID); err != nil {
		_ = ServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "Key removed"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

type updateKeyRequest struct {
	IsActive *bool `json:"is_active"`
}

// UpdateKey handles PATCH /api/keys/{key_id}
func (h *CredentialHandler) UpdateKey(w http.ResponseWriter, r *http.Request) {
	keyID, ok := ParseUUIDPath(w, r, "key_id")
	if !ok {
		return
	}

	var req updateKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if req.IsActive == nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "missing_is_active", "is_active is required")
		return
	}

	if err := h.credentialService.SetActive(r.Context(), keyID, *req.IsActive); err != nil {
		_ = ServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "Key updated"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
