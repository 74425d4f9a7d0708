package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/pinchgrab/internal/app"
)

// SettingsService reads and changes the session options.
type SettingsService interface {
	SessionConfig() app.SessionConfig
	SetShowLandmarks(show bool) error
}

// SettingsHandler serves /api/settings.
type SettingsHandler struct {
	settings SettingsService
}

// NewSettingsHandler creates a SettingsHandler.
func NewSettingsHandler(s SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: s}
}

type updateSettingsRequest struct {
	ShowLandmarks *bool `json:"show_landmarks"`
}

func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.settings.SessionConfig())
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// update handles PUT /api/settings.
func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.ShowLandmarks == nil {
		writeError(w, http.StatusBadRequest, "show_landmarks is required")
		return
	}

	if err := h.settings.SetShowLandmarks(*req.ShowLandmarks); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, h.settings.SessionConfig())
}
