package handlers

import (
	"context"
	"net/http"

	"signalnet/internal/auth"
	"signalnet/internal/models"

	"go.uber.org/zap"
)

type ProfileService interface {
	Get(ctx context.Context, userID string) (*models.ProfileWithSignals, error)
	List(ctx context.Context, viewerID string) ([]models.ProfileWithSignals, error)
	SetLocation(ctx context.Context, viewerID, query string) (*models.Profile, error)
}

type ProfileHandler struct {
	service ProfileService
	logger  *zap.Logger
}

func NewProfileHandler(service ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{service: service, logger: logger}
}

// List handles GET /api/profiles. The viewer is excluded.
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.service.List(r.Context(), auth.ViewerID(r.Context()))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if profiles == nil {
		profiles = []models.ProfileWithSignals{}
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"profiles": profiles})
}

// Get handles GET /api/profiles/{profileID}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profileID, err := uuidParam(r, "profileID")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	profile, err := h.service.Get(r.Context(), profileID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"profile": profile})
}

type locationRequest struct {
	Location string `json:"location"`
}

// SetLocation handles PUT /api/profile/location
func (h *ProfileHandler) SetLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := requireBody(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	profile, err := h.service.SetLocation(r.Context(), auth.ViewerID(r.Context()), req.Location)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"profile": profile})
}
