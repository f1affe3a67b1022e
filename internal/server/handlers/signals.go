package handlers

import (
	"context"
	"net/http"

	"signalnet/internal/auth"
	"signalnet/internal/models"
	"signalnet/internal/signals"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type SignalCatalog interface {
	Categories(ctx context.Context) ([]models.SignalCategory, error)
	SignalsByCategory(ctx context.Context) (map[string][]models.SignalWithCategory, error)
}

type SignalService interface {
	Active(ctx context.Context, userID string) ([]models.UserSignalWithCategory, error)
	ValidateAdd(ctx context.Context, viewerID, signalID string) (signals.Decision, error)
	Add(ctx context.Context, viewerID, signalID string) (*models.UserSignal, signals.Decision, error)
	Remove(ctx context.Context, viewerID, signalID string) error
	Toggle(ctx context.Context, viewerID, signalID string) (*signals.ToggleResult, error)
}

type SignalHandler struct {
	catalog SignalCatalog
	service SignalService
	logger  *zap.Logger
}

func NewSignalHandler(catalog SignalCatalog, service SignalService, logger *zap.Logger) *SignalHandler {
	return &SignalHandler{catalog: catalog, service: service, logger: logger}
}

type categoryGroup struct {
	Category models.SignalCategory       `json:"category"`
	Signals  []models.SignalWithCategory `json:"signals"`
}

// ListCategories handles GET /api/signals/categories
func (h *SignalHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"categories": categories})
}

// ListSignals handles GET /api/signals, grouped by category in display order.
func (h *SignalHandler) ListSignals(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	grouped, err := h.catalog.SignalsByCategory(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	out := make([]categoryGroup, 0, len(categories))
	for _, cat := range categories {
		sigs := grouped[cat.ID]
		if sigs == nil {
			sigs = []models.SignalWithCategory{}
		}
		out = append(out, categoryGroup{Category: cat, Signals: sigs})
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"categories": out})
}

// ListUserSignals handles GET /api/user-signals?userId=
func (h *SignalHandler) ListUserSignals(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = auth.ViewerID(r.Context())
	} else if err := checkUUID("userId", userID); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	active, err := h.service.Active(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if active == nil {
		active = []models.UserSignalWithCategory{}
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"signals": active})
}

// Validate handles GET /api/user-signals/{signalID}/validate
func (h *SignalHandler) Validate(w http.ResponseWriter, r *http.Request) {
	decision, err := h.service.ValidateAdd(r.Context(), auth.ViewerID(r.Context()), chi.URLParam(r, "signalID"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, decision)
}

// Add handles POST /api/user-signals/{signalID}. A rejected selection is 422
// with the rejection reason.
func (h *SignalHandler) Add(w http.ResponseWriter, r *http.Request) {
	us, decision, err := h.service.Add(r.Context(), auth.ViewerID(r.Context()), chi.URLParam(r, "signalID"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if !decision.Allowed {
		respondMessage(w, h.logger, http.StatusUnprocessableEntity, decision.Reason)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, map[string]interface{}{"user_signal": us})
}

// Remove handles DELETE /api/user-signals/{signalID}
func (h *SignalHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Remove(r.Context(), auth.ViewerID(r.Context()), chi.URLParam(r, "signalID")); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Toggle handles POST /api/user-signals/{signalID}/toggle
func (h *SignalHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Toggle(r.Context(), auth.ViewerID(r.Context()), chi.URLParam(r, "signalID"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}
