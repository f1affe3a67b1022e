package handlers

import (
	"context"
	"net/http"
	"strconv"

	"signalnet/internal/apperr"
	"signalnet/internal/auth"
	"signalnet/internal/feed"
	"signalnet/internal/models"

	"go.uber.org/zap"
)

type FeedBuilder interface {
	Build(ctx context.Context, req feed.Request) ([]models.ScoredPost, error)
}

// FeedHandler serves GET /api/posts.
type FeedHandler struct {
	builder FeedBuilder
	logger  *zap.Logger
}

func NewFeedHandler(builder FeedBuilder, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{builder: builder, logger: logger}
}

func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	viewerID := auth.ViewerID(r.Context())
	if viewerID == "" {
		respondError(w, r, h.logger, errNoViewer)
		return
	}

	q := r.URL.Query()

	feedType, err := feed.ParseType(q.Get("type"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	maxDistance, err := parseDistance(q.Get("distance"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	entries, err := h.builder.Build(r.Context(), feed.Request{
		ViewerID:         viewerID,
		Type:             feedType,
		MaxDistanceMiles: maxDistance,
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if entries == nil {
		entries = []models.ScoredPost{}
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"posts": entries})
}

// parseDistance reads whole miles. An absent parameter disables the filter.
func parseDistance(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	miles, err := strconv.Atoi(raw)
	if err != nil || miles < 0 {
		return nil, apperr.Invalid("distance must be a non-negative whole number of miles")
	}
	d := float64(miles)
	return &d, nil
}
