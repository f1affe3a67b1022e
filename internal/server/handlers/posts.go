package handlers

import (
	"context"
	"net/http"

	"signalnet/internal/auth"
	"signalnet/internal/models"
	"signalnet/internal/posts"

	"go.uber.org/zap"
)

type PostService interface {
	Create(ctx context.Context, viewerID string, in posts.CreateInput) (*models.Post, error)
	Update(ctx context.Context, viewerID, postID string, in posts.UpdateInput) (*models.Post, error)
	Delete(ctx context.Context, viewerID, postID string) error
	SetArchived(ctx context.Context, viewerID, postID string, archived bool) (*models.Post, error)
}

type PostHandler struct {
	service PostService
	logger  *zap.Logger
}

func NewPostHandler(service PostService, logger *zap.Logger) *PostHandler {
	return &PostHandler{service: service, logger: logger}
}

// Create handles POST /api/posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in posts.CreateInput
	if err := requireBody(r, &in); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	post, err := h.service.Create(r.Context(), auth.ViewerID(r.Context()), in)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, map[string]interface{}{"post": post})
}

// Update handles PATCH /api/posts/{postID}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in posts.UpdateInput
	if err := requireBody(r, &in); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	postID, err := uuidParam(r, "postID")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	post, err := h.service.Update(r.Context(), auth.ViewerID(r.Context()), postID, in)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"post": post})
}

// Delete handles DELETE /api/posts/{postID}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	postID, err := uuidParam(r, "postID")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if err := h.service.Delete(r.Context(), auth.ViewerID(r.Context()), postID); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type archiveRequest struct {
	Archived *bool `json:"archived"`
}

// Archive handles POST /api/posts/{postID}/archive. Without a body the post
// is archived; {"archived": false} restores it.
func (h *PostHandler) Archive(w http.ResponseWriter, r *http.Request) {
	postID, err := uuidParam(r, "postID")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req archiveRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	archived := true
	if req.Archived != nil {
		archived = *req.Archived
	}

	post, err := h.service.SetArchived(r.Context(), auth.ViewerID(r.Context()), postID, archived)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"post": post})
}
