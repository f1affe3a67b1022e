package handlers

import (
	"context"
	"net/http"

	"signalnet/internal/auth"
	"signalnet/internal/messages"
	"signalnet/internal/models"

	"go.uber.org/zap"
)

type MessageService interface {
	List(ctx context.Context, viewerID, connectionID string) ([]models.Message, error)
	Send(ctx context.Context, viewerID string, in messages.SendInput) (*models.Message, error)
	MarkRead(ctx context.Context, viewerID, connectionID string) (int64, error)
	Conversations(ctx context.Context, viewerID string) ([]models.Conversation, error)
}

type MessageHandler struct {
	service MessageService
	logger  *zap.Logger
}

func NewMessageHandler(service MessageService, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{service: service, logger: logger}
}

// List handles GET /api/messages?connection_id=
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	connectionID := r.URL.Query().Get("connection_id")
	if err := checkUUID("connection_id", connectionID); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	msgs, err := h.service.List(r.Context(), auth.ViewerID(r.Context()), connectionID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"messages": msgs})
}

// Send handles POST /api/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	var in messages.SendInput
	if err := requireBody(r, &in); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	msg, err := h.service.Send(r.Context(), auth.ViewerID(r.Context()), in)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, map[string]interface{}{"message": msg})
}

type markReadRequest struct {
	ConnectionID string `json:"connection_id"`
}

// MarkRead handles POST /api/messages/read
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	var req markReadRequest
	if err := requireBody(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if err := checkUUID("connection_id", req.ConnectionID); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	n, err := h.service.MarkRead(r.Context(), auth.ViewerID(r.Context()), req.ConnectionID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"updated": n})
}

// Conversations handles GET /api/conversations
func (h *MessageHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.service.Conversations(r.Context(), auth.ViewerID(r.Context()))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if convs == nil {
		convs = []models.Conversation{}
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"conversations": convs})
}
