package handlers

import (
	"context"
	"net/http"

	"signalnet/internal/apperr"
	"signalnet/internal/auth"
	"signalnet/internal/models"

	"go.uber.org/zap"
)

type ConnectionService interface {
	List(ctx context.Context, viewerID string, status models.ConnectionStatus) ([]models.Connection, error)
	Request(ctx context.Context, viewerID, receiverID string) (*models.Connection, error)
	Respond(ctx context.Context, viewerID, connectionID string, status models.ConnectionStatus) (*models.Connection, error)
	Remove(ctx context.Context, viewerID, connectionID string) error
}

type ConnectionHandler struct {
	service ConnectionService
	logger  *zap.Logger
}

func NewConnectionHandler(service ConnectionService, logger *zap.Logger) *ConnectionHandler {
	return &ConnectionHandler{service: service, logger: logger}
}

// List handles GET /api/connections?status=
func (h *ConnectionHandler) List(w http.ResponseWriter, r *http.Request) {
	status := models.ConnectionStatus(r.URL.Query().Get("status"))
	if status != "" && !models.IsValidConnectionStatus(status) {
		respondError(w, r, h.logger, apperr.Invalid("unknown connection status %q", status))
		return
	}

	conns, err := h.service.List(r.Context(), auth.ViewerID(r.Context()), status)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if conns == nil {
		conns = []models.Connection{}
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"connections": conns})
}

type connectionRequest struct {
	ReceiverID string `json:"receiver_id"`
}

// Request handles POST /api/connections
func (h *ConnectionHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req connectionRequest
	if err := requireBody(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if err := checkUUID("receiver_id", req.ReceiverID); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	conn, err := h.service.Request(r.Context(), auth.ViewerID(r.Context()), req.ReceiverID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, map[string]interface{}{"connection": conn})
}

type respondRequest struct {
	Status models.ConnectionStatus `json:"status"`
}

// Respond handles PATCH /api/connections/{connectionID}
func (h *ConnectionHandler) Respond(w http.ResponseWriter, r *http.Request) {
	connectionID, err := uuidParam(r, "connectionID")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req respondRequest
	if err := requireBody(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	conn, err := h.service.Respond(r.Context(), auth.ViewerID(r.Context()), connectionID, req.Status)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"connection": conn})
}

// Remove handles DELETE /api/connections/{connectionID}
func (h *ConnectionHandler) Remove(w http.ResponseWriter, r *http.Request) {
	connectionID, err := uuidParam(r, "connectionID")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if err := h.service.Remove(r.Context(), auth.ViewerID(r.Context()), connectionID); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
