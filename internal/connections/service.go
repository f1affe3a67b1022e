package connections

import (
	"context"
	"errors"
	"fmt"
	"time"

	"signalnet/internal/apperr"
	"signalnet/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Store interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	ListConnections(ctx context.Context, userID string, status models.ConnectionStatus) ([]models.Connection, error)
	GetConnection(ctx context.Context, connectionID string) (*models.Connection, error)
	FindLiveConnection(ctx context.Context, a, b string) (*models.Connection, error)
	InsertConnection(ctx context.Context, conn *models.Connection) error
	UpdateConnectionStatus(ctx context.Context, connectionID string, status models.ConnectionStatus, now time.Time) error
	DeleteConnection(ctx context.Context, connectionID string) error
}

// Service manages connection edges. At most one pending or accepted edge
// exists per unordered pair of users.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// List returns every edge involving viewerID, newest first. An empty status
// matches all.
func (s *Service) List(ctx context.Context, viewerID string, status models.ConnectionStatus) ([]models.Connection, error) {
	if status != "" && !models.IsValidConnectionStatus(status) {
		return nil, apperr.Invalid("unknown connection status %q", status)
	}

	conns, err := s.store.ListConnections(ctx, viewerID, status)
	if err != nil {
		return nil, apperr.Upstream(fmt.Errorf("list connections: %w", err))
	}
	return conns, nil
}

func (s *Service) Request(ctx context.Context, viewerID, receiverID string) (*models.Connection, error) {
	if receiverID == "" {
		return nil, apperr.Invalid("receiver_id is required")
	}
	if receiverID == viewerID {
		return nil, apperr.Invalid("cannot connect with yourself")
	}

	receiver, err := s.store.GetProfile(ctx, receiverID)
	if err != nil {
		return nil, apperr.Upstream(fmt.Errorf("load receiver: %w", err))
	}
	if receiver == nil {
		return nil, apperr.NotFound("profile %q", receiverID)
	}

	existing, err := s.store.FindLiveConnection(ctx, viewerID, receiverID)
	if err != nil {
		return nil, apperr.Upstream(fmt.Errorf("find connection: %w", err))
	}
	if existing != nil {
		return nil, apperr.Conflict("connection already exists")
	}

	now := s.now()
	conn := &models.Connection{
		ID:          uuid.NewString(),
		RequesterID: viewerID,
		ReceiverID:  receiverID,
		Status:      models.ConnectionPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.InsertConnection(ctx, conn); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, err
		}
		return nil, apperr.Upstream(fmt.Errorf("request connection: %w", err))
	}

	return conn, nil
}

// Respond accepts or rejects a pending request. Only the receiver may respond.
func (s *Service) Respond(ctx context.Context, viewerID, connectionID string, status models.ConnectionStatus) (*models.Connection, error) {
	if status != models.ConnectionAccepted && status != models.ConnectionRejected {
		return nil, apperr.Invalid("status must be accepted or rejected")
	}

	conn, err := s.store.GetConnection(ctx, connectionID)
	if err != nil {
		return nil, apperr.Upstream(fmt.Errorf("load connection: %w", err))
	}
	if conn == nil || conn.ReceiverID != viewerID {
		return nil, apperr.NotFound("connection %q", connectionID)
	}
	if conn.Status != models.ConnectionPending {
		return nil, apperr.Conflict("connection is already %s", conn.Status)
	}

	now := s.now()
	if err := s.store.UpdateConnectionStatus(ctx, connectionID, status, now); err != nil {
		return nil, apperr.Upstream(fmt.Errorf("respond to connection: %w", err))
	}

	s.logger.Info("connection answered",
		zap.String("connection_id", connectionID),
		zap.String("status", string(status)),
	)

	conn.Status = status
	conn.UpdatedAt = now
	return conn, nil
}

// Remove deletes an edge. Either party may remove it.
func (s *Service) Remove(ctx context.Context, viewerID, connectionID string) error {
	conn, err := s.store.GetConnection(ctx, connectionID)
	if err != nil {
		return apperr.Upstream(fmt.Errorf("load connection: %w", err))
	}
	if conn == nil || !conn.Involves(viewerID) {
		return apperr.NotFound("connection %q", connectionID)
	}

	if err := s.store.DeleteConnection(ctx, connectionID); err != nil {
		return apperr.Upstream(fmt.Errorf("remove connection: %w", err))
	}
	return nil
}
