package postgres

import (
	"context"
	"fmt"
	"time"

	"signalnet/internal/apperr"
	"signalnet/internal/models"

	"github.com/gocraft/dbr/v2"
	"go.uber.org/zap"
)

// ConnectionUserIDs returns the ids on the other side of every accepted edge.
func (s *Store) ConnectionUserIDs(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT CASE WHEN requester_id = ? THEN receiver_id ELSE requester_id END AS user_id
		FROM connections
		WHERE status = ? AND (requester_id = ? OR receiver_id = ?)
	`

	var ids []string
	_, err := s.sess.SelectBySql(query,
		userID, models.ConnectionAccepted, userID, userID,
	).LoadContext(ctx, &ids)

	if err != nil {
		s.logger.Error("failed to get connection user ids",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get connection user ids: %w", err)
	}

	return ids, nil
}

// ListConnections returns every edge touching userID, newest first, with
// both parties attached. An empty status matches all statuses.
func (s *Store) ListConnections(ctx context.Context, userID string, status models.ConnectionStatus) ([]models.Connection, error) {
	stmt := s.sess.
		Select("*").
		From("connections").
		Where("requester_id = ? OR receiver_id = ?", userID, userID).
		OrderDesc("created_at")

	if status != "" {
		stmt = stmt.Where("status = ?", status)
	}

	var conns []models.Connection
	if _, err := stmt.LoadContext(ctx, &conns); err != nil {
		s.logger.Error("failed to list connections",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list connections: %w", err)
	}

	if err := s.attachParties(ctx, conns); err != nil {
		return nil, err
	}

	return conns, nil
}

func (s *Store) GetConnection(ctx context.Context, connectionID string) (*models.Connection, error) {
	var conn models.Connection

	err := s.sess.
		Select("*").
		From("connections").
		Where("id = ?", connectionID).
		LoadOneContext(ctx, &conn)

	if err == dbr.ErrNotFound {
		return nil, nil
	}

	if err != nil {
		s.logger.Error("failed to get connection",
			zap.String("connection_id", connectionID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get connection: %w", err)
	}

	conns := []models.Connection{conn}
	if err := s.attachParties(ctx, conns); err != nil {
		return nil, err
	}

	return &conns[0], nil
}

// FindLiveConnection returns a pending or accepted edge between a and b in
// either direction.
func (s *Store) FindLiveConnection(ctx context.Context, a, b string) (*models.Connection, error) {
	var conn models.Connection

	err := s.sess.
		Select("*").
		From("connections").
		Where("(requester_id = ? AND receiver_id = ?) OR (requester_id = ? AND receiver_id = ?)", a, b, b, a).
		Where("status IN ?", []string{string(models.ConnectionPending), string(models.ConnectionAccepted)}).
		Limit(1).
		LoadOneContext(ctx, &conn)

	if err == dbr.ErrNotFound {
		return nil, nil
	}

	if err != nil {
		s.logger.Error("failed to find connection",
			zap.String("user_a", a),
			zap.String("user_b", b),
			zap.Error(err),
		)
		return nil, fmt.Errorf("find connection: %w", err)
	}

	return &conn, nil
}

func (s *Store) InsertConnection(ctx context.Context, conn *models.Connection) error {
	_, err := s.sess.
		InsertInto("connections").
		Columns("id", "requester_id", "receiver_id", "status", "created_at", "updated_at").
		Values(conn.ID, conn.RequesterID, conn.ReceiverID, conn.Status, conn.CreatedAt, conn.UpdatedAt).
		ExecContext(ctx)

	if isUniqueViolation(err) {
		return apperr.Conflict("connection already exists")
	}

	if err != nil {
		s.logger.Error("failed to insert connection",
			zap.String("requester_id", conn.RequesterID),
			zap.String("receiver_id", conn.ReceiverID),
			zap.Error(err),
		)
		return fmt.Errorf("insert connection: %w", err)
	}

	s.logger.Info("connection requested",
		zap.String("connection_id", conn.ID),
		zap.String("requester_id", conn.RequesterID),
		zap.String("receiver_id", conn.ReceiverID),
	)

	return nil
}

func (s *Store) UpdateConnectionStatus(ctx context.Context, connectionID string, status models.ConnectionStatus, now time.Time) error {
	_, err := s.sess.
		Update("connections").
		Set("status", status).
		Set("updated_at", now).
		Where("id = ?", connectionID).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to update connection status",
			zap.String("connection_id", connectionID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return fmt.Errorf("update connection status: %w", err)
	}

	return nil
}

func (s *Store) DeleteConnection(ctx context.Context, connectionID string) error {
	_, err := s.sess.
		DeleteFrom("connections").
		Where("id = ?", connectionID).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to delete connection",
			zap.String("connection_id", connectionID),
			zap.Error(err),
		)
		return fmt.Errorf("delete connection: %w", err)
	}

	return nil
}

func (s *Store) attachParties(ctx context.Context, conns []models.Connection) error {
	if len(conns) == 0 {
		return nil
	}

	ids := make([]string, 0, len(conns)*2)
	for _, c := range conns {
		ids = append(ids, c.RequesterID, c.ReceiverID)
	}

	authors, err := s.authorsByID(ctx, uniqueStrings(ids))
	if err != nil {
		return err
	}

	for i := range conns {
		conns[i].Requester = authors[conns[i].RequesterID]
		conns[i].Receiver = authors[conns[i].ReceiverID]
	}

	return nil
}
