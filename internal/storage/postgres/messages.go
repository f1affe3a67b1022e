package postgres

import (
	"context"
	"fmt"
	"time"

	"signalnet/internal/models"

	"github.com/gocraft/dbr/v2"
	"go.uber.org/zap"
)

// ListMessages returns a conversation oldest first with senders attached.
func (s *Store) ListMessages(ctx context.Context, connectionID string) ([]models.Message, error) {
	var msgs []models.Message

	_, err := s.sess.
		Select("*").
		From("messages").
		Where("connection_id = ?", connectionID).
		OrderAsc("created_at").
		LoadContext(ctx, &msgs)

	if err != nil {
		s.logger.Error("failed to list messages",
			zap.String("connection_id", connectionID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list messages: %w", err)
	}

	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.SenderID)
	}

	senders, err := s.authorsByID(ctx, uniqueStrings(ids))
	if err != nil {
		return nil, err
	}

	for i := range msgs {
		msgs[i].Sender = senders[msgs[i].SenderID]
	}

	return msgs, nil
}

func (s *Store) InsertMessage(ctx context.Context, msg *models.Message) error {
	_, err := s.sess.
		InsertInto("messages").
		Columns("id", "connection_id", "sender_id", "content", "created_at").
		Values(msg.ID, msg.ConnectionID, msg.SenderID, msg.Content, msg.CreatedAt).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to insert message",
			zap.String("connection_id", msg.ConnectionID),
			zap.String("sender_id", msg.SenderID),
			zap.Error(err),
		)
		return fmt.Errorf("insert message: %w", err)
	}

	return nil
}

// MarkRead stamps every unread message in the conversation not sent by readerID.
func (s *Store) MarkRead(ctx context.Context, connectionID, readerID string, now time.Time) (int64, error) {
	result, err := s.sess.
		Update("messages").
		Set("read_at", now).
		Where("connection_id = ?", connectionID).
		Where("sender_id <> ?", readerID).
		Where("read_at IS NULL").
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to mark messages read",
			zap.String("connection_id", connectionID),
			zap.String("reader_id", readerID),
			zap.Error(err),
		)
		return 0, fmt.Errorf("mark messages read: %w", err)
	}

	return result.RowsAffected()
}

func (s *Store) LastMessage(ctx context.Context, connectionID string) (*models.Message, error) {
	var msg models.Message

	err := s.sess.
		Select("*").
		From("messages").
		Where("connection_id = ?", connectionID).
		OrderDesc("created_at").
		Limit(1).
		LoadOneContext(ctx, &msg)

	if err == dbr.ErrNotFound {
		return nil, nil
	}

	if err != nil {
		s.logger.Error("failed to get last message",
			zap.String("connection_id", connectionID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get last message: %w", err)
	}

	return &msg, nil
}

// CountUnread counts messages in the conversation that readerID has not read.
func (s *Store) CountUnread(ctx context.Context, connectionID, readerID string) (int, error) {
	var count int

	err := s.sess.
		Select("COUNT(*)").
		From("messages").
		Where("connection_id = ?", connectionID).
		Where("sender_id <> ?", readerID).
		Where("read_at IS NULL").
		LoadOneContext(ctx, &count)

	if err != nil {
		s.logger.Error("failed to count unread messages",
			zap.String("connection_id", connectionID),
			zap.Error(err),
		)
		return 0, fmt.Errorf("count unread messages: %w", err)
	}

	return count, nil
}
