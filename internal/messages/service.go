package messages

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"signalnet/internal/apperr"
	"signalnet/internal/models"
	"signalnet/internal/validate"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Store interface {
	GetConnection(ctx context.Context, connectionID string) (*models.Connection, error)
	ListConnections(ctx context.Context, userID string, status models.ConnectionStatus) ([]models.Connection, error)
	ListMessages(ctx context.Context, connectionID string) ([]models.Message, error)
	InsertMessage(ctx context.Context, msg *models.Message) error
	MarkRead(ctx context.Context, connectionID, readerID string, now time.Time) (int64, error)
	LastMessage(ctx context.Context, connectionID string) (*models.Message, error)
	CountUnread(ctx context.Context, connectionID, readerID string) (int, error)
}

type SendInput struct {
	ConnectionID string `json:"connection_id" validate:"required"`
	Content      string `json:"content" validate:"notblank,max=5000"`
}

// conversationFanout bounds concurrent per-conversation lookups.
const conversationFanout = 8

// Service carries direct messages between accepted connections.
// Delivery is by polling; nothing is pushed.
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

func (s *Service) List(ctx context.Context, viewerID, connectionID string) ([]models.Message, error) {
	if _, err := s.accepted(ctx, viewerID, connectionID); err != nil {
		return nil, err
	}

	msgs, err := s.store.ListMessages(ctx, connectionID)
	if err != nil {
		return nil, apperr.Upstream(fmt.Errorf("list messages: %w", err))
	}
	return msgs, nil
}

func (s *Service) Send(ctx context.Context, viewerID string, in SendInput) (*models.Message, error) {
	in.Content = strings.TrimSpace(in.Content)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	if _, err := s.accepted(ctx, viewerID, in.ConnectionID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:           uuid.NewString(),
		ConnectionID: in.ConnectionID,
		SenderID:     viewerID,
		Content:      in.Content,
		CreatedAt:    s.now(),
	}

	if err := s.store.InsertMessage(ctx, msg); err != nil {
		return nil, apperr.Upstream(fmt.Errorf("send message: %w", err))
	}

	return msg, nil
}

// MarkRead stamps the other party's unread messages and returns how many changed.
func (s *Service) MarkRead(ctx context.Context, viewerID, connectionID string) (int64, error) {
	if _, err := s.accepted(ctx, viewerID, connectionID); err != nil {
		return 0, err
	}

	n, err := s.store.MarkRead(ctx, connectionID, viewerID, s.now())
	if err != nil {
		return 0, apperr.Upstream(fmt.Errorf("mark read: %w", err))
	}
	return n, nil
}

// Conversations lists one entry per accepted connection, most recent activity first.
func (s *Service) Conversations(ctx context.Context, viewerID string) ([]models.Conversation, error) {
	conns, err := s.store.ListConnections(ctx, viewerID, models.ConnectionAccepted)
	if err != nil {
		return nil, apperr.Upstream(fmt.Errorf("list connections: %w", err))
	}

	out := make([]models.Conversation, len(conns))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(conversationFanout)

	for i := range conns {
		conn := conns[i]
		g.Go(func() error {
			last, err := s.store.LastMessage(gctx, conn.ID)
			if err != nil {
				return fmt.Errorf("last message for %s: %w", conn.ID, err)
			}
			unread, err := s.store.CountUnread(gctx, conn.ID, viewerID)
			if err != nil {
				return fmt.Errorf("unread count for %s: %w", conn.ID, err)
			}

			other := conn.Receiver
			if conn.ReceiverID == viewerID {
				other = conn.Requester
			}

			activity := conn.UpdatedAt
			if last != nil {
				activity = last.CreatedAt
			}

			out[i] = models.Conversation{
				ConnectionID: conn.ID,
				OtherUser:    other,
				LastMessage:  last,
				UnreadCount:  unread,
				CreatedAt:    conn.CreatedAt,
				LastActivity: activity,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, apperr.Upstream(err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastActivity.After(out[j].LastActivity)
	})

	return out, nil
}

func (s *Service) accepted(ctx context.Context, viewerID, connectionID string) (*models.Connection, error) {
	conn, err := s.store.GetConnection(ctx, connectionID)
	if err != nil {
		return nil, apperr.Upstream(fmt.Errorf("load connection: %w", err))
	}
	if conn == nil || !conn.Involves(viewerID) {
		return nil, apperr.NotFound("connection %q", connectionID)
	}
	if conn.Status != models.ConnectionAccepted {
		return nil, apperr.Forbidden("connection %q is not accepted", connectionID)
	}
	return conn, nil
}
