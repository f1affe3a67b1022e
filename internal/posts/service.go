package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"signalnet/internal/apperr"
	"signalnet/internal/models"
	"signalnet/internal/validate"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Store interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	GetPost(ctx context.Context, postID string) (*models.Post, error)
	InsertPost(ctx context.Context, post *models.Post, signalIDs []string) error
	UpdatePost(ctx context.Context, postID string, upd models.PostUpdate) error
	SetPostArchived(ctx context.Context, postID string, archived bool) error
	DeletePost(ctx context.Context, postID string) error
}

// SignalLookup resolves catalog signals; unknown ids yield apperr.ErrNotFound.
type SignalLookup interface {
	Signal(ctx context.Context, signalID string) (models.SignalWithCategory, error)
}

type CreateInput struct {
	Content       string            `json:"content" validate:"notblank,max=5000"`
	PostType      models.PostType   `json:"post_type" validate:"required,posttype"`
	Visibility    models.Visibility `json:"visibility" validate:"omitempty,oneof=public connections"`
	SignalIDs     []string          `json:"signal_ids" validate:"max=10,dive,required"`
	ExpiresInDays *int              `json:"expires_in_days" validate:"omitempty,min=0,max=365"`
}

type UpdateInput struct {
	Content   *string          `json:"content" validate:"omitempty,notblank,max=5000"`
	PostType  *models.PostType `json:"post_type" validate:"omitempty,posttype"`
	SignalIDs *[]string        `json:"signal_ids" validate:"omitempty,max=10,dive,required"`
}

type Service struct {
	store   Store
	signals SignalLookup
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(store Store, signals SignalLookup, logger *zap.Logger) *Service {
	return &Service{
		store:   store,
		signals: signals,
		logger:  logger,
		now:     time.Now,
	}
}

// Create stores a post authored by viewerID. The author's current location is
// copied onto the post.
func (s *Service) Create(ctx context.Context, viewerID string, in CreateInput) (*models.Post, error) {
	in.Content = strings.TrimSpace(in.Content)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := s.checkSignals(ctx, in.SignalIDs); err != nil {
		return nil, err
	}

	author, err := s.store.GetProfile(ctx, viewerID)
	if err != nil {
		return nil, apperr.Upstream(fmt.Errorf("load author: %w", err))
	}
	if author == nil {
		return nil, apperr.NotFound("profile %q", viewerID)
	}

	now := s.now()
	post := &models.Post{
		ID:         uuid.NewString(),
		UserID:     viewerID,
		Content:    in.Content,
		PostType:   in.PostType,
		Visibility: in.Visibility,
		City:       author.City,
		State:      author.State,
		Country:    author.Country,
		Latitude:   author.Latitude,
		Longitude:  author.Longitude,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if post.Visibility == "" {
		post.Visibility = models.VisibilityPublic
	}
	if in.ExpiresInDays != nil && *in.ExpiresInDays > 0 {
		expiresAt := now.AddDate(0, 0, *in.ExpiresInDays)
		post.ExpiresAt = &expiresAt
	}

	if err := s.store.InsertPost(ctx, post, in.SignalIDs); err != nil {
		return nil, apperr.Upstream(fmt.Errorf("create post: %w", err))
	}

	return s.reload(ctx, post.ID)
}

func (s *Service) Update(ctx context.Context, viewerID, postID string, in UpdateInput) (*models.Post, error) {
	if in.Content != nil {
		trimmed := strings.TrimSpace(*in.Content)
		in.Content = &trimmed
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.SignalIDs != nil {
		if err := s.checkSignals(ctx, *in.SignalIDs); err != nil {
			return nil, err
		}
	}

	if _, err := s.owned(ctx, viewerID, postID); err != nil {
		return nil, err
	}

	upd := models.PostUpdate{
		Content:   in.Content,
		PostType:  in.PostType,
		SignalIDs: in.SignalIDs,
		UpdatedAt: s.now(),
	}
	if err := s.store.UpdatePost(ctx, postID, upd); err != nil {
		return nil, apperr.Upstream(fmt.Errorf("update post: %w", err))
	}

	return s.reload(ctx, postID)
}

func (s *Service) Delete(ctx context.Context, viewerID, postID string) error {
	if _, err := s.owned(ctx, viewerID, postID); err != nil {
		return err
	}

	if err := s.store.DeletePost(ctx, postID); err != nil {
		return apperr.Upstream(fmt.Errorf("delete post: %w", err))
	}
	return nil
}

// SetArchived hides or restores a post. Archived posts leave every feed.
func (s *Service) SetArchived(ctx context.Context, viewerID, postID string, archived bool) (*models.Post, error) {
	post, err := s.owned(ctx, viewerID, postID)
	if err != nil {
		return nil, err
	}
	if post.Archived == archived {
		return post, nil
	}

	if err := s.store.SetPostArchived(ctx, postID, archived); err != nil {
		return nil, apperr.Upstream(fmt.Errorf("archive post: %w", err))
	}

	s.logger.Info("post archive state changed",
		zap.String("post_id", postID),
		zap.Bool("archived", archived),
	)

	return s.reload(ctx, postID)
}

func (s *Service) owned(ctx context.Context, viewerID, postID string) (*models.Post, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, apperr.Upstream(fmt.Errorf("load post: %w", err))
	}
	if post == nil {
		return nil, apperr.NotFound("post %q", postID)
	}
	if post.UserID != viewerID {
		return nil, apperr.Forbidden("post %q belongs to another user", postID)
	}
	return post, nil
}

func (s *Service) reload(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, apperr.Upstream(fmt.Errorf("reload post: %w", err))
	}
	if post == nil {
		return nil, apperr.NotFound("post %q", postID)
	}
	return post, nil
}

func (s *Service) checkSignals(ctx context.Context, ids []string) error {
	for _, id := range ids {
		_, err := s.signals.Signal(ctx, id)
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Invalid("unknown signal %q", id)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
