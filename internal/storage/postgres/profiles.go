package postgres

import (
	"context"
	"fmt"
	"time"

	"signalnet/internal/models"

	"github.com/gocraft/dbr/v2"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

var authorColumns = []string{"id", "email", "full_name", "headline", "avatar_url"}

func (s *Store) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile

	err := s.sess.
		Select("*").
		From("profiles").
		Where("id = ?", userID).
		LoadOneContext(ctx, &profile)

	if err == dbr.ErrNotFound {
		return nil, nil
	}

	if err != nil {
		s.logger.Error("failed to get profile",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return &profile, nil
}

func (s *Store) GetProfileByTelegramID(ctx context.Context, telegramID int64) (*models.Profile, error) {
	var profile models.Profile

	err := s.sess.
		Select("*").
		From("profiles").
		Where("telegram_id = ?", telegramID).
		LoadOneContext(ctx, &profile)

	if err == dbr.ErrNotFound {
		return nil, nil
	}

	if err != nil {
		s.logger.Error("failed to get profile by telegram id",
			zap.Int64("telegram_id", telegramID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get profile by telegram id: %w", err)
	}

	return &profile, nil
}

// ListProfiles returns every profile except excludeID, by name.
func (s *Store) ListProfiles(ctx context.Context, excludeID string) ([]models.Profile, error) {
	var profiles []models.Profile

	_, err := s.sess.
		Select("*").
		From("profiles").
		Where("id <> ?", excludeID).
		OrderAsc("full_name").
		LoadContext(ctx, &profiles)

	if err != nil {
		s.logger.Error("failed to list profiles", zap.Error(err))
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	return profiles, nil
}

func (s *Store) UpdateLocation(ctx context.Context, userID string, place models.Place) error {
	_, err := s.sess.
		Update("profiles").
		Set("city", place.City).
		Set("state", place.State).
		Set("country", place.Country).
		Set("latitude", place.Latitude).
		Set("longitude", place.Longitude).
		Set("updated_at", time.Now()).
		Where("id = ?", userID).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to update location",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return fmt.Errorf("update location: %w", err)
	}

	return nil
}

// LinkTelegram binds a chat to a profile, releasing it from any other profile first.
func (s *Store) LinkTelegram(ctx context.Context, userID string, telegramID int64) error {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.RollbackUnlessCommitted()

	if _, err := tx.Update("profiles").
		Set("telegram_id", nil).
		Where("telegram_id = ?", telegramID).
		ExecContext(ctx); err != nil {
		return fmt.Errorf("release telegram id: %w", err)
	}

	if _, err := tx.Update("profiles").
		Set("telegram_id", telegramID).
		Set("updated_at", time.Now()).
		Where("id = ?", userID).
		ExecContext(ctx); err != nil {
		s.logger.Error("failed to link telegram",
			zap.String("user_id", userID),
			zap.Int64("telegram_id", telegramID),
			zap.Error(err),
		)
		return fmt.Errorf("link telegram: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Info("telegram linked",
		zap.String("user_id", userID),
		zap.Int64("telegram_id", telegramID),
	)

	return nil
}

// authorsByID loads author projections keyed by profile id.
func (s *Store) authorsByID(ctx context.Context, ids []string) (map[string]*models.Author, error) {
	authors := make(map[string]*models.Author, len(ids))
	if len(ids) == 0 {
		return authors, nil
	}

	var rows []models.Author
	_, err := s.sess.
		Select(authorColumns...).
		From("profiles").
		Where("id = ANY(?)", pq.Array(ids)).
		LoadContext(ctx, &rows)

	if err != nil {
		s.logger.Error("failed to load authors",
			zap.Int("count", len(ids)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("load authors: %w", err)
	}

	for i := range rows {
		authors[rows[i].ID] = &rows[i]
	}

	return authors, nil
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
