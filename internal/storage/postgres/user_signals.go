package postgres

import (
	"context"
	"fmt"
	"time"

	"signalnet/internal/models"

	"github.com/gocraft/dbr/v2"
	"go.uber.org/zap"
)

type userSignalRow struct {
	models.UserSignal

	SignalCategoryID     string  `db:"s_category_id"`
	SignalLabel          string  `db:"s_label"`
	SignalDescription    *string `db:"s_description"`
	SignalExpirationDays *int    `db:"s_expiration_days"`
	SignalDisplayOrder   int     `db:"s_display_order"`

	CategoryName          string  `db:"c_name"`
	CategoryDescription   *string `db:"c_description"`
	CategoryMaxSelections int     `db:"c_max_selections"`
	CategoryDisplayOrder  int     `db:"c_display_order"`
}

func (r userSignalRow) toModel() models.UserSignalWithCategory {
	return models.UserSignalWithCategory{
		UserSignal: r.UserSignal,
		Signal: models.SignalWithCategory{
			Signal: models.Signal{
				ID:             r.SignalID,
				CategoryID:     r.SignalCategoryID,
				Label:          r.SignalLabel,
				Description:    r.SignalDescription,
				ExpirationDays: r.SignalExpirationDays,
				DisplayOrder:   r.SignalDisplayOrder,
			},
			Category: models.SignalCategory{
				ID:            r.SignalCategoryID,
				Name:          r.CategoryName,
				Description:   r.CategoryDescription,
				MaxSelections: r.CategoryMaxSelections,
				DisplayOrder:  r.CategoryDisplayOrder,
			},
		},
	}
}

// ActiveUserSignals returns the user's unexpired signals joined to the catalog.
func (s *Store) ActiveUserSignals(ctx context.Context, userID string, now time.Time) ([]models.UserSignalWithCategory, error) {
	var rows []userSignalRow

	_, err := s.sess.
		Select(
			"us.id", "us.user_id", "us.signal_id", "us.created_at", "us.expires_at",
			"s.category_id AS s_category_id",
			"s.label AS s_label",
			"s.description AS s_description",
			"s.expiration_days AS s_expiration_days",
			"s.display_order AS s_display_order",
			"c.name AS c_name",
			"c.description AS c_description",
			"c.max_selections AS c_max_selections",
			"c.display_order AS c_display_order",
		).
		From(dbr.I("user_signals").As("us")).
		Join(dbr.I("signals").As("s"), "s.id = us.signal_id").
		Join(dbr.I("signal_categories").As("c"), "c.id = s.category_id").
		Where("us.user_id = ?", userID).
		Where(activeAt("us.expires_at", now)).
		OrderAsc("c.display_order").
		OrderAsc("s.display_order").
		LoadContext(ctx, &rows)

	if err != nil {
		s.logger.Error("failed to get active user signals",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get active user signals: %w", err)
	}

	result := make([]models.UserSignalWithCategory, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toModel())
	}

	return result, nil
}

func (s *Store) ActiveSignalIDs(ctx context.Context, userID string, now time.Time) ([]string, error) {
	var ids []string

	_, err := s.sess.
		Select("signal_id").
		From("user_signals").
		Where("user_id = ?", userID).
		Where(activeAt("expires_at", now)).
		LoadContext(ctx, &ids)

	if err != nil {
		s.logger.Error("failed to get active signal ids",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get active signal ids: %w", err)
	}

	return ids, nil
}

// InsertUserSignal stores a selection. An expired row for the same signal is
// replaced in place.
func (s *Store) InsertUserSignal(ctx context.Context, us *models.UserSignal) error {
	query := `
		INSERT INTO user_signals (id, user_id, signal_id, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, signal_id)
		DO UPDATE SET
			id = EXCLUDED.id,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
	`

	_, err := s.sess.InsertBySql(query,
		us.ID, us.UserID, us.SignalID, us.CreatedAt, us.ExpiresAt,
	).ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to insert user signal",
			zap.String("user_id", us.UserID),
			zap.String("signal_id", us.SignalID),
			zap.Error(err),
		)
		return fmt.Errorf("insert user signal: %w", err)
	}

	s.logger.Info("user signal saved",
		zap.String("user_id", us.UserID),
		zap.String("signal_id", us.SignalID),
	)

	return nil
}

func (s *Store) DeleteUserSignal(ctx context.Context, userID, signalID string) (bool, error) {
	result, err := s.sess.
		DeleteFrom("user_signals").
		Where("user_id = ? AND signal_id = ?", userID, signalID).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to delete user signal",
			zap.String("user_id", userID),
			zap.String("signal_id", signalID),
			zap.Error(err),
		)
		return false, fmt.Errorf("delete user signal: %w", err)
	}

	affected, _ := result.RowsAffected()
	return affected > 0, nil
}
