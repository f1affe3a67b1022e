package postgres

import (
	"context"
	"fmt"

	"signalnet/internal/models"

	"go.uber.org/zap"
)

func (s *Store) ListCategories(ctx context.Context) ([]models.SignalCategory, error) {
	var categories []models.SignalCategory

	_, err := s.sess.
		Select("*").
		From("signal_categories").
		OrderAsc("display_order").
		LoadContext(ctx, &categories)

	if err != nil {
		s.logger.Error("failed to list signal categories", zap.Error(err))
		return nil, fmt.Errorf("list signal categories: %w", err)
	}

	return categories, nil
}

func (s *Store) ListSignals(ctx context.Context) ([]models.Signal, error) {
	var signals []models.Signal

	_, err := s.sess.
		Select("*").
		From("signals").
		OrderAsc("category_id").
		OrderAsc("display_order").
		LoadContext(ctx, &signals)

	if err != nil {
		s.logger.Error("failed to list signals", zap.Error(err))
		return nil, fmt.Errorf("list signals: %w", err)
	}

	return signals, nil
}
