package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"go.uber.org/zap"
)

//go:embed schema.sql
var schemaSQL string

// Migrate applies the schema. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, schemaSQL); err != nil {
		s.logger.Error("failed to apply schema", zap.Error(err))
		return fmt.Errorf("apply schema: %w", err)
	}

	s.logger.Info("database schema applied")
	return nil
}
