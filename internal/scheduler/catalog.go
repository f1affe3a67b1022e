package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type CatalogRefresher interface {
	Refresh(ctx context.Context) error
}

const catalogRefreshTimeout = 30 * time.Second

// CatalogJob reloads the signal catalog so edits made directly in the
// database reach every instance.
type CatalogJob struct {
	catalog CatalogRefresher
	logger  *zap.Logger
}

func NewCatalogJob(catalog CatalogRefresher, logger *zap.Logger) *CatalogJob {
	return &CatalogJob{catalog: catalog, logger: logger}
}

func (j *CatalogJob) Run(ctx context.Context) {
	start := time.Now()

	dbCtx, cancel := context.WithTimeout(ctx, catalogRefreshTimeout)
	defer cancel()

	if err := j.catalog.Refresh(dbCtx); err != nil {
		j.logger.Error("catalog refresh failed",
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return
	}

	j.logger.Debug("catalog refresh finished", zap.Duration("duration", time.Since(start)))
}
