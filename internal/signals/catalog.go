package signals

import (
	"context"
	"fmt"
	"sync"
	"time"

	"signalnet/internal/apperr"
	"signalnet/internal/metrics"
	"signalnet/internal/models"

	"go.uber.org/zap"
)

type CatalogStore interface {
	ListCategories(ctx context.Context) ([]models.SignalCategory, error)
	ListSignals(ctx context.Context) ([]models.Signal, error)
}

// CatalogCache is a shared snapshot store. GetCatalog returns nil, nil on a miss.
type CatalogCache interface {
	GetCatalog(ctx context.Context) (*models.CatalogSnapshot, error)
	SetCatalog(ctx context.Context, snapshot *models.CatalogSnapshot) error
}

// Catalog is the read-only accessor for signal definitions and categories.
type Catalog struct {
	store   CatalogStore
	cache   CatalogCache
	metrics *metrics.Collector
	logger  *zap.Logger

	mu       sync.RWMutex
	snapshot *models.CatalogSnapshot
}

func NewCatalog(store CatalogStore, cache CatalogCache, m *metrics.Collector, logger *zap.Logger) *Catalog {
	return &Catalog{
		store:   store,
		cache:   cache,
		metrics: m,
		logger:  logger,
	}
}

// Refresh reloads the catalog from storage and republishes the snapshot.
func (c *Catalog) Refresh(ctx context.Context) error {
	snapshot, err := c.load(ctx)
	c.metrics.ObserveCatalogRefresh(err)
	if err != nil {
		return err
	}

	c.publish(ctx, snapshot)

	c.logger.Info("signal catalog refreshed",
		zap.Int("categories", len(snapshot.Categories)),
		zap.Int("signals", len(snapshot.Signals)),
	)

	return nil
}

func (c *Catalog) Snapshot(ctx context.Context) (*models.CatalogSnapshot, error) {
	c.mu.RLock()
	snapshot := c.snapshot
	c.mu.RUnlock()

	if snapshot != nil {
		return snapshot, nil
	}

	if c.cache != nil {
		cached, err := c.cache.GetCatalog(ctx)
		if err != nil {
			c.logger.Warn("catalog cache read failed", zap.Error(err))
		} else if cached != nil {
			c.mu.Lock()
			c.snapshot = cached
			c.mu.Unlock()
			return cached, nil
		}
	}

	snapshot, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	c.publish(ctx, snapshot)

	return snapshot, nil
}

func (c *Catalog) Categories(ctx context.Context) ([]models.SignalCategory, error) {
	snapshot, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.Categories, nil
}

// Signals returns every signal joined to its category, in display order.
func (c *Catalog) Signals(ctx context.Context) ([]models.SignalWithCategory, error) {
	snapshot, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	categories := indexCategories(snapshot.Categories)
	out := make([]models.SignalWithCategory, 0, len(snapshot.Signals))
	for _, s := range snapshot.Signals {
		out = append(out, models.SignalWithCategory{Signal: s, Category: categories[s.CategoryID]})
	}
	return out, nil
}

func (c *Catalog) SignalsByCategory(ctx context.Context) (map[string][]models.SignalWithCategory, error) {
	all, err := c.Signals(ctx)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]models.SignalWithCategory)
	for _, s := range all {
		grouped[s.CategoryID] = append(grouped[s.CategoryID], s)
	}
	return grouped, nil
}

func (c *Catalog) Signal(ctx context.Context, signalID string) (models.SignalWithCategory, error) {
	snapshot, err := c.Snapshot(ctx)
	if err != nil {
		return models.SignalWithCategory{}, err
	}

	for _, s := range snapshot.Signals {
		if s.ID != signalID {
			continue
		}
		for _, cat := range snapshot.Categories {
			if cat.ID == s.CategoryID {
				return models.SignalWithCategory{Signal: s, Category: cat}, nil
			}
		}
		return models.SignalWithCategory{Signal: s}, nil
	}

	return models.SignalWithCategory{}, apperr.NotFound("signal %q", signalID)
}

func (c *Catalog) load(ctx context.Context) (*models.CatalogSnapshot, error) {
	categories, err := c.store.ListCategories(ctx)
	if err != nil {
		return nil, apperr.Upstream(fmt.Errorf("load signal categories: %w", err))
	}

	signals, err := c.store.ListSignals(ctx)
	if err != nil {
		return nil, apperr.Upstream(fmt.Errorf("load signals: %w", err))
	}

	return &models.CatalogSnapshot{
		Categories:  categories,
		Signals:     signals,
		RefreshedAt: time.Now(),
	}, nil
}

func (c *Catalog) publish(ctx context.Context, snapshot *models.CatalogSnapshot) {
	c.mu.Lock()
	c.snapshot = snapshot
	c.mu.Unlock()

	if c.cache == nil {
		return
	}
	if err := c.cache.SetCatalog(ctx, snapshot); err != nil {
		c.logger.Warn("failed to cache signal catalog", zap.Error(err))
	}
}

func indexCategories(categories []models.SignalCategory) map[string]models.SignalCategory {
	index := make(map[string]models.SignalCategory, len(categories))
	for _, cat := range categories {
		index[cat.ID] = cat
	}
	return index
}
