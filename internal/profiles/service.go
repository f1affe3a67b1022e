package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"signalnet/internal/apperr"
	"signalnet/internal/metrics"
	"signalnet/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Store interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	ListProfiles(ctx context.Context, excludeID string) ([]models.Profile, error)
	UpdateLocation(ctx context.Context, userID string, place models.Place) error
	ActiveUserSignals(ctx context.Context, userID string, now time.Time) ([]models.UserSignalWithCategory, error)
}

// Geocoder resolves a free-text place. Unknown places yield apperr.ErrNotFound.
type Geocoder interface {
	Search(ctx context.Context, query string) (*models.Place, error)
}

// PlaceCache returns nil, nil on a miss.
type PlaceCache interface {
	GetPlace(ctx context.Context, query string) (*models.Place, error)
	SetPlace(ctx context.Context, query string, place *models.Place) error
}

const signalFanout = 8

type Service struct {
	store    Store
	geocoder Geocoder
	cache    PlaceCache
	metrics  *metrics.Collector
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(store Store, geocoder Geocoder, cache PlaceCache, m *metrics.Collector, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		geocoder: geocoder,
		cache:    cache,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) Get(ctx context.Context, userID string) (*models.ProfileWithSignals, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, apperr.Upstream(fmt.Errorf("get profile: %w", err))
	}
	if profile == nil {
		return nil, apperr.NotFound("profile %q", userID)
	}

	signals, err := s.store.ActiveUserSignals(ctx, userID, s.now())
	if err != nil {
		return nil, apperr.Upstream(fmt.Errorf("get profile signals: %w", err))
	}

	return &models.ProfileWithSignals{Profile: *profile, Signals: nonNil(signals)}, nil
}

// List returns everyone except viewerID with their active signals.
func (s *Service) List(ctx context.Context, viewerID string) ([]models.ProfileWithSignals, error) {
	profiles, err := s.store.ListProfiles(ctx, viewerID)
	if err != nil {
		return nil, apperr.Upstream(fmt.Errorf("list profiles: %w", err))
	}

	now := s.now()
	out := make([]models.ProfileWithSignals, len(profiles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(signalFanout)

	for i := range profiles {
		g.Go(func() error {
			signals, err := s.store.ActiveUserSignals(gctx, profiles[i].ID, now)
			if err != nil {
				return fmt.Errorf("signals for %s: %w", profiles[i].ID, err)
			}
			out[i] = models.ProfileWithSignals{Profile: profiles[i], Signals: nonNil(signals)}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, apperr.Upstream(err)
	}

	return out, nil
}

// SetLocation geocodes query and stores the result on the viewer's profile.
func (s *Service) SetLocation(ctx context.Context, viewerID, query string) (*models.Profile, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Invalid("location is required")
	}

	place, err := s.resolve(ctx, query)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateLocation(ctx, viewerID, *place); err != nil {
		return nil, apperr.Upstream(fmt.Errorf("set location: %w", err))
	}

	profile, err := s.store.GetProfile(ctx, viewerID)
	if err != nil {
		return nil, apperr.Upstream(fmt.Errorf("reload profile: %w", err))
	}
	if profile == nil {
		return nil, apperr.NotFound("profile %q", viewerID)
	}

	s.logger.Info("profile location updated",
		zap.String("user_id", viewerID),
		zap.Float64("latitude", place.Latitude),
		zap.Float64("longitude", place.Longitude),
	)

	return profile, nil
}

func (s *Service) resolve(ctx context.Context, query string) (*models.Place, error) {
	if s.cache != nil {
		cached, err := s.cache.GetPlace(ctx, query)
		if err != nil {
			s.logger.Warn("geocode cache read failed", zap.Error(err))
		} else if cached != nil {
			s.metrics.ObserveGeocode("cache")
			return cached, nil
		}
	}

	place, err := s.geocoder.Search(ctx, query)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, apperr.Upstream(err)
	}
	s.metrics.ObserveGeocode("remote")

	if s.cache != nil {
		if err := s.cache.SetPlace(ctx, query, place); err != nil {
			s.logger.Warn("failed to cache geocode result", zap.Error(err))
		}
	}

	return place, nil
}

func nonNil(signals []models.UserSignalWithCategory) []models.UserSignalWithCategory {
	if signals == nil {
		return []models.UserSignalWithCategory{}
	}
	return signals
}
