package signals

import (
	"context"
	"fmt"
	"time"

	"signalnet/internal/apperr"
	"signalnet/internal/metrics"
	"signalnet/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserSignalStore interface {
	ActiveUserSignals(ctx context.Context, userID string, now time.Time) ([]models.UserSignalWithCategory, error)
	InsertUserSignal(ctx context.Context, us *models.UserSignal) error
	DeleteUserSignal(ctx context.Context, userID, signalID string) (bool, error)
}

// Service manages a user's selected signals.
//
// The cap check and the insert are not one transaction: two concurrent adds
// for the same user can both pass validation and overshoot a cap.
type Service struct {
	catalog     *Catalog
	store       UserSignalStore
	constraints Constraints
	metrics     *metrics.Collector
	logger      *zap.Logger
	now         func() time.Time
}

func NewService(catalog *Catalog, store UserSignalStore, constraints Constraints, m *metrics.Collector, logger *zap.Logger) *Service {
	return &Service{
		catalog:     catalog,
		store:       store,
		constraints: constraints,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

type ToggleResult struct {
	Selected   bool               `json:"selected"`
	Decision   Decision           `json:"decision"`
	UserSignal *models.UserSignal `json:"user_signal,omitempty"`
}

func (s *Service) Constraints() Constraints {
	return s.constraints
}

func (s *Service) Active(ctx context.Context, userID string) ([]models.UserSignalWithCategory, error) {
	active, err := s.store.ActiveUserSignals(ctx, userID, s.now())
	if err != nil {
		return nil, apperr.Upstream(fmt.Errorf("get active signals: %w", err))
	}
	return active, nil
}

// ValidateAdd reports whether viewerID may add signalID right now.
func (s *Service) ValidateAdd(ctx context.Context, viewerID, signalID string) (Decision, error) {
	candidate, err := s.catalog.Signal(ctx, signalID)
	if err != nil {
		return Decision{}, err
	}

	active, err := s.Active(ctx, viewerID)
	if err != nil {
		return Decision{}, err
	}

	return s.decide(active, candidate.Signal), nil
}

// Add validates and then stores the selection. A rejected decision is
// returned with a nil error and nothing stored.
func (s *Service) Add(ctx context.Context, viewerID, signalID string) (*models.UserSignal, Decision, error) {
	candidate, err := s.catalog.Signal(ctx, signalID)
	if err != nil {
		return nil, Decision{}, err
	}

	active, err := s.Active(ctx, viewerID)
	if err != nil {
		return nil, Decision{}, err
	}

	for _, us := range active {
		if us.SignalID == signalID {
			return nil, Decision{}, apperr.Conflict("signal %q already selected", signalID)
		}
	}

	decision := s.decide(active, candidate.Signal)
	if !decision.Allowed {
		s.logger.Info("signal selection rejected",
			zap.String("user_id", viewerID),
			zap.String("signal_id", signalID),
			zap.String("reason", decision.Reason),
		)
		return nil, decision, nil
	}

	now := s.now()
	us := &models.UserSignal{
		ID:        uuid.NewString(),
		UserID:    viewerID,
		SignalID:  signalID,
		CreatedAt: now,
	}
	if candidate.ExpirationDays != nil && *candidate.ExpirationDays > 0 {
		expiresAt := now.AddDate(0, 0, *candidate.ExpirationDays)
		us.ExpiresAt = &expiresAt
	}

	if err := s.store.InsertUserSignal(ctx, us); err != nil {
		return nil, Decision{}, apperr.Upstream(fmt.Errorf("add signal: %w", err))
	}

	return us, decision, nil
}

// Remove deselects a signal. It is never validated and is idempotent.
func (s *Service) Remove(ctx context.Context, viewerID, signalID string) error {
	if _, err := s.store.DeleteUserSignal(ctx, viewerID, signalID); err != nil {
		return apperr.Upstream(fmt.Errorf("remove signal: %w", err))
	}
	return nil
}

func (s *Service) Toggle(ctx context.Context, viewerID, signalID string) (*ToggleResult, error) {
	active, err := s.Active(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	for _, us := range active {
		if us.SignalID == signalID {
			if err := s.Remove(ctx, viewerID, signalID); err != nil {
				return nil, err
			}
			return &ToggleResult{Selected: false, Decision: Allow()}, nil
		}
	}

	us, decision, err := s.Add(ctx, viewerID, signalID)
	if err != nil {
		return nil, err
	}

	return &ToggleResult{Selected: us != nil, Decision: decision, UserSignal: us}, nil
}

func (s *Service) decide(active []models.UserSignalWithCategory, candidate models.Signal) Decision {
	decision := s.constraints.CanAdd(active, candidate)
	s.metrics.ObserveSignalDecision(decision.Allowed)
	return decision
}
