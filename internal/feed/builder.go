package feed

import (
	"context"
	"fmt"
	"sort"
	"time"

	"signalnet/internal/apperr"
	"signalnet/internal/geo"
	"signalnet/internal/metrics"
	"signalnet/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Type string

const (
	TypeSmart       Type = "smart"
	TypeConnections Type = "connections"
	TypeOwn         Type = "own"
)

func ParseType(s string) (Type, error) {
	switch Type(s) {
	case "":
		return TypeSmart, nil
	case TypeSmart, TypeConnections, TypeOwn:
		return Type(s), nil
	default:
		return "", apperr.Invalid("unknown feed type %q", s)
	}
}

const (
	DefaultCandidateLimit = 100
	DefaultPageSize       = 50
)

// Source is the data access the builder needs. Post queries exclude archived
// and expired posts and return them newest first with authors, linked signals
// (in stored order) and reaction/comment counts attached.
type Source interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	ActiveSignalIDs(ctx context.Context, userID string, now time.Time) ([]string, error)
	ConnectionUserIDs(ctx context.Context, userID string) ([]string, error)
	ListPosts(ctx context.Context, q models.PostQuery) ([]models.Post, error)
}

type Request struct {
	ViewerID         string
	Type             Type
	MaxDistanceMiles *float64
}

type Builder struct {
	source         Source
	candidateLimit int
	pageSize       int
	metrics        *metrics.Collector
	logger         *zap.Logger
	now            func() time.Time
}

type Option func(*Builder)

func WithCandidateLimit(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.candidateLimit = n
		}
	}
}

func WithPageSize(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.pageSize = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

func NewBuilder(source Source, m *metrics.Collector, logger *zap.Logger, opts ...Option) *Builder {
	b := &Builder{
		source:         source,
		candidateLimit: DefaultCandidateLimit,
		pageSize:       DefaultPageSize,
		metrics:        m,
		logger:         logger,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build recomputes the feed from scratch. Any data-access failure fails the
// whole request; no partial feed is returned.
func (b *Builder) Build(ctx context.Context, req Request) ([]models.ScoredPost, error) {
	start := time.Now()

	posts, err := b.build(ctx, req)
	b.metrics.ObserveFeed(string(req.Type), len(posts), time.Since(start), err)

	if err != nil {
		b.logger.Error("failed to build feed",
			zap.String("viewer_id", req.ViewerID),
			zap.String("type", string(req.Type)),
			zap.Error(err),
		)
		return nil, err
	}

	b.logger.Debug("feed built",
		zap.String("viewer_id", req.ViewerID),
		zap.String("type", string(req.Type)),
		zap.Int("count", len(posts)),
		zap.Duration("duration", time.Since(start)),
	)

	return posts, nil
}

func (b *Builder) build(ctx context.Context, req Request) ([]models.ScoredPost, error) {
	now := b.now()

	if req.Type == TypeOwn {
		return b.ownFeed(ctx, req.ViewerID, now)
	}
	if req.Type != TypeSmart && req.Type != TypeConnections {
		return nil, apperr.Invalid("unknown feed type %q", req.Type)
	}

	var (
		viewerProfile *models.Profile
		signalIDs     []string
		connectionIDs []string
		candidates    []models.Post
	)

	g, gctx := errgroup.WithContext(ctx)

	if req.MaxDistanceMiles != nil {
		g.Go(func() error {
			p, err := b.source.GetProfile(gctx, req.ViewerID)
			if err != nil {
				return fetchErr("viewer profile", err)
			}
			viewerProfile = p
			return nil
		})
	}

	g.Go(func() error {
		ids, err := b.source.ActiveSignalIDs(gctx, req.ViewerID, now)
		if err != nil {
			return fetchErr("active signals", err)
		}
		signalIDs = ids
		return nil
	})

	g.Go(func() error {
		ids, err := b.source.ConnectionUserIDs(gctx, req.ViewerID)
		if err != nil {
			return fetchErr("connections", err)
		}
		connectionIDs = ids
		return nil
	})

	g.Go(func() error {
		posts, err := b.source.ListPosts(gctx, models.PostQuery{Now: now, Limit: b.candidateLimit})
		if err != nil {
			return fetchErr("candidate posts", err)
		}
		candidates = posts
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	viewer := NewViewer(req.ViewerID, signalIDs, connectionIDs)

	ranked := Rank(candidates, viewer, now)

	if req.Type == TypeConnections {
		ranked = filterByAuthor(ranked, viewer)
	}

	if req.MaxDistanceMiles != nil {
		if lat, lon, ok := viewerProfile.Coordinates(); ok {
			ranked = geo.FilterByDistance(ranked, lat, lon, *req.MaxDistanceMiles)
		}
	}

	if len(ranked) > b.pageSize {
		ranked = ranked[:b.pageSize]
	}

	return ranked, nil
}

func (b *Builder) ownFeed(ctx context.Context, viewerID string, now time.Time) ([]models.ScoredPost, error) {
	posts, err := b.source.ListPosts(ctx, models.PostQuery{AuthorID: viewerID, Now: now})
	if err != nil {
		return nil, fetchErr("own posts", err)
	}

	out := make([]models.ScoredPost, 0, len(posts))
	for _, p := range posts {
		out = append(out, models.ScoredPost{Post: p})
	}
	return out, nil
}

// Rank scores every candidate and sorts by score descending. Ties keep the
// input order.
func Rank(posts []models.Post, viewer Viewer, now time.Time) []models.ScoredPost {
	out := make([]models.ScoredPost, 0, len(posts))
	for _, p := range posts {
		s := ScorePost(p, viewer, now)
		value := s.Value
		out = append(out, models.ScoredPost{
			Post:        p,
			MatchScore:  &value,
			MatchReason: s.Reason,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].MatchScore > *out[j].MatchScore
	})

	return out
}

func filterByAuthor(posts []models.ScoredPost, viewer Viewer) []models.ScoredPost {
	out := make([]models.ScoredPost, 0, len(posts))
	for _, p := range posts {
		if viewer.IsConnectedTo(p.UserID) {
			out = append(out, p)
		}
	}
	return out
}

func fetchErr(what string, err error) error {
	return apperr.Upstream(fmt.Errorf("fetch %s: %w", what, err))
}
