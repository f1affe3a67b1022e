package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"signalnet/internal/apperr"
	"signalnet/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	mu          sync.Mutex
	profiles    map[string]*models.Profile
	signals     map[string][]string
	connections map[string][]string
	posts       []models.Post
	queries     []models.PostQuery

	profileErr error
	signalsErr error
	postsErr   error
}

func (f *fakeSource) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profiles[userID], nil
}

func (f *fakeSource) ActiveSignalIDs(ctx context.Context, userID string, now time.Time) ([]string, error) {
	return f.signals[userID], f.signalsErr
}

func (f *fakeSource) ConnectionUserIDs(ctx context.Context, userID string) ([]string, error) {
	return f.connections[userID], nil
}

// ListPosts expects f.posts to be stored newest first, like the real store.
func (f *fakeSource) ListPosts(ctx context.Context, q models.PostQuery) ([]models.Post, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	if f.postsErr != nil {
		return nil, f.postsErr
	}

	var out []models.Post
	for _, p := range f.posts {
		if q.AuthorID != "" && p.UserID != q.AuthorID {
			continue
		}
		out = append(out, p)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func fp(v float64) *float64 { return &v }

func ids(posts []models.ScoredPost) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

// scenario: V follows A, not B. P1 by V (1h), P2 by A (2d, S1), P3 by B (10d, help request).
func scenario() *fakeSource {
	p1 := post("P1", "V", time.Hour)
	p2 := post("P2", "A", 2*day, "S1")
	p3 := post("P3", "B", 10*day)
	p3.PostType = models.PostTypeHelpRequest

	return &fakeSource{
		signals:     map[string][]string{"V": {"S1", "S2"}},
		connections: map[string][]string{"V": {"A"}},
		posts:       []models.Post{p1, p2, p3},
	}
}

func newTestBuilder(src Source, opts ...Option) *Builder {
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return NewBuilder(src, nil, zap.NewNop(), opts...)
}

func TestBuild_SmartScenario(t *testing.T) {
	got, err := newTestBuilder(scenario()).Build(context.Background(), Request{ViewerID: "V", Type: TypeSmart})

	require.NoError(t, err)
	require.Equal(t, []string{"P1", "P2", "P3"}, ids(got))

	assert.InDelta(t, 55, *got[0].MatchScore, 0.1)
	assert.Equal(t, ReasonOwnPost, got[0].MatchReason)
	assert.InDelta(t, 18, *got[1].MatchScore, 0.1)
	assert.Equal(t, `Matches your "Label S1" signal`, got[1].MatchReason)
	assert.InDelta(t, 3, *got[2].MatchScore, 1e-9)
	assert.Equal(t, ReasonHelpRequest, got[2].MatchReason)
}

func TestBuild_ConnectionsScenario(t *testing.T) {
	got, err := newTestBuilder(scenario()).Build(context.Background(), Request{ViewerID: "V", Type: TypeConnections})

	require.NoError(t, err)
	assert.Equal(t, []string{"P2"}, ids(got))
}

func TestBuild_ConnectionsKeepsSmartOrder(t *testing.T) {
	src := &fakeSource{
		signals:     map[string][]string{"V": {"S1"}},
		connections: map[string][]string{"V": {"A", "C"}},
		posts: []models.Post{
			post("c-new", "C", time.Hour),
			post("b-match", "B", 2*time.Hour, "S1"),
			post("a-match", "A", 3*day, "S1"),
			post("a-old", "A", 20*day),
			post("c-old", "C", 20*day),
		},
	}
	b := newTestBuilder(src)

	smart, err := b.Build(context.Background(), Request{ViewerID: "V", Type: TypeSmart})
	require.NoError(t, err)
	conns, err := b.Build(context.Background(), Request{ViewerID: "V", Type: TypeConnections})
	require.NoError(t, err)

	var expected []string
	for _, p := range smart {
		if p.UserID == "A" || p.UserID == "C" {
			expected = append(expected, p.ID)
		}
	}
	assert.Equal(t, expected, ids(conns))
	assert.Equal(t, []string{"a-match", "c-new", "a-old", "c-old"}, ids(conns))
}

func TestBuild_TiesKeepNewestFirst(t *testing.T) {
	src := &fakeSource{
		posts: []models.Post{
			post("newest", "X", 30*day),
			post("middle", "Y", 31*day),
			post("oldest", "Z", 32*day),
		},
	}

	got, err := newTestBuilder(src).Build(context.Background(), Request{ViewerID: "V", Type: TypeSmart})

	require.NoError(t, err)
	assert.Equal(t, []string{"newest", "middle", "oldest"}, ids(got))
}

func TestBuild_OwnFeedIsNotScored(t *testing.T) {
	src := &fakeSource{
		signals: map[string][]string{"V": {"S1"}},
		posts: []models.Post{
			post("v-new", "V", 30*day),
			post("other", "A", time.Hour, "S1"),
			post("v-old-match", "V", 40*day, "S1"),
		},
	}

	got, err := newTestBuilder(src).Build(context.Background(), Request{ViewerID: "V", Type: TypeOwn, MaxDistanceMiles: fp(1)})

	require.NoError(t, err)
	assert.Equal(t, []string{"v-new", "v-old-match"}, ids(got))
	for _, p := range got {
		assert.Nil(t, p.MatchScore)
		assert.Empty(t, p.MatchReason)
	}
	require.Len(t, src.queries, 1)
	assert.Equal(t, "V", src.queries[0].AuthorID)
	assert.Zero(t, src.queries[0].Limit)
}

func TestBuild_CandidateLimitAndPageSize(t *testing.T) {
	src := &fakeSource{}
	for i := 0; i < 120; i++ {
		src.posts = append(src.posts, post(fmt.Sprintf("p%03d", i), "X", time.Duration(i)*time.Hour))
	}

	got, err := newTestBuilder(src).Build(context.Background(), Request{ViewerID: "V", Type: TypeSmart})

	require.NoError(t, err)
	assert.Len(t, got, DefaultPageSize)
	require.Len(t, src.queries, 1)
	assert.Equal(t, DefaultCandidateLimit, src.queries[0].Limit)
	assert.Equal(t, testNow, src.queries[0].Now)
}

func TestBuild_DistanceFilter(t *testing.T) {
	withLoc := func(p models.Post, lat, lon float64) models.Post {
		p.Latitude, p.Longitude = &lat, &lon
		return p
	}
	src := &fakeSource{
		profiles: map[string]*models.Profile{
			"V": {ID: "V", Latitude: fp(40.7128), Longitude: fp(-74.0060)},
		},
		posts: []models.Post{
			withLoc(post("brooklyn", "A", time.Hour), 40.6782, -73.9442),
			post("nowhere", "A", 2*time.Hour),
			withLoc(post("la", "A", 3*time.Hour), 34.0522, -118.2437),
		},
	}
	b := newTestBuilder(src)

	got, err := b.Build(context.Background(), Request{ViewerID: "V", Type: TypeSmart, MaxDistanceMiles: fp(25)})
	require.NoError(t, err)
	assert.Equal(t, []string{"brooklyn"}, ids(got))

	got, err = b.Build(context.Background(), Request{ViewerID: "V", Type: TypeSmart, MaxDistanceMiles: fp(1e9)})
	require.NoError(t, err)
	assert.Equal(t, []string{"brooklyn", "la"}, ids(got))
}

func TestBuild_DistanceFilterNoopWithoutViewerCoordinates(t *testing.T) {
	src := scenario()
	src.profiles = map[string]*models.Profile{"V": {ID: "V"}}

	got, err := newTestBuilder(src).Build(context.Background(), Request{ViewerID: "V", Type: TypeSmart, MaxDistanceMiles: fp(5)})

	require.NoError(t, err)
	assert.Equal(t, []string{"P1", "P2", "P3"}, ids(got))
}

func TestBuild_FetchFailureAbortsRequest(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeSource)
		req   Request
	}{
		{"posts", func(f *fakeSource) { f.postsErr = errors.New("timeout") }, Request{ViewerID: "V", Type: TypeSmart}},
		{"signals", func(f *fakeSource) { f.signalsErr = errors.New("timeout") }, Request{ViewerID: "V", Type: TypeConnections}},
		{"profile", func(f *fakeSource) { f.profileErr = errors.New("timeout") }, Request{ViewerID: "V", Type: TypeSmart, MaxDistanceMiles: fp(10)}},
		{"own posts", func(f *fakeSource) { f.postsErr = errors.New("timeout") }, Request{ViewerID: "V", Type: TypeOwn}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := scenario()
			tt.setup(src)

			got, err := newTestBuilder(src).Build(context.Background(), tt.req)

			assert.Nil(t, got)
			assert.ErrorIs(t, err, apperr.ErrUpstream)
		})
	}
}

func TestBuild_UnknownType(t *testing.T) {
	_, err := newTestBuilder(scenario()).Build(context.Background(), Request{ViewerID: "V", Type: "trending"})

	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestParseType(t *testing.T) {
	got, err := ParseType("")
	require.NoError(t, err)
	assert.Equal(t, TypeSmart, got)

	got, err = ParseType("own")
	require.NoError(t, err)
	assert.Equal(t, TypeOwn, got)

	_, err = ParseType("OWN")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}
