package posts

import (
	"context"
	"testing"
	"time"

	"signalnet/internal/apperr"
	"signalnet/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.(*models.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	args := m.Called(ctx, postID)
	if fn, ok := args.Get(0).(func(context.Context, string) *models.Post); ok {
		return fn(ctx, postID), args.Error(1)
	}
	if v := args.Get(0); v != nil {
		return v.(*models.Post), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) InsertPost(ctx context.Context, post *models.Post, signalIDs []string) error {
	return m.Called(ctx, post, signalIDs).Error(0)
}

func (m *mockStore) UpdatePost(ctx context.Context, postID string, upd models.PostUpdate) error {
	return m.Called(ctx, postID, upd).Error(0)
}

func (m *mockStore) SetPostArchived(ctx context.Context, postID string, archived bool) error {
	return m.Called(ctx, postID, archived).Error(0)
}

func (m *mockStore) DeletePost(ctx context.Context, postID string) error {
	return m.Called(ctx, postID).Error(0)
}

type staticSignals map[string]models.SignalWithCategory

func (s staticSignals) Signal(ctx context.Context, id string) (models.SignalWithCategory, error) {
	sig, ok := s[id]
	if !ok {
		return models.SignalWithCategory{}, apperr.NotFound("signal %q", id)
	}
	return sig, nil
}

var testNow = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func newTestService(store Store) *Service {
	signals := staticSignals{
		"learning-ai":       {Signal: models.Signal{ID: "learning-ai", CategoryID: "learning", Label: "AI"}},
		"availability-open": {Signal: models.Signal{ID: "availability-open", CategoryID: "availability", Label: "Open"}},
	}
	svc := NewService(store, signals, zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func TestCreate_SnapshotsAuthorLocation(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	svc := newTestService(store)

	author := &models.Profile{
		ID:        "u1",
		City:      strPtr("Austin"),
		State:     strPtr("TX"),
		Latitude:  floatPtr(30.27),
		Longitude: floatPtr(-97.74),
	}
	store.On("GetProfile", ctx, "u1").Return(author, nil)

	var saved *models.Post
	store.On("InsertPost", ctx, mock.AnythingOfType("*models.Post"), []string{"learning-ai", "availability-open"}).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*models.Post) }).
		Return(nil)
	store.On("GetPost", ctx, mock.AnythingOfType("string")).
		Return(func(ctx context.Context, id string) *models.Post { return saved }, nil)

	post, err := svc.Create(ctx, "u1", CreateInput{
		Content:       "  Looking for a Go mentor  ",
		PostType:      models.PostTypeHelpRequest,
		SignalIDs:     []string{"learning-ai", "availability-open"},
		ExpiresInDays: intPtr(7),
	})
	require.NoError(t, err)

	assert.Equal(t, "Looking for a Go mentor", post.Content)
	assert.Equal(t, models.VisibilityPublic, post.Visibility)
	assert.Equal(t, "Austin", *post.City)
	assert.Equal(t, 30.27, *post.Latitude)
	require.NotNil(t, post.ExpiresAt)
	assert.Equal(t, testNow.AddDate(0, 0, 7), *post.ExpiresAt)
	assert.NotEmpty(t, post.ID)
	store.AssertExpectations(t)
}

func TestCreate_ZeroExpiryMeansNever(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	svc := newTestService(store)

	store.On("GetProfile", ctx, "u1").Return(&models.Profile{ID: "u1"}, nil)
	var saved *models.Post
	store.On("InsertPost", ctx, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*models.Post) }).
		Return(nil)
	store.On("GetPost", ctx, mock.Anything).
		Return(func(ctx context.Context, id string) *models.Post { return saved }, nil)

	post, err := svc.Create(ctx, "u1", CreateInput{Content: "hi", PostType: models.PostTypeUpdate, ExpiresInDays: intPtr(0)})
	require.NoError(t, err)
	assert.Nil(t, post.ExpiresAt)
	assert.Nil(t, post.Latitude)
}

func TestCreate_RejectsInvalidInput(t *testing.T) {
	store := new(mockStore)
	svc := newTestService(store)

	tests := []struct {
		name string
		in   CreateInput
	}{
		{"blank content", CreateInput{Content: "   ", PostType: models.PostTypeUpdate}},
		{"bad type", CreateInput{Content: "x", PostType: "rant"}},
		{"bad visibility", CreateInput{Content: "x", PostType: models.PostTypeUpdate, Visibility: "friends"}},
		{"unknown signal", CreateInput{Content: "x", PostType: models.PostTypeUpdate, SignalIDs: []string{"nope"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "u1", tt.in)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}
	store.AssertNotCalled(t, "InsertPost", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_OwnerOnly(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	svc := newTestService(store)

	store.On("GetPost", ctx, "missing").Return(nil, nil)
	store.On("GetPost", ctx, "p1").Return(&models.Post{ID: "p1", UserID: "owner"}, nil)

	_, err := svc.Update(ctx, "owner", "missing", UpdateInput{Content: strPtr("x")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.Update(ctx, "intruder", "p1", UpdateInput{Content: strPtr("x")})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	err = svc.Delete(ctx, "intruder", "p1")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	store.AssertNotCalled(t, "UpdatePost", mock.Anything, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "DeletePost", mock.Anything, mock.Anything)
}

func TestUpdate_ReplacesSignals(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	svc := newTestService(store)

	store.On("GetPost", ctx, "p1").Return(&models.Post{ID: "p1", UserID: "owner"}, nil)
	ids := []string{"availability-open"}
	store.On("UpdatePost", ctx, "p1", models.PostUpdate{SignalIDs: &ids, UpdatedAt: testNow}).Return(nil)

	_, err := svc.Update(ctx, "owner", "p1", UpdateInput{SignalIDs: &ids})
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	svc := newTestService(store)

	store.On("GetPost", ctx, "p1").Return(&models.Post{ID: "p1", UserID: "owner"}, nil)
	store.On("DeletePost", ctx, "p1").Return(nil)

	require.NoError(t, svc.Delete(ctx, "owner", "p1"))
	store.AssertExpectations(t)
}

func TestSetArchived(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	svc := newTestService(store)

	store.On("GetPost", ctx, "p1").Return(&models.Post{ID: "p1", UserID: "owner"}, nil).Once()
	store.On("SetPostArchived", ctx, "p1", true).Return(nil)
	store.On("GetPost", ctx, "p1").Return(&models.Post{ID: "p1", UserID: "owner", Archived: true}, nil).Once()

	post, err := svc.SetArchived(ctx, "owner", "p1", true)
	require.NoError(t, err)
	assert.True(t, post.Archived)

	store.On("GetPost", ctx, "p1").Return(&models.Post{ID: "p1", UserID: "owner", Archived: true}, nil).Once()
	_, err = svc.SetArchived(ctx, "owner", "p1", true)
	require.NoError(t, err)
	store.AssertNumberOfCalls(t, "SetPostArchived", 1)
}
