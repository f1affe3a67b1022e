package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"signalnet/internal/apperr"
	"signalnet/internal/auth"
	"signalnet/internal/feed"
	"signalnet/internal/messages"
	"signalnet/internal/models"
	"signalnet/internal/posts"
	"signalnet/internal/signals"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	postID      = "5b0f3c1e-8a4d-4c55-9f0e-2d7a1b6c9e01"
	connID      = "0c9a7e52-3f1b-4e8d-a6b2-71d4f0e3c812"
	otherConnID = "e41d2b7a-6c0f-4a93-8b5e-9f2c1d7a3e40"
	peerID      = "9d3e6f10-2b4a-4c7e-8f15-a0b1c2d3e4f5"
)

func serve(t *testing.T, method, pattern, target, body string, h http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req = req.WithContext(auth.WithViewer(req.Context(), "viewer-1"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperr.Invalid("bad"), http.StatusBadRequest},
		{apperr.Forbidden("no"), http.StatusForbidden},
		{apperr.NotFound("gone"), http.StatusNotFound},
		{apperr.Conflict("dup"), http.StatusConflict},
		{apperr.Upstream(errors.New("db down")), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", apperr.NotFound("post")), http.StatusNotFound},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

type fakeFeed struct {
	got     feed.Request
	entries []models.ScoredPost
	err     error
}

func (f *fakeFeed) Build(ctx context.Context, req feed.Request) ([]models.ScoredPost, error) {
	f.got = req
	return f.entries, f.err
}

func TestGetFeed(t *testing.T) {
	builder := &fakeFeed{}
	h := NewFeedHandler(builder, zap.NewNop())

	rec := serve(t, http.MethodGet, "/api/posts", "/api/posts?type=connections&distance=25", "", h.GetFeed)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"posts":[]}`, rec.Body.String())

	assert.Equal(t, "viewer-1", builder.got.ViewerID)
	assert.Equal(t, feed.TypeConnections, builder.got.Type)
	require.NotNil(t, builder.got.MaxDistanceMiles)
	assert.Equal(t, 25.0, *builder.got.MaxDistanceMiles)
}

func TestGetFeedDefaults(t *testing.T) {
	builder := &fakeFeed{}
	h := NewFeedHandler(builder, zap.NewNop())

	rec := serve(t, http.MethodGet, "/api/posts", "/api/posts", "", h.GetFeed)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, feed.TypeSmart, builder.got.Type)
	assert.Nil(t, builder.got.MaxDistanceMiles)
}

func TestGetFeedRejectsBadQuery(t *testing.T) {
	h := NewFeedHandler(&fakeFeed{}, zap.NewNop())

	for _, target := range []string{
		"/api/posts?type=trending",
		"/api/posts?distance=abc",
		"/api/posts?distance=-5",
		"/api/posts?distance=2.5",
	} {
		rec := serve(t, http.MethodGet, "/api/posts", target, "", h.GetFeed)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestGetFeedHidesUpstreamDetail(t *testing.T) {
	h := NewFeedHandler(&fakeFeed{err: apperr.Upstream(errors.New("pq: connection refused"))}, zap.NewNop())

	rec := serve(t, http.MethodGet, "/api/posts", "/api/posts", "", h.GetFeed)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"Bad Gateway"}`, rec.Body.String())
}

type mockSignalService struct {
	mock.Mock
}

func (m *mockSignalService) Active(ctx context.Context, userID string) ([]models.UserSignalWithCategory, error) {
	args := m.Called(ctx, userID)
	active, _ := args.Get(0).([]models.UserSignalWithCategory)
	return active, args.Error(1)
}

func (m *mockSignalService) ValidateAdd(ctx context.Context, viewerID, signalID string) (signals.Decision, error) {
	args := m.Called(ctx, viewerID, signalID)
	return args.Get(0).(signals.Decision), args.Error(1)
}

func (m *mockSignalService) Add(ctx context.Context, viewerID, signalID string) (*models.UserSignal, signals.Decision, error) {
	args := m.Called(ctx, viewerID, signalID)
	us, _ := args.Get(0).(*models.UserSignal)
	return us, args.Get(1).(signals.Decision), args.Error(2)
}

func (m *mockSignalService) Remove(ctx context.Context, viewerID, signalID string) error {
	return m.Called(ctx, viewerID, signalID).Error(0)
}

func (m *mockSignalService) Toggle(ctx context.Context, viewerID, signalID string) (*signals.ToggleResult, error) {
	args := m.Called(ctx, viewerID, signalID)
	res, _ := args.Get(0).(*signals.ToggleResult)
	return res, args.Error(1)
}

type fakeCatalog struct {
	categories []models.SignalCategory
	grouped    map[string][]models.SignalWithCategory
}

func (f *fakeCatalog) Categories(ctx context.Context) ([]models.SignalCategory, error) {
	return f.categories, nil
}

func (f *fakeCatalog) SignalsByCategory(ctx context.Context) (map[string][]models.SignalWithCategory, error) {
	return f.grouped, nil
}

func TestAddSignalRejected(t *testing.T) {
	svc := new(mockSignalService)
	svc.On("Add", mock.Anything, "viewer-1", "sig-6").
		Return(nil, signals.Reject("You can only select up to 5 signals total."), nil)

	h := NewSignalHandler(&fakeCatalog{}, svc, zap.NewNop())
	rec := serve(t, http.MethodPost, "/api/user-signals/{signalID}", "/api/user-signals/sig-6", "", h.Add)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"error":"You can only select up to 5 signals total."}`, rec.Body.String())
	svc.AssertExpectations(t)
}

func TestAddSignalCreated(t *testing.T) {
	svc := new(mockSignalService)
	svc.On("Add", mock.Anything, "viewer-1", "sig-1").
		Return(&models.UserSignal{ID: "us-1", UserID: "viewer-1", SignalID: "sig-1"}, signals.Allow(), nil)

	h := NewSignalHandler(&fakeCatalog{}, svc, zap.NewNop())
	rec := serve(t, http.MethodPost, "/api/user-signals/{signalID}", "/api/user-signals/sig-1", "", h.Add)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"signal_id":"sig-1"`)
}

func TestValidateSignal(t *testing.T) {
	svc := new(mockSignalService)
	svc.On("ValidateAdd", mock.Anything, "viewer-1", "sig-2").Return(signals.Allow(), nil)

	h := NewSignalHandler(&fakeCatalog{}, svc, zap.NewNop())
	rec := serve(t, http.MethodGet, "/api/user-signals/{signalID}/validate", "/api/user-signals/sig-2/validate", "", h.Validate)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"allowed":true}`, rec.Body.String())
}

func TestListUserSignalsDefaultsToViewer(t *testing.T) {
	svc := new(mockSignalService)
	svc.On("Active", mock.Anything, "viewer-1").Return(nil, nil).Once()
	svc.On("Active", mock.Anything, peerID).Return(nil, nil).Once()

	h := NewSignalHandler(&fakeCatalog{}, svc, zap.NewNop())

	rec := serve(t, http.MethodGet, "/api/user-signals", "/api/user-signals", "", h.ListUserSignals)
	assert.JSONEq(t, `{"signals":[]}`, rec.Body.String())

	rec = serve(t, http.MethodGet, "/api/user-signals", "/api/user-signals?userId="+peerID, "", h.ListUserSignals)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, http.MethodGet, "/api/user-signals", "/api/user-signals?userId=not-a-uuid", "", h.ListUserSignals)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertExpectations(t)
}

func TestListSignalsGroupsInCategoryOrder(t *testing.T) {
	catalog := &fakeCatalog{
		categories: []models.SignalCategory{{ID: "hiring", Name: "Hiring"}, {ID: "open", Name: "Open to"}},
		grouped: map[string][]models.SignalWithCategory{
			"open": {{Signal: models.Signal{ID: "s1", CategoryID: "open", Label: "Mentoring"}}},
		},
	}
	h := NewSignalHandler(catalog, new(mockSignalService), zap.NewNop())

	rec := serve(t, http.MethodGet, "/api/signals", "/api/signals", "", h.ListSignals)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Less(t, strings.Index(body, `"hiring"`), strings.Index(body, `"open"`))
	assert.Contains(t, body, `"signals":[]`)
	assert.Contains(t, body, `"label":"Mentoring"`)
}

type fakePosts struct {
	archived *bool
	created  posts.CreateInput
}

func (f *fakePosts) Create(ctx context.Context, viewerID string, in posts.CreateInput) (*models.Post, error) {
	f.created = in
	return &models.Post{ID: "p1", UserID: viewerID, Content: in.Content, PostType: in.PostType}, nil
}

func (f *fakePosts) Update(ctx context.Context, viewerID, postID string, in posts.UpdateInput) (*models.Post, error) {
	return nil, apperr.Forbidden("post %s is not yours", postID)
}

func (f *fakePosts) Delete(ctx context.Context, viewerID, postID string) error {
	return nil
}

func (f *fakePosts) SetArchived(ctx context.Context, viewerID, postID string, archived bool) (*models.Post, error) {
	f.archived = &archived
	return &models.Post{ID: postID, Archived: archived}, nil
}

func TestPostHandlers(t *testing.T) {
	svc := &fakePosts{}
	h := NewPostHandler(svc, zap.NewNop())

	rec := serve(t, http.MethodPost, "/api/posts", "/api/posts", `{"content":"Hiring a Go engineer","post_type":"hiring"}`, h.Create)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, models.PostType("hiring"), svc.created.PostType)

	rec = serve(t, http.MethodPost, "/api/posts", "/api/posts", "", h.Create)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, http.MethodPost, "/api/posts", "/api/posts", `{"content":`, h.Create)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, http.MethodPatch, "/api/posts/{postID}", "/api/posts/"+postID, `{"content":"x"}`, h.Update)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(t, http.MethodDelete, "/api/posts/{postID}", "/api/posts/"+postID, "", h.Delete)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(t, http.MethodDelete, "/api/posts/{postID}", "/api/posts/p1", "", h.Delete)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestArchiveDefaultsToTrue(t *testing.T) {
	svc := &fakePosts{}
	h := NewPostHandler(svc, zap.NewNop())

	rec := serve(t, http.MethodPost, "/api/posts/{postID}/archive", "/api/posts/"+postID+"/archive", "", h.Archive)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.archived)
	assert.True(t, *svc.archived)

	rec = serve(t, http.MethodPost, "/api/posts/{postID}/archive", "/api/posts/"+postID+"/archive", `{"archived":false}`, h.Archive)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, *svc.archived)
}

type fakeConnections struct {
	receiver string
}

func (f *fakeConnections) List(ctx context.Context, viewerID string, status models.ConnectionStatus) ([]models.Connection, error) {
	return nil, nil
}

func (f *fakeConnections) Request(ctx context.Context, viewerID, receiverID string) (*models.Connection, error) {
	f.receiver = receiverID
	if receiverID == viewerID {
		return nil, apperr.Invalid("cannot connect to yourself")
	}
	return &models.Connection{ID: "c1", RequesterID: viewerID, ReceiverID: receiverID, Status: models.ConnectionPending}, nil
}

func (f *fakeConnections) Respond(ctx context.Context, viewerID, connectionID string, status models.ConnectionStatus) (*models.Connection, error) {
	return nil, apperr.Conflict("connection %s is not pending", connectionID)
}

func (f *fakeConnections) Remove(ctx context.Context, viewerID, connectionID string) error {
	return apperr.NotFound("connection %s", connectionID)
}

func TestConnectionHandlers(t *testing.T) {
	svc := &fakeConnections{}
	h := NewConnectionHandler(svc, zap.NewNop())

	rec := serve(t, http.MethodGet, "/api/connections", "/api/connections?status=bogus", "", h.List)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, http.MethodGet, "/api/connections", "/api/connections?status=accepted", "", h.List)
	assert.JSONEq(t, `{"connections":[]}`, rec.Body.String())

	rec = serve(t, http.MethodPost, "/api/connections", "/api/connections", `{"receiver_id":"`+peerID+`"}`, h.Request)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, peerID, svc.receiver)

	rec = serve(t, http.MethodPost, "/api/connections", "/api/connections", `{}`, h.Request)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, http.MethodPost, "/api/connections", "/api/connections", `{"receiver_id":"u2"}`, h.Request)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, http.MethodPatch, "/api/connections/{connectionID}", "/api/connections/"+connID, `{"status":"accepted"}`, h.Respond)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(t, http.MethodDelete, "/api/connections/{connectionID}", "/api/connections/"+connID, "", h.Remove)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type fakeMessages struct {
	sent     messages.SendInput
	markedOn string
}

func (f *fakeMessages) List(ctx context.Context, viewerID, connectionID string) ([]models.Message, error) {
	if connectionID == otherConnID {
		return nil, apperr.Forbidden("not a party to connection %s", connectionID)
	}
	return []models.Message{{ID: "m1", ConnectionID: connectionID, SenderID: viewerID, Content: "hi"}}, nil
}

func (f *fakeMessages) Send(ctx context.Context, viewerID string, in messages.SendInput) (*models.Message, error) {
	f.sent = in
	return &models.Message{ID: "m2", ConnectionID: in.ConnectionID, SenderID: viewerID, Content: in.Content}, nil
}

func (f *fakeMessages) MarkRead(ctx context.Context, viewerID, connectionID string) (int64, error) {
	f.markedOn = connectionID
	return 3, nil
}

func (f *fakeMessages) Conversations(ctx context.Context, viewerID string) ([]models.Conversation, error) {
	return nil, nil
}

func TestMessageHandlers(t *testing.T) {
	svc := &fakeMessages{}
	h := NewMessageHandler(svc, zap.NewNop())

	rec := serve(t, http.MethodGet, "/api/messages", "/api/messages", "", h.List)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, http.MethodGet, "/api/messages", "/api/messages?connection_id="+otherConnID, "", h.List)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(t, http.MethodGet, "/api/messages", "/api/messages?connection_id="+connID, "", h.List)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"content":"hi"`)

	rec = serve(t, http.MethodPost, "/api/messages", "/api/messages", `{"connection_id":"`+connID+`","content":"hello"}`, h.Send)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "hello", svc.sent.Content)

	rec = serve(t, http.MethodPost, "/api/messages/read", "/api/messages/read", `{"connection_id":"`+connID+`"}`, h.MarkRead)
	assert.JSONEq(t, `{"updated":3}`, rec.Body.String())
	assert.Equal(t, connID, svc.markedOn)

	rec = serve(t, http.MethodGet, "/api/conversations", "/api/conversations", "", h.Conversations)
	assert.JSONEq(t, `{"conversations":[]}`, rec.Body.String())
}

type fakeProfiles struct {
	query string
}

func (f *fakeProfiles) Get(ctx context.Context, userID string) (*models.ProfileWithSignals, error) {
	return nil, apperr.NotFound("profile %s", userID)
}

func (f *fakeProfiles) List(ctx context.Context, viewerID string) ([]models.ProfileWithSignals, error) {
	return nil, nil
}

func (f *fakeProfiles) SetLocation(ctx context.Context, viewerID, query string) (*models.Profile, error) {
	f.query = query
	return &models.Profile{ID: viewerID}, nil
}

func TestProfileHandlers(t *testing.T) {
	svc := &fakeProfiles{}
	h := NewProfileHandler(svc, zap.NewNop())

	rec := serve(t, http.MethodGet, "/api/profiles/{profileID}", "/api/profiles/"+peerID, "", h.Get)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, http.MethodGet, "/api/profiles/{profileID}", "/api/profiles/missing", "", h.Get)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, http.MethodGet, "/api/profiles", "/api/profiles", "", h.List)
	assert.JSONEq(t, `{"profiles":[]}`, rec.Body.String())

	rec = serve(t, http.MethodPut, "/api/profile/location", "/api/profile/location", `{"location":"Austin, TX"}`, h.SetLocation)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Austin, TX", svc.query)
}

type memLinkCodes map[string]string

func (m memLinkCodes) SaveLinkCode(ctx context.Context, code, userID string) error {
	m[code] = userID
	return nil
}

func TestCreateLinkCode(t *testing.T) {
	codes := memLinkCodes{}
	h := NewTelegramHandler(codes, 10*time.Minute, zap.NewNop())

	rec := serve(t, http.MethodPost, "/api/telegram/link", "/api/telegram/link", "", h.CreateLinkCode)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, codes, 1)

	for code, userID := range codes {
		assert.Len(t, code, 10)
		assert.Equal(t, "viewer-1", userID)
		assert.Contains(t, rec.Body.String(), `"command":"/start `+code+`"`)
	}
	assert.Contains(t, rec.Body.String(), `"expires_in":600`)
}

type pinger func(ctx context.Context) error

func (p pinger) Ping(ctx context.Context) error { return p(ctx) }

func TestHealthCheck(t *testing.T) {
	ok := pinger(func(context.Context) error { return nil })
	down := pinger(func(context.Context) error { return errors.New("refused") })

	h := NewHealthHandler(map[string]Pinger{"postgres": ok, "redis": ok}, zap.NewNop())
	rec := serve(t, http.MethodGet, "/health", "/health", "", h.Check)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","checks":{"postgres":"healthy","redis":"healthy"}}`, rec.Body.String())

	h = NewHealthHandler(map[string]Pinger{"postgres": ok, "redis": down}, zap.NewNop())
	rec = serve(t, http.MethodGet, "/health", "/health", "", h.Check)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unhealthy","checks":{"postgres":"healthy","redis":"unhealthy"}}`, rec.Body.String())
}
