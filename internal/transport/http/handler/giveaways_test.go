package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/givingly/giveaway-api/internal/domain"
	"github.com/givingly/giveaway-api/internal/transport/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockGiveawaySvc struct{ mock.Mock }

func (m *mockGiveawaySvc) Insert(ctx context.Context, caller domain.Caller, req domain.CreateGiveawayRequest) (*domain.Giveaway, error) {
	args := m.Called(ctx, caller, req)
	if g, _ := args.Get(0).(*domain.Giveaway); g != nil {
		return g, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockGiveawaySvc) Update(ctx context.Context, caller domain.Caller, giveawayID string, req domain.UpdateGiveawayRequest) error {
	return m.Called(ctx, caller, giveawayID, req).Error(0)
}
func (m *mockGiveawaySvc) Get(ctx context.Context, giveawayID string) (*domain.Giveaway, error) {
	args := m.Called(ctx, giveawayID)
	if g, _ := args.Get(0).(*domain.Giveaway); g != nil {
		return g, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockGiveawaySvc) ListActive(ctx context.Context) ([]domain.Giveaway, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Giveaway), args.Error(1)
}
func (m *mockGiveawaySvc) ListByUser(ctx context.Context, userID string) ([]domain.Giveaway, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Giveaway), args.Error(1)
}
func (m *mockGiveawaySvc) ListByCommunity(ctx context.Context, communityID string) ([]domain.Giveaway, error) {
	args := m.Called(ctx, communityID)
	return args.Get(0).([]domain.Giveaway), args.Error(1)
}
func (m *mockGiveawaySvc) ListFlagged(ctx context.Context, caller domain.Caller) ([]domain.Giveaway, error) {
	args := m.Called(ctx, caller)
	return args.Get(0).([]domain.Giveaway), args.Error(1)
}
func (m *mockGiveawaySvc) Remove(ctx context.Context, caller domain.Caller, giveawayID, userID string) error {
	return m.Called(ctx, caller, giveawayID, userID).Error(0)
}
func (m *mockGiveawaySvc) RemoveFlagged(ctx context.Context, caller domain.Caller, giveawayID, userID string) error {
	return m.Called(ctx, caller, giveawayID, userID).Error(0)
}
func (m *mockGiveawaySvc) Restore(ctx context.Context, caller domain.Caller, giveawayID, userID string) error {
	return m.Called(ctx, caller, giveawayID, userID).Error(0)
}
func (m *mockGiveawaySvc) Flag(ctx context.Context, caller domain.Caller, giveawayID, userID string) error {
	return m.Called(ctx, caller, giveawayID, userID).Error(0)
}
func (m *mockGiveawaySvc) Unflag(ctx context.Context, caller domain.Caller, giveawayID, userID string) error {
	return m.Called(ctx, caller, giveawayID, userID).Error(0)
}
func (m *mockGiveawaySvc) PushStatusUpdate(ctx context.Context, caller domain.Caller, giveawayID, statusTypeID, userID string) error {
	return m.Called(ctx, caller, giveawayID, statusTypeID, userID).Error(0)
}
func (m *mockGiveawaySvc) VoteUp(ctx context.Context, caller domain.Caller, giveawayID, userID string) error {
	return m.Called(ctx, caller, giveawayID, userID).Error(0)
}
func (m *mockGiveawaySvc) VoteDown(ctx context.Context, caller domain.Caller, giveawayID, userID string) error {
	return m.Called(ctx, caller, giveawayID, userID).Error(0)
}
func (m *mockGiveawaySvc) Unvote(ctx context.Context, caller domain.Caller, giveawayID, userID string) error {
	return m.Called(ctx, caller, giveawayID, userID).Error(0)
}
func (m *mockGiveawaySvc) Pageviews(ctx context.Context, giveawayID string) int {
	return m.Called(ctx, giveawayID).Int(0)
}
func (m *mockGiveawaySvc) InfoboxOpens(ctx context.Context, giveawayID string) int {
	return m.Called(ctx, giveawayID).Int(0)
}

// --- helpers ---

// withCaller injects an authenticated caller into the request context.
func withCaller(r *http.Request, id, role string) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.CallerKey, domain.Caller{ID: id, Role: role})
	return r.WithContext(ctx)
}

// withChiID injects a chi URL param "id" into the request context.
func withChiID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func flagBody(userID string) *bytes.Reader {
	b, _ := json.Marshal(userPayload{UserID: userID})
	return bytes.NewReader(b)
}

// --- Flag tests ---

func TestFlag_InvalidBody(t *testing.T) {
	h := NewGiveawayHandler(&mockGiveawaySvc{})
	r := httptest.NewRequest(http.MethodPost, "/v1/giveaways/g1/flag", bytes.NewBufferString("not-json"))
	r = withCaller(withChiID(r, "g1"), "u1", domain.RoleUser)
	rr := httptest.NewRecorder()
	h.Flag(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestFlag_SelfFlag_MapsToForbidden(t *testing.T) {
	svc := &mockGiveawaySvc{}
	svc.On("Flag", mock.Anything, domain.Caller{ID: "u1", Role: domain.RoleUser}, "g1", "u1").
		Return(domain.ErrSelfFlagForbidden)

	h := NewGiveawayHandler(svc)
	r := httptest.NewRequest(http.MethodPost, "/v1/giveaways/g1/flag", flagBody("u1"))
	r = withCaller(withChiID(r, "g1"), "u1", domain.RoleUser)
	rr := httptest.NewRecorder()
	h.Flag(rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	svc.AssertExpectations(t)
}

func TestFlag_NotFound_MapsTo404(t *testing.T) {
	svc := &mockGiveawaySvc{}
	svc.On("Flag", mock.Anything, mock.Anything, "g1", "u1").Return(domain.ErrNotFound)

	h := NewGiveawayHandler(svc)
	r := httptest.NewRequest(http.MethodPost, "/v1/giveaways/g1/flag", flagBody("u1"))
	r = withCaller(withChiID(r, "g1"), "u1", domain.RoleUser)
	rr := httptest.NewRecorder()
	h.Flag(rr, r)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestFlag_HappyPath(t *testing.T) {
	svc := &mockGiveawaySvc{}
	svc.On("Flag", mock.Anything, mock.Anything, "g1", "u1").Return(nil)

	h := NewGiveawayHandler(svc)
	r := httptest.NewRequest(http.MethodPost, "/v1/giveaways/g1/flag", flagBody("u1"))
	r = withCaller(withChiID(r, "g1"), "u1", domain.RoleUser)
	rr := httptest.NewRecorder()
	h.Flag(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp MessageEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "giveaway flagged", resp.Message)
}

// --- Remove tests ---

func TestRemove_AlreadyRemoved_MapsToConflict(t *testing.T) {
	svc := &mockGiveawaySvc{}
	svc.On("Remove", mock.Anything, mock.Anything, "g1", "u1").Return(domain.ErrAlreadyRemoved)

	h := NewGiveawayHandler(svc)
	r := httptest.NewRequest(http.MethodPost, "/v1/giveaways/g1/remove", flagBody("u1"))
	r = withCaller(withChiID(r, "g1"), "u1", domain.RoleUser)
	rr := httptest.NewRecorder()
	h.Remove(rr, r)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

// --- Update tests ---

func TestUpdate_RemovedGiveaway_MapsTo422(t *testing.T) {
	svc := &mockGiveawaySvc{}
	svc.On("Update", mock.Anything, mock.Anything, "g1", mock.Anything).Return(domain.ErrGiveawayRemoved)

	h := NewGiveawayHandler(svc)
	body, _ := json.Marshal(domain.UpdateGiveawayRequest{})
	r := httptest.NewRequest(http.MethodPut, "/v1/giveaways/g1", bytes.NewReader(body))
	r = withCaller(withChiID(r, "g1"), "u1", domain.RoleUser)
	rr := httptest.NewRecorder()
	h.Update(rr, r)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

// --- List tests ---

func TestList_DefaultsToActive(t *testing.T) {
	svc := &mockGiveawaySvc{}
	svc.On("ListActive", mock.Anything).Return([]domain.Giveaway{{GiveawayID: "g1"}}, nil)

	h := NewGiveawayHandler(svc)
	r := httptest.NewRequest(http.MethodGet, "/v1/giveaways", nil)
	rr := httptest.NewRecorder()
	h.List(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var gs []domain.Giveaway
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&gs))
	require.Len(t, gs, 1)
	assert.Equal(t, "g1", gs[0].GiveawayID)
	svc.AssertNotCalled(t, "ListByUser", mock.Anything, mock.Anything)
}

func TestList_FilterByUser(t *testing.T) {
	svc := &mockGiveawaySvc{}
	svc.On("ListByUser", mock.Anything, "u1").Return([]domain.Giveaway{}, nil)

	h := NewGiveawayHandler(svc)
	r := httptest.NewRequest(http.MethodGet, "/v1/giveaways?user_id=u1", nil)
	rr := httptest.NewRecorder()
	h.List(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

// --- Status update tests ---

func TestPushStatusUpdate_MissingStatusType(t *testing.T) {
	h := NewGiveawayHandler(&mockGiveawaySvc{})
	body, _ := json.Marshal(statusUpdatePayload{UserID: "u1"})
	r := httptest.NewRequest(http.MethodPost, "/v1/giveaways/g1/status-updates", bytes.NewReader(body))
	r = withCaller(withChiID(r, "g1"), "u1", domain.RoleUser)
	rr := httptest.NewRecorder()
	h.PushStatusUpdate(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPushStatusUpdate_HappyPath(t *testing.T) {
	svc := &mockGiveawaySvc{}
	svc.On("PushStatusUpdate", mock.Anything, mock.Anything, "g1", "st1", "u1").Return(nil)

	h := NewGiveawayHandler(svc)
	body, _ := json.Marshal(statusUpdatePayload{StatusTypeID: "st1", UserID: "u1"})
	r := httptest.NewRequest(http.MethodPost, "/v1/giveaways/g1/status-updates", bytes.NewReader(body))
	r = withCaller(withChiID(r, "g1"), "u1", domain.RoleUser)
	rr := httptest.NewRecorder()
	h.PushStatusUpdate(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestInfoboxOpens_ReturnsCount(t *testing.T) {
	svc := &mockGiveawaySvc{}
	svc.On("InfoboxOpens", mock.Anything, "g1").Return(7)

	h := NewGiveawayHandler(svc)
	r := httptest.NewRequest(http.MethodGet, "/v1/giveaways/g1/infobox-opens", nil)
	r = withChiID(r, "g1")
	rr := httptest.NewRecorder()
	h.InfoboxOpens(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"infobox_opens": 7}`, rr.Body.String())
	svc.AssertExpectations(t)
}
