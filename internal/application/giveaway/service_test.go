package giveaway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/givingly/giveaway-api/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockGiveawayStore struct{ mock.Mock }

func (m *mockGiveawayStore) Put(ctx context.Context, g *domain.Giveaway) error {
	return m.Called(ctx, g).Error(0)
}
func (m *mockGiveawayStore) Get(ctx context.Context, giveawayID string) (*domain.Giveaway, error) {
	args := m.Called(ctx, giveawayID)
	if g, _ := args.Get(0).(*domain.Giveaway); g != nil {
		return g, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockGiveawayStore) Update(ctx context.Context, giveawayID string, updates map[string]interface{}) error {
	return m.Called(ctx, giveawayID, updates).Error(0)
}
func (m *mockGiveawayStore) SetFlag(ctx context.Context, giveawayID, userID string, date time.Time) error {
	return m.Called(ctx, giveawayID, userID, date).Error(0)
}
func (m *mockGiveawayStore) ClearFlags(ctx context.Context, giveawayID string) error {
	return m.Called(ctx, giveawayID).Error(0)
}
func (m *mockGiveawayStore) MarkRemoved(ctx context.Context, giveawayID, removeUserID string, date time.Time) error {
	return m.Called(ctx, giveawayID, removeUserID, date).Error(0)
}
func (m *mockGiveawayStore) MarkRestored(ctx context.Context, giveawayID string) error {
	return m.Called(ctx, giveawayID).Error(0)
}
func (m *mockGiveawayStore) Vote(ctx context.Context, giveawayID, userID string, date time.Time, up bool) error {
	return m.Called(ctx, giveawayID, userID, date, up).Error(0)
}
func (m *mockGiveawayStore) Unvote(ctx context.Context, giveawayID, userID string) error {
	return m.Called(ctx, giveawayID, userID).Error(0)
}
func (m *mockGiveawayStore) ReplaceStatusUpdates(ctx context.Context, giveawayID string, updates []domain.StatusUpdate) error {
	return m.Called(ctx, giveawayID, updates).Error(0)
}
func (m *mockGiveawayStore) AppendStatusUpdate(ctx context.Context, giveawayID string, su domain.StatusUpdate) error {
	return m.Called(ctx, giveawayID, su).Error(0)
}
func (m *mockGiveawayStore) ListActive(ctx context.Context, now time.Time) ([]domain.Giveaway, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]domain.Giveaway), args.Error(1)
}
func (m *mockGiveawayStore) ListByUser(ctx context.Context, userID string) ([]domain.Giveaway, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Giveaway), args.Error(1)
}
func (m *mockGiveawayStore) ListByCommunity(ctx context.Context, communityID string) ([]domain.Giveaway, error) {
	args := m.Called(ctx, communityID)
	return args.Get(0).([]domain.Giveaway), args.Error(1)
}
func (m *mockGiveawayStore) ListFlagged(ctx context.Context) ([]domain.Giveaway, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Giveaway), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
	wg sync.WaitGroup
}

func (m *mockNotifier) ModsFlaggedGiveaway(ctx context.Context, g *domain.Giveaway, flaggerID string) error {
	return m.Called(ctx, g, flaggerID).Error(0)
}
func (m *mockNotifier) UnnotifyModsFlaggedGiveaway(ctx context.Context, giveawayID string) error {
	return m.Called(ctx, giveawayID).Error(0)
}
func (m *mockNotifier) RemovedFlaggedGiveaway(ctx context.Context, g *domain.Giveaway) error {
	return m.Called(ctx, g).Error(0)
}
func (m *mockNotifier) UnnotifyRemovedFlaggedGiveaway(ctx context.Context, g *domain.Giveaway) error {
	return m.Called(ctx, g).Error(0)
}
func (m *mockNotifier) VotedOnGiveaway(ctx context.Context, g *domain.Giveaway, voterID, direction string) error {
	defer m.wg.Done()
	return m.Called(ctx, g, voterID, direction).Error(0)
}

// --- helpers ---

func newTestService(repo *mockGiveawayStore, n *mockNotifier) *service {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewService(ServiceDeps{
		Repo:     repo,
		Notifier: n,
		Log:      log,
	}).(*service)
}

func activeGiveaway() *domain.Giveaway {
	return &domain.Giveaway{
		GiveawayID: "g1",
		UserID:     "owner",
		Title:      "Free couch",
		Flags:      map[string]time.Time{},
		Ratings: domain.Ratings{
			Upvotes:   map[string]time.Time{},
			Downvotes: map[string]time.Time{},
		},
	}
}

func asUser(id string) domain.Caller  { return domain.Caller{ID: id, Role: domain.RoleUser} }
func asMod(id string) domain.Caller   { return domain.Caller{ID: id, Role: domain.RoleModerator} }
func asAdmin(id string) domain.Caller { return domain.Caller{ID: id, Role: domain.RoleAdmin} }

// --- Insert tests ---

func TestInsert_NotLoggedIn(t *testing.T) {
	svc := newTestService(&mockGiveawayStore{}, &mockNotifier{})
	_, err := svc.Insert(context.Background(), domain.Caller{}, domain.CreateGiveawayRequest{Title: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotLoggedIn))
}

func TestInsert_HappyPath(t *testing.T) {
	repo := &mockGiveawayStore{}
	repo.On("Put", mock.Anything, mock.AnythingOfType("*domain.Giveaway")).Return(nil)

	svc := newTestService(repo, &mockNotifier{})
	g, err := svc.Insert(context.Background(), asUser("u1"), domain.CreateGiveawayRequest{
		Title: "Free couch",
	})

	require.NoError(t, err)
	assert.Equal(t, "u1", g.UserID)
	assert.NotEmpty(t, g.GiveawayID)
	assert.NotNil(t, g.Flags)
	assert.NotNil(t, g.Ratings.Upvotes)
	assert.NotNil(t, g.Ratings.Downvotes)
	assert.Empty(t, g.StatusUpdates)
	repo.AssertExpectations(t)
}

// --- Update tests ---

func TestUpdate_RemovedGiveaway(t *testing.T) {
	repo := &mockGiveawayStore{}
	g := activeGiveaway()
	g.IsRemoved = true
	repo.On("Get", mock.Anything, "g1").Return(g, nil)

	svc := newTestService(repo, &mockNotifier{})
	err := svc.Update(context.Background(), asUser("owner"), "g1", domain.UpdateGiveawayRequest{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrGiveawayRemoved))
}

func TestUpdate_NotOwner(t *testing.T) {
	repo := &mockGiveawayStore{}
	repo.On("Get", mock.Anything, "g1").Return(activeGiveaway(), nil)

	svc := newTestService(repo, &mockNotifier{})
	err := svc.Update(context.Background(), asUser("stranger"), "g1", domain.UpdateGiveawayRequest{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotAuthorized))
}

func TestUpdate_ModeratorMayEdit(t *testing.T) {
	repo := &mockGiveawayStore{}
	repo.On("Get", mock.Anything, "g1").Return(activeGiveaway(), nil)
	repo.On("Update", mock.Anything, "g1", mock.Anything).Return(nil)

	svc := newTestService(repo, &mockNotifier{})
	title := "New title"
	err := svc.Update(context.Background(), asMod("mod1"), "g1", domain.UpdateGiveawayRequest{Title: &title})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

// --- Flag tests ---

func TestFlag_NotLoggedIn(t *testing.T) {
	svc := newTestService(&mockGiveawayStore{}, &mockNotifier{})
	err := svc.Flag(context.Background(), domain.Caller{}, "g1", "u1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotLoggedIn))
}

func TestFlag_CallerMismatch(t *testing.T) {
	svc := newTestService(&mockGiveawayStore{}, &mockNotifier{})
	err := svc.Flag(context.Background(), asUser("u1"), "g1", "u2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotLoggedIn))
}

func TestFlag_OwnGiveaway(t *testing.T) {
	repo := &mockGiveawayStore{}
	repo.On("Get", mock.Anything, "g1").Return(activeGiveaway(), nil)

	svc := newTestService(repo, &mockNotifier{})
	err := svc.Flag(context.Background(), asUser("owner"), "g1", "owner")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSelfFlagForbidden))
}

func TestFlag_HappyPath_NotifiesMods(t *testing.T) {
	repo := &mockGiveawayStore{}
	g := activeGiveaway()
	repo.On("Get", mock.Anything, "g1").Return(g, nil)
	repo.On("SetFlag", mock.Anything, "g1", "u1", mock.AnythingOfType("time.Time")).Return(nil)

	n := &mockNotifier{}
	n.On("ModsFlaggedGiveaway", mock.Anything, g, "u1").Return(nil)

	svc := newTestService(repo, n)
	err := svc.Flag(context.Background(), asUser("u1"), "g1", "u1")

	require.NoError(t, err)
	repo.AssertExpectations(t)
	n.AssertExpectations(t)
}

func TestFlag_NotificationFailureIsSwallowed(t *testing.T) {
	repo := &mockGiveawayStore{}
	g := activeGiveaway()
	repo.On("Get", mock.Anything, "g1").Return(g, nil)
	repo.On("SetFlag", mock.Anything, "g1", "u1", mock.AnythingOfType("time.Time")).Return(nil)

	n := &mockNotifier{}
	n.On("ModsFlaggedGiveaway", mock.Anything, g, "u1").Return(errors.New("sns down"))

	svc := newTestService(repo, n)
	err := svc.Flag(context.Background(), asUser("u1"), "g1", "u1")

	require.NoError(t, err)
}

// --- Unflag tests ---

func TestUnflag_RequiresModRole(t *testing.T) {
	repo := &mockGiveawayStore{}
	repo.On("Get", mock.Anything, "g1").Return(activeGiveaway(), nil)

	svc := newTestService(repo, &mockNotifier{})
	err := svc.Unflag(context.Background(), asUser("u1"), "g1", "u1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotAuthorized))
}

func TestUnflag_HappyPath(t *testing.T) {
	repo := &mockGiveawayStore{}
	repo.On("Get", mock.Anything, "g1").Return(activeGiveaway(), nil)
	repo.On("ClearFlags", mock.Anything, "g1").Return(nil)

	n := &mockNotifier{}
	n.On("UnnotifyModsFlaggedGiveaway", mock.Anything, "g1").Return(nil)

	svc := newTestService(repo, n)
	err := svc.Unflag(context.Background(), asMod("mod1"), "g1", "mod1")

	require.NoError(t, err)
	repo.AssertExpectations(t)
	n.AssertExpectations(t)
}

// --- Remove / Restore tests ---

func TestRemove_AlreadyRemoved(t *testing.T) {
	repo := &mockGiveawayStore{}
	g := activeGiveaway()
	g.IsRemoved = true
	repo.On("Get", mock.Anything, "g1").Return(g, nil)

	svc := newTestService(repo, &mockNotifier{})
	err := svc.Remove(context.Background(), asUser("owner"), "g1", "owner")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAlreadyRemoved))
}

func TestRemove_StrangerForbidden(t *testing.T) {
	repo := &mockGiveawayStore{}
	repo.On("Get", mock.Anything, "g1").Return(activeGiveaway(), nil)

	svc := newTestService(repo, &mockNotifier{})
	err := svc.Remove(context.Background(), asUser("stranger"), "g1", "stranger")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotAuthorized))
}

func TestRemove_OwnerHappyPath(t *testing.T) {
	repo := &mockGiveawayStore{}
	repo.On("Get", mock.Anything, "g1").Return(activeGiveaway(), nil)
	repo.On("MarkRemoved", mock.Anything, "g1", "owner", mock.AnythingOfType("time.Time")).Return(nil)

	n := &mockNotifier{}
	n.On("UnnotifyModsFlaggedGiveaway", mock.Anything, "g1").Return(nil)

	svc := newTestService(repo, n)
	err := svc.Remove(context.Background(), asUser("owner"), "g1", "owner")

	require.NoError(t, err)
	repo.AssertExpectations(t)
	n.AssertExpectations(t)
}

func TestRemoveFlagged_NotifiesOwnerThenRetractsModNotifications(t *testing.T) {
	repo := &mockGiveawayStore{}
	g := activeGiveaway()
	repo.On("Get", mock.Anything, "g1").Return(g, nil)
	repo.On("MarkRemoved", mock.Anything, "g1", "mod1", mock.AnythingOfType("time.Time")).Return(nil)

	n := &mockNotifier{}
	n.On("RemovedFlaggedGiveaway", mock.Anything, g).Return(nil)
	n.On("UnnotifyModsFlaggedGiveaway", mock.Anything, "g1").Return(nil)

	svc := newTestService(repo, n)
	err := svc.RemoveFlagged(context.Background(), asMod("mod1"), "g1", "mod1")

	require.NoError(t, err)
	n.AssertExpectations(t)
}

func TestRemoveFlagged_PlainUserForbidden(t *testing.T) {
	repo := &mockGiveawayStore{}
	repo.On("Get", mock.Anything, "g1").Return(activeGiveaway(), nil)

	svc := newTestService(repo, &mockNotifier{})
	err := svc.RemoveFlagged(context.Background(), asUser("owner"), "g1", "owner")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotAuthorized))
}

func TestRestore_NotRemoved(t *testing.T) {
	repo := &mockGiveawayStore{}
	repo.On("Get", mock.Anything, "g1").Return(activeGiveaway(), nil)

	svc := newTestService(repo, &mockNotifier{})
	err := svc.Restore(context.Background(), asAdmin("adm1"), "g1", "adm1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotRemoved))
}

func TestRestore_HappyPath(t *testing.T) {
	repo := &mockGiveawayStore{}
	g := activeGiveaway()
	g.IsRemoved = true
	repo.On("Get", mock.Anything, "g1").Return(g, nil)
	repo.On("MarkRestored", mock.Anything, "g1").Return(nil)

	n := &mockNotifier{}
	n.On("UnnotifyRemovedFlaggedGiveaway", mock.Anything, g).Return(nil)

	svc := newTestService(repo, n)
	err := svc.Restore(context.Background(), asMod("mod1"), "g1", "mod1")

	require.NoError(t, err)
	repo.AssertExpectations(t)
	n.AssertExpectations(t)
}

// --- Status-update coalescer tests ---

func TestPushStatusUpdate_CallerMismatch(t *testing.T) {
	svc := newTestService(&mockGiveawayStore{}, &mockNotifier{})
	err := svc.PushStatusUpdate(context.Background(), asUser("u1"), "g1", "st1", "u2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotAuthenticated))
}

func TestPushStatusUpdate_NoRecentEntries_AppendsOnly(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g := activeGiveaway()
	g.StatusUpdates = []domain.StatusUpdate{
		{StatusTypeID: "st1", UserID: "owner", Date: now.Add(-5 * time.Minute)},
	}

	repo := &mockGiveawayStore{}
	repo.On("Get", mock.Anything, "g1").Return(g, nil)
	repo.On("AppendStatusUpdate", mock.Anything, "g1", domain.StatusUpdate{
		StatusTypeID: "st2", UserID: "u1", Date: now,
	}).Return(nil)

	svc := newTestService(repo, &mockNotifier{})
	svc.now = func() time.Time { return now }
	err := svc.PushStatusUpdate(context.Background(), asUser("u1"), "g1", "st2", "u1")

	require.NoError(t, err)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "ReplaceStatusUpdates", mock.Anything, mock.Anything, mock.Anything)
}

// Entries inside the one-minute window are dropped regardless of who wrote
// them; only entries strictly older than the cutoff survive.
func TestPushStatusUpdate_DropsAllRecentEntries(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	old := domain.StatusUpdate{StatusTypeID: "st1", UserID: "owner", Date: now.Add(-90 * time.Second)}
	recent := domain.StatusUpdate{StatusTypeID: "st2", UserID: "someone-else", Date: now.Add(-40 * time.Second)}

	g := activeGiveaway()
	g.StatusUpdates = []domain.StatusUpdate{old, recent}

	repo := &mockGiveawayStore{}
	repo.On("Get", mock.Anything, "g1").Return(g, nil)
	repo.On("ReplaceStatusUpdates", mock.Anything, "g1", []domain.StatusUpdate{old}).Return(nil)
	repo.On("AppendStatusUpdate", mock.Anything, "g1", domain.StatusUpdate{
		StatusTypeID: "st3", UserID: "u1", Date: now,
	}).Return(nil)

	svc := newTestService(repo, &mockNotifier{})
	svc.now = func() time.Time { return now }
	err := svc.PushStatusUpdate(context.Background(), asUser("u1"), "g1", "st3", "u1")

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestPushStatusUpdate_EntryExactlyAtCutoffIsDropped(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	boundary := domain.StatusUpdate{StatusTypeID: "st1", UserID: "owner", Date: now.Add(-coalesceWindow)}

	g := activeGiveaway()
	g.StatusUpdates = []domain.StatusUpdate{boundary}

	repo := &mockGiveawayStore{}
	repo.On("Get", mock.Anything, "g1").Return(g, nil)
	repo.On("ReplaceStatusUpdates", mock.Anything, "g1", []domain.StatusUpdate{}).Return(nil)
	repo.On("AppendStatusUpdate", mock.Anything, "g1", mock.Anything).Return(nil)

	svc := newTestService(repo, &mockNotifier{})
	svc.now = func() time.Time { return now }
	err := svc.PushStatusUpdate(context.Background(), asUser("u1"), "g1", "st2", "u1")

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestPushStatusUpdate_AllEntriesRecent_ReplacesWithEmptyList(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := domain.StatusUpdate{StatusTypeID: "st1", UserID: "owner", Date: now.Add(-50 * time.Second)}
	b := domain.StatusUpdate{StatusTypeID: "st2", UserID: "owner", Date: now.Add(-10 * time.Second)}

	g := activeGiveaway()
	g.StatusUpdates = []domain.StatusUpdate{a, b}

	repo := &mockGiveawayStore{}
	repo.On("Get", mock.Anything, "g1").Return(g, nil)
	repo.On("ReplaceStatusUpdates", mock.Anything, "g1", []domain.StatusUpdate{}).Return(nil)
	repo.On("AppendStatusUpdate", mock.Anything, "g1", domain.StatusUpdate{
		StatusTypeID: "st3", UserID: "u1", Date: now,
	}).Return(nil)

	svc := newTestService(repo, &mockNotifier{})
	svc.now = func() time.Time { return now }
	err := svc.PushStatusUpdate(context.Background(), asUser("u1"), "g1", "st3", "u1")

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

// --- Vote tests ---

func TestVoteUp_NotLoggedIn(t *testing.T) {
	svc := newTestService(&mockGiveawayStore{}, &mockNotifier{})
	err := svc.VoteUp(context.Background(), domain.Caller{}, "g1", "u1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotLoggedIn))
}

func TestVoteUp_HappyPath_NotifiesOwnerAsync(t *testing.T) {
	repo := &mockGiveawayStore{}
	g := activeGiveaway()
	repo.On("Get", mock.Anything, "g1").Return(g, nil)
	repo.On("Vote", mock.Anything, "g1", "u1", mock.AnythingOfType("time.Time"), true).Return(nil)

	n := &mockNotifier{}
	n.wg.Add(1)
	n.On("VotedOnGiveaway", mock.Anything, g, "u1", "voteUp").Return(nil)

	svc := newTestService(repo, n)
	err := svc.VoteUp(context.Background(), asUser("u1"), "g1", "u1")

	require.NoError(t, err)
	n.wg.Wait()
	repo.AssertExpectations(t)
	n.AssertExpectations(t)
}

func TestVoteDown_PassesDirection(t *testing.T) {
	repo := &mockGiveawayStore{}
	g := activeGiveaway()
	repo.On("Get", mock.Anything, "g1").Return(g, nil)
	repo.On("Vote", mock.Anything, "g1", "u1", mock.AnythingOfType("time.Time"), false).Return(nil)

	n := &mockNotifier{}
	n.wg.Add(1)
	n.On("VotedOnGiveaway", mock.Anything, g, "u1", "voteDown").Return(nil)

	svc := newTestService(repo, n)
	err := svc.VoteDown(context.Background(), asUser("u1"), "g1", "u1")

	require.NoError(t, err)
	n.wg.Wait()
	n.AssertExpectations(t)
}

func TestUnvote_HappyPath(t *testing.T) {
	repo := &mockGiveawayStore{}
	g := activeGiveaway()
	repo.On("Get", mock.Anything, "g1").Return(g, nil)
	repo.On("Unvote", mock.Anything, "g1", "u1").Return(nil)

	n := &mockNotifier{}
	n.wg.Add(1)
	n.On("VotedOnGiveaway", mock.Anything, g, "u1", "unvote").Return(nil)

	svc := newTestService(repo, n)
	err := svc.Unvote(context.Background(), asUser("u1"), "g1", "u1")

	require.NoError(t, err)
	n.wg.Wait()
	repo.AssertExpectations(t)
}

func TestVote_NotificationFailureDoesNotFailVote(t *testing.T) {
	repo := &mockGiveawayStore{}
	g := activeGiveaway()
	repo.On("Get", mock.Anything, "g1").Return(g, nil)
	repo.On("Vote", mock.Anything, "g1", "u1", mock.AnythingOfType("time.Time"), true).Return(nil)

	n := &mockNotifier{}
	n.wg.Add(1)
	n.On("VotedOnGiveaway", mock.Anything, g, "u1", "voteUp").Return(errors.New("push down"))

	svc := newTestService(repo, n)
	err := svc.VoteUp(context.Background(), asUser("u1"), "g1", "u1")

	require.NoError(t, err)
	n.wg.Wait()
}

// --- List tests ---

func TestListFlagged_RequiresModRole(t *testing.T) {
	svc := newTestService(&mockGiveawayStore{}, &mockNotifier{})
	_, err := svc.ListFlagged(context.Background(), asUser("u1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotAuthorized))
}

func TestListFlagged_ModSeesFlagged(t *testing.T) {
	repo := &mockGiveawayStore{}
	flagged := []domain.Giveaway{{GiveawayID: "g1"}}
	repo.On("ListFlagged", mock.Anything).Return(flagged, nil)

	svc := newTestService(repo, &mockNotifier{})
	got, err := svc.ListFlagged(context.Background(), asMod("mod1"))

	require.NoError(t, err)
	assert.Equal(t, flagged, got)
}
