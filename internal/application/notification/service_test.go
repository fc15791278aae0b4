package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/givingly/giveaway-api/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockNotificationStore struct{ mock.Mock }

func (m *mockNotificationStore) Put(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}
func (m *mockNotificationStore) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockNotificationStore) GetUnread(ctx context.Context, userID, groupID string) (*domain.Notification, error) {
	args := m.Called(ctx, userID, groupID)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockNotificationStore) DeleteUnread(ctx context.Context, userID, groupID string) (int, error) {
	args := m.Called(ctx, userID, groupID)
	return args.Int(0), args.Error(1)
}
func (m *mockNotificationStore) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Notification), args.Error(1)
}
func (m *mockNotificationStore) MarkAsRead(ctx context.Context, notificationID string) error {
	return m.Called(ctx, notificationID).Error(0)
}
func (m *mockNotificationStore) Delete(ctx context.Context, notificationID string) error {
	return m.Called(ctx, notificationID).Error(0)
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) ListByRole(ctx context.Context, role string) ([]domain.User, error) {
	args := m.Called(ctx, role)
	return args.Get(0).([]domain.User), args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishNotification(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}

// --- helpers ---

func newTestService(repo *mockNotificationStore, users *mockUserStore, pub *mockPublisher) Service {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	if pub == nil {
		return NewService(repo, users, nil, log)
	}
	return NewService(repo, users, pub, log)
}

func knownUser(us *mockUserStore, id, name string) {
	us.On("Get", mock.Anything, id).Return(&domain.User{UserID: id, DisplayName: name}, nil)
}

// --- Upsert engine tests ---

func TestUpsert_InsertsFreshUnreadNotification(t *testing.T) {
	repo := &mockNotificationStore{}
	us := &mockUserStore{}
	knownUser(us, "u1", "Ana")
	repo.On("GetUnread", mock.Anything, "u1", "grp").Return(nil, domain.ErrNotFound)
	repo.On("Put", mock.Anything, mock.AnythingOfType("*domain.Notification")).Return(nil)

	svc := newTestService(repo, us, nil)
	err := svc.Upsert(context.Background(), "grp", []string{"u1"}, func(existing *domain.Notification) domain.NotificationData {
		assert.Nil(t, existing)
		return domain.NotificationData{Title: "hi"}
	})

	require.NoError(t, err)
	put := repo.Calls[len(repo.Calls)-1].Arguments.Get(1).(*domain.Notification)
	assert.Equal(t, "u1", put.UserID)
	assert.Equal(t, "grp", put.NotifGroupID)
	assert.True(t, put.Unread)
	assert.NotEmpty(t, put.NotificationID)
	repo.AssertNotCalled(t, "DeleteUnread", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpsert_ReplacesExistingUnread(t *testing.T) {
	existing := &domain.Notification{
		NotificationID: "n1",
		UserID:         "u1",
		NotifGroupID:   "grp",
		Unread:         true,
		Data:           domain.NotificationData{Metadata: domain.NotificationMetadata{UserIDs: []string{"a"}}},
	}

	repo := &mockNotificationStore{}
	us := &mockUserStore{}
	knownUser(us, "u1", "Ana")
	repo.On("GetUnread", mock.Anything, "u1", "grp").Return(existing, nil)
	repo.On("DeleteUnread", mock.Anything, "u1", "grp").Return(1, nil)
	repo.On("Put", mock.Anything, mock.AnythingOfType("*domain.Notification")).Return(nil)

	svc := newTestService(repo, us, nil)
	err := svc.Upsert(context.Background(), "grp", []string{"u1"}, func(prior *domain.Notification) domain.NotificationData {
		require.NotNil(t, prior)
		return domain.NotificationData{
			Metadata: domain.NotificationMetadata{UserIDs: append([]string{"b"}, prior.Data.Metadata.UserIDs...)},
		}
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
	put := repo.Calls[len(repo.Calls)-1].Arguments.Get(1).(*domain.Notification)
	assert.NotEqual(t, "n1", put.NotificationID)
	assert.Equal(t, []string{"b", "a"}, put.Data.Metadata.UserIDs)
}

func TestUpsert_SkipsUnknownRecipients(t *testing.T) {
	repo := &mockNotificationStore{}
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)
	knownUser(us, "u1", "Ana")
	repo.On("GetUnread", mock.Anything, "u1", "grp").Return(nil, domain.ErrNotFound)
	repo.On("Put", mock.Anything, mock.AnythingOfType("*domain.Notification")).Return(nil)

	svc := newTestService(repo, us, nil)
	err := svc.Upsert(context.Background(), "grp", []string{"ghost", "u1"}, func(*domain.Notification) domain.NotificationData {
		return domain.NotificationData{}
	})

	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "Put", 1)
}

func TestUpsert_PublishFailureIsSwallowed(t *testing.T) {
	repo := &mockNotificationStore{}
	us := &mockUserStore{}
	knownUser(us, "u1", "Ana")
	repo.On("GetUnread", mock.Anything, "u1", "grp").Return(nil, domain.ErrNotFound)
	repo.On("Put", mock.Anything, mock.AnythingOfType("*domain.Notification")).Return(nil)

	pub := &mockPublisher{}
	pub.On("PublishNotification", mock.Anything, mock.Anything).Return(errors.New("sns down"))

	svc := newTestService(repo, us, pub)
	err := svc.Upsert(context.Background(), "grp", []string{"u1"}, func(*domain.Notification) domain.NotificationData {
		return domain.NotificationData{}
	})

	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestRemoveUnread_SumsDeletions(t *testing.T) {
	repo := &mockNotificationStore{}
	repo.On("DeleteUnread", mock.Anything, "u1", "grp").Return(1, nil)
	repo.On("DeleteUnread", mock.Anything, "u2", "grp").Return(0, nil)

	svc := newTestService(repo, &mockUserStore{}, nil)
	n, err := svc.RemoveUnread(context.Background(), "grp", []string{"u1", "u2"})

	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

// --- Read API tests ---

func TestMarkAsRead_WrongOwner(t *testing.T) {
	repo := &mockNotificationStore{}
	repo.On("Get", mock.Anything, "n1").Return(&domain.Notification{NotificationID: "n1", UserID: "u1"}, nil)

	svc := newTestService(repo, &mockUserStore{}, nil)
	err := svc.MarkAsRead(context.Background(), "n1", "u2")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	repo.AssertNotCalled(t, "MarkAsRead", mock.Anything, mock.Anything)
}

func TestDelete_Owner(t *testing.T) {
	repo := &mockNotificationStore{}
	repo.On("Get", mock.Anything, "n1").Return(&domain.Notification{NotificationID: "n1", UserID: "u1"}, nil)
	repo.On("Delete", mock.Anything, "n1").Return(nil)

	svc := newTestService(repo, &mockUserStore{}, nil)
	err := svc.Delete(context.Background(), "n1", "u1")

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

// --- Wrapper tests ---

// Flagging twice by different users ends up as one unread notification per
// moderator whose actor list is most-recent-first.
func TestModsFlaggedGiveaway_MergesActorsMostRecentFirst(t *testing.T) {
	g := &domain.Giveaway{GiveawayID: "g1", UserID: "owner", Title: "Free couch"}

	us := &mockUserStore{}
	us.On("ListByRole", mock.Anything, domain.RoleModerator).Return([]domain.User{{UserID: "mod1"}}, nil)
	us.On("ListByRole", mock.Anything, domain.RoleAdmin).Return([]domain.User{}, nil)
	knownUser(us, "mod1", "Mia")
	knownUser(us, "alice", "Ana")
	knownUser(us, "carol", "Cleo")

	existing := &domain.Notification{
		NotificationID: "n1",
		UserID:         "mod1",
		NotifGroupID:   "g1",
		Unread:         true,
		Data:           domain.NotificationData{Metadata: domain.NotificationMetadata{UserIDs: []string{"alice"}}},
	}

	repo := &mockNotificationStore{}
	repo.On("GetUnread", mock.Anything, "mod1", "g1").Return(existing, nil)
	repo.On("DeleteUnread", mock.Anything, "mod1", "g1").Return(1, nil)
	repo.On("Put", mock.Anything, mock.AnythingOfType("*domain.Notification")).Return(nil)

	svc := newTestService(repo, us, nil)
	err := svc.ModsFlaggedGiveaway(context.Background(), g, "carol")

	require.NoError(t, err)
	put := repo.Calls[len(repo.Calls)-1].Arguments.Get(1).(*domain.Notification)
	assert.Equal(t, []string{"carol", "alice"}, put.Data.Metadata.UserIDs)
	assert.Contains(t, put.Data.Body, "Cleo and Ana")
}

func TestVotedOnGiveaway_UnvoteRetractsWhenLastActorLeaves(t *testing.T) {
	g := &domain.Giveaway{GiveawayID: "g1", UserID: "owner", Title: "Free couch"}

	existing := &domain.Notification{
		NotificationID: "n1",
		UserID:         "owner",
		NotifGroupID:   "votes-g1",
		Unread:         true,
		Data:           domain.NotificationData{Metadata: domain.NotificationMetadata{UserIDs: []string{"u1"}}},
	}

	repo := &mockNotificationStore{}
	repo.On("GetUnread", mock.Anything, "owner", "votes-g1").Return(existing, nil)
	repo.On("DeleteUnread", mock.Anything, "owner", "votes-g1").Return(1, nil)

	svc := newTestService(repo, &mockUserStore{}, nil)
	err := svc.VotedOnGiveaway(context.Background(), g, "u1", "unvote")

	require.NoError(t, err)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestVotedOnGiveaway_UnvoteWithNoNotificationIsNoop(t *testing.T) {
	repo := &mockNotificationStore{}
	repo.On("GetUnread", mock.Anything, "owner", "votes-g1").Return(nil, domain.ErrNotFound)

	svc := newTestService(repo, &mockUserStore{}, nil)
	err := svc.VotedOnGiveaway(context.Background(), &domain.Giveaway{GiveawayID: "g1", UserID: "owner"}, "u1", "unvote")

	require.NoError(t, err)
}

// --- aggregateUserNames tests ---

func TestAggregateUserNames(t *testing.T) {
	us := &mockUserStore{}
	knownUser(us, "a", "Ana")
	knownUser(us, "b", "Ben")
	knownUser(us, "c", "Cleo")
	knownUser(us, "d", "Dan")
	us.On("Get", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)

	svc := newTestService(&mockNotificationStore{}, us, nil).(*service)
	ctx := context.Background()

	assert.Equal(t, "Someone", svc.aggregateUserNames(ctx, nil))
	assert.Equal(t, "Someone", svc.aggregateUserNames(ctx, []string{"ghost"}))
	assert.Equal(t, "Ana", svc.aggregateUserNames(ctx, []string{"a"}))
	assert.Equal(t, "Ana and Ben", svc.aggregateUserNames(ctx, []string{"a", "b"}))
	assert.Equal(t, "Ana, Ben and 2 others", svc.aggregateUserNames(ctx, []string{"a", "b", "c", "d"}))
}

func TestMergeActor_DeduplicatesMostRecentFirst(t *testing.T) {
	existing := &domain.Notification{
		Data: domain.NotificationData{Metadata: domain.NotificationMetadata{UserIDs: []string{"b", "a"}}},
	}
	assert.Equal(t, []string{"a", "b"}, mergeActor(existing, "a"))
	assert.Equal(t, []string{"c", "b", "a"}, mergeActor(existing, "c"))
	assert.Equal(t, []string{"a"}, mergeActor(nil, "a"))
}
