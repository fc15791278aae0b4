package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/givingly/giveaway-api/internal/domain"
	"github.com/givingly/giveaway-api/internal/pkg/id"
	"github.com/sirupsen/logrus"
)

// MergeFunc computes the payload for an upserted notification. existing is
// the current unread notification for the (user, group) key, or nil. The
// function must be pure with respect to the store; it typically folds the
// prior metadata actor list into the new payload.
type MergeFunc func(existing *domain.Notification) domain.NotificationData

type Service interface {
	// Engine primitives.
	Upsert(ctx context.Context, notifGroupID string, userIDs []string, merge MergeFunc) error
	RemoveUnread(ctx context.Context, notifGroupID string, userIDs []string) (int, error)

	// Read API.
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, notificationID, userID string) error
	Delete(ctx context.Context, notificationID, userID string) error

	// Domain wrappers. Each supplies the merge callback and recipient set for
	// one event type; failures are the caller's to log and swallow.
	CommentedOnGiveaway(ctx context.Context, g *domain.Giveaway, commenterID string) error
	ModsFlaggedGiveaway(ctx context.Context, g *domain.Giveaway, flaggerID string) error
	UnnotifyModsFlaggedGiveaway(ctx context.Context, giveawayID string) error
	RemovedFlaggedGiveaway(ctx context.Context, g *domain.Giveaway) error
	UnnotifyRemovedFlaggedGiveaway(ctx context.Context, g *domain.Giveaway) error
	ModsFlaggedComment(ctx context.Context, c *domain.GiveawayComment, g *domain.Giveaway, flaggerID string) error
	UnnotifyModsFlaggedComment(ctx context.Context, commentID string) error
	VotedOnGiveaway(ctx context.Context, g *domain.Giveaway, voterID, direction string) error
}

type notificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	GetUnread(ctx context.Context, userID, groupID string) (*domain.Notification, error)
	DeleteUnread(ctx context.Context, userID, groupID string) (int, error)
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, notificationID string) error
	Delete(ctx context.Context, notificationID string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	ListByRole(ctx context.Context, role string) ([]domain.User, error)
}

// pushPublisher mirrors sns.Publisher; nil disables push publication.
type pushPublisher interface {
	PublishNotification(ctx context.Context, n *domain.Notification) error
}

type service struct {
	repo      notificationStore
	users     userStore
	publisher pushPublisher
	log       *logrus.Logger
}

func NewService(repo notificationStore, users userStore, publisher pushPublisher, log *logrus.Logger) Service {
	return &service{repo: repo, users: users, publisher: publisher, log: log}
}

// Upsert applies replace semantics keyed by (userID, notifGroupID, unread):
// for each recipient, look up the existing unread notification, hand it to
// merge, delete it, and insert the merged payload as a fresh unread
// notification. Recipients that don't exist are skipped. The delete→insert
// pair is not atomic; the accepted worst case under concurrency is a
// duplicate or missing notification, never a corrupted one.
func (s *service) Upsert(ctx context.Context, notifGroupID string, userIDs []string, merge MergeFunc) error {
	for _, userID := range userIDs {
		if _, err := s.users.Get(ctx, userID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return err
		}

		existing, err := s.repo.GetUnread(ctx, userID, notifGroupID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		newData := merge(existing)

		if existing != nil {
			if _, err := s.repo.DeleteUnread(ctx, userID, notifGroupID); err != nil {
				return err
			}
		}

		n := &domain.Notification{
			NotificationID: id.New(),
			UserID:         userID,
			NotifGroupID:   notifGroupID,
			Unread:         true,
			Data:           newData,
			Timestamp:      time.Now().UTC(),
		}
		if err := s.repo.Put(ctx, n); err != nil {
			return err
		}
		s.publish(ctx, n)
	}
	return nil
}

func (s *service) RemoveUnread(ctx context.Context, notifGroupID string, userIDs []string) (int, error) {
	removed := 0
	for _, userID := range userIDs {
		n, err := s.repo.DeleteUnread(ctx, userID, notifGroupID)
		if err != nil {
			return removed, err
		}
		removed += n
	}
	return removed, nil
}

func (s *service) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	return s.repo.ListUnread(ctx, userID)
}

func (s *service) MarkAsRead(ctx context.Context, notificationID, userID string) error {
	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return fmt.Errorf("notification %s: %w", notificationID, domain.ErrForbidden)
	}
	return s.repo.MarkAsRead(ctx, notificationID)
}

func (s *service) Delete(ctx context.Context, notificationID, userID string) error {
	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return fmt.Errorf("notification %s: %w", notificationID, domain.ErrForbidden)
	}
	return s.repo.Delete(ctx, notificationID)
}

// publish forwards the notification to the push topic. Best-effort: failures
// are logged, never returned.
func (s *service) publish(ctx context.Context, n *domain.Notification) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishNotification(ctx, n); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"notification_id": n.NotificationID,
			"user_id":         n.UserID,
		}).Warn("push publication failed")
	}
}
