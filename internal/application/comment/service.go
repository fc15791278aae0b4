package comment

import (
	"context"
	"fmt"
	"time"

	"github.com/givingly/giveaway-api/internal/domain"
	"github.com/givingly/giveaway-api/internal/pkg/id"
	"github.com/sirupsen/logrus"
)

type Service interface {
	Insert(ctx context.Context, caller domain.Caller, giveawayID string, req domain.CreateCommentRequest) (*domain.GiveawayComment, error)
	ListByGiveaway(ctx context.Context, giveawayID string) ([]domain.GiveawayComment, error)
	Flag(ctx context.Context, caller domain.Caller, commentID, userID string) error
	Unflag(ctx context.Context, caller domain.Caller, commentID, userID string) error
	Remove(ctx context.Context, caller domain.Caller, commentID, userID string) error
}

type commentStore interface {
	Put(ctx context.Context, c *domain.GiveawayComment) error
	Get(ctx context.Context, commentID string) (*domain.GiveawayComment, error)
	ListByGiveaway(ctx context.Context, giveawayID string) ([]domain.GiveawayComment, error)
	SetFlag(ctx context.Context, commentID, userID string, date time.Time) error
	ClearFlags(ctx context.Context, commentID string) error
	MarkRemoved(ctx context.Context, commentID, removeUserID string, date time.Time) error
}

type giveawayStore interface {
	Get(ctx context.Context, giveawayID string) (*domain.Giveaway, error)
}

type notifier interface {
	CommentedOnGiveaway(ctx context.Context, g *domain.Giveaway, commenterID string) error
	ModsFlaggedComment(ctx context.Context, c *domain.GiveawayComment, g *domain.Giveaway, flaggerID string) error
	UnnotifyModsFlaggedComment(ctx context.Context, commentID string) error
}

type service struct {
	repo      commentStore
	giveaways giveawayStore
	notifier  notifier
	log       *logrus.Logger
	now       func() time.Time
}

func NewService(repo commentStore, giveaways giveawayStore, n notifier, log *logrus.Logger) Service {
	return &service{
		repo:      repo,
		giveaways: giveaways,
		notifier:  n,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Insert(ctx context.Context, caller domain.Caller, giveawayID string, req domain.CreateCommentRequest) (*domain.GiveawayComment, error) {
	if !caller.LoggedIn() {
		return nil, fmt.Errorf("insert comment: %w", domain.ErrNotLoggedIn)
	}
	g, err := s.giveaways.Get(ctx, giveawayID)
	if err != nil {
		return nil, err
	}
	if g.IsRemoved {
		return nil, fmt.Errorf("insert comment on %s: %w", giveawayID, domain.ErrGiveawayRemoved)
	}

	c := &domain.GiveawayComment{
		CommentID:  id.New(),
		GiveawayID: giveawayID,
		UserID:     caller.ID,
		Body:       req.Body,
		Date:       s.now(),
		Flags:      map[string]time.Time{},
	}
	if err := s.repo.Put(ctx, c); err != nil {
		return nil, err
	}

	// Commenting on your own giveaway doesn't ping you.
	if caller.ID != g.UserID {
		s.sideEffect("notify owner of comment", c.CommentID, func() error {
			return s.notifier.CommentedOnGiveaway(ctx, g, caller.ID)
		})
	}
	return c, nil
}

func (s *service) ListByGiveaway(ctx context.Context, giveawayID string) ([]domain.GiveawayComment, error) {
	return s.repo.ListByGiveaway(ctx, giveawayID)
}

func (s *service) Flag(ctx context.Context, caller domain.Caller, commentID, userID string) error {
	if !caller.LoggedIn() || caller.ID != userID {
		return fmt.Errorf("flag comment %s: %w", commentID, domain.ErrNotLoggedIn)
	}
	c, err := s.repo.Get(ctx, commentID)
	if err != nil {
		return err
	}
	if userID == c.UserID {
		return fmt.Errorf("flag comment %s: %w", commentID, domain.ErrSelfFlagForbidden)
	}
	g, err := s.giveaways.Get(ctx, c.GiveawayID)
	if err != nil {
		return err
	}

	if err := s.repo.SetFlag(ctx, commentID, userID, s.now()); err != nil {
		return err
	}

	s.sideEffect("notify mods of flagged comment", commentID, func() error {
		return s.notifier.ModsFlaggedComment(ctx, c, g, userID)
	})
	return nil
}

func (s *service) Unflag(ctx context.Context, caller domain.Caller, commentID, userID string) error {
	if _, err := s.repo.Get(ctx, commentID); err != nil {
		return err
	}
	if caller.ID != userID || !domain.ModsOrAdmins(caller.Role) {
		return fmt.Errorf("unflag comment %s: %w", commentID, domain.ErrNotAuthorized)
	}

	if err := s.repo.ClearFlags(ctx, commentID); err != nil {
		return err
	}

	s.sideEffect("retract mod notifications", commentID, func() error {
		return s.notifier.UnnotifyModsFlaggedComment(ctx, commentID)
	})
	return nil
}

func (s *service) Remove(ctx context.Context, caller domain.Caller, commentID, userID string) error {
	c, err := s.repo.Get(ctx, commentID)
	if err != nil {
		return err
	}
	if c.IsRemoved {
		return fmt.Errorf("remove comment %s: %w", commentID, domain.ErrAlreadyRemoved)
	}
	if caller.ID != userID || !domain.OwnerOrModsOrAdmins(caller.ID, caller.Role, c.UserID) {
		return fmt.Errorf("remove comment %s: %w", commentID, domain.ErrNotAuthorized)
	}

	if err := s.repo.MarkRemoved(ctx, commentID, caller.ID, s.now()); err != nil {
		return err
	}

	s.sideEffect("retract mod notifications", commentID, func() error {
		return s.notifier.UnnotifyModsFlaggedComment(ctx, commentID)
	})
	return nil
}

func (s *service) sideEffect(what, commentID string, fn func() error) {
	if err := fn(); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"comment_id": commentID,
			"effect":     what,
		}).Warn("notification side effect failed")
	}
}
