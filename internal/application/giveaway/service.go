package giveaway

import (
	"context"
	"fmt"
	"time"

	"github.com/givingly/giveaway-api/internal/domain"
	"github.com/givingly/giveaway-api/internal/pkg/id"
	"github.com/sirupsen/logrus"
)

// coalesceWindow is the rolling window inside which status updates are
// collapsed down to the most recent one.
const coalesceWindow = time.Minute

// voteNotifyTimeout bounds the background vote-notification dispatch.
const voteNotifyTimeout = 10 * time.Second

type Service interface {
	Insert(ctx context.Context, caller domain.Caller, req domain.CreateGiveawayRequest) (*domain.Giveaway, error)
	Update(ctx context.Context, caller domain.Caller, giveawayID string, req domain.UpdateGiveawayRequest) error
	Get(ctx context.Context, giveawayID string) (*domain.Giveaway, error)
	ListActive(ctx context.Context) ([]domain.Giveaway, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Giveaway, error)
	ListByCommunity(ctx context.Context, communityID string) ([]domain.Giveaway, error)
	ListFlagged(ctx context.Context, caller domain.Caller) ([]domain.Giveaway, error)

	Remove(ctx context.Context, caller domain.Caller, giveawayID, userID string) error
	RemoveFlagged(ctx context.Context, caller domain.Caller, giveawayID, userID string) error
	Restore(ctx context.Context, caller domain.Caller, giveawayID, userID string) error
	Flag(ctx context.Context, caller domain.Caller, giveawayID, userID string) error
	Unflag(ctx context.Context, caller domain.Caller, giveawayID, userID string) error

	PushStatusUpdate(ctx context.Context, caller domain.Caller, giveawayID, statusTypeID, userID string) error

	VoteUp(ctx context.Context, caller domain.Caller, giveawayID, userID string) error
	VoteDown(ctx context.Context, caller domain.Caller, giveawayID, userID string) error
	Unvote(ctx context.Context, caller domain.Caller, giveawayID, userID string) error

	Pageviews(ctx context.Context, giveawayID string) int
	InfoboxOpens(ctx context.Context, giveawayID string) int
}

type giveawayStore interface {
	Put(ctx context.Context, g *domain.Giveaway) error
	Get(ctx context.Context, giveawayID string) (*domain.Giveaway, error)
	Update(ctx context.Context, giveawayID string, updates map[string]interface{}) error
	SetFlag(ctx context.Context, giveawayID, userID string, date time.Time) error
	ClearFlags(ctx context.Context, giveawayID string) error
	MarkRemoved(ctx context.Context, giveawayID, removeUserID string, date time.Time) error
	MarkRestored(ctx context.Context, giveawayID string) error
	Vote(ctx context.Context, giveawayID, userID string, date time.Time, up bool) error
	Unvote(ctx context.Context, giveawayID, userID string) error
	ReplaceStatusUpdates(ctx context.Context, giveawayID string, updates []domain.StatusUpdate) error
	AppendStatusUpdate(ctx context.Context, giveawayID string, su domain.StatusUpdate) error
	ListActive(ctx context.Context, now time.Time) ([]domain.Giveaway, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Giveaway, error)
	ListByCommunity(ctx context.Context, communityID string) ([]domain.Giveaway, error)
	ListFlagged(ctx context.Context) ([]domain.Giveaway, error)
}

// notifier is the slice of the notification service this workflow triggers.
type notifier interface {
	ModsFlaggedGiveaway(ctx context.Context, g *domain.Giveaway, flaggerID string) error
	UnnotifyModsFlaggedGiveaway(ctx context.Context, giveawayID string) error
	RemovedFlaggedGiveaway(ctx context.Context, g *domain.Giveaway) error
	UnnotifyRemovedFlaggedGiveaway(ctx context.Context, g *domain.Giveaway) error
	VotedOnGiveaway(ctx context.Context, g *domain.Giveaway, voterID, direction string) error
}

// pageviewCounter mirrors the analytics client; nil disables counting.
type pageviewCounter interface {
	GiveawayPageviews(ctx context.Context, giveawayID string) int
	InfoboxOpens(ctx context.Context, giveawayID string) int
}

type service struct {
	repo      giveawayStore
	notifier  notifier
	analytics pageviewCounter
	log       *logrus.Logger

	// now is swappable for tests.
	now func() time.Time
}

type ServiceDeps struct {
	Repo      giveawayStore
	Notifier  notifier
	Analytics pageviewCounter
	Log       *logrus.Logger
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:      deps.Repo,
		notifier:  deps.Notifier,
		analytics: deps.Analytics,
		log:       deps.Log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ── CRUD ───────────────────────────────────────────────────────────────────

func (s *service) Insert(ctx context.Context, caller domain.Caller, req domain.CreateGiveawayRequest) (*domain.Giveaway, error) {
	if !caller.LoggedIn() {
		return nil, fmt.Errorf("insert giveaway: %w", domain.ErrNotLoggedIn)
	}
	now := s.now()
	g := &domain.Giveaway{
		GiveawayID:  id.New(),
		UserID:      caller.ID,
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Coordinates: req.Coordinates,
		CategoryID:  req.CategoryID,
		CommunityID: req.CommunityID,
		PictureID:   req.PictureID,
		Flags:       map[string]time.Time{},
		Ratings: domain.Ratings{
			Upvotes:   map[string]time.Time{},
			Downvotes: map[string]time.Time{},
		},
		StatusUpdates: []domain.StatusUpdate{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Put(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *service) Update(ctx context.Context, caller domain.Caller, giveawayID string, req domain.UpdateGiveawayRequest) error {
	g, err := s.repo.Get(ctx, giveawayID)
	if err != nil {
		return err
	}
	if g.IsRemoved {
		return fmt.Errorf("update giveaway %s: %w", giveawayID, domain.ErrGiveawayRemoved)
	}
	if !domain.OwnerOrModsOrAdmins(caller.ID, caller.Role, g.UserID) {
		return fmt.Errorf("update giveaway %s: %w", giveawayID, domain.ErrNotAuthorized)
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.StartDate != nil {
		updates["start_date"] = *req.StartDate
	}
	if req.EndDate != nil {
		updates["end_date"] = *req.EndDate
	}
	if len(req.Coordinates) == 2 {
		updates["coordinates"] = req.Coordinates
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}
	if req.CommunityID != nil {
		updates["community_id"] = *req.CommunityID
	}
	if req.PictureID != nil {
		updates["picture_id"] = *req.PictureID
	}
	if len(updates) == 0 {
		return fmt.Errorf("update giveaway %s: no fields: %w", giveawayID, domain.ErrBadRequest)
	}
	return s.repo.Update(ctx, giveawayID, updates)
}

func (s *service) Get(ctx context.Context, giveawayID string) (*domain.Giveaway, error) {
	return s.repo.Get(ctx, giveawayID)
}

func (s *service) ListActive(ctx context.Context) ([]domain.Giveaway, error) {
	return s.repo.ListActive(ctx, s.now())
}

func (s *service) ListByUser(ctx context.Context, userID string) ([]domain.Giveaway, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) ListByCommunity(ctx context.Context, communityID string) ([]domain.Giveaway, error) {
	return s.repo.ListByCommunity(ctx, communityID)
}

func (s *service) ListFlagged(ctx context.Context, caller domain.Caller) ([]domain.Giveaway, error) {
	if !domain.ModsOrAdmins(caller.Role) {
		return nil, fmt.Errorf("list flagged: %w", domain.ErrNotAuthorized)
	}
	return s.repo.ListFlagged(ctx)
}

// ── Flag/removal workflow ──────────────────────────────────────────────────

func (s *service) Flag(ctx context.Context, caller domain.Caller, giveawayID, userID string) error {
	if !caller.LoggedIn() || caller.ID != userID {
		return fmt.Errorf("flag giveaway %s: %w", giveawayID, domain.ErrNotLoggedIn)
	}
	g, err := s.repo.Get(ctx, giveawayID)
	if err != nil {
		return err
	}
	if userID == g.UserID {
		return fmt.Errorf("flag giveaway %s: %w", giveawayID, domain.ErrSelfFlagForbidden)
	}

	// Map write replaces any earlier flag by the same user, so the at most
	// one flag per user invariant holds without a prior read.
	if err := s.repo.SetFlag(ctx, giveawayID, userID, s.now()); err != nil {
		return err
	}

	s.sideEffect("notify mods of flagged giveaway", giveawayID, func() error {
		return s.notifier.ModsFlaggedGiveaway(ctx, g, userID)
	})
	return nil
}

func (s *service) Unflag(ctx context.Context, caller domain.Caller, giveawayID, userID string) error {
	if _, err := s.repo.Get(ctx, giveawayID); err != nil {
		return err
	}
	if caller.ID != userID || !domain.ModsOrAdmins(caller.Role) {
		return fmt.Errorf("unflag giveaway %s: %w", giveawayID, domain.ErrNotAuthorized)
	}

	if err := s.repo.ClearFlags(ctx, giveawayID); err != nil {
		return err
	}

	s.sideEffect("retract mod notifications", giveawayID, func() error {
		return s.notifier.UnnotifyModsFlaggedGiveaway(ctx, giveawayID)
	})
	return nil
}

// Remove soft-deletes a giveaway. The caller must match the payload user id
// and be the owner or hold a moderation role (the stricter of the two
// original call-site rules).
func (s *service) Remove(ctx context.Context, caller domain.Caller, giveawayID, userID string) error {
	g, err := s.repo.Get(ctx, giveawayID)
	if err != nil {
		return err
	}
	if g.IsRemoved {
		return fmt.Errorf("remove giveaway %s: %w", giveawayID, domain.ErrAlreadyRemoved)
	}
	if caller.ID != userID || !domain.OwnerOrModsOrAdmins(caller.ID, caller.Role, g.UserID) {
		return fmt.Errorf("remove giveaway %s: %w", giveawayID, domain.ErrNotAuthorized)
	}

	if err := s.repo.MarkRemoved(ctx, giveawayID, caller.ID, s.now()); err != nil {
		return err
	}

	s.sideEffect("retract mod notifications", giveawayID, func() error {
		return s.notifier.UnnotifyModsFlaggedGiveaway(ctx, giveawayID)
	})
	return nil
}

// RemoveFlagged is the moderator variant of Remove: it additionally notifies
// the owner before retracting the moderator notifications.
func (s *service) RemoveFlagged(ctx context.Context, caller domain.Caller, giveawayID, userID string) error {
	g, err := s.repo.Get(ctx, giveawayID)
	if err != nil {
		return err
	}
	if g.IsRemoved {
		return fmt.Errorf("remove flagged giveaway %s: %w", giveawayID, domain.ErrAlreadyRemoved)
	}
	if caller.ID != userID || !domain.ModsOrAdmins(caller.Role) {
		return fmt.Errorf("remove flagged giveaway %s: %w", giveawayID, domain.ErrNotAuthorized)
	}

	if err := s.repo.MarkRemoved(ctx, giveawayID, caller.ID, s.now()); err != nil {
		return err
	}

	s.sideEffect("notify owner of removal", giveawayID, func() error {
		return s.notifier.RemovedFlaggedGiveaway(ctx, g)
	})
	s.sideEffect("retract mod notifications", giveawayID, func() error {
		return s.notifier.UnnotifyModsFlaggedGiveaway(ctx, giveawayID)
	})
	return nil
}

func (s *service) Restore(ctx context.Context, caller domain.Caller, giveawayID, userID string) error {
	g, err := s.repo.Get(ctx, giveawayID)
	if err != nil {
		return err
	}
	if !g.IsRemoved {
		return fmt.Errorf("restore giveaway %s: %w", giveawayID, domain.ErrNotRemoved)
	}
	if caller.ID != userID || !domain.ModsOrAdmins(caller.Role) {
		return fmt.Errorf("restore giveaway %s: %w", giveawayID, domain.ErrNotAuthorized)
	}

	if err := s.repo.MarkRestored(ctx, giveawayID); err != nil {
		return err
	}

	s.sideEffect("retract removal notification", giveawayID, func() error {
		return s.notifier.UnnotifyRemovedFlaggedGiveaway(ctx, g)
	})
	return nil
}

// ── Status-update coalescer ────────────────────────────────────────────────

// PushStatusUpdate appends a status entry, first dropping every entry from
// the rolling one-minute window. The window filter is global: it discards all
// recent entries, not just the calling user's. Replace and append are two
// separate writes; a concurrent push can interleave between them.
func (s *service) PushStatusUpdate(ctx context.Context, caller domain.Caller, giveawayID, statusTypeID, userID string) error {
	if !caller.LoggedIn() {
		return fmt.Errorf("push status update: %w", domain.ErrNotLoggedIn)
	}
	if caller.ID != userID {
		return fmt.Errorf("push status update: %w", domain.ErrNotAuthenticated)
	}
	g, err := s.repo.Get(ctx, giveawayID)
	if err != nil {
		return err
	}

	now := s.now()
	cutoff := now.Add(-coalesceWindow)
	kept := make([]domain.StatusUpdate, 0, len(g.StatusUpdates))
	for _, su := range g.StatusUpdates {
		if su.Date.Before(cutoff) {
			kept = append(kept, su)
		}
	}

	if len(kept) < len(g.StatusUpdates) {
		if err := s.repo.ReplaceStatusUpdates(ctx, giveawayID, kept); err != nil {
			return err
		}
	}

	return s.repo.AppendStatusUpdate(ctx, giveawayID, domain.StatusUpdate{
		StatusTypeID: statusTypeID,
		UserID:       userID,
		Date:         now,
	})
}

// ── Rating tally ───────────────────────────────────────────────────────────

func (s *service) VoteUp(ctx context.Context, caller domain.Caller, giveawayID, userID string) error {
	return s.vote(ctx, caller, giveawayID, userID, true)
}

func (s *service) VoteDown(ctx context.Context, caller domain.Caller, giveawayID, userID string) error {
	return s.vote(ctx, caller, giveawayID, userID, false)
}

func (s *service) vote(ctx context.Context, caller domain.Caller, giveawayID, userID string, up bool) error {
	g, err := s.checkVoter(ctx, caller, giveawayID, userID)
	if err != nil {
		return err
	}

	// One update sets the user's key in the target map and removes it from
	// the opposite map, so the mutual-exclusion invariant needs no read.
	if err := s.repo.Vote(ctx, giveawayID, userID, s.now(), up); err != nil {
		return err
	}

	direction := "voteUp"
	if !up {
		direction = "voteDown"
	}
	s.dispatchVoteNotification(g, userID, direction)
	return nil
}

// Unvote removes the user's vote from both tallies. Idempotent: voting
// nothing away is not an error.
func (s *service) Unvote(ctx context.Context, caller domain.Caller, giveawayID, userID string) error {
	g, err := s.checkVoter(ctx, caller, giveawayID, userID)
	if err != nil {
		return err
	}
	if err := s.repo.Unvote(ctx, giveawayID, userID); err != nil {
		return err
	}
	s.dispatchVoteNotification(g, userID, "unvote")
	return nil
}

func (s *service) checkVoter(ctx context.Context, caller domain.Caller, giveawayID, userID string) (*domain.Giveaway, error) {
	if !caller.LoggedIn() {
		return nil, fmt.Errorf("vote on giveaway: %w", domain.ErrNotLoggedIn)
	}
	if caller.ID != userID {
		return nil, fmt.Errorf("vote on giveaway: %w", domain.ErrNotAuthenticated)
	}
	return s.repo.Get(ctx, giveawayID)
}

// dispatchVoteNotification fires the vote notification on a background
// goroutine with its own timeout. Delivery is best-effort: a failure is
// logged and never rolls back the vote.
func (s *service) dispatchVoteNotification(g *domain.Giveaway, voterID, direction string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), voteNotifyTimeout)
		defer cancel()
		if err := s.notifier.VotedOnGiveaway(ctx, g, voterID, direction); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"giveaway_id": g.GiveawayID,
				"direction":   direction,
			}).Warn("vote notification failed")
		}
	}()
}

// ── Analytics ──────────────────────────────────────────────────────────────

func (s *service) Pageviews(ctx context.Context, giveawayID string) int {
	if s.analytics == nil {
		return 0
	}
	return s.analytics.GiveawayPageviews(ctx, giveawayID)
}

func (s *service) InfoboxOpens(ctx context.Context, giveawayID string) int {
	if s.analytics == nil {
		return 0
	}
	return s.analytics.InfoboxOpens(ctx, giveawayID)
}

// sideEffect runs a notification trigger synchronously, logging and
// swallowing any failure. Side effects never undo the primary transition.
func (s *service) sideEffect(what, giveawayID string, fn func() error) {
	if err := fn(); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"giveaway_id": giveawayID,
			"effect":      what,
		}).Warn("notification side effect failed")
	}
}
