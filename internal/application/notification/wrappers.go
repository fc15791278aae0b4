package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/givingly/giveaway-api/internal/domain"
)

// Notification group id prefixes. The comment and mods-flag groups reuse the
// raw entity id to match the coalescing behaviour clients expect; removal and
// vote groups are prefixed so they never collide with the comment group on
// the same giveaway for the same recipient.
const (
	removedGroupPrefix = "removed-"
	votesGroupPrefix   = "votes-"
)

const flagIconAvatar = "flag"

func (s *service) CommentedOnGiveaway(ctx context.Context, g *domain.Giveaway, commenterID string) error {
	return s.Upsert(ctx, g.GiveawayID, []string{g.UserID}, func(existing *domain.Notification) domain.NotificationData {
		userIDs := mergeActor(existing, commenterID)
		return domain.NotificationData{
			Title:    "New comment on your giveaway",
			Body:     fmt.Sprintf("%s commented on %s.", s.aggregateUserNames(ctx, userIDs), g.Title),
			Avatar:   domain.NotificationAvatar{Type: "user", Value: commenterID},
			URL:      "/giveaway/" + g.GiveawayID,
			Metadata: domain.NotificationMetadata{UserIDs: userIDs},
		}
	})
}

func (s *service) ModsFlaggedGiveaway(ctx context.Context, g *domain.Giveaway, flaggerID string) error {
	mods, err := s.findModsOrAdmins(ctx)
	if err != nil {
		return err
	}
	return s.Upsert(ctx, g.GiveawayID, mods, func(existing *domain.Notification) domain.NotificationData {
		userIDs := mergeActor(existing, flaggerID)
		return domain.NotificationData{
			Title:    "Giveaway requires review",
			Body:     fmt.Sprintf("%s has flagged %s.", s.aggregateUserNames(ctx, userIDs), g.Title),
			Avatar:   domain.NotificationAvatar{Type: "icon", Value: flagIconAvatar},
			URL:      "/giveaway/" + g.GiveawayID,
			Metadata: domain.NotificationMetadata{UserIDs: userIDs},
		}
	})
}

func (s *service) UnnotifyModsFlaggedGiveaway(ctx context.Context, giveawayID string) error {
	mods, err := s.findModsOrAdmins(ctx)
	if err != nil {
		return err
	}
	_, err = s.RemoveUnread(ctx, giveawayID, mods)
	return err
}

func (s *service) RemovedFlaggedGiveaway(ctx context.Context, g *domain.Giveaway) error {
	return s.Upsert(ctx, removedGroupPrefix+g.GiveawayID, []string{g.UserID}, func(existing *domain.Notification) domain.NotificationData {
		return domain.NotificationData{
			Title:    "Your giveaway was removed",
			Body:     fmt.Sprintf("A moderator removed %s after review.", g.Title),
			Avatar:   domain.NotificationAvatar{Type: "icon", Value: flagIconAvatar},
			URL:      "/giveaway/" + g.GiveawayID,
			Metadata: domain.NotificationMetadata{},
		}
	})
}

func (s *service) UnnotifyRemovedFlaggedGiveaway(ctx context.Context, g *domain.Giveaway) error {
	_, err := s.RemoveUnread(ctx, removedGroupPrefix+g.GiveawayID, []string{g.UserID})
	return err
}

func (s *service) ModsFlaggedComment(ctx context.Context, c *domain.GiveawayComment, g *domain.Giveaway, flaggerID string) error {
	mods, err := s.findModsOrAdmins(ctx)
	if err != nil {
		return err
	}
	return s.Upsert(ctx, c.CommentID, mods, func(existing *domain.Notification) domain.NotificationData {
		userIDs := mergeActor(existing, flaggerID)
		return domain.NotificationData{
			Title:    "Comment requires review",
			Body:     fmt.Sprintf("%s has flagged a comment on %s.", s.aggregateUserNames(ctx, userIDs), g.Title),
			Avatar:   domain.NotificationAvatar{Type: "icon", Value: flagIconAvatar},
			URL:      "/giveaway/" + g.GiveawayID,
			Metadata: domain.NotificationMetadata{UserIDs: userIDs},
		}
	})
}

func (s *service) UnnotifyModsFlaggedComment(ctx context.Context, commentID string) error {
	mods, err := s.findModsOrAdmins(ctx)
	if err != nil {
		return err
	}
	_, err = s.RemoveUnread(ctx, commentID, mods)
	return err
}

// VotedOnGiveaway maintains one merged vote notification per giveaway for the
// owner. An unvote removes the voter from the actor list and retracts the
// notification entirely when nobody is left.
func (s *service) VotedOnGiveaway(ctx context.Context, g *domain.Giveaway, voterID, direction string) error {
	groupID := votesGroupPrefix + g.GiveawayID

	if direction == "unvote" {
		existing, err := s.repo.GetUnread(ctx, g.UserID, groupID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return err
		}
		remaining := removeActor(existing.Data.Metadata.UserIDs, voterID)
		if len(remaining) == 0 {
			_, err := s.RemoveUnread(ctx, groupID, []string{g.UserID})
			return err
		}
		return s.Upsert(ctx, groupID, []string{g.UserID}, func(*domain.Notification) domain.NotificationData {
			return s.voteData(ctx, g, remaining)
		})
	}

	return s.Upsert(ctx, groupID, []string{g.UserID}, func(existing *domain.Notification) domain.NotificationData {
		return s.voteData(ctx, g, mergeActor(existing, voterID))
	})
}

func (s *service) voteData(ctx context.Context, g *domain.Giveaway, userIDs []string) domain.NotificationData {
	avatar := domain.NotificationAvatar{Type: "icon", Value: "thumbs-up"}
	if len(userIDs) > 0 {
		avatar = domain.NotificationAvatar{Type: "user", Value: userIDs[0]}
	}
	return domain.NotificationData{
		Title:    "Votes on your giveaway",
		Body:     fmt.Sprintf("%s voted on %s.", s.aggregateUserNames(ctx, userIDs), g.Title),
		Avatar:   avatar,
		URL:      "/giveaway/" + g.GiveawayID,
		Metadata: domain.NotificationMetadata{UserIDs: userIDs},
	}
}

func (s *service) findModsOrAdmins(ctx context.Context) ([]string, error) {
	var ids []string
	for _, role := range []string{domain.RoleModerator, domain.RoleAdmin} {
		users, err := s.users.ListByRole(ctx, role)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			ids = append(ids, u.UserID)
		}
	}
	return ids, nil
}

// aggregateUserNames renders a deduplicated actor list as display names:
// "Ana", "Ana and Ben", "Ana, Ben and 2 others". Ids that no longer resolve
// to a user are skipped.
func (s *service) aggregateUserNames(ctx context.Context, userIDs []string) string {
	var names []string
	for _, uid := range userIDs {
		u, err := s.users.Get(ctx, uid)
		if err != nil {
			continue
		}
		names = append(names, u.DisplayName)
	}
	switch len(names) {
	case 0:
		return "Someone"
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return fmt.Sprintf("%s and %d others", strings.Join(names[:2], ", "), len(names)-2)
	}
}

// mergeActor prepends actorID to the existing metadata actor list with any
// earlier occurrence removed, yielding a deduplicated most-recent-first list.
func mergeActor(existing *domain.Notification, actorID string) []string {
	var prior []string
	if existing != nil {
		prior = existing.Data.Metadata.UserIDs
	}
	return append([]string{actorID}, removeActor(prior, actorID)...)
}

func removeActor(userIDs []string, actorID string) []string {
	out := make([]string, 0, len(userIDs))
	for _, uid := range userIDs {
		if uid != actorID {
			out = append(out, uid)
		}
	}
	return out
}
