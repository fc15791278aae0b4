package domain

import "time"

// StatusUpdate is one timestamped status entry on a giveaway. The list is
// append-only except for the one-minute coalescing rule in the giveaway
// service.
type StatusUpdate struct {
	StatusTypeID string    `json:"status_type_id" dynamodbav:"status_type_id"`
	UserID       string    `json:"user_id" dynamodbav:"user_id"`
	Date         time.Time `json:"date" dynamodbav:"date"`
}

// Ratings holds the up/down vote tallies as user_id -> vote date maps. A user
// id is a key of at most one of the two maps at any time; the repository
// enforces this in a single update (set one key, remove the other) so no
// prior read is needed.
type Ratings struct {
	Upvotes   map[string]time.Time `json:"upvotes" dynamodbav:"upvotes"`
	Downvotes map[string]time.Time `json:"downvotes" dynamodbav:"downvotes"`
}

type Giveaway struct {
	GiveawayID  string    `json:"id" dynamodbav:"giveaway_id"`
	UserID      string    `json:"user_id" dynamodbav:"user_id"`
	Title       string    `json:"title" dynamodbav:"title"`
	Description string    `json:"description" dynamodbav:"description"`
	StartDate   time.Time `json:"start_date" dynamodbav:"start_date"`
	EndDate     time.Time `json:"end_date" dynamodbav:"end_date"`
	// Coordinates are [lng, lat], matching the map layer's convention.
	Coordinates []float64 `json:"coordinates" dynamodbav:"coordinates"`
	CategoryID  string    `json:"category_id" dynamodbav:"category_id"`
	CommunityID string    `json:"community_id" dynamodbav:"community_id"`
	PictureID   string    `json:"picture_id,omitempty" dynamodbav:"picture_id"`

	// Soft-delete fields, set together only by the removal transition.
	IsRemoved    bool       `json:"is_removed" dynamodbav:"is_removed"`
	RemoveUserID string     `json:"remove_user_id,omitempty" dynamodbav:"remove_user_id"`
	RemoveDate   *time.Time `json:"remove_date,omitempty" dynamodbav:"remove_date"`

	// Flags maps flagger user_id -> flag date. Flagging again replaces the
	// date, so at most one flag per user exists by construction.
	Flags map[string]time.Time `json:"flags" dynamodbav:"flags"`

	Ratings       Ratings        `json:"ratings" dynamodbav:"ratings"`
	StatusUpdates []StatusUpdate `json:"status_updates" dynamodbav:"status_updates"`

	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

// IsFlagged reports whether any flag is outstanding.
func (g *Giveaway) IsFlagged() bool { return len(g.Flags) > 0 }

// HasFlagged reports whether userID currently has a flag on the giveaway.
func (g *Giveaway) HasFlagged(userID string) bool {
	_, ok := g.Flags[userID]
	return ok
}

// NetRating is upvotes minus downvotes.
func (g *Giveaway) NetRating() int {
	return len(g.Ratings.Upvotes) - len(g.Ratings.Downvotes)
}

// LastOwnerStatus returns the most recent status update authored by the
// giveaway's owner, or nil if the owner never posted one.
func (g *Giveaway) LastOwnerStatus() *StatusUpdate {
	var last *StatusUpdate
	for i := range g.StatusUpdates {
		su := &g.StatusUpdates[i]
		if su.UserID != g.UserID {
			continue
		}
		if last == nil || su.Date.After(last.Date) {
			last = su
		}
	}
	return last
}

type CreateGiveawayRequest struct {
	Title       string    `json:"title" validate:"required,max=120"`
	Description string    `json:"description" validate:"max=2000"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	Coordinates []float64 `json:"coordinates" validate:"required,len=2"`
	CategoryID  string    `json:"category_id" validate:"required"`
	CommunityID string    `json:"community_id" validate:"required"`
	PictureID   string    `json:"picture_id"`
}

type UpdateGiveawayRequest struct {
	Title       *string    `json:"title" validate:"omitempty,max=120"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Coordinates []float64  `json:"coordinates" validate:"omitempty,len=2"`
	CategoryID  *string    `json:"category_id"`
	CommunityID *string    `json:"community_id"`
	PictureID   *string    `json:"picture_id"`
}
