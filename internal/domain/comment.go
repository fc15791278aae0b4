package domain

import "time"

type GiveawayComment struct {
	CommentID  string    `json:"id" dynamodbav:"comment_id"`
	GiveawayID string    `json:"giveaway_id" dynamodbav:"giveaway_id"`
	UserID     string    `json:"user_id" dynamodbav:"user_id"`
	Body       string    `json:"body" dynamodbav:"body"`
	Date       time.Time `json:"date" dynamodbav:"date"`

	IsRemoved    bool       `json:"is_removed" dynamodbav:"is_removed"`
	RemoveUserID string     `json:"remove_user_id,omitempty" dynamodbav:"remove_user_id"`
	RemoveDate   *time.Time `json:"remove_date,omitempty" dynamodbav:"remove_date"`

	// Same shape as Giveaway.Flags: flagger user_id -> flag date.
	Flags map[string]time.Time `json:"flags" dynamodbav:"flags"`
}

func (c *GiveawayComment) HasFlagged(userID string) bool {
	_, ok := c.Flags[userID]
	return ok
}

type CreateCommentRequest struct {
	Body string `json:"body" validate:"required,max=1000"`
}
