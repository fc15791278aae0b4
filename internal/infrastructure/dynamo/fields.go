package dynamo

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldIsRemoved     = "is_removed"
	fieldRemoveUserID  = "remove_user_id"
	fieldRemoveDate    = "remove_date"
	fieldFlags         = "flags"
	fieldStatusUpdates = "status_updates"
	fieldUpvotes       = "ratings.upvotes"
	fieldDownvotes     = "ratings.downvotes"
	fieldUnread        = "unread"
	fieldEnable        = "enable"
	fieldDeleted       = "deleted"
	fieldUpdatedAt     = "updated_at"
)
