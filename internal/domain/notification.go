package domain

import "time"

// NotificationAvatar describes what to render next to the notification:
// either a user's avatar ("user" + user id) or a named icon ("icon" + name).
type NotificationAvatar struct {
	Type  string `json:"type" dynamodbav:"type"`
	Value string `json:"value" dynamodbav:"value"`
}

// NotificationMetadata carries the deduplicated, most-recent-first list of
// actor ids that triggered the notification group.
type NotificationMetadata struct {
	UserIDs []string `json:"user_ids" dynamodbav:"user_ids"`
}

// NotificationData is the displayable payload of a notification.
type NotificationData struct {
	Title    string               `json:"title" dynamodbav:"title"`
	Body     string               `json:"body" dynamodbav:"body"`
	Avatar   NotificationAvatar   `json:"avatar" dynamodbav:"avatar"`
	URL      string               `json:"url" dynamodbav:"url"`
	Metadata NotificationMetadata `json:"metadata" dynamodbav:"metadata"`
}

// Notification is one alert to one recipient. At most one unread notification
// exists per (user_id, notif_group_id) pair at any time; the upsert engine
// maintains that invariant with replace semantics.
type Notification struct {
	NotificationID string           `json:"id" dynamodbav:"notification_id"`
	UserID         string           `json:"user_id" dynamodbav:"user_id"`
	NotifGroupID   string           `json:"notif_group_id" dynamodbav:"notif_group_id"`
	Unread         bool             `json:"unread" dynamodbav:"unread"`
	Data           NotificationData `json:"data" dynamodbav:"data"`
	Timestamp      time.Time        `json:"timestamp" dynamodbav:"timestamp"`
}
