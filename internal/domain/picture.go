package domain

import "time"

// Picture is the metadata row for an uploaded image; bytes live in S3 under
// S3Key.
type Picture struct {
	PictureID   string    `json:"id" dynamodbav:"picture_id"`
	UserID      string    `json:"user_id" dynamodbav:"user_id"`
	FileName    string    `json:"file_name" dynamodbav:"file_name"`
	ContentType string    `json:"content_type" dynamodbav:"content_type"`
	S3Key       string    `json:"-" dynamodbav:"s3_key"`
	Size        int64     `json:"size" dynamodbav:"size"`
	Deleted     bool      `json:"-" dynamodbav:"deleted"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
}
