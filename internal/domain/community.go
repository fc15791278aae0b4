package domain

import "time"

type Community struct {
	CommunityID string    `json:"id" dynamodbav:"community_id"`
	Name        string    `json:"name" dynamodbav:"name"`
	OwnerID     string    `json:"owner_id" dynamodbav:"owner_id"`
	PictureID   string    `json:"picture_id,omitempty" dynamodbav:"picture_id"`
	Count       int       `json:"count" dynamodbav:"count"`
	Website     string    `json:"website,omitempty" dynamodbav:"website"`
	// Coordinates are [lng, lat].
	Coordinates []float64 `json:"coordinates" dynamodbav:"coordinates"`
	Zoom        int       `json:"zoom" dynamodbav:"zoom"`
	// MapURL is not persisted; it is composed from the MapBox settings when
	// the community is read.
	MapURL    string    `json:"map_url,omitempty" dynamodbav:"-"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

type CreateCommunityRequest struct {
	Name        string    `json:"name" validate:"required,max=80"`
	PictureID   string    `json:"picture_id"`
	Website     string    `json:"website" validate:"omitempty,url"`
	Coordinates []float64 `json:"coordinates" validate:"required,len=2"`
	Zoom        int       `json:"zoom" validate:"omitempty,min=1,max=20"`
}

type UpdateCommunityRequest struct {
	Name        *string   `json:"name" validate:"omitempty,max=80"`
	PictureID   *string   `json:"picture_id"`
	Website     *string   `json:"website" validate:"omitempty,url"`
	Coordinates []float64 `json:"coordinates" validate:"omitempty,len=2"`
	Zoom        *int      `json:"zoom" validate:"omitempty,min=1,max=20"`
	Count       *int      `json:"count"`
}
