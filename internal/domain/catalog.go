package domain

import "regexp"

type ParentCategory struct {
	ParentCategoryID string `json:"id" dynamodbav:"parent_category_id"`
	Name             string `json:"name" dynamodbav:"name"`
}

type Category struct {
	CategoryID string `json:"id" dynamodbav:"category_id"`
	Parent     string `json:"parent" dynamodbav:"parent"`
	Name       string `json:"name" dynamodbav:"name"`
	IconClass  string `json:"icon_class,omitempty" dynamodbav:"icon_class"`
}

// StatusType is a selectable giveaway status (e.g. "lots left", "running
// low") with a display colour.
type StatusType struct {
	StatusTypeID string `json:"id" dynamodbav:"status_type_id"`
	Name         string `json:"name" dynamodbav:"name"`
	HexColour    string `json:"hex_colour" dynamodbav:"hex_colour"`
}

type CategoryInput struct {
	Parent    string `json:"parent" validate:"required"`
	Name      string `json:"name" validate:"required,max=60"`
	IconClass string `json:"icon_class"`
}

type ParentCategoryInput struct {
	Name string `json:"name" validate:"required,max=60"`
}

type StatusTypeInput struct {
	Name      string `json:"name" validate:"required,max=60"`
	HexColour string `json:"hex_colour" validate:"required"`
}

var hexColourRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// SanitizeHexColour returns the colour if it is a valid #rgb/#rrggbb value,
// and the empty string otherwise.
func SanitizeHexColour(c string) string {
	if hexColourRe.MatchString(c) {
		return c
	}
	return ""
}
