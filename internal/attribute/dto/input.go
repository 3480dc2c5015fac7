package dto

import "github.com/fekuna/omnipos-attribute-service/internal/model"

type CreateAttributeInput struct {
	Name         string              `json:"name"`
	Slug         string              `json:"slug"` // Derived from Name when blank
	Type         model.AttributeType `json:"type"`
	Unit         string              `json:"unit"`
	IsFilterable bool                `json:"isFilterable"`
	MinValue     *float64            `json:"minValue"`
	MaxValue     *float64            `json:"maxValue"`
	Values       []string            `json:"attributeValues"`
}

// ValueInput identifies an existing value by ID, or a new one when ID is empty.
type ValueInput struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// UpdateAttributeInput is a patch: nil fields are left untouched. The slug
// cannot be changed after creation.
type UpdateAttributeInput struct {
	ID           string               `json:"-"`
	Name         *string              `json:"name"`
	Type         *model.AttributeType `json:"type"`
	Unit         *string              `json:"unit"`
	IsFilterable *bool                `json:"isFilterable"`
	MinValue     *float64             `json:"minValue"`
	MaxValue     *float64             `json:"maxValue"`
	Values       *[]ValueInput        `json:"attributeValues"`
}
