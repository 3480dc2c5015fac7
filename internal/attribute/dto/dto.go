package dto

import "github.com/fekuna/omnipos-attribute-service/internal/model"

type AttributeFilters struct {
	Type         model.AttributeType // Empty means any type
	IsFilterable *bool
	Search       string // Name or slug, case-insensitive
	Page         int
	PageSize     int
}

type AddValueResult struct {
	Value   *model.AttributeValue  `json:"value"`
	Warning *DuplicateValueWarning `json:"warning,omitempty"`
}

// DuplicateValueWarning flags a value string that already exists on the
// attribute. The value is still added.
type DuplicateValueWarning struct {
	AttributeID string `json:"attributeId"`
	Value       string `json:"value"`
	ExistingID  string `json:"existingId"`
}

func (w *DuplicateValueWarning) Message() string {
	return "value \"" + w.Value + "\" already exists on this attribute"
}

type DeleteAttributeResult struct {
	AttributeID         string   `json:"attributeId"`
	AffectedCategoryIDs []string `json:"affectedCategoryIds"`
}
