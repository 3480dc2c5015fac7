package dto

type CategoryFilters struct {
	ParentID        *string // Nil means ignore, Empty string means root categories
	IsActive        *bool
	Search          string
	IncludeChildren bool
	Page            int
	PageSize        int
}

type ReorderInput struct {
	CategoryID string `json:"-"`
	FromIndex  int    `json:"fromIndex"`
	ToIndex    int    `json:"toIndex"`
}
