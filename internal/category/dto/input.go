package dto

type CreateCategoryInput struct {
	ParentID    *string `json:"parentId"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	ImageURL    string  `json:"imageUrl"`
	SortOrder   int     `json:"sortOrder"`
}

// UpdateCategoryInput is a patch. An empty ParentID moves the category to
// the root.
type UpdateCategoryInput struct {
	ID          string  `json:"-"`
	ParentID    *string `json:"parentId"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ImageURL    *string `json:"imageUrl"`
	SortOrder   *int    `json:"sortOrder"`
	IsActive    *bool   `json:"isActive"`
}
