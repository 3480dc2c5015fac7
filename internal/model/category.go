package model

type Category struct {
	BaseModel
	ParentID           *string             `db:"parent_id" json:"parentId"` // Nullable
	Name               string              `db:"name" json:"name"`
	Slug               string              `db:"slug" json:"slug"`
	Description        *string             `db:"description" json:"description"`
	ImageURL           *string             `db:"image_url" json:"imageUrl"`
	SortOrder          int                 `db:"sort_order" json:"sortOrder"`
	IsActive           bool                `db:"is_active" json:"isActive"`
	CategoryAttributes []CategoryAttribute `db:"-" json:"categoryAttributes"`
	Children           []Category          `db:"-" json:"children,omitempty"`
}

// CategoryAttribute binds an Attribute to a Category. Attribute is resolved
// when loaded through the category repository.
type CategoryAttribute struct {
	ID          string     `db:"id" json:"id"`
	CategoryID  string     `db:"category_id" json:"categoryId"`
	AttributeID string     `db:"attribute_id" json:"attributeId"`
	IsRequired  bool       `db:"is_required" json:"isRequired"`
	SortOrder   int        `db:"sort_order" json:"sortOrder"`
	Attribute   *Attribute `db:"-" json:"attribute,omitempty"`
}
