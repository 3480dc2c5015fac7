package dto

import "github.com/fekuna/omnipos-attribute-service/internal/model"

type ProductFilters struct {
	CategoryID  string
	IsActive    *bool
	SearchQuery string   // name or sku
	MinPrice    *float64 // inclusive
	MaxPrice    *float64 // inclusive
	SortBy      string   // name, price, created_at
	SortOrder   string   // asc, desc
	Page        int
	PageSize    int
}

// SearchInput drives the storefront search. Facets maps an attribute slug to
// the display values to match: values of one attribute are OR'ed, attributes
// are AND'ed.
type SearchInput struct {
	Query      string
	CategoryID string
	Facets     map[string][]string
	MinPrice   *float64
	MaxPrice   *float64
	Page       int
	PageSize   int
}

type SearchResult struct {
	Items []model.Product `json:"items"`
	Total int             `json:"total"`
	// Facets counts matching products per attribute slug and value.
	Facets map[string]map[string]int `json:"facets"`
}
