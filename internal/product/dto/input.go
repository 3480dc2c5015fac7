package dto

import (
	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-attribute-service/internal/model"
)

type CreateProductInput struct {
	CategoryID      string                 `json:"categoryId"`
	SKU             string                 `json:"sku"`
	Name            string                 `json:"name"`
	Description     string                 `json:"description"`
	Price           decimal.Decimal        `json:"price"`
	SalePrice       decimal.NullDecimal    `json:"salePrice"`
	Stock           int                    `json:"stock"`
	Tags            []string               `json:"tags"`
	Images          []string               `json:"images"`
	AttributeValues map[string]interface{} `json:"attributeValues"`
	Dimensions      []string               `json:"dimensions"`
	Variants        []model.Variant        `json:"variants"`
}

// UpdateProductInput replaces the product wholesale, attribute values and
// variants included.
type UpdateProductInput struct {
	ID string `json:"-"`
	CreateProductInput
	IsActive *bool `json:"isActive"`
}

type GenerateVariantsInput struct {
	BaseSKU    string              `json:"baseSku"`
	Dimensions []string            `json:"dimensions"`
	Selection  map[string][]string `json:"selection"`
	Existing   []model.Variant     `json:"existing"`
}
