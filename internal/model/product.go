package model

import (
	"database/sql/driver"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// AttributeValueMap is the product's attributeId -> value map, stored as
// JSONB and replaced wholesale on every save.
type AttributeValueMap map[string]interface{}

func (m AttributeValueMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return jsonValue(map[string]interface{}(m))
}

func (m *AttributeValueMap) Scan(value interface{}) error {
	*m = AttributeValueMap{}
	return scanJSON(value, (*map[string]interface{})(m))
}

type Product struct {
	BaseModel
	CategoryID      *string             `db:"category_id" json:"categoryId"` // Nullable
	SKU             string              `db:"sku" json:"sku"`
	Name            string              `db:"name" json:"name"`
	Description     *string             `db:"description" json:"description"`
	Price           decimal.Decimal     `db:"price" json:"price"`
	SalePrice       decimal.NullDecimal `db:"sale_price" json:"salePrice"`
	Stock           int                 `db:"stock" json:"stock"`
	Tags            pq.StringArray      `db:"tags" json:"tags"`
	Images          pq.StringArray      `db:"images" json:"images"`
	AttributeValues AttributeValueMap   `db:"attribute_values" json:"attributeValues"`
	Dimensions      pq.StringArray      `db:"dimensions" json:"dimensions"`
	IsActive        bool                `db:"is_active" json:"isActive"`
	Variants        []Variant           `db:"-" json:"variants"`
	Category        *Category           `db:"-" json:"category,omitempty"`
}

// VariantAttributeValue is one dimension choice on a variant. AttributeName
// and Value are denormalised display strings.
type VariantAttributeValue struct {
	AttributeID      string `json:"attributeId"`
	AttributeValueID string `json:"attributeValueId"`
	AttributeName    string `json:"attributeName,omitempty"`
	Value            string `json:"value,omitempty"`
}

type VariantAttributeValues []VariantAttributeValue

func (v VariantAttributeValues) Value() (driver.Value, error) {
	if v == nil {
		return "[]", nil
	}
	return jsonValue([]VariantAttributeValue(v))
}

func (v *VariantAttributeValues) Scan(value interface{}) error {
	*v = VariantAttributeValues{}
	return scanJSON(value, (*[]VariantAttributeValue)(v))
}

type Variant struct {
	ID              string                 `db:"id" json:"id"`
	ProductID       string                 `db:"product_id" json:"productId"`
	SKU             string                 `db:"sku" json:"sku"`
	Price           decimal.Decimal        `db:"price" json:"price"`
	SalePrice       decimal.NullDecimal    `db:"sale_price" json:"salePrice"`
	Stock           int                    `db:"stock" json:"stock"`
	Weight          *float64               `db:"weight" json:"weight,omitempty"`
	IsActive        bool                   `db:"is_active" json:"isActive"`
	Position        int                    `db:"position" json:"-"`
	AttributeValues VariantAttributeValues `db:"attribute_values" json:"attributeValues"`
}
