package model

type AttributeType string

const (
	AttributeTypeText        AttributeType = "TEXT"
	AttributeTypeNumber      AttributeType = "NUMBER"
	AttributeTypeBoolean     AttributeType = "BOOLEAN"
	AttributeTypeSelect      AttributeType = "SELECT"
	AttributeTypeMultiSelect AttributeType = "MULTI_SELECT"
	AttributeTypeRange       AttributeType = "RANGE"
)

var AttributeTypes = []AttributeType{
	AttributeTypeText,
	AttributeTypeNumber,
	AttributeTypeBoolean,
	AttributeTypeSelect,
	AttributeTypeMultiSelect,
	AttributeTypeRange,
}

func (t AttributeType) Valid() bool {
	for _, at := range AttributeTypes {
		if at == t {
			return true
		}
	}
	return false
}

// Enumerable reports whether the type draws its values from a controlled
// vocabulary of AttributeValues.
func (t AttributeType) Enumerable() bool {
	return t == AttributeTypeSelect || t == AttributeTypeMultiSelect
}

type Attribute struct {
	BaseModel
	Name            string           `db:"name" json:"name"`
	Slug            string           `db:"slug" json:"slug"`
	Type            AttributeType    `db:"type" json:"type"`
	Unit            *string          `db:"unit" json:"unit,omitempty"`
	IsFilterable    bool             `db:"is_filterable" json:"isFilterable"`
	MinValue        *float64         `db:"min_value" json:"minValue,omitempty"`
	MaxValue        *float64         `db:"max_value" json:"maxValue,omitempty"`
	AttributeValues []AttributeValue `db:"-" json:"attributeValues"`
}

type AttributeValue struct {
	ID          string `db:"id" json:"id"`
	AttributeID string `db:"attribute_id" json:"-"`
	Value       string `db:"value" json:"value"`
	Order       int    `db:"order" json:"order"`
}

func (a *Attribute) FindValue(id string) (*AttributeValue, bool) {
	for i := range a.AttributeValues {
		if a.AttributeValues[i].ID == id {
			return &a.AttributeValues[i], true
		}
	}
	return nil, false
}

// MaxOrder is the highest order among the attribute's values, 0 when empty.
// Orders may have gaps after removals.
func (a *Attribute) MaxOrder() int {
	highest := 0
	for _, v := range a.AttributeValues {
		if v.Order > highest {
			highest = v.Order
		}
	}
	return highest
}
