package schema

import (
	"sort"

	"github.com/fekuna/omnipos-attribute-service/internal/attribute/codec"
	"github.com/fekuna/omnipos-attribute-service/internal/model"
)

type Choice struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Descriptor tells a form how to render one field and where it writes.
type Descriptor struct {
	AttributeID string              `json:"attributeId"`
	Name        string              `json:"name"`
	Slug        string              `json:"slug"`
	Type        model.AttributeType `json:"type"`
	Widget      codec.Widget        `json:"widget"`
	Required    bool                `json:"required"`
	Unit        string              `json:"unit,omitempty"`
	Choices     []Choice            `json:"choices,omitempty"`
	AllowCustom bool                `json:"allowCustom,omitempty"`
	Default     interface{}         `json:"default"`
}

// View is the serialisable form of a compiled schema.
type View struct {
	Hidden      bool         `json:"hidden"`
	Fields      []Field      `json:"fields"`
	Descriptors []Descriptor `json:"descriptors"`
}

// Describe returns one descriptor per field, in render order.
func (s *CompiledSchema) Describe() []Descriptor {
	out := make([]Descriptor, 0, len(s.fields))
	for _, f := range s.fields {
		d, err := describe(f)
		if err != nil {
			continue
		}
		out = append(out, d)
	}
	return out
}

func (s *CompiledSchema) View() View {
	return View{
		Hidden:      s.Hidden(),
		Fields:      s.Fields(),
		Descriptors: s.Describe(),
	}
}

func describe(f Field) (Descriptor, error) {
	attr := f.Attribute
	widget, err := codec.WidgetFor(attr.Type)
	if err != nil {
		return Descriptor{}, err
	}
	def, err := codec.Encode(codec.Default(attr.Type))
	if err != nil {
		return Descriptor{}, err
	}

	d := Descriptor{
		AttributeID: f.AttributeID,
		Name:        attr.Name,
		Slug:        attr.Slug,
		Type:        attr.Type,
		Widget:      widget,
		Required:    f.IsRequired,
		Default:     def,
	}
	if attr.Unit != nil {
		d.Unit = *attr.Unit
	}
	if attr.Type.Enumerable() {
		d.Choices = Choices(attr)
		d.AllowCustom = attr.Type == model.AttributeTypeMultiSelect
	}
	return d, nil
}

// Choices lists the attribute's vocabulary by order, then id.
func Choices(attr *model.Attribute) []Choice {
	values := make([]model.AttributeValue, len(attr.AttributeValues))
	copy(values, attr.AttributeValues)
	sort.SliceStable(values, func(i, j int) bool {
		if values[i].Order != values[j].Order {
			return values[i].Order < values[j].Order
		}
		return values[i].ID < values[j].ID
	})

	out := make([]Choice, len(values))
	for i, v := range values {
		out[i] = Choice{ID: v.ID, Label: v.Value}
	}
	return out
}

// DisplayValue is a stored value formatted for humans.
type DisplayValue struct {
	AttributeID string   `json:"attributeId"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Text        string   `json:"text"`
	Entries     []string `json:"entries,omitempty"`
}

// Display formats the stored values that belong to the schema, in render
// order. Empty values are skipped.
func (s *CompiledSchema) Display(stored map[string]interface{}) []DisplayValue {
	decoded := s.Values(stored)
	var out []DisplayValue
	for _, f := range s.fields {
		v, ok := decoded[f.AttributeID]
		if !ok || codec.IsEmpty(v) {
			continue
		}
		out = append(out, DisplayValue{
			AttributeID: f.AttributeID,
			Name:        f.Attribute.Name,
			Slug:        f.Attribute.Slug,
			Text:        codec.Display(f.Attribute, v),
			Entries:     codec.DisplayEntries(f.Attribute, v),
		})
	}
	return out
}
