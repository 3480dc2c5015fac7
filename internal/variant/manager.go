// Package variant manages a product's variant dimensions and the variant
// rows derived from combinations of their values.
package variant

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-attribute-service/internal/apperror"
	"github.com/fekuna/omnipos-attribute-service/internal/model"
	"github.com/fekuna/omnipos-attribute-service/internal/slug"
)

const labelSeparator = " / "

// Manager edits the variant list of one product. It is not safe for
// concurrent use; the owning form session serialises access.
type Manager struct {
	attributes map[string]*model.Attribute
	dimensions []string
	variants   []model.Variant
}

// NewManager returns a manager that can use any of attributes as a
// dimension.
func NewManager(attributes []model.Attribute) *Manager {
	m := &Manager{attributes: make(map[string]*model.Attribute, len(attributes))}
	for i := range attributes {
		a := attributes[i]
		m.attributes[a.ID] = &a
	}
	return m
}

// Load replaces the manager state with a saved product's dimensions and
// variants. Unknown or unsupported dimensions are rejected, as are variant
// entries that do not name a dimension and one of its values. Display names
// on the entries are refreshed from the attributes.
func (m *Manager) Load(dimensions []string, variants []model.Variant) error {
	m.dimensions = nil
	m.variants = nil
	for _, id := range dimensions {
		if err := m.AddDimension(id); err != nil {
			return err
		}
	}

	loaded := make([]model.Variant, len(variants))
	for i, v := range variants {
		v = cloneVariant(v)
		for j, e := range v.AttributeValues {
			if !m.isDimension(e.AttributeID) {
				return apperror.NewValidation(apperror.CodeInvalidInput, fmt.Sprintf("variants[%d]", i),
					fmt.Sprintf("attribute %s is not a variant dimension", e.AttributeID))
			}
			attr := m.attributes[e.AttributeID]
			av, ok := attr.FindValue(e.AttributeValueID)
			if !ok {
				return apperror.NewValidation(apperror.CodeUnknownValue, fmt.Sprintf("variants[%d]", i),
					fmt.Sprintf("%s has no value %s", attr.Name, e.AttributeValueID))
			}
			v.AttributeValues[j].AttributeName = attr.Name
			v.AttributeValues[j].Value = av.Value
		}
		v.AttributeValues = m.inDimensionOrder(v.AttributeValues)
		loaded[i] = v
	}
	m.variants = loaded
	return nil
}

func (m *Manager) Dimensions() []string {
	out := make([]string, len(m.dimensions))
	copy(out, m.dimensions)
	return out
}

func (m *Manager) Variants() []model.Variant {
	out := make([]model.Variant, len(m.variants))
	for i, v := range m.variants {
		out[i] = cloneVariant(v)
	}
	return out
}

func (m *Manager) Len() int {
	return len(m.variants)
}

// AddDimension promotes an attribute to a variant dimension. Only SELECT and
// MULTI_SELECT attributes with at least one value qualify. Adding an existing
// dimension does nothing.
func (m *Manager) AddDimension(attributeID string) error {
	attr, ok := m.attributes[attributeID]
	if !ok {
		return apperror.NewNotFound(apperror.CodeAttributeNotFound, attributeID)
	}
	if !attr.Type.Enumerable() || len(attr.AttributeValues) == 0 {
		return apperror.NewUnsupportedDimensionType(attributeID, string(attr.Type))
	}
	if m.isDimension(attributeID) {
		return nil
	}
	m.dimensions = append(m.dimensions, attributeID)
	return nil
}

// RemoveDimension drops the dimension and purges its entries from every
// variant. All other variant fields are kept.
func (m *Manager) RemoveDimension(attributeID string) {
	kept := m.dimensions[:0:0]
	for _, id := range m.dimensions {
		if id != attributeID {
			kept = append(kept, id)
		}
	}
	m.dimensions = kept

	for i := range m.variants {
		values := make(model.VariantAttributeValues, 0, len(m.variants[i].AttributeValues))
		for _, av := range m.variants[i].AttributeValues {
			if av.AttributeID != attributeID {
				values = append(values, av)
			}
		}
		m.variants[i].AttributeValues = values
	}
}

// AddVariant appends an empty, active variant with a temporary id.
func (m *Manager) AddVariant() model.Variant {
	v := model.Variant{
		ID:              uuid.New().String(),
		Price:           decimal.Zero,
		Stock:           0,
		IsActive:        true,
		AttributeValues: model.VariantAttributeValues{},
	}
	m.variants = append(m.variants, v)
	return cloneVariant(v)
}

// SetVariantValue sets the variant's value for one dimension, replacing any
// previous one. A change that gives the variant the same complete signature
// as another variant is rejected.
func (m *Manager) SetVariantValue(index int, attributeID, valueID string) error {
	if err := m.checkIndex(index); err != nil {
		return err
	}
	if !m.isDimension(attributeID) {
		return apperror.NewValidation(apperror.CodeInvalidInput, attributeID, "attribute is not a variant dimension")
	}
	attr := m.attributes[attributeID]
	av, ok := attr.FindValue(valueID)
	if !ok {
		return apperror.NewValidation(apperror.CodeUnknownValue, attributeID,
			fmt.Sprintf("%s has no value %s", attr.Name, valueID))
	}

	entry := model.VariantAttributeValue{
		AttributeID:      attributeID,
		AttributeValueID: valueID,
		AttributeName:    attr.Name,
		Value:            av.Value,
	}

	next := make(model.VariantAttributeValues, 0, len(m.variants[index].AttributeValues)+1)
	for _, e := range m.variants[index].AttributeValues {
		if e.AttributeID != attributeID {
			next = append(next, e)
		}
	}
	next = m.inDimensionOrder(append(next, entry))

	sig := signature(next)
	for i, other := range m.variants {
		if i != index && signature(other.AttributeValues) == sig {
			return duplicateError(index, i)
		}
	}

	m.variants[index].AttributeValues = next
	return nil
}

// RemoveVariant deletes the row; later rows shift down by one.
func (m *Manager) RemoveVariant(index int) error {
	if err := m.checkIndex(index); err != nil {
		return err
	}
	next := make([]model.Variant, 0, len(m.variants)-1)
	next = append(next, m.variants[:index]...)
	next = append(next, m.variants[index+1:]...)
	m.variants = next
	return nil
}

// Update applies fn to the variant at index, for the scalar fields a form
// edits (sku, price, stock). fn must not touch AttributeValues.
func (m *Manager) Update(index int, fn func(v *model.Variant)) error {
	if err := m.checkIndex(index); err != nil {
		return err
	}
	values := m.variants[index].AttributeValues
	fn(&m.variants[index])
	m.variants[index].AttributeValues = values
	return nil
}

// Label is the variant's selected values joined in dimension order, e.g.
// "Black / 128", or "Variant N" when nothing is selected.
func (m *Manager) Label(index int) (string, error) {
	if err := m.checkIndex(index); err != nil {
		return "", err
	}
	parts := make([]string, 0, len(m.dimensions))
	for _, e := range m.inDimensionOrder(m.variants[index].AttributeValues) {
		parts = append(parts, m.display(e))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("Variant %d", index+1), nil
	}
	return strings.Join(parts, labelSeparator), nil
}

// Validate is the pre-save check over the whole list: every variant carries
// one value per dimension, signatures are unique and non-empty SKUs are not
// repeated.
func (m *Manager) Validate() error {
	var fields []apperror.FieldError
	seenSig := map[string]int{}
	seenSKU := map[string]int{}

	for i, v := range m.variants {
		for _, dim := range m.dimensions {
			if !hasDimension(v.AttributeValues, dim) {
				fields = append(fields, apperror.FieldError{
					Field:   fmt.Sprintf("variants[%d].%s", i, dim),
					Code:    apperror.CodeRequired,
					Message: fmt.Sprintf("variant %d has no %s", i+1, m.attributes[dim].Name),
				})
			}
		}

		if sig := signature(v.AttributeValues); sig != "" {
			if j, dup := seenSig[sig]; dup {
				return duplicateError(i, j)
			}
			seenSig[sig] = i
		}

		if sku := strings.TrimSpace(v.SKU); sku != "" {
			if j, dup := seenSKU[sku]; dup {
				return apperror.New(apperror.KindConflict, apperror.CodeDuplicateSKU,
					fmt.Sprintf("variants %d and %d share sku %s", j+1, i+1, sku))
			}
			seenSKU[sku] = i
		}
	}

	if len(fields) > 0 {
		return apperror.NewValidationFields(fields)
	}
	return nil
}

// Generate appends a variant for every combination of the selected values
// that no existing variant covers. selection maps a dimension to the value
// ids to combine; a dimension missing from selection uses all its values.
// SKUs are derived from baseSKU and the value labels.
func (m *Manager) Generate(baseSKU string, selection map[string][]string) ([]model.Variant, error) {
	if len(m.dimensions) == 0 {
		return nil, nil
	}

	axes := make([][]model.VariantAttributeValue, len(m.dimensions))
	for d, dim := range m.dimensions {
		attr := m.attributes[dim]
		ids, ok := selection[dim]
		if !ok {
			for _, av := range attr.AttributeValues {
				ids = append(ids, av.ID)
			}
		}
		for _, id := range ids {
			av, found := attr.FindValue(id)
			if !found {
				return nil, apperror.NewValidation(apperror.CodeUnknownValue, dim,
					fmt.Sprintf("%s has no value %s", attr.Name, id))
			}
			axes[d] = append(axes[d], model.VariantAttributeValue{
				AttributeID:      dim,
				AttributeValueID: id,
				AttributeName:    attr.Name,
				Value:            av.Value,
			})
		}
		if len(axes[d]) == 0 {
			return nil, nil
		}
	}

	existing := map[string]bool{}
	for _, v := range m.variants {
		existing[signature(v.AttributeValues)] = true
	}

	var added []model.Variant
	for _, combo := range cartesian(axes) {
		sig := signature(combo)
		if existing[sig] {
			continue
		}
		existing[sig] = true

		v := model.Variant{
			ID:              uuid.New().String(),
			SKU:             deriveSKU(baseSKU, combo),
			Price:           decimal.Zero,
			IsActive:        true,
			AttributeValues: combo,
		}
		m.variants = append(m.variants, v)
		added = append(added, cloneVariant(v))
	}
	return added, nil
}

func cartesian(axes [][]model.VariantAttributeValue) []model.VariantAttributeValues {
	out := []model.VariantAttributeValues{{}}
	for _, axis := range axes {
		next := make([]model.VariantAttributeValues, 0, len(out)*len(axis))
		for _, prefix := range out {
			for _, e := range axis {
				combo := make(model.VariantAttributeValues, len(prefix), len(prefix)+1)
				copy(combo, prefix)
				next = append(next, append(combo, e))
			}
		}
		out = next
	}
	return out
}

func deriveSKU(base string, combo model.VariantAttributeValues) string {
	parts := []string{strings.TrimSpace(base)}
	for _, e := range combo {
		if s := slug.Make(e.Value); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.ToUpper(strings.Trim(strings.Join(parts, "-"), "-"))
}

// signature is the sorted set of (dimension, value) pairs; "" for a variant
// without values.
func signature(values model.VariantAttributeValues) string {
	pairs := make([]string, len(values))
	for i, e := range values {
		pairs[i] = e.AttributeID + "=" + e.AttributeValueID
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "|")
}

func duplicateError(index, other int) error {
	return &apperror.Error{
		Kind:    apperror.KindConflict,
		Code:    apperror.CodeDuplicateVariant,
		Field:   fmt.Sprintf("variants[%d]", index),
		Message: fmt.Sprintf("variant %d has the same values as variant %d", index+1, other+1),
	}
}

func (m *Manager) display(e model.VariantAttributeValue) string {
	if attr, ok := m.attributes[e.AttributeID]; ok {
		if av, ok := attr.FindValue(e.AttributeValueID); ok {
			return av.Value
		}
	}
	if e.Value != "" {
		return e.Value
	}
	return e.AttributeValueID
}

// inDimensionOrder sorts entries by the position of their dimension; entries
// for attributes that are not dimensions go last.
func (m *Manager) inDimensionOrder(values model.VariantAttributeValues) model.VariantAttributeValues {
	rank := make(map[string]int, len(m.dimensions))
	for i, d := range m.dimensions {
		rank[d] = i
	}
	pos := func(id string) int {
		if r, ok := rank[id]; ok {
			return r
		}
		return len(m.dimensions)
	}

	out := make(model.VariantAttributeValues, len(values))
	copy(out, values)
	sort.SliceStable(out, func(i, j int) bool {
		return pos(out[i].AttributeID) < pos(out[j].AttributeID)
	})
	return out
}

func (m *Manager) isDimension(attributeID string) bool {
	for _, d := range m.dimensions {
		if d == attributeID {
			return true
		}
	}
	return false
}

func (m *Manager) checkIndex(index int) error {
	if index < 0 || index >= len(m.variants) {
		return apperror.NewValidation(apperror.CodeOutOfRange, "variantIndex",
			fmt.Sprintf("index %d outside 0..%d", index, len(m.variants)-1))
	}
	return nil
}

func hasDimension(values model.VariantAttributeValues, attributeID string) bool {
	for _, e := range values {
		if e.AttributeID == attributeID {
			return true
		}
	}
	return false
}

func cloneVariant(v model.Variant) model.Variant {
	values := make(model.VariantAttributeValues, len(v.AttributeValues))
	copy(values, v.AttributeValues)
	v.AttributeValues = values
	return v
}
