package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-attribute-service/internal/apperror"
	"github.com/fekuna/omnipos-attribute-service/internal/attribute/codec"
	"github.com/fekuna/omnipos-attribute-service/internal/model"
)

func ptr[T any](v T) *T { return &v }

var (
	storage = &model.Attribute{
		BaseModel: model.BaseModel{ID: "storage"},
		Name:      "Storage",
		Slug:      "storage",
		Type:      model.AttributeTypeSelect,
		Unit:      ptr("GB"),
		AttributeValues: []model.AttributeValue{
			{ID: "64gb-id", Value: "64", Order: 1},
			{ID: "128gb-id", Value: "128", Order: 2},
			{ID: "256gb-id", Value: "256", Order: 3},
		},
	}
	color = &model.Attribute{
		BaseModel: model.BaseModel{ID: "color"},
		Name:      "Color",
		Slug:      "color",
		Type:      model.AttributeTypeMultiSelect,
		AttributeValues: []model.AttributeValue{
			{ID: "white-id", Value: "White", Order: 2},
			{ID: "black-id", Value: "Black", Order: 1},
		},
	}
	weight = &model.Attribute{
		BaseModel: model.BaseModel{ID: "weight"},
		Name:      "Weight",
		Slug:      "weight",
		Type:      model.AttributeTypeNumber,
		Unit:      ptr("g"),
	}
	waterproof = &model.Attribute{
		BaseModel: model.BaseModel{ID: "waterproof"},
		Name:      "Waterproof",
		Slug:      "waterproof",
		Type:      model.AttributeTypeBoolean,
	}
	priceBand = &model.Attribute{
		BaseModel: model.BaseModel{ID: "price-band"},
		Name:      "Price band",
		Type:      model.AttributeTypeRange,
		MinValue:  ptr(0.0),
		MaxValue:  ptr(2000.0),
	}
)

func bind(attr *model.Attribute, required bool, order int) model.CategoryAttribute {
	return model.CategoryAttribute{
		ID:          "b-" + attr.ID,
		CategoryID:  "smartphones",
		AttributeID: attr.ID,
		IsRequired:  required,
		SortOrder:   order,
		Attribute:   attr,
	}
}

func smartphones() []model.CategoryAttribute {
	return []model.CategoryAttribute{
		bind(storage, true, 1),
		bind(color, false, 2),
	}
}

func TestRequiredOptionalGrid(t *testing.T) {
	s := Compile(smartphones())

	res := s.Validate(map[string]interface{}{})
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "storage", res.Errors[0].Field)
	assert.Equal(t, apperror.CodeRequired, res.Errors[0].Code)

	assert.True(t, s.Validate(map[string]interface{}{"storage": "x"}).Valid)
	assert.True(t, s.Validate(map[string]interface{}{"storage": "x", "color": []interface{}{}}).Valid)
}

func TestRequiredEmptinessForms(t *testing.T) {
	s := Compile(smartphones())

	for name, v := range map[string]interface{}{
		"nil":          nil,
		"empty string": "",
	} {
		t.Run(name, func(t *testing.T) {
			res := s.Validate(map[string]interface{}{"storage": v})
			assert.False(t, res.Valid)
		})
	}

	required := Compile([]model.CategoryAttribute{bind(color, true, 1)})
	assert.False(t, required.Validate(map[string]interface{}{"color": []interface{}{}}).Valid)
	assert.False(t, required.Validate(map[string]interface{}{"color": []string{}}).Valid)
	assert.True(t, required.Validate(map[string]interface{}{"color": []interface{}{"Teal"}}).Valid)
}

func TestBooleanNeverFailsRequired(t *testing.T) {
	s := Compile([]model.CategoryAttribute{bind(waterproof, true, 1)})
	assert.True(t, s.Validate(map[string]interface{}{}).Valid)
	assert.True(t, s.Validate(map[string]interface{}{"waterproof": false}).Valid)

	out, err := s.Normalize(map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, false, out["waterproof"])
}

func TestNumberTextIsEmptySentinel(t *testing.T) {
	s := Compile([]model.CategoryAttribute{bind(weight, true, 1)})

	res := s.Validate(map[string]interface{}{"weight": "heavy"})
	require.False(t, res.Valid)
	assert.Equal(t, apperror.CodeRequired, res.Errors[0].Code)

	out, err := s.Normalize(map[string]interface{}{"weight": "172.5"})
	require.NoError(t, err)
	assert.Equal(t, 172.5, out["weight"])
}

func TestPermissiveModeIgnoresShape(t *testing.T) {
	s := Compile(smartphones())
	assert.False(t, s.Strict())

	values := map[string]interface{}{"storage": 128.0, "color": "Black"}
	assert.True(t, s.Validate(values).Valid)

	out, err := s.Normalize(values)
	require.NoError(t, err)
	assert.Equal(t, 128.0, out["storage"], "undecodable values are kept as sent")
}

func TestShapeChecks(t *testing.T) {
	s := Compile(append(smartphones(), bind(weight, false, 3)), WithShapeChecks())
	assert.True(t, s.Strict())

	res := s.Validate(map[string]interface{}{
		"storage": "512gb-id",
		"color":   []interface{}{"black-id", 4.0},
		"weight":  "heavy",
	})
	require.False(t, res.Valid)
	errs := res.FieldErrors()
	assert.Equal(t, apperror.CodeUnknownValue, errs["storage"].Code)
	assert.Equal(t, apperror.CodeInvalidShape, errs["color"].Code)
	assert.Equal(t, apperror.CodeInvalidShape, errs["weight"].Code)
	assert.Equal(t, []string{"storage", "color", "weight"}, []string{res.Errors[0].Field, res.Errors[1].Field, res.Errors[2].Field})

	err := res.Err()
	assert.True(t, apperror.IsValidation(err))
	assert.Len(t, apperror.FieldsOf(err), 3)
}

func TestSmartphonesScenario(t *testing.T) {
	s := Compile(smartphones(), WithShapeChecks())

	_, err := s.Normalize(map[string]interface{}{"storage": "", "color": []interface{}{}})
	require.Error(t, err)
	fields := apperror.FieldsOf(err)
	require.Len(t, fields, 1)
	assert.Equal(t, "storage", fields[0].Field)

	out, err := s.Normalize(map[string]interface{}{
		"storage": "128gb-id",
		"color":   []interface{}{"black-id", "Teal"},
	})
	require.NoError(t, err)
	assert.Equal(t, "128gb-id", out["storage"])
	assert.Equal(t, []string{"black-id", "Teal"}, out["color"])

	entries := codec.DisplayEntries(color, codec.Value{Type: model.AttributeTypeMultiSelect, List: out["color"].([]string)})
	assert.Equal(t, []string{"Black", "Teal"}, entries)
}

func TestNormalizeDropsUnknownAndEmptyOptional(t *testing.T) {
	s := Compile(smartphones())
	out, err := s.Normalize(map[string]interface{}{
		"storage": "64gb-id",
		"color":   []interface{}{},
		"legacy":  "whatever",
	})
	require.NoError(t, err)
	assert.Equal(t, model.AttributeValueMap{"storage": "64gb-id"}, out)
}

func TestRenderListOrderAndRangeExclusion(t *testing.T) {
	bindings := []model.CategoryAttribute{
		bind(weight, false, 2),
		bind(priceBand, false, 1),
		bind(color, false, 2),
		bind(storage, true, 3),
	}
	s := Compile(bindings)

	var ids []string
	for _, f := range s.Fields() {
		ids = append(ids, f.AttributeID)
	}
	assert.Equal(t, []string{"color", "weight", "storage"}, ids)
	_, ok := s.Field("price-band")
	assert.False(t, ok)
}

func TestCompilationIsIdempotent(t *testing.T) {
	bindings := append(smartphones(), bind(weight, false, 3), bind(waterproof, true, 4))

	first := Compile(bindings)
	res := first.Validate(map[string]interface{}{"storage": "64gb-id", "weight": 180.0})
	require.True(t, res.Valid)

	second := Compile(bindings)
	assert.Equal(t, first.Fields(), second.Fields())
	assert.Equal(t, first.Describe(), second.Describe())
}

func TestEmptySchema(t *testing.T) {
	for _, s := range []*CompiledSchema{Compile(nil), Compile([]model.CategoryAttribute{}), Empty()} {
		assert.True(t, s.Hidden())
		assert.Empty(t, s.Fields())
		assert.True(t, s.Validate(map[string]interface{}{"anything": nil}).Valid)
		out, err := s.Normalize(map[string]interface{}{"anything": 1})
		require.NoError(t, err)
		assert.Empty(t, out)
	}
}

func TestUnresolvedBindingsAreSkipped(t *testing.T) {
	s := Compile([]model.CategoryAttribute{{AttributeID: "pending", IsRequired: true, SortOrder: 1}})
	assert.True(t, s.Hidden())
	assert.True(t, s.Validate(nil).Valid)
}

func TestDescribe(t *testing.T) {
	s := Compile(append(smartphones(), bind(weight, false, 3), bind(waterproof, false, 4)))
	ds := s.Describe()
	require.Len(t, ds, 4)

	assert.Equal(t, codec.WidgetSelect, ds[0].Widget)
	assert.True(t, ds[0].Required)
	assert.Equal(t, "GB", ds[0].Unit)
	assert.Equal(t, "", ds[0].Default)
	assert.Len(t, ds[0].Choices, 3)

	assert.Equal(t, codec.WidgetTags, ds[1].Widget)
	assert.True(t, ds[1].AllowCustom)
	assert.Equal(t, []Choice{{ID: "black-id", Label: "Black"}, {ID: "white-id", Label: "White"}}, ds[1].Choices)
	assert.Equal(t, []string{}, ds[1].Default)

	assert.Equal(t, codec.WidgetNumber, ds[2].Widget)
	assert.Nil(t, ds[2].Default)
	assert.Equal(t, codec.WidgetToggle, ds[3].Widget)
	assert.Equal(t, false, ds[3].Default)

	view := s.View()
	assert.False(t, view.Hidden)
	assert.Len(t, view.Fields, 4)
}

func TestDisplay(t *testing.T) {
	s := Compile(append(smartphones(), bind(weight, false, 3)))
	out := s.Display(map[string]interface{}{
		"storage": "256gb-id",
		"color":   []interface{}{"white-id", "Teal"},
		"weight":  nil,
	})
	require.Len(t, out, 2)
	assert.Equal(t, "256", out[0].Text)
	assert.Equal(t, "White, Teal", out[1].Text)
	assert.Equal(t, []string{"White", "Teal"}, out[1].Entries)
}

type stubSource struct {
	bindings []model.CategoryAttribute
	err      error
}

func (s stubSource) Bindings(context.Context, string) ([]model.CategoryAttribute, error) {
	return s.bindings, s.err
}

func TestCompilerCompileCategory(t *testing.T) {
	c := NewCompiler(stubSource{bindings: smartphones()}, WithShapeChecks())
	s, err := c.CompileCategory(context.Background(), "smartphones")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Strict())

	failing := NewCompiler(stubSource{err: errors.New("boom")})
	_, err = failing.CompileCategory(context.Background(), "smartphones")
	assert.Error(t, err)
}
