// Package schema compiles a category's attribute bindings into the contract a
// product form is held to: an ordered render list plus a validator over the
// product's attributeId -> value map.
package schema

import (
	"context"

	"github.com/fekuna/omnipos-attribute-service/internal/apperror"
	"github.com/fekuna/omnipos-attribute-service/internal/attribute/codec"
	"github.com/fekuna/omnipos-attribute-service/internal/category/binding"
	"github.com/fekuna/omnipos-attribute-service/internal/model"
)

// Field is one entry of the render list.
type Field struct {
	AttributeID string           `json:"attributeId"`
	Attribute   *model.Attribute `json:"attribute"`
	IsRequired  bool             `json:"isRequired"`
	SortOrder   int              `json:"sortOrder"`
}

type ValidationResult struct {
	Valid  bool                  `json:"valid"`
	Errors []apperror.FieldError `json:"errors,omitempty"`
}

// Err returns the result as a validation error, or nil when it passed.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return apperror.NewValidationFields(r.Errors)
}

// FieldErrors indexes the failures by attribute id.
func (r ValidationResult) FieldErrors() map[string]apperror.FieldError {
	out := make(map[string]apperror.FieldError, len(r.Errors))
	for _, fe := range r.Errors {
		out[fe.Field] = fe
	}
	return out
}

type options struct {
	shapeChecks bool
}

type Option func(*options)

// WithShapeChecks makes Validate check present values against their
// attribute type and SELECT values against the attribute's vocabulary.
// Without it only required-ness is checked.
func WithShapeChecks() Option {
	return func(o *options) { o.shapeChecks = true }
}

// CompiledSchema is immutable once built and safe for concurrent use.
type CompiledSchema struct {
	fields []Field
	byID   map[string]int
	opts   options
}

// Compile builds the schema for bindings. Bindings whose attribute has not
// been resolved yet and RANGE bindings (filter-only) are left out. A nil or
// empty list gives the empty schema.
func Compile(bindings []model.CategoryAttribute, opts ...Option) *CompiledSchema {
	s := &CompiledSchema{byID: map[string]int{}}
	for _, opt := range opts {
		opt(&s.opts)
	}

	for _, b := range binding.Sorted(bindings) {
		if b.Attribute == nil || b.Attribute.Type == model.AttributeTypeRange {
			continue
		}
		if _, dup := s.byID[b.AttributeID]; dup {
			continue
		}
		s.byID[b.AttributeID] = len(s.fields)
		s.fields = append(s.fields, Field{
			AttributeID: b.AttributeID,
			Attribute:   b.Attribute,
			IsRequired:  b.IsRequired,
			SortOrder:   b.SortOrder,
		})
	}
	return s
}

// Empty is the schema of a category without bindings, also used when the
// bindings could not be loaded.
func Empty() *CompiledSchema {
	return Compile(nil)
}

// Fields returns the render list in display order.
func (s *CompiledSchema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

func (s *CompiledSchema) Len() int {
	return len(s.fields)
}

// Hidden reports that the attributes section should not be shown at all.
func (s *CompiledSchema) Hidden() bool {
	return len(s.fields) == 0
}

func (s *CompiledSchema) Strict() bool {
	return s.opts.shapeChecks
}

func (s *CompiledSchema) Field(attributeID string) (Field, bool) {
	i, ok := s.byID[attributeID]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Validate checks values against the schema. Failures are reported in
// render order, at most one per attribute.
func (s *CompiledSchema) Validate(values map[string]interface{}) ValidationResult {
	res := ValidationResult{Valid: true}
	for _, f := range s.fields {
		if fe, failed := s.check(f, values[f.AttributeID]); failed {
			res.Valid = false
			res.Errors = append(res.Errors, fe)
		}
	}
	return res
}

func (s *CompiledSchema) check(f Field, raw interface{}) (apperror.FieldError, bool) {
	v, err := codec.Decode(f.Attribute, raw)
	if err != nil {
		if s.opts.shapeChecks {
			return fieldError(f, apperror.CodeOf(err), err), true
		}
		// Permissive: an undecodable value still counts as provided.
		if f.IsRequired && rawEmpty(raw) {
			return requiredError(f), true
		}
		return apperror.FieldError{}, false
	}

	if f.IsRequired && codec.IsEmpty(v) {
		return requiredError(f), true
	}
	if !s.opts.shapeChecks {
		return apperror.FieldError{}, false
	}

	switch f.Attribute.Type {
	case model.AttributeTypeNumber:
		if !v.HasNumber && !rawEmpty(raw) {
			return apperror.FieldError{
				Field:   f.AttributeID,
				Code:    apperror.CodeInvalidShape,
				Message: f.Attribute.Name + " must be a number",
			}, true
		}
	case model.AttributeTypeSelect:
		if v.Text != "" {
			if _, ok := f.Attribute.FindValue(v.Text); !ok {
				return apperror.FieldError{
					Field:   f.AttributeID,
					Code:    apperror.CodeUnknownValue,
					Message: f.Attribute.Name + " has no value " + v.Text,
				}, true
			}
		}
	}
	return apperror.FieldError{}, false
}

// Normalize validates values and converts them to their storage form. Keys
// that are not part of the schema are dropped, as are empty optional values.
// BOOLEAN fields are always stored.
func (s *CompiledSchema) Normalize(values map[string]interface{}) (model.AttributeValueMap, error) {
	if res := s.Validate(values); !res.Valid {
		return nil, res.Err()
	}

	out := model.AttributeValueMap{}
	for _, f := range s.fields {
		raw, present := values[f.AttributeID]
		v, err := codec.Decode(f.Attribute, raw)
		if err != nil {
			// Only reachable without shape checks; keep what was sent.
			if present {
				out[f.AttributeID] = raw
			}
			continue
		}
		if codec.IsEmpty(v) {
			continue
		}
		enc, err := codec.Encode(v)
		if err != nil {
			return nil, err
		}
		out[f.AttributeID] = enc
	}
	return out, nil
}

// Values decodes the stored map into typed values for the schema's fields.
// Entries that do not decode are skipped.
func (s *CompiledSchema) Values(stored map[string]interface{}) map[string]codec.Value {
	out := make(map[string]codec.Value, len(s.fields))
	for _, f := range s.fields {
		raw, ok := stored[f.AttributeID]
		if !ok {
			continue
		}
		v, err := codec.Decode(f.Attribute, raw)
		if err != nil {
			continue
		}
		out[f.AttributeID] = v
	}
	return out
}

// BindingSource loads the resolved bindings of a category.
type BindingSource interface {
	Bindings(ctx context.Context, categoryID string) ([]model.CategoryAttribute, error)
}

// Compiler compiles schemas for categories loaded from a BindingSource.
type Compiler struct {
	source BindingSource
	opts   []Option
}

func NewCompiler(source BindingSource, opts ...Option) *Compiler {
	return &Compiler{source: source, opts: opts}
}

func (c *Compiler) CompileCategory(ctx context.Context, categoryID string) (*CompiledSchema, error) {
	bindings, err := c.source.Bindings(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	return Compile(bindings, c.opts...), nil
}

func requiredError(f Field) apperror.FieldError {
	return apperror.FieldError{
		Field:   f.AttributeID,
		Code:    apperror.CodeRequired,
		Message: f.Attribute.Name + " is required",
	}
}

func fieldError(f Field, code string, err error) apperror.FieldError {
	if code == "" {
		code = apperror.CodeInvalidShape
	}
	msg := err.Error()
	if ae, ok := err.(*apperror.Error); ok {
		msg = ae.Message
	}
	return apperror.FieldError{Field: f.AttributeID, Code: code, Message: msg}
}

// rawEmpty is the type-agnostic emptiness rule: missing, nil, "" or an
// empty array.
func rawEmpty(raw interface{}) bool {
	switch r := raw.(type) {
	case nil:
		return true
	case string:
		return r == ""
	case []interface{}:
		return len(r) == 0
	case []string:
		return len(r) == 0
	default:
		return false
	}
}
