// Package codec implements the per-type parse, format and compare rules for
// attribute values. Every operation dispatches on model.AttributeType with an
// exhaustive switch; an unknown type is always an error, never a fallthrough.
package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/fekuna/omnipos-attribute-service/internal/apperror"
	"github.com/fekuna/omnipos-attribute-service/internal/model"
)

// Range is the RANGE payload. RANGE attributes are filter-only.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Value is a tagged union over AttributeType. Only the fields belonging to
// Type are meaningful:
//
//	TEXT          Text
//	NUMBER        Number, HasNumber (false is the empty sentinel)
//	BOOLEAN       Bool
//	SELECT        Text (an AttributeValue id)
//	MULTI_SELECT  List (AttributeValue ids or free-typed literals)
//	RANGE         Range
type Value struct {
	Type      model.AttributeType
	Text      string
	Number    float64
	HasNumber bool
	Bool      bool
	List      []string
	Range     Range
}

type Widget string

const (
	WidgetText   Widget = "text"
	WidgetNumber Widget = "number"
	WidgetToggle Widget = "toggle"
	WidgetSelect Widget = "select"
	WidgetTags   Widget = "tags"
	WidgetRange  Widget = "range"
)

func unknownType(t model.AttributeType) error {
	return apperror.New(apperror.KindInternal, apperror.CodeUnexpected, fmt.Sprintf("unknown attribute type %q", t))
}

func shapeError(attr *model.Attribute, want string, got interface{}) error {
	return apperror.NewValidation(apperror.CodeInvalidShape, attr.ID,
		fmt.Sprintf("%s expects %s, got %T", attr.Name, want, got))
}

// WidgetFor returns the input widget contract for t.
func WidgetFor(t model.AttributeType) (Widget, error) {
	switch t {
	case model.AttributeTypeText:
		return WidgetText, nil
	case model.AttributeTypeNumber:
		return WidgetNumber, nil
	case model.AttributeTypeBoolean:
		return WidgetToggle, nil
	case model.AttributeTypeSelect:
		return WidgetSelect, nil
	case model.AttributeTypeMultiSelect:
		return WidgetTags, nil
	case model.AttributeTypeRange:
		return WidgetRange, nil
	default:
		return "", unknownType(t)
	}
}

// Default is the value a freshly rendered field starts with.
func Default(t model.AttributeType) Value {
	return Value{Type: t}
}

// Decode turns a JSON-decoded value (string, float64, json.Number, bool,
// []interface{}, map[string]interface{} or nil) into a typed Value for attr.
// nil decodes to the type's empty value.
func Decode(attr *model.Attribute, raw interface{}) (Value, error) {
	v := Value{Type: attr.Type}

	switch attr.Type {
	case model.AttributeTypeText, model.AttributeTypeSelect:
		switch r := raw.(type) {
		case nil:
		case string:
			v.Text = r
		default:
			return v, shapeError(attr, "a string", raw)
		}

	case model.AttributeTypeNumber:
		switch r := raw.(type) {
		case nil:
		case float64:
			v.Number, v.HasNumber = finite(r)
		case float32:
			v.Number, v.HasNumber = finite(float64(r))
		case int:
			v.Number, v.HasNumber = float64(r), true
		case int64:
			v.Number, v.HasNumber = float64(r), true
		case json.Number:
			v.Number, v.HasNumber = ParseNumber(r.String())
		case string:
			v.Number, v.HasNumber = ParseNumber(r)
		default:
			return v, shapeError(attr, "a number", raw)
		}

	case model.AttributeTypeBoolean:
		switch r := raw.(type) {
		case nil:
		case bool:
			v.Bool = r
		case string:
			if strings.TrimSpace(r) == "" {
				break
			}
			b, err := strconv.ParseBool(strings.TrimSpace(r))
			if err != nil {
				return v, shapeError(attr, "a boolean", raw)
			}
			v.Bool = b
		default:
			return v, shapeError(attr, "a boolean", raw)
		}

	case model.AttributeTypeMultiSelect:
		var entries []string
		switch r := raw.(type) {
		case nil:
		case []string:
			entries = r
		case []interface{}:
			entries = make([]string, 0, len(r))
			for _, item := range r {
				s, ok := item.(string)
				if !ok {
					return v, shapeError(attr, "an array of strings", raw)
				}
				entries = append(entries, s)
			}
		default:
			return v, shapeError(attr, "an array of strings", raw)
		}
		v.List = dedupe(entries)

	case model.AttributeTypeRange:
		r, err := decodeRange(attr, raw)
		if err != nil {
			return v, err
		}
		v.Range = r

	default:
		return v, unknownType(attr.Type)
	}

	return v, nil
}

// Encode returns the storage representation of v. An empty NUMBER encodes
// to nil so NaN never reaches storage.
func Encode(v Value) (interface{}, error) {
	switch v.Type {
	case model.AttributeTypeText, model.AttributeTypeSelect:
		return v.Text, nil
	case model.AttributeTypeNumber:
		if !v.HasNumber {
			return nil, nil
		}
		return v.Number, nil
	case model.AttributeTypeBoolean:
		return v.Bool, nil
	case model.AttributeTypeMultiSelect:
		out := make([]string, len(v.List))
		copy(out, v.List)
		return out, nil
	case model.AttributeTypeRange:
		return map[string]interface{}{"min": v.Range.Min, "max": v.Range.Max}, nil
	default:
		return nil, unknownType(v.Type)
	}
}

// IsEmpty implements the required-field check. Booleans are never empty and
// RANGE is not collected on product forms, so it never counts as empty.
func IsEmpty(v Value) bool {
	switch v.Type {
	case model.AttributeTypeText, model.AttributeTypeSelect:
		return v.Text == ""
	case model.AttributeTypeNumber:
		return !v.HasNumber
	case model.AttributeTypeBoolean:
		return false
	case model.AttributeTypeMultiSelect:
		return len(v.List) == 0
	case model.AttributeTypeRange:
		return false
	default:
		return true
	}
}

// Equal compares two values of the same type. MULTI_SELECT compares as a set.
func Equal(a, b Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case model.AttributeTypeText, model.AttributeTypeSelect:
		return a.Text == b.Text
	case model.AttributeTypeNumber:
		if a.HasNumber != b.HasNumber {
			return false
		}
		return !a.HasNumber || a.Number == b.Number
	case model.AttributeTypeBoolean:
		return a.Bool == b.Bool
	case model.AttributeTypeMultiSelect:
		if len(a.List) != len(b.List) {
			return false
		}
		as, bs := sortedCopy(a.List), sortedCopy(b.List)
		for i := range as {
			if as[i] != bs[i] {
				return false
			}
		}
		return true
	case model.AttributeTypeRange:
		return a.Range == b.Range
	default:
		return false
	}
}

// ResolveEntry resolves a SELECT/MULTI_SELECT entry against the attribute's
// vocabulary by id. Unmatched entries are free text shown verbatim.
func ResolveEntry(attr *model.Attribute, entry string) (display string, predefined bool) {
	if av, ok := attr.FindValue(entry); ok {
		return av.Value, true
	}
	return entry, false
}

// DisplayEntries returns one display string per selected entry.
func DisplayEntries(attr *model.Attribute, v Value) []string {
	switch v.Type {
	case model.AttributeTypeMultiSelect:
		out := make([]string, 0, len(v.List))
		for _, e := range v.List {
			d, _ := ResolveEntry(attr, e)
			out = append(out, d)
		}
		return out
	default:
		s := Display(attr, v)
		if s == "" {
			return nil
		}
		return []string{s}
	}
}

// Display formats v for humans, appending the attribute unit to numbers.
func Display(attr *model.Attribute, v Value) string {
	switch v.Type {
	case model.AttributeTypeText:
		return v.Text
	case model.AttributeTypeSelect:
		if v.Text == "" {
			return ""
		}
		d, _ := ResolveEntry(attr, v.Text)
		return d
	case model.AttributeTypeNumber:
		if !v.HasNumber {
			return ""
		}
		return withUnit(FormatNumber(v.Number), attr.Unit)
	case model.AttributeTypeBoolean:
		if v.Bool {
			return "Yes"
		}
		return "No"
	case model.AttributeTypeMultiSelect:
		return strings.Join(DisplayEntries(attr, v), ", ")
	case model.AttributeTypeRange:
		return withUnit(FormatNumber(v.Range.Min)+" - "+FormatNumber(v.Range.Max), attr.Unit)
	default:
		return ""
	}
}

// ParseNumber parses user-typed numeric text. Anything that is not a finite
// number, including "", returns ok=false.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ClampRange bounds r by the attribute's MinValue/MaxValue.
func ClampRange(attr *model.Attribute, r Range) Range {
	if attr.MinValue != nil && r.Min < *attr.MinValue {
		r.Min = *attr.MinValue
	}
	if attr.MaxValue != nil && r.Max > *attr.MaxValue {
		r.Max = *attr.MaxValue
	}
	return r
}

func decodeRange(attr *model.Attribute, raw interface{}) (Range, error) {
	var r Range
	if raw == nil {
		if attr.MinValue != nil {
			r.Min = *attr.MinValue
		}
		if attr.MaxValue != nil {
			r.Max = *attr.MaxValue
		}
		return r, nil
	}

	switch m := raw.(type) {
	case Range:
		r = m
	case map[string]interface{}:
		lo, okLo := numberOf(m["min"])
		hi, okHi := numberOf(m["max"])
		if !okLo || !okHi {
			return r, shapeError(attr, "an object with numeric min and max", raw)
		}
		r = Range{Min: lo, Max: hi}
	default:
		return r, shapeError(attr, "an object with numeric min and max", raw)
	}

	if r.Min > r.Max {
		return r, apperror.NewValidation(apperror.CodeOutOfRange, attr.ID, "range min is greater than max")
	}
	return ClampRange(attr, r), nil
}

func numberOf(raw interface{}) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return finite(n)
	case int:
		return float64(n), true
	case json.Number:
		return ParseNumber(n.String())
	case string:
		return ParseNumber(n)
	default:
		return 0, false
	}
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func withUnit(s string, unit *string) string {
	if unit == nil || *unit == "" {
		return s
	}
	return s + " " + *unit
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
