// Package apperror defines the error taxonomy shared by the catalog
// components. Every domain error carries a kind, a stable code and, for
// field-level problems, the attribute or field it refers to.
package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

type Kind string

const (
	KindValidation  Kind = "VALIDATION"
	KindConflict    Kind = "CONFLICT"
	KindUnsupported Kind = "UNSUPPORTED"
	KindNotFound    Kind = "NOT_FOUND"
	KindInternal    Kind = "INTERNAL"
)

const (
	// Validation codes
	CodeRequired       = "REQUIRED"
	CodeInvalidShape   = "INVALID_SHAPE"
	CodeMissingValues  = "MISSING_VALUES"
	CodeInvalidInput   = "INVALID_INPUT"
	CodeSlugTaken      = "SLUG_TAKEN"
	CodeOutOfRange     = "OUT_OF_RANGE"
	CodeUnknownValue   = "UNKNOWN_VALUE"
	CodeSchemaMismatch = "SCHEMA_MISMATCH"

	// Conflict codes
	CodeAlreadyAssigned  = "ALREADY_ASSIGNED"
	CodeDuplicateVariant = "DUPLICATE_VARIANT"
	CodeDuplicateSKU     = "DUPLICATE_SKU"

	// Unsupported codes
	CodeUnsupportedDimensionType = "UNSUPPORTED_DIMENSION_TYPE"

	// Not found codes
	CodeAttributeNotFound = "ATTRIBUTE_NOT_FOUND"
	CodeValueNotFound     = "VALUE_NOT_FOUND"
	CodeCategoryNotFound  = "CATEGORY_NOT_FOUND"
	CodeBindingNotFound   = "BINDING_NOT_FOUND"
	CodeProductNotFound   = "PRODUCT_NOT_FOUND"

	CodeUnexpected = "UNEXPECTED"
)

// FieldError is a single failed rule, keyed by attribute id or form field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Field   string
	Fields  []FieldError
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on kind and code so sentinels like ErrAlreadyAssigned work with
// errors.Is regardless of message or field.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind && e.Code == t.Code
	}
	return false
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Wrap(kind Kind, code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Cause: cause}
}

var (
	ErrAlreadyAssigned          = New(KindConflict, CodeAlreadyAssigned, "attribute already assigned to category")
	ErrUnsupportedDimensionType = New(KindUnsupported, CodeUnsupportedDimensionType, "attribute cannot be a variant dimension")
	ErrDuplicateVariant         = New(KindConflict, CodeDuplicateVariant, "variant combination already exists")
	ErrAttributeNotFound        = New(KindNotFound, CodeAttributeNotFound, "attribute not found")
	ErrCategoryNotFound         = New(KindNotFound, CodeCategoryNotFound, "category not found")
	ErrProductNotFound          = New(KindNotFound, CodeProductNotFound, "product not found")
)

func NewValidation(code, field, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Field: field, Message: message}
}

// NewValidationFields collapses several field failures into one error.
func NewValidationFields(fields []FieldError) *Error {
	msg := "validation failed"
	if len(fields) == 1 {
		msg = fields[0].Message
	} else if len(fields) > 1 {
		msg = fmt.Sprintf("validation failed on %d fields", len(fields))
	}
	return &Error{Kind: KindValidation, Code: CodeSchemaMismatch, Message: msg, Fields: fields}
}

func NewAlreadyAssigned(categoryID, attributeID string) *Error {
	return &Error{
		Kind:    KindConflict,
		Code:    CodeAlreadyAssigned,
		Field:   attributeID,
		Message: fmt.Sprintf("attribute %s already assigned to category %s", attributeID, categoryID),
	}
}

func NewUnsupportedDimensionType(attributeID, attrType string) *Error {
	return &Error{
		Kind:    KindUnsupported,
		Code:    CodeUnsupportedDimensionType,
		Field:   attributeID,
		Message: fmt.Sprintf("attribute of type %s cannot be a variant dimension", attrType),
	}
}

func NewNotFound(code, id string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Field: id, Message: "not found"}
}

func NewInternal(message string, cause error) *Error {
	return Wrap(KindInternal, CodeUnexpected, message, cause)
}

func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// FieldsOf returns the per-field failures carried by err, or a single entry
// built from a field-scoped error.
func FieldsOf(err error) []FieldError {
	var ae *Error
	if !errors.As(err, &ae) {
		return nil
	}
	if len(ae.Fields) > 0 {
		return ae.Fields
	}
	if ae.Field != "" {
		return []FieldError{{Field: ae.Field, Code: ae.Code, Message: ae.Message}}
	}
	return nil
}

func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	case KindUnsupported:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func GRPCCode(err error) codes.Code {
	switch KindOf(err) {
	case KindValidation, KindUnsupported:
		return codes.InvalidArgument
	case KindConflict:
		return codes.AlreadyExists
	case KindNotFound:
		return codes.NotFound
	default:
		return codes.Internal
	}
}
