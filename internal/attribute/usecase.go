package attribute

import (
	"context"

	"github.com/fekuna/omnipos-attribute-service/internal/attribute/dto"
	"github.com/fekuna/omnipos-attribute-service/internal/model"
)

type UseCase interface {
	CreateAttribute(ctx context.Context, input *dto.CreateAttributeInput) (*model.Attribute, error)
	GetAttribute(ctx context.Context, id string) (*model.Attribute, error)
	ListAttributes(ctx context.Context, filters *dto.AttributeFilters) ([]model.Attribute, int, error)
	UpdateAttribute(ctx context.Context, input *dto.UpdateAttributeInput) (*model.Attribute, error)
	DeleteAttribute(ctx context.Context, id string) (*dto.DeleteAttributeResult, error)

	// Value ops
	AddValue(ctx context.Context, attributeID, value string) (*dto.AddValueResult, error)
	RemoveValue(ctx context.Context, attributeID, valueID string) error
}

// SchemaInvalidator drops cached category schemas that embed an attribute.
type SchemaInvalidator interface {
	InvalidateCategories(ctx context.Context, categoryIDs ...string) error
}
