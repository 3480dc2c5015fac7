package attribute

import (
	"context"

	"github.com/fekuna/omnipos-attribute-service/internal/attribute/dto"
	"github.com/fekuna/omnipos-attribute-service/internal/model"
)

type Repository interface {
	// Create inserts the attribute together with its values.
	Create(ctx context.Context, attr *model.Attribute) error
	FindByID(ctx context.Context, id string) (*model.Attribute, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Attribute, error)
	FindAll(ctx context.Context, filters *dto.AttributeFilters) ([]model.Attribute, int, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)

	// Update writes the attribute row; when replaceValues is set the value
	// list is replaced by attr.AttributeValues, keeping existing ids.
	Update(ctx context.Context, attr *model.Attribute, replaceValues bool) error

	AddValue(ctx context.Context, value *model.AttributeValue) error
	RemoveValue(ctx context.Context, attributeID, valueID string) error

	// CategoryIDs lists the categories that currently bind the attribute.
	CategoryIDs(ctx context.Context, attributeID string) ([]string, error)

	// DeleteCascade removes every category binding of the attribute and then
	// the attribute itself, in one transaction. Returns the categories that
	// lost a binding.
	DeleteCascade(ctx context.Context, id string) ([]string, error)
}
